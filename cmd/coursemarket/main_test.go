package main

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/coursemarket/cli/node"
)

const testProof = "0x0101010101010101010101010101010101010101010101010101010101010101"

func TestCoursemarket_Scenario(t *testing.T) {
	dir := t.TempDir()

	sigs := make(chan os.Signal)
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()

		err := runWithCfg([]string{os.Args[0], "--config", dir, "start",
			"--network", "ganache"}, config{Channel: sigs, Writer: io.Discard})
		require.NoError(t, err)
	}()

	defer func() {
		// Simulate a Ctrl+C
		close(sigs)
		wg.Wait()
	}()

	waitDaemon(t, dir)

	out, err := runCmd(dir, "ordering", "info")
	require.NoError(t, err)
	require.Contains(t, out, "Address: 0x")

	nodeAddr := strings.TrimPrefix(strings.Split(out, "\n")[0], "Address: ")

	out, err = runCmd(dir, "course", "owner")
	require.NoError(t, err)
	require.Equal(t, nodeAddr+"\n", out)

	out, err = runCmd(dir, "course", "purchase", "--id", "intro",
		"--proof", testProof, "--value", "10")
	require.NoError(t, err)
	require.Contains(t, out, "accepted")

	hash := strings.TrimSpace(strings.TrimPrefix(strings.Split(out, "\n")[1], "Course: "))

	out, err = runCmd(dir, "course", "count")
	require.NoError(t, err)
	require.Equal(t, "1\n", out)

	out, err = runCmd(dir, "course", "at", "--index", "0")
	require.NoError(t, err)
	require.Equal(t, hash+"\n", out)

	_, err = runCmd(dir, "course", "activate", "--hash", hash)
	require.NoError(t, err)

	out, err = runCmd(dir, "course", "show", "--hash", hash)
	require.NoError(t, err)
	require.Contains(t, out, `"state":1`)

	_, err = runCmd(dir, "course", "purchase", "--id", "intro",
		"--proof", testProof)
	require.Error(t, err)
	require.Contains(t, err.Error(), "transaction refused: ")

	out, err = runCmd(dir, "course", "wallet")
	require.NoError(t, err)
	require.Contains(t, out, "Network: ganache (supported: true)")

	_, err = runCmd(dir, "course", "show")
	require.EqualError(t, err, `Required flag "hash" not set`)
}

// -----------------------------------------------------------------------------
// Utility functions

func runCmd(dir string, args ...string) (string, error) {
	buffer := new(bytes.Buffer)

	args = append([]string{os.Args[0], "--config", dir}, args...)

	err := runWithCfg(args, config{Writer: buffer})

	return buffer.String(), err
}

func waitDaemon(t *testing.T, dir string) {
	num := 50

	for i := 0; i < num; i++ {
		// Windows: we have to check the file as Dial on Windows creates the
		// file and prevent to listen.
		_, err := os.Stat(filepath.Join(dir, node.SocketName))
		if !os.IsNotExist(err) {
			conn, err := net.Dial("unix", filepath.Join(dir, node.SocketName))
			if err == nil {
				conn.Close()
				return
			}
		}

		time.Sleep(30 * time.Millisecond)
	}

	t.Fatal("timeout")
}
