package command

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/crypto/ed25519"
	"golang.org/x/xerrors"
)

const (
	// Address is the format displaying the account address of the key.
	Address = "ADDRESS"
	// Pubkey is the format displaying the public key as text.
	Pubkey = "PUBKEY"
	// Base64Pubkey is the format displaying the public key in base64.
	Base64Pubkey = "BASE64_PUBKEY"
)

type action struct {
	printer io.Writer

	genSigner func() ([]byte, error)
	getSigner func([]byte) (ed25519.Signer, error)

	readFile func(filename string) ([]byte, error)
	saveFile func(path string, force bool, data []byte) error
}

func (a action) newKeyAction(flags cli.Flags) error {
	data, err := a.genSigner()
	if err != nil {
		return xerrors.Errorf("failed to generate key: %v", err)
	}

	text := []byte(hex.EncodeToString(data))

	if flags.String("save") == "" {
		fmt.Fprintln(a.printer, string(text))
		return nil
	}

	err = a.saveFile(flags.String("save"), flags.Bool("force"), text)
	if err != nil {
		return xerrors.Errorf("failed to save file: %v", err)
	}

	return nil
}

func (a action) showKeyAction(flags cli.Flags) error {
	text, err := a.readFile(flags.Path("path"))
	if err != nil {
		return xerrors.Errorf("failed to read data: %v", err)
	}

	data, err := hex.DecodeString(string(bytes.TrimSpace(text)))
	if err != nil {
		return xerrors.Errorf("malformed key: %v", err)
	}

	signer, err := a.getSigner(data)
	if err != nil {
		return xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	var out string

	switch flags.String("format") {
	case Address:
		addr, err := signer.GetAddress()
		if err != nil {
			return xerrors.Errorf("failed to get address: %v", err)
		}

		out = addr.String()
	case Pubkey:
		buf, err := signer.GetPublicKey().MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal public key: %v", err)
		}

		out = string(buf)
	case Base64Pubkey:
		buf, err := signer.GetPublicKey().MarshalBinary()
		if err != nil {
			return xerrors.Errorf("failed to marshal public key: %v", err)
		}

		out = base64.StdEncoding.EncodeToString(buf)
	default:
		return xerrors.Errorf("unknown format '%s'", flags.String("format"))
	}

	fmt.Fprintln(a.printer, out)

	return nil
}

func saveToFile(path string, force bool, data []byte) error {
	if !force && fileExist(path) {
		return xerrors.Errorf("file '%s' already exists, use --force to "+
			"overwrite", path)
	}

	err := os.WriteFile(path, data, 0600)
	if err != nil {
		return xerrors.Errorf("failed to write file: %v", err)
	}

	return nil
}

func fileExist(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
