package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContractCredentials_GetID(t *testing.T) {
	id := []byte("course.owner")
	creds := NewContractCreds(id, "go.dedis.ch/coursemarket.Course", "activate")

	got := creds.GetID()
	require.Equal(t, []byte("course.owner"), got)

	// The identifier is a copy.
	got[0] = 'x'
	require.Equal(t, []byte("course.owner"), creds.GetID())
}

func TestContractCredentials_GetRule(t *testing.T) {
	var creds Credential = NewContractCreds(nil, "go.dedis.ch/coursemarket.Course", "activate")

	require.Equal(t, "go.dedis.ch/coursemarket.Course:activate", creds.GetRule())
}
