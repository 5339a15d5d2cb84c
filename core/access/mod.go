// Package access defines the interfaces for the access control of the
// contracts.
package access

import (
	"encoding"

	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/serde"
)

// Identity is an abstraction to uniquely identify a signer.
type Identity interface {
	serde.Message
	encoding.TextMarshaler
	encoding.BinaryMarshaler
}

// Credential is an abstraction of an entity that allows one or several
// identities to access a given scope.
type Credential interface {
	// GetID returns the identifier for the credential.
	GetID() []byte

	// GetRule returns the rule for the credential.
	GetRule() string
}

// Service is the interface for an access service that can verify if a set of
// identities is allowed to use a credential, and grant access to it.
type Service interface {
	// Match returns nil if the identities can access the credential, otherwise
	// it returns an error.
	Match(store store.Readable, creds Credential, idents ...Identity) error

	// Grant updates the store so that the identities can access the
	// credential.
	Grant(store store.Snapshot, creds Credential, idents ...Identity) error
}
