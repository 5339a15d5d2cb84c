// Package owner implements an access service where a credential belongs to a
// single address.
//
// The owner is set once with Grant and can only be changed by the current
// owner with Transfer. Every rule of the credential is allowed to the owner.
package owner

import (
	"go.dedis.ch/coursemarket/core/access"
	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/core/store/prefixed"
	"go.dedis.ch/coursemarket/crypto"
	"golang.org/x/xerrors"
)

// ServiceName is the keyspace of the service in the store.
const ServiceName = "go.dedis.ch/coursemarket.Owner"

// Service is the owner access service.
//
// - implements access.Service
type Service struct{}

// NewService returns a new owner access service.
func NewService() Service {
	return Service{}
}

// GetOwner returns the address of the owner of the credential. It returns an
// error if no owner has been granted yet.
func (srvc Service) GetOwner(r store.Readable, creds access.Credential) (crypto.Address, error) {
	value, err := prefixed.NewReadable(ServiceName, r).Get(creds.GetID())
	if err != nil {
		return crypto.Address{}, xerrors.Errorf("failed to read owner: %v", err)
	}

	if value == nil {
		return crypto.Address{}, xerrors.Errorf("no owner for '%#x'", creds.GetID())
	}

	owner, err := crypto.NewAddress(value)
	if err != nil {
		return crypto.Address{}, xerrors.Errorf("corrupted owner: %v", err)
	}

	return owner, nil
}

// Match implements access.Service. It returns nil if one of the identities is
// the owner of the credential.
func (srvc Service) Match(r store.Readable, creds access.Credential, idents ...access.Identity) error {
	owner, err := srvc.GetOwner(r, creds)
	if err != nil {
		return xerrors.Errorf("store failed: %v", err)
	}

	for _, ident := range idents {
		addr, err := crypto.AddressOf(ident)
		if err != nil {
			return xerrors.Errorf("invalid identity: %v", err)
		}

		if addr == owner {
			return nil
		}
	}

	return xerrors.Errorf("%v is refused to '%s' by owner %v",
		idents, creds.GetRule(), owner)
}

// Grant implements access.Service. It sets the single identity as the owner of
// the credential. The owner can only be granted once.
func (srvc Service) Grant(snap store.Snapshot, creds access.Credential, idents ...access.Identity) error {
	if len(idents) != 1 {
		return xerrors.Errorf("expect a single identity but got %d", len(idents))
	}

	addr, err := crypto.AddressOf(idents[0])
	if err != nil {
		return xerrors.Errorf("invalid identity: %v", err)
	}

	current, err := prefixed.NewReadable(ServiceName, snap).Get(creds.GetID())
	if err != nil {
		return xerrors.Errorf("failed to read owner: %v", err)
	}

	if current != nil {
		return xerrors.Errorf("owner of '%#x' already granted", creds.GetID())
	}

	return srvc.write(snap, creds, addr)
}

// Transfer replaces the owner of the credential. The identity must be the
// current owner.
func (srvc Service) Transfer(snap store.Snapshot, creds access.Credential,
	ident access.Identity, to crypto.Address) error {

	err := srvc.Match(snap, creds, ident)
	if err != nil {
		return xerrors.Errorf("transfer refused: %v", err)
	}

	return srvc.write(snap, creds, to)
}

func (srvc Service) write(snap store.Snapshot, creds access.Credential, addr crypto.Address) error {
	err := prefixed.NewSnapshot(ServiceName, snap).Set(creds.GetID(), addr[:])
	if err != nil {
		return xerrors.Errorf("failed to write owner: %v", err)
	}

	return nil
}
