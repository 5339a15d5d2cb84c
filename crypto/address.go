package crypto

import (
	"encoding"
	"encoding/hex"
	"strings"

	"golang.org/x/xerrors"
)

// AddressLength is the number of bytes of an address.
const AddressLength = 20

// Address is the short identifier of an identity. It is derived from the
// public key the same way an Ethereum account is: the last 20 bytes of the
// Keccak-256 digest of the key.
type Address [AddressLength]byte

// AddressOf returns the address of the identity.
func AddressOf(ident encoding.BinaryMarshaler) (Address, error) {
	var addr Address

	data, err := ident.MarshalBinary()
	if err != nil {
		return addr, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	digest := Keccak(data)
	copy(addr[:], digest[len(digest)-AddressLength:])

	return addr, nil
}

// NewAddress returns the address stored in the bytes, which must be exactly
// 20 bytes long.
func NewAddress(data []byte) (Address, error) {
	var addr Address

	if len(data) != AddressLength {
		return addr, xerrors.Errorf("invalid address length: %d", len(data))
	}

	copy(addr[:], data)

	return addr, nil
}

// ParseAddress parses the hexadecimal form of an address, with or without the
// 0x prefix.
func ParseAddress(text string) (Address, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
	if err != nil {
		return Address{}, xerrors.Errorf("malformed address: %v", err)
	}

	return NewAddress(data)
}

// IsZero returns true for the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler. It returns the 0x prefixed
// hexadecimal form of the address.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}
