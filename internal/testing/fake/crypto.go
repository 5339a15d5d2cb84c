package fake

import (
	"go.dedis.ch/coursemarket/crypto"
	"go.dedis.ch/coursemarket/serde"
)

// PublicKey is a fake implementation of a public key.
//
// - implements crypto.PublicKey
type PublicKey struct {
	// Data is the binary form of the key, which allows tests to use several
	// distinct identities.
	Data []byte

	err error
}

// NewPublicKey returns a public key with the given binary form.
func NewPublicKey(data string) PublicKey {
	return PublicKey{Data: []byte(data)}
}

// NewBadPublicKey returns a public key that fails in every function.
func NewBadPublicKey() PublicKey {
	return PublicKey{err: fakeErr}
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify([]byte, crypto.Signature) error {
	return pk.err
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	o, ok := other.(PublicKey)
	return ok && string(o.Data) == string(pk.Data)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	if pk.err != nil {
		return nil, pk.err
	}

	return append([]byte("PK"), pk.Data...), nil
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	if pk.err != nil {
		return nil, pk.err
	}

	return []byte("fake.PublicKey" + string(pk.Data)), nil
}

// Serialize implements serde.Message.
func (pk PublicKey) Serialize(serde.Context) ([]byte, error) {
	if pk.err != nil {
		return nil, pk.err
	}

	return []byte("{}"), nil
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	return "fake.PublicKey" + string(pk.Data)
}

// Address returns the address of the public key.
func (pk PublicKey) Address() crypto.Address {
	addr, err := crypto.AddressOf(pk)
	if err != nil {
		panic("fake public key without address: " + err.Error())
	}

	return addr
}

// PublicKeyFactory is a fake implementation of a public key factory.
//
// - implements crypto.PublicKeyFactory
type PublicKeyFactory struct {
	pubkey PublicKey
	err    error
}

// NewBadPublicKeyFactory returns a factory that always fails.
func NewBadPublicKeyFactory() PublicKeyFactory {
	return PublicKeyFactory{err: fakeErr}
}

// Deserialize implements serde.Factory.
func (f PublicKeyFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.PublicKeyOf(ctx, data)
}

// PublicKeyOf implements crypto.PublicKeyFactory.
func (f PublicKeyFactory) PublicKeyOf(serde.Context, []byte) (crypto.PublicKey, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.pubkey, nil
}

// FromBytes implements crypto.PublicKeyFactory.
func (f PublicKeyFactory) FromBytes([]byte) (crypto.PublicKey, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.pubkey, nil
}

// Signature is a fake implementation of a signature.
//
// - implements crypto.Signature
type Signature struct {
	err error
}

// NewBadSignature returns a signature that fails to serialize.
func NewBadSignature() Signature {
	return Signature{err: fakeErr}
}

// Equal implements crypto.Signature.
func (s Signature) Equal(o crypto.Signature) bool {
	_, ok := o.(Signature)
	return ok
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	return []byte("fake.Signature"), s.err
}

// Serialize implements serde.Message.
func (s Signature) Serialize(serde.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}

	return []byte("{}"), nil
}

// SignatureFactory is a fake implementation of a signature factory.
//
// - implements crypto.SignatureFactory
type SignatureFactory struct {
	err error
}

// NewBadSignatureFactory returns a factory that always fails.
func NewBadSignatureFactory() SignatureFactory {
	return SignatureFactory{err: fakeErr}
}

// Deserialize implements serde.Factory.
func (f SignatureFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.SignatureOf(ctx, data)
}

// SignatureOf implements crypto.SignatureFactory.
func (f SignatureFactory) SignatureOf(serde.Context, []byte) (crypto.Signature, error) {
	if f.err != nil {
		return nil, f.err
	}

	return Signature{}, nil
}

// Signer is a fake implementation of a signer.
//
// - implements crypto.Signer
type Signer struct {
	PublicKey PublicKey
	err       error
}

// NewSigner returns a signer for the given identity name.
func NewSigner(name string) Signer {
	return Signer{PublicKey: NewPublicKey(name)}
}

// NewBadSigner returns a signer that fails to sign.
func NewBadSigner() Signer {
	return Signer{err: fakeErr}
}

// GetPublicKeyFactory implements crypto.Signer.
func (s Signer) GetPublicKeyFactory() crypto.PublicKeyFactory {
	return PublicKeyFactory{pubkey: s.PublicKey}
}

// GetSignatureFactory implements crypto.Signer.
func (s Signer) GetSignatureFactory() crypto.SignatureFactory {
	return SignatureFactory{}
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.PublicKey
}

// Sign implements crypto.Signer.
func (s Signer) Sign([]byte) (crypto.Signature, error) {
	return Signature{}, s.err
}
