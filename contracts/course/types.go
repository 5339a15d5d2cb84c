package course

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"go.dedis.ch/coursemarket/crypto"
	"go.dedis.ch/coursemarket/serde"
	"go.dedis.ch/coursemarket/serde/registry"
	"golang.org/x/xerrors"
)

const (
	// IDLen is the size of a course identifier.
	IDLen = 16
	// ProofLen is the size of the proof of a purchase.
	ProofLen = 32
	// HashLen is the size of the hash of a purchase.
	HashLen = 32

	recordLen = 8 + IDLen + 8 + ProofLen + crypto.AddressLength + 1
)

var recordFormats = registry.New()

// RegisterRecordFormat registers the engine for the provided format.
func RegisterRecordFormat(f serde.Format, e serde.FormatEngine) {
	recordFormats.Register(f, e)
}

// State is the state of a purchased course.
type State uint8

const (
	// Purchased is the state of a course right after the purchase.
	Purchased State = iota
	// Activated is the state of a course that has been validated by the
	// contract owner.
	Activated
	// Deactivated is the terminal state of a course. The price is reset.
	Deactivated
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Purchased:
		return "purchased"
	case Activated:
		return "activated"
	case Deactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// ID is the identifier of a course chosen by the seller.
type ID [IDLen]byte

// NewID returns the identifier from its binary form.
func NewID(data []byte) (ID, error) {
	var id ID

	if len(data) != IDLen {
		return id, xerrors.Errorf("invalid id length %d != %d", len(data), IDLen)
	}

	copy(id[:], data)

	return id, nil
}

// ParseID returns the identifier of the text. A text prefixed with 0x is
// decoded as hexadecimal, otherwise its bytes are used. A short value is
// right-padded with zeros like a bytes16 value packed by the chain.
func ParseID(text string) (ID, error) {
	var id ID

	data := []byte(text)

	if strings.HasPrefix(text, "0x") {
		var err error
		data, err = hex.DecodeString(text[2:])
		if err != nil {
			return id, xerrors.Errorf("malformed id: %v", err)
		}
	}

	if len(data) == 0 || len(data) > IDLen {
		return id, xerrors.Errorf("id must be between 1 and %d bytes", IDLen)
	}

	copy(id[:], data)

	return id, nil
}

// String implements fmt.Stringer. It returns the hexadecimal form of the
// identifier.
func (id ID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Proof is the opaque payload recorded with a purchase.
type Proof [ProofLen]byte

// NewProof returns the proof from its binary form.
func NewProof(data []byte) (Proof, error) {
	var proof Proof

	if len(data) != ProofLen {
		return proof, xerrors.Errorf("invalid proof length %d != %d", len(data), ProofLen)
	}

	copy(proof[:], data)

	return proof, nil
}

// String implements fmt.Stringer.
func (p Proof) String() string {
	return "0x" + hex.EncodeToString(p[:])
}

// Hash is the key of a purchase. It is unique for a course and a buyer.
type Hash [HashLen]byte

// HashOf returns the Keccak-256 hash of the course identifier followed by the
// address of the buyer.
func HashOf(id ID, buyer crypto.Address) Hash {
	var h Hash
	copy(h[:], crypto.Keccak(id[:], buyer[:]))

	return h
}

// NewHash returns the hash from its binary form.
func NewHash(data []byte) (Hash, error) {
	var h Hash

	if len(data) != HashLen {
		return h, xerrors.Errorf("invalid hash length %d != %d", len(data), HashLen)
	}

	copy(h[:], data)

	return h, nil
}

// ParseHash returns the hash of the hexadecimal text, with or without the 0x
// prefix.
func ParseHash(text string) (Hash, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
	if err != nil {
		return Hash{}, xerrors.Errorf("malformed hash: %v", err)
	}

	return NewHash(data)
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Course is the record of a purchase.
//
// - implements serde.Message
type Course struct {
	// Index is the position of the purchase in the list of purchases.
	Index uint64
	ID    ID
	Price uint64
	Proof Proof
	Owner crypto.Address
	State State
}

// GetHash returns the hash of the purchase.
func (c Course) GetHash() Hash {
	return HashOf(c.ID, c.Owner)
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the fixed-size
// layout of the record as it is stored by the contract.
func (c Course) MarshalBinary() ([]byte, error) {
	buffer := make([]byte, 0, recordLen)

	buffer = binary.LittleEndian.AppendUint64(buffer, c.Index)
	buffer = append(buffer, c.ID[:]...)
	buffer = binary.LittleEndian.AppendUint64(buffer, c.Price)
	buffer = append(buffer, c.Proof[:]...)
	buffer = append(buffer, c.Owner[:]...)
	buffer = append(buffer, byte(c.State))

	return buffer, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. It populates the
// record from its stored layout.
func (c *Course) UnmarshalBinary(data []byte) error {
	if len(data) != recordLen {
		return xerrors.Errorf("invalid record length %d != %d", len(data), recordLen)
	}

	c.Index = binary.LittleEndian.Uint64(data)
	data = data[8:]

	copy(c.ID[:], data)
	data = data[IDLen:]

	c.Price = binary.LittleEndian.Uint64(data)
	data = data[8:]

	copy(c.Proof[:], data)
	data = data[ProofLen:]

	copy(c.Owner[:], data)
	data = data[crypto.AddressLength:]

	c.State = State(data[0])
	if c.State > Deactivated {
		return xerrors.Errorf("unknown state %d", c.State)
	}

	return nil
}

// Serialize implements serde.Message. It returns the serialized data of the
// record.
func (c Course) Serialize(ctx serde.Context) ([]byte, error) {
	format := recordFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, c)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode: %v", err)
	}

	return data, nil
}

// RecordFactory is the factory to deserialize course records.
//
// - implements serde.Factory
type RecordFactory struct{}

// NewRecordFactory returns a new record factory.
func NewRecordFactory() RecordFactory {
	return RecordFactory{}
}

// Deserialize implements serde.Factory.
func (f RecordFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.RecordOf(ctx, data)
}

// RecordOf populates the course record from the data.
func (f RecordFactory) RecordOf(ctx serde.Context, data []byte) (Course, error) {
	format := recordFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return Course{}, xerrors.Errorf("failed to decode: %v", err)
	}

	c, ok := msg.(Course)
	if !ok {
		return Course{}, xerrors.Errorf("invalid record of type '%T'", msg)
	}

	return c, nil
}
