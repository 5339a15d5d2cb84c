// Package json defines the JSON messages of the course records.
package json

import (
	"go.dedis.ch/coursemarket/contracts/course"
	"go.dedis.ch/coursemarket/crypto"
	"go.dedis.ch/coursemarket/serde"
	"golang.org/x/xerrors"
)

func init() {
	course.RegisterRecordFormat(serde.FormatJSON, recordFormat{})
}

// RecordJSON is the JSON message of a course record. The binary fields are
// written in their 0x prefixed hexadecimal form.
type RecordJSON struct {
	Index uint64 `json:"index"`
	Hash  string `json:"hash"`
	ID    string `json:"id"`
	Price uint64 `json:"price"`
	Proof string `json:"proof"`
	Owner string `json:"owner"`
	State uint8  `json:"state"`
}

// recordFormat is the JSON format engine of the course records.
//
// - implements serde.FormatEngine
type recordFormat struct{}

// Encode implements serde.FormatEngine. It returns the JSON data of the record
// if appropriate, otherwise an error.
func (f recordFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	c, ok := msg.(course.Course)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	m := RecordJSON{
		Index: c.Index,
		Hash:  c.GetHash().String(),
		ID:    c.ID.String(),
		Price: c.Price,
		Proof: c.Proof.String(),
		Owner: c.Owner.String(),
		State: uint8(c.State),
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It returns the record of the JSON data
// if appropriate, otherwise an error.
func (f recordFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := RecordJSON{}
	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	id, err := course.ParseID(m.ID)
	if err != nil {
		return nil, xerrors.Errorf("id: %v", err)
	}

	proof, err := parseProof(m.Proof)
	if err != nil {
		return nil, xerrors.Errorf("proof: %v", err)
	}

	owner, err := crypto.ParseAddress(m.Owner)
	if err != nil {
		return nil, xerrors.Errorf("owner: %v", err)
	}

	if m.State > uint8(course.Deactivated) {
		return nil, xerrors.Errorf("unknown state %d", m.State)
	}

	c := course.Course{
		Index: m.Index,
		ID:    id,
		Price: m.Price,
		Proof: proof,
		Owner: owner,
		State: course.State(m.State),
	}

	return c, nil
}

func parseProof(text string) (course.Proof, error) {
	// A proof has the same size and text form as a hash.
	h, err := course.ParseHash(text)
	if err != nil {
		return course.Proof{}, err
	}

	return course.Proof(h), nil
}
