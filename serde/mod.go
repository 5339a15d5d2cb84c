// Package serde defines the primitives to serialize and deserialize (serde)
// the messages of the ledger.
//
// A message is encoded through a context that holds the format engine. Each
// message type registers one format engine per format it supports, which lets
// the data model stay independent of the encoding.
package serde

import "io"

// Format is the identifier of an encoding format.
type Format string

// FormatJSON is the identifier of the JSON format.
const FormatJSON Format = "JSON"

// Message is the interface a data model must implement to be serialized.
type Message interface {
	// Serialize returns the bytes of the message according to the format of
	// the context.
	Serialize(ctx Context) ([]byte, error)
}

// Fingerprinter is the interface implemented by a message that can produce a
// deterministic binary representation of itself.
type Fingerprinter interface {
	// Fingerprint writes a deterministic binary representation of the object
	// into the writer.
	Fingerprint(writer io.Writer) error
}

// Factory is the interface to implement to instantiate a message from its
// serialized form.
type Factory interface {
	// Deserialize returns the message decoded from the data, or an error if
	// the data is malformed.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// FormatEngine is the interface to implement to support a format for a given
// message type.
type FormatEngine interface {
	// Encode returns the bytes of the message for the format.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message decoded from the data for the format.
	Decode(ctx Context, data []byte) (Message, error)
}
