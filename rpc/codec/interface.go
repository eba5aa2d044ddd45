// Package codec encodes and decodes wire.Message envelopes for transport
// over a byte-oriented connection.
package codec

import "github.com/ValentinKolb/tstore/rpc/wire"

// Codec is the interface for all Message encodings.
type Codec interface {
	// Encode serializes a Message into a byte slice.
	Encode(msg wire.Message) ([]byte, error)
	// Decode deserializes a byte slice into msg.
	Decode(b []byte, msg *wire.Message) error
}
