package codec

import (
	"bytes"
	"encoding/gob"

	"github.com/ValentinKolb/tstore/rpc/wire"
)

// NewGOB creates a Codec using Go's gob binary encoding.
func NewGOB() Codec {
	return gobCodec{}
}

type gobCodec struct{}

func (gobCodec) Encode(msg wire.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Decode(b []byte, msg *wire.Message) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(msg)
}
