package codec

import (
	"encoding/json"

	"github.com/ValentinKolb/tstore/rpc/wire"
)

// NewJSON creates a Codec using JSON encoding.
func NewJSON() Codec {
	return jsonCodec{}
}

type jsonCodec struct{}

func (jsonCodec) Encode(msg wire.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Decode(b []byte, msg *wire.Message) error {
	return json.Unmarshal(b, msg)
}
