package codec

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/tstore/lib/core"
	"github.com/ValentinKolb/tstore/rpc/wire"
)

var testCodecs = map[string]func() Codec{
	"JSON":   NewJSON,
	"GOB":    NewGOB,
	"Binary": NewBinary,
}

func testMessages() []wire.Message {
	return []wire.Message{
		{Op: wire.OpClear},
		{Op: wire.OpCreate, Store: "s1", Key: []byte("k1")},
		{
			Op:       wire.OpGet,
			Store:    "s1",
			Key:      []byte("k1"),
			Requests: []core.PropRequest{{Index: 0, Mode: core.LockRead}, {Index: 2, Mode: core.LockUpdate}},
			MaxWaitSeconds: 5,
			Force:          true,
		},
		{
			Op:      wire.OpGet,
			Status:  core.ErrNone,
			Results: []core.PropEntry{{Index: 0, LockID: 7, Value: []byte("v0")}, {Index: 1, LockID: 0, Value: nil}},
		},
		{
			Op:     wire.OpPut,
			Key:    []byte("k2"),
			Values: []core.PropEntry{{Index: 0, LockID: 7, Value: []byte("new")}},
		},
		{Op: wire.OpPut, Status: core.ErrLockIdMismatch},
		{Op: wire.OpExists, Exists: true, SecondsSince: 42},
		{Op: wire.OpDelete, Status: core.ErrDoesNotExist, Deleted: false},
		{Op: wire.OpRemove, Results: []core.PropEntry{{Index: 0, Value: nil}}},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			for i, msg := range messages {
				data, err := c.Encode(msg)
				if err != nil {
					t.Fatalf("message %d: encode failed: %v", i, err)
				}

				var result wire.Message
				if err := c.Decode(data, &result); err != nil {
					t.Fatalf("message %d: decode failed: %v", i, err)
				}

				if !reflect.DeepEqual(normalize(msg), normalize(result)) {
					t.Errorf("message %d mismatch after round trip:\noriginal: %+v\nresult: %+v", i, msg, result)
				}
			}
		})
	}
}

// normalize treats a nil slice and an empty slice as equivalent, since not
// every codec preserves the distinction (gob in particular does not).
func normalize(msg wire.Message) wire.Message {
	if len(msg.Key) == 0 {
		msg.Key = nil
	}
	if len(msg.Requests) == 0 {
		msg.Requests = nil
	}
	if len(msg.Values) == 0 {
		msg.Values = nil
	}
	if len(msg.Results) == 0 {
		msg.Results = nil
	}
	return msg
}

func TestBinaryCodecRejectsShortData(t *testing.T) {
	c := NewBinary()

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"truncated header", []byte{byte(wire.OpGet), 0}},
		{"truncated key length", []byte{byte(wire.OpGet), hasKey, 0, 0, 0}},
		{"truncated key body", []byte{byte(wire.OpGet), hasKey, 0, 0, 0, 0, 5, 'a', 'b'}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var msg wire.Message
			if err := c.Decode(tc.data, &msg); err == nil {
				t.Errorf("expected an error decoding %v", tc.data)
			}
		})
	}
}
