package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/tstore/lib/core"
	"github.com/ValentinKolb/tstore/rpc/wire"
)

// NewBinary creates a Codec using a fixed, self-describing binary layout: a
// leading op byte, a two-byte flags field indicating which optional fields
// are present, and big-endian uint32 lengths ahead of every variable-length
// field.
func NewBinary() Codec {
	return binaryCodec{}
}

type binaryCodec struct{}

// Bit flags indicating which optional fields are present.
const (
	hasStore byte = 1 << iota
	hasKey
	hasRequests
	hasValues
	hasMaxWait
	hasForce
	hasStatus
	hasResults
)

const (
	hasSecondsSince byte = 1 << iota
	hasDeleted
	hasExists
)

func (binaryCodec) Encode(msg wire.Message) ([]byte, error) {
	var flags0, flags1 byte

	if msg.Store != "" {
		flags0 |= hasStore
	}
	if msg.Key != nil {
		flags0 |= hasKey
	}
	if msg.Requests != nil {
		flags0 |= hasRequests
	}
	if msg.Values != nil {
		flags0 |= hasValues
	}
	if msg.MaxWaitSeconds > 0 {
		flags0 |= hasMaxWait
	}
	if msg.Force {
		flags0 |= hasForce
	}
	if msg.Status != core.ErrNone {
		flags0 |= hasStatus
	}
	if msg.Results != nil {
		flags0 |= hasResults
	}
	if msg.Exists {
		flags1 |= hasExists
	}
	if msg.SecondsSince > 0 {
		flags1 |= hasSecondsSince
	}
	if msg.Deleted {
		flags1 |= hasDeleted
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, byte(msg.Op), flags0, flags1)

	if flags0&hasStore != 0 {
		buf = appendBytes(buf, []byte(msg.Store))
	}
	if flags0&hasKey != 0 {
		buf = appendBytes(buf, msg.Key)
	}
	if flags0&hasRequests != 0 {
		buf = appendPropRequests(buf, msg.Requests)
	}
	if flags0&hasValues != 0 {
		buf = appendPropEntries(buf, msg.Values)
	}
	if flags0&hasMaxWait != 0 {
		buf = appendUint32(buf, msg.MaxWaitSeconds)
	}
	if flags0&hasStatus != 0 {
		buf = append(buf, byte(msg.Status))
	}
	if flags0&hasResults != 0 {
		buf = appendPropEntries(buf, msg.Results)
	}
	if flags1&hasSecondsSince != 0 {
		buf = appendUint32(buf, msg.SecondsSince)
	}

	return buf, nil
}

func (binaryCodec) Decode(data []byte, msg *wire.Message) error {
	if len(data) < 3 {
		return fmt.Errorf("codec: data too short for message header")
	}

	msg.Op = wire.OpCode(data[0])
	flags0 := data[1]
	flags1 := data[2]
	pos := 3

	msg.Force = flags0&hasForce != 0
	msg.Exists = flags1&hasExists != 0
	msg.Deleted = flags1&hasDeleted != 0

	var err error

	msg.Store = ""
	if flags0&hasStore != 0 {
		var b []byte
		if b, pos, err = readBytes(data, pos); err != nil {
			return err
		}
		msg.Store = string(b)
	}

	msg.Key = nil
	if flags0&hasKey != 0 {
		if msg.Key, pos, err = readBytes(data, pos); err != nil {
			return err
		}
	}

	msg.Requests = nil
	if flags0&hasRequests != 0 {
		if msg.Requests, pos, err = readPropRequests(data, pos); err != nil {
			return err
		}
	}

	msg.Values = nil
	if flags0&hasValues != 0 {
		if msg.Values, pos, err = readPropEntries(data, pos); err != nil {
			return err
		}
	}

	msg.MaxWaitSeconds = 0
	if flags0&hasMaxWait != 0 {
		if msg.MaxWaitSeconds, pos, err = readUint32(data, pos); err != nil {
			return err
		}
	}

	msg.Status = core.ErrNone
	if flags0&hasStatus != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("codec: data too short for status")
		}
		msg.Status = core.ErrorCode(data[pos])
		pos++
	}

	msg.Results = nil
	if flags0&hasResults != 0 {
		if msg.Results, pos, err = readPropEntries(data, pos); err != nil {
			return err
		}
	}

	msg.SecondsSince = 0
	if flags1&hasSecondsSince != 0 {
		if msg.SecondsSince, pos, err = readUint32(data, pos); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Length-prefixed primitives
// --------------------------------------------------------------------------

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readUint32(data []byte, pos int) (uint32, int, error) {
	if pos+4 > len(data) {
		return 0, pos, fmt.Errorf("codec: data too short for uint32")
	}
	return binary.BigEndian.Uint32(data[pos : pos+4]), pos + 4, nil
}

func appendBytes(buf []byte, b []byte) []byte {
	buf = appendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

func readBytes(data []byte, pos int) ([]byte, int, error) {
	length, pos, err := readUint32(data, pos)
	if err != nil {
		return nil, pos, err
	}
	if pos+int(length) > len(data) {
		return nil, pos, fmt.Errorf("codec: data too short for byte field")
	}
	out := make([]byte, length)
	copy(out, data[pos:pos+int(length)])
	return out, pos + int(length), nil
}

// --------------------------------------------------------------------------
// PropRequest / PropEntry slices
// --------------------------------------------------------------------------

func appendPropRequests(buf []byte, reqs []core.PropRequest) []byte {
	buf = appendUint32(buf, uint32(len(reqs)))
	for _, r := range reqs {
		buf = appendUint32(buf, uint32(r.Index))
		buf = append(buf, byte(r.Mode))
	}
	return buf
}

func readPropRequests(data []byte, pos int) ([]core.PropRequest, int, error) {
	count, pos, err := readUint32(data, pos)
	if err != nil {
		return nil, pos, err
	}
	out := make([]core.PropRequest, 0, count)
	for i := uint32(0); i < count; i++ {
		var index uint32
		if index, pos, err = readUint32(data, pos); err != nil {
			return nil, pos, err
		}
		if pos+1 > len(data) {
			return nil, pos, fmt.Errorf("codec: data too short for prop request mode")
		}
		mode := core.LockMode(data[pos])
		pos++
		out = append(out, core.PropRequest{Index: int(index), Mode: mode})
	}
	return out, pos, nil
}

func appendPropEntries(buf []byte, entries []core.PropEntry) []byte {
	buf = appendUint32(buf, uint32(len(entries)))
	for _, e := range entries {
		buf = appendUint32(buf, uint32(e.Index))
		buf = appendUint32(buf, uint32(e.LockID))
		if e.Value == nil {
			buf = append(buf, 0)
		} else {
			buf = append(buf, 1)
			buf = appendBytes(buf, e.Value)
		}
	}
	return buf
}

func readPropEntries(data []byte, pos int) ([]core.PropEntry, int, error) {
	count, pos, err := readUint32(data, pos)
	if err != nil {
		return nil, pos, err
	}
	out := make([]core.PropEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var index, lockID uint32
		if index, pos, err = readUint32(data, pos); err != nil {
			return nil, pos, err
		}
		if lockID, pos, err = readUint32(data, pos); err != nil {
			return nil, pos, err
		}
		if pos+1 > len(data) {
			return nil, pos, fmt.Errorf("codec: data too short for prop entry value flag")
		}
		hasVal := data[pos] != 0
		pos++
		var value []byte
		if hasVal {
			if value, pos, err = readBytes(data, pos); err != nil {
				return nil, pos, err
			}
		}
		out = append(out, core.PropEntry{Index: int(index), LockID: int32(lockID), Value: value})
	}
	return out, pos, nil
}
