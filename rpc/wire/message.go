// Package wire defines the request/response envelope carried between an rpc
// client and server, independent of how it is encoded (see rpc/codec) or
// transported (see rpc/transport).
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/tstore/lib/core"
)

// Message is a single envelope used for both requests and responses. Which
// fields are populated depends on Op; unused fields are left zero.
type Message struct {
	// Op selects the store operation this message carries.
	Op OpCode `json:"op"`

	// Store names the target TransientStore in the registry. Empty
	// resolves to the server's configured default store.
	Store string `json:"store,omitempty"`

	// Key addresses the entry, used by every operation except Clear. In a
	// general-error response (see NewErrorResponse) it carries the error text.
	Key []byte `json:"key,omitempty"`

	// Requests carries the per-prop lock acquisitions for a Get request.
	Requests []core.PropRequest `json:"requests,omitempty"`

	// Values carries the per-prop lock-and-value pairs for a Put request.
	Values []core.PropEntry `json:"values,omitempty"`

	// MaxWaitSeconds bounds how long the server-side call may wait on
	// contention before forcing or failing, used by Get/Delete/Remove.
	MaxWaitSeconds uint32 `json:"maxWaitSeconds,omitempty"`

	// Force requests an unconditional steal of a blocking lock once
	// MaxWaitSeconds elapses, used by Get/Delete/Remove.
	Force bool `json:"force,omitempty"`

	// Status carries a response's outcome. ErrNone means success.
	Status core.ErrorCode `json:"status,omitempty"`

	// Results carries a Get or Remove response's per-prop values.
	Results []core.PropEntry `json:"results,omitempty"`

	// Exists carries an Exists response's outcome.
	Exists bool `json:"exists,omitempty"`

	// SecondsSince carries an Exists response's elapsed-since-touch value.
	SecondsSince uint32 `json:"secondsSince,omitempty"`

	// Deleted carries a Delete response's outcome.
	Deleted bool `json:"deleted,omitempty"`
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewCreateRequest creates a new Create request.
func NewCreateRequest(store string, key []byte) *Message {
	return &Message{Op: OpCreate, Store: store, Key: key}
}

// NewCreateResponse creates a new Create response.
func NewCreateResponse(created bool) *Message {
	status := core.ErrNone
	if !created {
		status = core.ErrAlreadyExists
	}
	return &Message{Op: OpCreate, Status: status}
}

// NewExistsRequest creates a new Exists request.
func NewExistsRequest(store string, key []byte) *Message {
	return &Message{Op: OpExists, Store: store, Key: key}
}

// NewExistsResponse creates a new Exists response.
func NewExistsResponse(res core.ExistsResult) *Message {
	return &Message{Op: OpExists, Exists: res.Exists, SecondsSince: res.SecondsSince}
}

// NewGetRequest creates a new Get request.
func NewGetRequest(store string, key []byte, requests []core.PropRequest, maxWaitSeconds uint32, force bool) *Message {
	return &Message{
		Op:             OpGet,
		Store:          store,
		Key:            key,
		Requests:       requests,
		MaxWaitSeconds: maxWaitSeconds,
		Force:          force,
	}
}

// NewGetResponse creates a new Get response.
func NewGetResponse(res core.GetResult) *Message {
	return &Message{Op: OpGet, Status: res.Status, Results: res.Values}
}

// NewPutRequest creates a new Put request.
func NewPutRequest(store string, key []byte, values []core.PropEntry) *Message {
	return &Message{Op: OpPut, Store: store, Key: key, Values: values}
}

// NewPutResponse creates a new Put response.
func NewPutResponse(status core.ErrorCode) *Message {
	return &Message{Op: OpPut, Status: status}
}

// NewDeleteRequest creates a new Delete request.
func NewDeleteRequest(store string, key []byte, maxWaitSeconds uint32, force bool) *Message {
	return &Message{Op: OpDelete, Store: store, Key: key, MaxWaitSeconds: maxWaitSeconds, Force: force}
}

// NewDeleteResponse creates a new Delete response.
func NewDeleteResponse(res core.DeleteResult) *Message {
	return &Message{Op: OpDelete, Status: res.Status, Deleted: res.Deleted}
}

// NewRemoveRequest creates a new Remove request.
func NewRemoveRequest(store string, key []byte, maxWaitSeconds uint32, force bool) *Message {
	return &Message{Op: OpRemove, Store: store, Key: key, MaxWaitSeconds: maxWaitSeconds, Force: force}
}

// NewRemoveResponse creates a new Remove response.
func NewRemoveResponse(res core.RemoveResult) *Message {
	return &Message{Op: OpRemove, Status: res.Status, Results: res.Values}
}

// NewClearRequest creates a new Clear request.
func NewClearRequest(store string) *Message {
	return &Message{Op: OpClear, Store: store}
}

// NewClearResponse creates a new Clear response.
func NewClearResponse() *Message {
	return &Message{Op: OpClear}
}

// NewErrorResponse creates a response carrying a general, in-band error for
// the given op, used when a request cannot be dispatched at all (unknown
// store, malformed envelope).
func NewErrorResponse(op OpCode, err error) *Message {
	return &Message{Op: op, Status: core.ErrGeneral, Key: []byte(err.Error())}
}

// --------------------------------------------------------------------------
// OpCode
// --------------------------------------------------------------------------

// OpCode identifies which TransientStore operation a Message carries.
type OpCode uint8

const (
	OpUnknown OpCode = iota
	OpCreate
	OpExists
	OpGet
	OpPut
	OpDelete
	OpRemove
	OpClear
)

// String returns the lower-case operation name, used by the JSON encoding
// (MarshalJSON) and by log lines. The binary codec writes the numeric op
// byte instead.
func (o OpCode) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpExists:
		return "exists"
	case OpGet:
		return "get"
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	case OpRemove:
		return "remove"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes an OpCode as its string name.
func (o OpCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON parses an OpCode from its string name.
func (o *OpCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "create":
		*o = OpCreate
	case "exists":
		*o = OpExists
	case "get":
		*o = OpGet
	case "put":
		*o = OpPut
	case "delete":
		*o = OpDelete
	case "remove":
		*o = OpRemove
	case "clear":
		*o = OpClear
	case "unknown":
		*o = OpUnknown
	default:
		return fmt.Errorf("unknown op code: %s", s)
	}
	return nil
}
