package server

import (
	"fmt"

	"github.com/ValentinKolb/tstore/lib/core"
	"github.com/ValentinKolb/tstore/lib/log"
	"github.com/ValentinKolb/tstore/lib/registry"
	"github.com/ValentinKolb/tstore/rpc/codec"
	"github.com/ValentinKolb/tstore/rpc/transport"
	"github.com/ValentinKolb/tstore/rpc/wire"
)

var serverLogger = log.Get("rpc")

// Config holds the server's store-resolution settings.
type Config struct {
	// DefaultStore is used when an incoming Message.Store is empty.
	DefaultStore string
}

// Server decodes incoming frames into wire.Message, dispatches each onto
// the named store from its Registry, and encodes the result back.
type Server struct {
	cfg       Config
	reg       *registry.Registry
	codec     codec.Codec
	transport transport.ServerTransport
}

// New creates a Server over the given registry, codec, and transport.
func New(reg *registry.Registry, c codec.Codec, t transport.ServerTransport, cfg Config) *Server {
	return &Server{cfg: cfg, reg: reg, codec: c, transport: t}
}

// Serve registers the dispatch handler and starts listening; it blocks
// until the transport stops or hits a fatal error.
func (s *Server) Serve(config transport.ServerConfig) error {
	s.transport.RegisterHandler(s.handle)
	serverLogger.Infof("rpc server starting, default store %q", s.cfg.DefaultStore)
	return s.transport.Listen(config)
}

// Close stops the underlying transport.
func (s *Server) Close() error {
	return s.transport.Close()
}

func (s *Server) handle(req []byte) []byte {
	var msg wire.Message
	if err := s.codec.Decode(req, &msg); err != nil {
		return s.mustEncode(wire.NewErrorResponse(wire.OpUnknown, fmt.Errorf("decode request: %w", err)))
	}

	storeName := msg.Store
	if storeName == "" {
		storeName = s.cfg.DefaultStore
	}

	st, ok := s.reg.Get(storeName)
	if !ok {
		return s.mustEncode(wire.NewErrorResponse(msg.Op, fmt.Errorf("store %q not found", storeName)))
	}

	resp := dispatch(st, msg)
	return s.mustEncode(resp)
}

// dispatch applies one decoded Message against a TransientStore and builds
// the response envelope. Unknown ops produce an in-band general error.
func dispatch(st *core.TransientStore, msg wire.Message) *wire.Message {
	switch msg.Op {
	case wire.OpCreate:
		return wire.NewCreateResponse(st.Create(msg.Key))

	case wire.OpExists:
		return wire.NewExistsResponse(st.Exists(msg.Key))

	case wire.OpGet:
		return wire.NewGetResponse(st.GetAsync(msg.Key, msg.Requests, msg.MaxWaitSeconds, msg.Force))

	case wire.OpPut:
		return wire.NewPutResponse(st.PutAsync(msg.Key, msg.Values))

	case wire.OpDelete:
		return wire.NewDeleteResponse(st.DeleteAsync(msg.Key, msg.MaxWaitSeconds, msg.Force))

	case wire.OpRemove:
		return wire.NewRemoveResponse(st.RemoveAsync(msg.Key, msg.MaxWaitSeconds, msg.Force))

	case wire.OpClear:
		st.ClearStore()
		return wire.NewClearResponse()

	default:
		return wire.NewErrorResponse(msg.Op, fmt.Errorf("unsupported op: %s", msg.Op))
	}
}

// mustEncode encodes resp, falling back to a minimal error Message if the
// codec itself fails (e.g. an unencodable value snuck into a response).
func (s *Server) mustEncode(resp *wire.Message) []byte {
	data, err := s.codec.Encode(*resp)
	if err != nil {
		serverLogger.Errorf("failed to encode response: %v", err)
		data, _ = s.codec.Encode(*wire.NewErrorResponse(resp.Op, err))
	}
	return data
}
