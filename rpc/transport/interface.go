// Package transport defines a pluggable, byte-oriented connection/framing
// layer carrying encoded wire.Message bytes between an rpc client and
// server. Transports know nothing about wire.Message; they move opaque
// request/response frames.
package transport

// ServerHandleFunc processes one decoded request frame and returns the
// response frame to write back.
type ServerHandleFunc func(req []byte) (resp []byte)

// ServerTransport accepts connections and dispatches frames to a
// registered handler.
type ServerTransport interface {
	// RegisterHandler sets the function called for every request frame.
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts accepting connections; it blocks until the transport
	// is closed or a fatal error occurs.
	Listen(config ServerConfig) error
	// Close stops accepting new connections and releases the listener.
	Close() error
}

// ClientTransport connects to one or more server endpoints and exchanges
// request/response frames.
type ClientTransport interface {
	// Connect establishes connections per config.Transport.
	Connect(config ClientConfig) error
	// Send writes a request frame and waits for the matching response.
	Send(req []byte) (resp []byte, err error)
	// Close tears down all connections.
	Close() error
}
