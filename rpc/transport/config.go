package transport

// ServerConfig configures a ServerTransport's Listen call.
type ServerConfig struct {
	Transport TransportConfig
	// LogLevel controls per-request debug logging in transports that
	// support it (currently http).
	LogLevel string
}

// ClientConfig configures a ClientTransport's Connect call.
type ClientConfig struct {
	Transport TransportConfig
}

// TransportConfig holds the connection-level settings shared across the
// tcp, unix, and http transports. Fields meaningless to a given transport
// (e.g. TCPNoDelay on a unix socket) are silently ignored by it.
type TransportConfig struct {
	// Endpoint is the server-side address to listen on: "host:port" for
	// tcp/http, a filesystem path for unix.
	Endpoint string
	// Endpoints is the client-side list of addresses/URLs to connect to
	// and round-robin across.
	Endpoints []string

	// ConnectionsPerEndpoint is how many client connections to open per
	// endpoint, for parallelism. Defaults to 1.
	ConnectionsPerEndpoint int
	// RetryCount is how many attempts the client makes at a send before
	// giving up. The tcp and unix clients take the next connection in
	// round-robin order for each attempt; the http client repeats the
	// endpoint it picked first. Defaults to 1 (no retry).
	RetryCount int
	// TimeoutSecond bounds both connection read/write deadlines and the
	// overall client request wait. 0 disables the timeout.
	TimeoutSecond int

	// TCPNoDelay disables Nagle's algorithm on tcp connections.
	TCPNoDelay bool
	// TCPKeepAliveSec enables tcp keep-alive with this period; 0 disables it.
	TCPKeepAliveSec int
	// TCPLingerSec sets the tcp linger option; negative leaves the OS default.
	TCPLingerSec int
	// ReadBufferSize and WriteBufferSize set the tcp socket buffer sizes
	// when positive.
	ReadBufferSize  int
	WriteBufferSize int
}
