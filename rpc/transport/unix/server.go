package unix

import (
	"fmt"
	"net"
	"os"

	"github.com/ValentinKolb/tstore/rpc/transport"
	"github.com/ValentinKolb/tstore/rpc/transport/base"
)

const defaultBufferSize = 64 * 1024 // 64 KB

// serverConnector implements base.ServerConnector for Unix sockets.
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.ServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "unix"
}

func (c *serverConnector) Listen(config transport.ServerConfig) (net.Listener, error) {
	socketPath := config.Transport.Endpoint

	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %v", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket: %v", err)
	}

	return listener, nil
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewDefaultServerTransport creates a new Unix server transport with the default buffer size.
func NewDefaultServerTransport() transport.ServerTransport {
	return NewServerTransport(defaultBufferSize)
}

// NewServerTransport creates a new Unix server transport with the given buffer size.
func NewServerTransport(bufferSize int) transport.ServerTransport {
	return base.NewBaseServerTransport(&serverConnector{}, bufferSize, 0)
}
