package unix

import (
	"net"

	"github.com/ValentinKolb/tstore/rpc/transport"
	"github.com/ValentinKolb/tstore/rpc/transport/base"
)

// clientConnector implements base.ClientConnector for Unix sockets.
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.ClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("unix", endpoint)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config transport.ClientConfig) error {
	return nil
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewClientTransport creates a new Unix client transport.
func NewClientTransport() transport.ClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
