package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/tstore/rpc/transport"
	"github.com/ValentinKolb/tstore/rpc/transport/base"
)

const defaultBufferSize = 512 * 1024 // 512 KB

// serverConnector implements base.ServerConnector for TCP sockets.
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.ServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(config transport.ServerConfig) (net.Listener, error) {
	listener, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create tcp socket: %v", err)
	}
	return listener, nil
}

// UpgradeConnection applies performance settings to an accepted tcp connection.
func (c *serverConnector) UpgradeConnection(conn net.Conn, config transport.ServerConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcpConn.SetNoDelay(config.Transport.TCPNoDelay); err != nil {
		return err
	}
	if config.Transport.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(config.Transport.WriteBufferSize); err != nil {
			return err
		}
	}
	if config.Transport.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(config.Transport.ReadBufferSize); err != nil {
			return err
		}
	}
	if config.Transport.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		keepAlivePeriod := time.Duration(config.Transport.TCPKeepAliveSec) * time.Second
		if err := tcpConn.SetKeepAlivePeriod(keepAlivePeriod); err != nil {
			return err
		}
	}
	if config.Transport.TCPLingerSec >= 0 {
		if err := tcpConn.SetLinger(config.Transport.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewServerTransport creates a new TCP server transport.
func NewServerTransport() transport.ServerTransport {
	return base.NewBaseServerTransport(&serverConnector{}, defaultBufferSize, 0)
}
