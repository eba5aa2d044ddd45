package base

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/tstore/lib/log"
	"github.com/ValentinKolb/tstore/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// ServerConnector defines the interface for transport-specific server operations.
type ServerConnector interface {
	// Listen creates a listener and returns it.
	Listen(config transport.ServerConfig) (net.Listener, error)
	// GetName returns the name of the transport type (e.g., "unix", "tcp").
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

var serverLogger = log.Get("transport/rpc")

const defaultMaxWorkersPerConn = 32

// serverTransport implements the core server transport functionality.
type serverTransport struct {
	connector         ServerConnector
	handler           transport.ServerHandleFunc
	config            transport.ServerConfig
	listener          net.Listener
	bufferPool        *sync.Pool
	bufferSize        int
	maxWorkersPerConn int
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport, accepting up
// to maxWorkersPerConn concurrent in-flight requests per connection.
func NewBaseServerTransport(connector ServerConnector, bufferSize int, maxWorkersPerConn int) transport.ServerTransport {
	if maxWorkersPerConn < 1 {
		maxWorkersPerConn = defaultMaxWorkersPerConn
	}

	return &serverTransport{
		connector:         connector,
		bufferSize:        bufferSize,
		maxWorkersPerConn: maxWorkersPerConn,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.ServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config transport.ServerConfig) error {
	t.config = config

	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listener = listener

	serverLogger.Infof("starting %s server on %s with %d workers per connection",
		t.connector.GetName(), config.Transport.Endpoint, t.maxWorkersPerConn)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.listener == nil {
				return nil
			}
			serverLogger.Errorf("accept error: %v", err)
			continue
		}

		if upgrader, ok := t.connector.(connUpgrader); ok {
			if err := upgrader.UpgradeConnection(conn, config); err != nil {
				serverLogger.Errorf("failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
				conn.Close()
				continue
			}
		}

		go t.handleConnection(conn)
	}
}

// connUpgrader is an optional ServerConnector capability: transports that
// need to tune an accepted connection (e.g. tcp socket options) implement
// it; transports that don't (e.g. unix) are left alone.
type connUpgrader interface {
	UpgradeConnection(conn net.Conn, config transport.ServerConfig) error
}

func (t *serverTransport) Close() error {
	if t.listener == nil {
		return nil
	}
	listener := t.listener
	t.listener = nil
	return listener.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection handles incoming requests for one connection.
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	timeout := time.Duration(t.config.Transport.TimeoutSecond) * time.Second

	workerSemaphore := make(chan struct{}, t.maxWorkersPerConn)
	var wg sync.WaitGroup
	var connMutex sync.Mutex

	handleResponse := func(requestID uint64, data []byte) {
		defer func() {
			<-workerSemaphore
			wg.Done()
		}()

		start := time.Now()
		resp := t.handler(data)
		serverLogger.Debugf("processed request %d in %s", requestID, time.Since(start))

		connMutex.Lock()
		defer connMutex.Unlock()

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				serverLogger.Errorf("failed to set write deadline: %v", err)
				return
			}
		}

		if err := writeFrame(conn, requestID, resp); err != nil {
			serverLogger.Errorf("failed to write response: %v", err)
		}
	}

	handleRequest := func() error {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %v", err)
			}
		}

		buf := t.bufferPool.Get().([]byte)

		requestID, data, err := readFrame(conn, buf)
		if err != nil {
			t.bufferPool.Put(buf)
			return err
		}

		workerSemaphore <- struct{}{}
		wg.Add(1)

		go func() {
			defer t.bufferPool.Put(buf)
			handleResponse(requestID, data)
		}()

		return nil
	}

	for {
		err := handleRequest()

		if err == io.EOF {
			serverLogger.Infof("connection closed by client")
			break
		}

		if err != nil {
			serverLogger.Errorf("error handling request: %v", err)
			break
		}
	}

	wg.Wait()
}
