// Package client implements the RPC client side of this module: a Client
// that presents the same operation surface as core.TransientStore
// (Create, Exists, Get, Put, Delete, Remove) but sends every call as a
// wire.Message over a configured transport.ClientTransport.
//
// Key Components:
//
//   - New: factory connecting a transport and codec and returning a ready
//     Client bound to one named store.
//
// Usage Example:
//
//	cfg := transport.ClientConfig{
//	  Transport: transport.TransportConfig{
//	    Endpoints:              []string{"localhost:9090"},
//	    TimeoutSecond:          5,
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	c, err := client.New("default", cfg, tcp.NewClientTransport(), codec.NewBinary())
//	if err != nil {
//	  log.Fatalf("connect: %v", err)
//	}
//	defer c.Close()
//
//	c.Create([]byte("mykey"))
//	res, err := c.Get([]byte("mykey"), []core.PropRequest{{Index: 0, Mode: core.LockUpdate}}, 0, false)
//	status, err := c.Put([]byte("mykey"), []core.PropEntry{{Index: 0, LockID: res.Values[0].LockID, Value: []byte("v")}})
//
// Performance Considerations:
//
//   - Increasing ConnectionsPerEndpoint improves throughput for frequent
//     large payloads; a single connection per endpoint is usually more
//     efficient for small messages.
//   - codec.NewBinary provides the smallest payload and fastest encode
//     path; codec.NewJSON trades that for human-readable wire traffic.
//
// Thread Safety:
//
//	Client is safe for concurrent use from multiple goroutines.
package client
