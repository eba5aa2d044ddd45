// Package server implements the RPC server side of this module: a single
// adapter that decodes a wire.Message, dispatches it onto the named
// TransientStore from a registry.Registry, and encodes the result back.
//
// The package focuses on:
//   - A store-agnostic handle method, so every op is a plain switch over
//     wire.OpCode rather than a family of per-store adapters
//   - In-band errors: a missing store or malformed request never fails the
//     transport, it comes back as a Message with Status = core.ErrGeneral
//   - Pluggable codec and transport, selected by the caller at construction
//
// Usage Example:
//
//	reg := registry.New()
//	reg.Add("default", store)
//
//	s := server.New(reg, codec.NewBinary(), tcp.NewServerTransport(), server.Config{
//	  DefaultStore: "default",
//	})
//
//	if err := s.Serve(transport.ServerConfig{Transport: transport.TransportConfig{Endpoint: ":9090"}}); err != nil {
//	  log.Fatalf("server error: %v", err)
//	}
package server
