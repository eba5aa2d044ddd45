// Package base provides a foundation for transport layers used by this
// module's RPC system, implementing core functionality for request/response
// exchange independent of the specific network protocol (tcp, unix
// sockets, ...). It serves as a base layer that protocol-specific
// connectors extend.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Performance optimization through connection pooling and buffer reuse
//   - A frame protocol carrying a requestID for response correlation
//   - Robust error handling with retries and reconnection logic
//
// Key Components:
//
//   - ClientConnector/ServerConnector: Interfaces for protocol-specific
//     operations that let the base transport be extended to a new network
//     protocol.
//
//   - clientTransport: Core client implementation that manages multiple
//     connections with round-robin load balancing. Supports multiple
//     connections per endpoint for improved throughput.
//
//   - serverTransport: Core server implementation that accepts connections
//     and dispatches every request frame to a registered handler.
//
// Performance Optimizations:
//
//   - Connection Pooling: Multiple connections per endpoint improve
//     throughput for high-load scenarios.
//
//   - Buffer Pooling: The server uses a sync.Pool to reuse buffers,
//     reducing GC pressure and memory allocations.
//
//   - Asynchronous Processing: The client sends requests and correlates
//     responses asynchronously using unique request IDs.
package base
