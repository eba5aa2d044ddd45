// Package unix implements a transport for the store's RPC system using
// Unix domain sockets, for processes running on the same machine.
//
// This package extends the base transport layer with Unix socket-specific
// connectors while inheriting connection pooling, request routing, and
// error handling from the base package.
//
// Key Components:
//
//   - clientConnector: establishes connections using Unix domain sockets
//
//   - serverConnector: creates Unix socket listeners and accepts connections
//
// Performance Characteristics:
//
//   - Default buffer size: 64 KB, tuned for local communication patterns
//   - Reduced overhead: skips the TCP/IP stack entirely
//   - Lower latency: kernel-mediated IPC avoids the network subsystem
package unix
