// Package tcp implements a TCP socket transport for the store's RPC
// system. It provides concrete implementations of the base package's
// connector interfaces for TCP connections.
//
// This package builds on the base package's transport functionality,
// inheriting its connection pooling, buffer reuse, and request routing.
// See the base package documentation for details on the underlying
// transport mechanics.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.ClientConnector
//
//   - serverConnector: TCP-specific implementation of base.ServerConnector
//
// The default server buffer size is set to 512 KB, which is a reasonable
// default for typical workloads but can be customized for specific use cases.
package tcp
