// Package http implements an HTTP-based transport for the store's RPC
// system, enabling communication between a client and server over plain
// HTTP POST requests.
//
// The package focuses on:
//   - Client-side HTTP transport for sending RPC requests to servers
//   - Server-side HTTP transport for receiving and handling RPC requests
//   - Round-robin load balancing across multiple server endpoints
//
// Key Components:
//
//   - httpClientTransport: implements transport.ClientTransport, managing
//     connections to server endpoints and round-robin load balancing with
//     a bounded retry count.
//
//   - httpServerTransport: implements transport.ServerTransport, running
//     an HTTP server that forwards every request body to the registered
//     handler.
//
// Thread Safety:
//
//	The client transport is safe for concurrent use; it uses atomic
//	operations for the round-robin counter.
package http
