// Package cmd implements the command-line interface for tstore: a
// hierarchical command structure for running a store server and acting as a
// client against one.
//
// The package is organized into subpackages:
//
//   - serve: starts a TransientStore server
//   - store: client subcommands (create, exists, get, put, delete, remove)
//   - util: shared flag/config wiring (internal use)
//
// See tstore -help for the full command list.
package cmd
