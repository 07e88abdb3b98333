// Package cli provides the interactive tripkeeper command-line client.
//
// It wires configuration, the HTTP API client and a gRPC health probe into a
// small REPL. Typical flow: signup, enter the emailed code with verify, then
// login and inspect the account with me. A background watcher shows whether
// the server is reachable.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
