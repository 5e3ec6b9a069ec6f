// Package cli provides the interactive DevHabit command-line client.
//
// It wires configuration, the HTTP API client and a REPL. A background
// watcher pings the server and shows online/offline in the prompt.
//
// Commands:
//   - register / login
//   - me (profile of the logged in user)
//   - refresh (rotate the token pair)
//   - logout
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
