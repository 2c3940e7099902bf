// Package cli provides the interactive tipsync command-line client.
//
// It wires configuration, local storage, the document store client and the
// tip services into a REPL that keeps working while the server is away.
// Background loops watch server reachability, upgrade offline sessions,
// and run periodic sync passes.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
