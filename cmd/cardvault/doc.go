// Package main hosts the cardvault CLI entrypoint and command graph.
//
// The Cobra command tree covers three kinds of work: serving the HTTP API,
// offline PNG tooling (inspect, strip, validate) that never touches the
// catalog, and catalog maintenance (import, list, remove) against the
// configured index and blob stores. Configuration, logging, and store wiring
// live in commandContext so subcommands only describe their output.
package main
