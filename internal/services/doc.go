// Package services defines shared utilities consumed by the library service,
// the HTTP API, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp character IDs, operation names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses and CLI messages.
package services
