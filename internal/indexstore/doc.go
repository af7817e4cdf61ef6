// Package indexstore persists the catalog index behind a single
// read-modify-write entry point.
//
// Two backends exist: a JSON document guarded by an advisory file lock, and
// a SQLite database relying on immediate transactions. Both stamp
// last_updated on every committed update and hand out deep copies.
package indexstore
