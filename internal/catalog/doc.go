// Package catalog defines the persisted index document and the policy that
// turns a decoded card into a catalog entry.
//
// The decoder in package charcard never invents values. ApplyDefaults is the
// single place where a missing name falls back to the upload's file name and
// then to the configured default, and where a missing description or version
// gets its configured default.
package catalog
