// Package library runs the card workflows behind the API and CLI: validate
// an upload, store its card and avatar, and keep the catalog index in step.
//
// The PNG codec and payload decoder stay pure; this package owns every side
// effect (blob writes, index updates, download counters) and the defaults
// policy applied to decoded cards.
package library
