// Package preflight provides readiness checks for the filesystem paths and
// stores that cardvault depends on.
//
// The CLI "cardvault doctor" command runs RunAll and prints each result;
// "cardvault serve" runs the same checks at startup and refuses to listen
// when one fails. Checks for a backend that is not selected are skipped.
package preflight
