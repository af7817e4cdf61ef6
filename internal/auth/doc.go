// Package auth checks admin credentials and issues the bearer tokens that
// guard mutating API routes.
package auth
