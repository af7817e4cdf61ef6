// Package httpapi exposes the card library over HTTP.
//
// Read routes (index, character detail, downloads, stored files) are public.
// Mutating routes require a bearer token for an admin user; when no admin
// credentials are configured they answer 503 instead of running unguarded.
package httpapi
