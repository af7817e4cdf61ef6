// Package blobstore stores card and avatar files.
//
// A Backend is chosen once at startup from [storage].backend: Local writes
// under a directory served by the API's /files route, Remote talks to an
// object-storage HTTP endpoint with a bearer token. Paths are slash
// separated and relative, e.g. characters/{id}/card.png.
package blobstore
