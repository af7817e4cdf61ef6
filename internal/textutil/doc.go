// Package textutil provides file name helpers: sanitizing names for download
// headers and storage, and deriving a display name from an uploaded file name.
package textutil
