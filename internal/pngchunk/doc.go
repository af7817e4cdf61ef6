// Package pngchunk walks, inspects, and rewrites PNG files at the chunk level.
//
// Pixel data is never decoded: chunks are treated as opaque length-prefixed
// segments. The package exposes three operations used by the character card
// workflows:
//   - Parse/ParseWithOptions split a buffer into its ordered chunks
//   - ExtractText collects tEXt, zTXt, and iTXt keyword/text pairs
//   - StripMetadata rebuilds a PNG that only carries image-essential chunks
//
// Framing problems (bad signature, chunk lengths that overrun the buffer) are
// reported as *FormatError and abort the operation. Problems inside a single
// text chunk are soft: the chunk is skipped and ExtractText carries on.
package pngchunk
