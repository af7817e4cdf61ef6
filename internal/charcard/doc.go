// Package charcard decodes the character card JSON embedded in PNG text chunks.
//
// DecodePayload accepts the raw text stored under the chara keyword and tries
// plain JSON, base64 JSON, then base64 of a deflate stream, returning the first
// encoding that parses. FromPNG runs the whole read path: walk the chunks,
// extract text, pick the payload keyword, decode.
//
// The package only parses. Filling in missing names, versions, or
// descriptions is catalog policy and happens in package catalog.
package charcard
