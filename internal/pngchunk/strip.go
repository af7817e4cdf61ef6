package pngchunk

// IsEssential reports whether a chunk is needed to decode the image. PLTE and
// tRNS only count when they carry data.
func IsEssential(c Chunk) bool {
	switch c.Type {
	case TypeIHDR, TypeIDAT, TypeIEND:
		return true
	case TypePLTE, TypeTRNS:
		return c.Length > 0
	default:
		return false
	}
}

// StripMetadata returns a copy of buf holding only image-essential chunks.
// Kept chunks are copied byte for byte, CRC included, so the result decodes
// to the same pixels. Stripping is idempotent.
func StripMetadata(buf []byte) ([]byte, error) {
	chunks, err := ParseWithOptions(buf, Options{StopAtIEND: false})
	if err != nil {
		return nil, err
	}
	kept := chunks[:0:0]
	for _, c := range chunks {
		if IsEssential(c) {
			kept = append(kept, c)
		}
	}
	return Encode(kept), nil
}
