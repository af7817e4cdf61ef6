package pngchunk

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// MaxInflatedSize caps the output of a single decompression.
const MaxInflatedSize = 32 << 20

// ErrInflateLimit is returned when decompressed data exceeds MaxInflatedSize.
var ErrInflateLimit = errors.New("inflated data exceeds size limit")

// Inflate decompresses deflate data. PNG text chunks carry zlib-wrapped
// streams while some card tools emit bare deflate, so the zlib form is tried
// first and raw deflate second.
func Inflate(data []byte) ([]byte, error) {
	if out, err := inflateZlib(data); err == nil {
		return out, nil
	} else if errors.Is(err, ErrInflateLimit) {
		return nil, err
	}
	out, err := readLimited(flate.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

func inflateZlib(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return readLimited(zr)
}

func readLimited(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	out, err := io.ReadAll(io.LimitReader(rc, MaxInflatedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxInflatedSize {
		return nil, ErrInflateLimit
	}
	return out, nil
}
