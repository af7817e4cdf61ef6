package pngchunk

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"cardvault/internal/logging"
)

// TextMap maps a text chunk keyword to its decoded value. When several
// chunks share a keyword the last one in file order wins.
type TextMap map[string]string

// TextOption configures ExtractText.
type TextOption func(*textConfig)

type textConfig struct {
	ascii  bool
	logger *slog.Logger
}

// WithASCII decodes tEXt bytes as 7-bit ASCII instead of Latin-1. Bytes in
// the 0-127 range decode identically either way.
func WithASCII() TextOption {
	return func(c *textConfig) { c.ascii = true }
}

// WithLogger reports skipped text chunks to logger.
func WithLogger(logger *slog.Logger) TextOption {
	return func(c *textConfig) { c.logger = logger }
}

var (
	errMissingSeparator  = errors.New("missing NUL separator")
	errTruncatedHeader   = errors.New("truncated header")
	errUnsupportedMethod = errors.New("unsupported compression method")
	errUnsupportedFlag   = errors.New("unsupported compression flag")
)

// ExtractText decodes every tEXt, zTXt, and iTXt chunk into a TextMap.
// Malformed or undecodable text chunks are skipped; other chunk types are
// ignored.
func ExtractText(chunks []Chunk, opts ...TextOption) TextMap {
	cfg := textConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	out := make(TextMap)
	for i, c := range chunks {
		var (
			keyword string
			text    string
			err     error
		)
		switch c.Type {
		case TypeTEXT:
			keyword, text, err = decodeTEXt(c.Data, cfg.ascii)
		case TypeZTXT:
			keyword, text, err = decodeZTXt(c.Data)
		case TypeITXT:
			keyword, text, err = decodeITXt(c.Data)
		default:
			continue
		}
		if err != nil {
			logging.WarnWithContext(logger, "png text chunk skipped", "png_text_chunk_skipped",
				logging.String("chunk_type", c.Type),
				logging.Int("chunk_index", i),
				logging.String("keyword", keyword),
				logging.Error(err),
				logging.String(logging.FieldImpact, "keyword omitted from extracted metadata"),
				logging.String(logging.FieldErrorHint, "re-export the card with an uncompressed tEXt chunk"),
			)
			continue
		}
		out[keyword] = text
	}
	return out
}

// tEXt: keyword NUL text, both Latin-1.
func decodeTEXt(data []byte, ascii bool) (string, string, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", "", errMissingSeparator
	}
	return decodeSingleByte(data[:idx], ascii), decodeSingleByte(data[idx+1:], ascii), nil
}

// zTXt: keyword NUL method(1) compressed-text.
func decodeZTXt(data []byte) (string, string, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", "", errMissingSeparator
	}
	keyword := decodeLatin1(data[:idx])
	rest := data[idx+1:]
	if len(rest) < 1 {
		return keyword, "", errTruncatedHeader
	}
	if rest[0] != 0 {
		return keyword, "", errUnsupportedMethod
	}
	raw, err := Inflate(rest[1:])
	if err != nil {
		return keyword, "", err
	}
	return keyword, decodeUTF8(raw), nil
}

// iTXt: keyword NUL flag(1) method(1) language NUL translated-keyword NUL text.
func decodeITXt(data []byte) (string, string, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", "", errMissingSeparator
	}
	keyword := decodeLatin1(data[:idx])
	rest := data[idx+1:]
	if len(rest) < 2 {
		return keyword, "", errTruncatedHeader
	}
	flag, method := rest[0], rest[1]
	rest = rest[2:]

	langEnd := bytes.IndexByte(rest, 0)
	if langEnd < 0 {
		return keyword, "", errMissingSeparator
	}
	rest = rest[langEnd+1:]
	translatedEnd := bytes.IndexByte(rest, 0)
	if translatedEnd < 0 {
		return keyword, "", errMissingSeparator
	}
	body := rest[translatedEnd+1:]

	switch flag {
	case 0:
		return keyword, decodeUTF8(body), nil
	case 1:
		if method != 0 {
			return keyword, "", errUnsupportedMethod
		}
		raw, err := Inflate(body)
		if err != nil {
			return keyword, "", err
		}
		return keyword, decodeUTF8(raw), nil
	default:
		return keyword, "", errUnsupportedFlag
	}
}

func decodeSingleByte(b []byte, ascii bool) string {
	if ascii {
		return decodeASCII(b)
	}
	return decodeLatin1(b)
}

func decodeLatin1(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return decodeASCII(b)
	}
	return string(out)
}

// decodeASCII drops the high bit of every byte.
func decodeASCII(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c & 0x7f
	}
	return string(out)
}

func decodeUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
