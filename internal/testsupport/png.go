package testsupport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/klauspost/compress/zlib"

	"cardvault/internal/pngchunk"
)

// BasePNG encodes a small real image so tests can round-trip through
// image/png. The result carries only IHDR, IDAT, and IEND.
func BasePNG(t testing.TB) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	img.Set(1, 0, color.NRGBA{G: 0xff, A: 0xff})
	img.Set(0, 1, color.NRGBA{B: 0xff, A: 0xff})
	img.Set(1, 1, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x80})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode base png: %v", err)
	}
	return buf.Bytes()
}

// BuildPNG inserts extra chunks right after the IHDR chunk of BasePNG.
func BuildPNG(t testing.TB, extra ...pngchunk.Chunk) []byte {
	t.Helper()

	chunks, err := pngchunk.ParseWithOptions(BasePNG(t), pngchunk.Options{})
	if err != nil {
		t.Fatalf("parse base png: %v", err)
	}
	out := make([]pngchunk.Chunk, 0, len(chunks)+len(extra))
	out = append(out, chunks[0])
	out = append(out, extra...)
	out = append(out, chunks[1:]...)
	return pngchunk.Encode(out)
}

// TextChunk builds a tEXt chunk. keyword and text are written byte for byte.
func TextChunk(keyword, text string) pngchunk.Chunk {
	data := make([]byte, 0, len(keyword)+1+len(text))
	data = append(data, keyword...)
	data = append(data, 0)
	data = append(data, text...)
	return pngchunk.NewChunk(pngchunk.TypeTEXT, data)
}

// ZTextChunk builds a zTXt chunk with the given compression method byte.
func ZTextChunk(t testing.TB, keyword, text string, method byte) pngchunk.Chunk {
	t.Helper()

	data := append([]byte(keyword), 0, method)
	data = append(data, Deflate(t, []byte(text))...)
	return pngchunk.NewChunk(pngchunk.TypeZTXT, data)
}

// ITextChunk builds an iTXt chunk, compressing text when compressed is set.
func ITextChunk(t testing.TB, keyword, text string, compressed bool) pngchunk.Chunk {
	t.Helper()

	data := append([]byte(keyword), 0)
	body := []byte(text)
	if compressed {
		data = append(data, 1, 0)
		body = Deflate(t, body)
	} else {
		data = append(data, 0, 0)
	}
	data = append(data, "en"...)
	data = append(data, 0)
	data = append(data, keyword...)
	data = append(data, 0)
	data = append(data, body...)
	return pngchunk.NewChunk(pngchunk.TypeITXT, data)
}

// Deflate compresses data as a zlib stream.
func Deflate(t testing.TB, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

// CardJSON marshals a chara_card_v2 document around data.
func CardJSON(t testing.TB, data map[string]any) string {
	t.Helper()

	doc := map[string]any{
		"spec":         "chara_card_v2",
		"spec_version": "2.0",
		"data":         data,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal card: %v", err)
	}
	return string(raw)
}

// CardPNG builds a PNG whose chara tEXt chunk holds base64(CardJSON(data)).
func CardPNG(t testing.TB, data map[string]any, extra ...pngchunk.Chunk) []byte {
	t.Helper()

	payload := base64.StdEncoding.EncodeToString([]byte(CardJSON(t, data)))
	chunks := append([]pngchunk.Chunk{TextChunk("chara", payload)}, extra...)
	return BuildPNG(t, chunks...)
}
