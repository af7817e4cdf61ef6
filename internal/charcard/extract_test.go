package charcard_test

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	"cardvault/internal/charcard"
	"cardvault/internal/pngchunk"
	"cardvault/internal/testsupport"
)

// rinPNG hand-assembles signature, IHDR, a chara tEXt chunk, a one-byte IDAT,
// and IEND.
func rinPNG(t *testing.T) ([]byte, string) {
	t.Helper()
	payload := base64.StdEncoding.EncodeToString(
		[]byte(`{"spec":"chara_card_v2","spec_version":"2.0","data":{"name":"Rin","description":"Test"}}`))

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1)
	binary.BigEndian.PutUint32(ihdr[4:8], 1)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	buf := pngchunk.Encode([]pngchunk.Chunk{
		pngchunk.NewChunk("IHDR", ihdr),
		testsupport.TextChunk("chara", payload),
		pngchunk.NewChunk("IDAT", []byte{0x00}),
		pngchunk.NewChunk("IEND", nil),
	})
	return buf, payload
}

func TestRinCardEndToEnd(t *testing.T) {
	buf, payload := rinPNG(t)

	chunks, err := pngchunk.Parse(buf)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	text := pngchunk.ExtractText(chunks)
	if len(text) != 1 || text["chara"] != payload {
		t.Fatalf("unexpected text map %v", text)
	}

	card, err := charcard.DecodePayload(text["chara"])
	if err != nil {
		t.Fatalf("DecodePayload returned error: %v", err)
	}
	if card.Data.Name != "Rin" || card.Data.Description != "Test" {
		t.Fatalf("unexpected card data %+v", card.Data)
	}

	stripped, err := pngchunk.StripMetadata(buf)
	if err != nil {
		t.Fatalf("StripMetadata returned error: %v", err)
	}
	want := pngchunk.Encode([]pngchunk.Chunk{chunks[0], chunks[2], chunks[3]})
	if !bytes.Equal(stripped, want) {
		t.Fatal("stripped output should be signature + IHDR + IDAT + IEND")
	}
}

func TestFromPNG(t *testing.T) {
	buf := testsupport.CardPNG(t, map[string]any{"name": "Alice", "tags": []string{"x"}})

	got, err := charcard.FromPNG(buf)
	if err != nil {
		t.Fatalf("FromPNG returned error: %v", err)
	}
	if got.Keyword != charcard.KeywordChara || got.Strategy != charcard.StrategyBase64 {
		t.Fatalf("keyword=%q strategy=%q", got.Keyword, got.Strategy)
	}
	if got.Card.Data.Name != "Alice" || len(got.Card.Data.Tags) != 1 {
		t.Fatalf("unexpected card %+v", got.Card.Data)
	}
}

func TestFromPNGFallsBackToCharaCardV2(t *testing.T) {
	doc := testsupport.CardJSON(t, map[string]any{"name": "Fallback"})
	buf := testsupport.BuildPNG(t,
		testsupport.TextChunk("chara", "   "),
		testsupport.ITextChunk(t, "chara_card_v2", doc, true),
	)

	got, err := charcard.FromPNG(buf)
	if err != nil {
		t.Fatalf("FromPNG returned error: %v", err)
	}
	if got.Keyword != charcard.KeywordCharaV2 || got.Card.Data.Name != "Fallback" {
		t.Fatalf("keyword=%q card=%+v", got.Keyword, got.Card)
	}
}

func TestFromPNGErrors(t *testing.T) {
	if _, err := charcard.FromPNG([]byte("nope")); err == nil {
		t.Fatal("expected format error")
	} else {
		var formatErr *pngchunk.FormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("expected FormatError, got %v", err)
		}
	}

	got, err := charcard.FromPNG(testsupport.BuildPNG(t, testsupport.TextChunk("Comment", "hi")))
	if !errors.Is(err, charcard.ErrMissingPayload) {
		t.Fatalf("expected ErrMissingPayload, got %v", err)
	}
	if got == nil || got.Text["Comment"] != "hi" {
		t.Fatalf("expected partial result with text, got %+v", got)
	}

	_, err = charcard.FromPNG(testsupport.BuildPNG(t, testsupport.TextChunk("chara", "%%%")))
	if !errors.Is(err, charcard.ErrUndecodable) {
		t.Fatalf("expected ErrUndecodable, got %v", err)
	}
}

func TestEmbeddedAvatar(t *testing.T) {
	avatar := testsupport.BasePNG(t)
	text := pngchunk.TextMap{charcard.KeywordAvatar: base64.StdEncoding.EncodeToString(avatar)}

	got, ok := charcard.EmbeddedAvatar(text)
	if !ok || !bytes.Equal(got, avatar) {
		t.Fatal("expected embedded avatar bytes")
	}

	for name, value := range map[string]string{
		"not base64": "***",
		"not png":    base64.StdEncoding.EncodeToString([]byte("GIF89a")),
	} {
		if _, ok := charcard.EmbeddedAvatar(pngchunk.TextMap{charcard.KeywordAvatar: value}); ok {
			t.Fatalf("%s: expected no avatar", name)
		}
	}
	if _, ok := charcard.EmbeddedAvatar(pngchunk.TextMap{}); ok {
		t.Fatal("expected no avatar when keyword absent")
	}
}
