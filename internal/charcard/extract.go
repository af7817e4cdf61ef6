package charcard

import (
	"strings"

	"cardvault/internal/pngchunk"
)

// Text chunk keywords card tools write.
const (
	KeywordChara   = "chara"
	KeywordCharaV2 = "chara_card_v2"
	KeywordAvatar  = "char_avatar"
)

// Extracted is the result of reading a card PNG.
type Extracted struct {
	Card *Card
	// Keyword is the text keyword the payload came from.
	Keyword string
	// Strategy is the payload encoding that matched.
	Strategy string
	Text     pngchunk.TextMap
	Chunks   []pngchunk.Chunk
}

// LookupPayload returns the card payload text, preferring chara over
// chara_card_v2. Blank values count as absent.
func LookupPayload(text pngchunk.TextMap) (value, keyword string, ok bool) {
	for _, key := range []string{KeywordChara, KeywordCharaV2} {
		if v, found := text[key]; found && strings.TrimSpace(v) != "" {
			return v, key, true
		}
	}
	return "", "", false
}

// FromPNG walks buf, extracts its text chunks, and decodes the card payload.
// Framing problems surface as *pngchunk.FormatError; a missing or unreadable
// payload as *DecodeError. On a DecodeError the returned Extracted still
// carries the chunks and text so callers can report what was found.
func FromPNG(buf []byte, opts ...pngchunk.TextOption) (*Extracted, error) {
	chunks, err := pngchunk.Parse(buf)
	if err != nil {
		return nil, err
	}
	out := &Extracted{
		Chunks: chunks,
		Text:   pngchunk.ExtractText(chunks, opts...),
	}
	raw, keyword, ok := LookupPayload(out.Text)
	if !ok {
		return out, &DecodeError{Err: ErrMissingPayload}
	}
	out.Keyword = keyword
	card, strategy, err := DecodePayloadStrategy(raw)
	if err != nil {
		return out, err
	}
	out.Card = card
	out.Strategy = strategy
	return out, nil
}

// EmbeddedAvatar returns the PNG stored base64-encoded under char_avatar, if
// present and well formed.
func EmbeddedAvatar(text pngchunk.TextMap) ([]byte, bool) {
	raw, ok := text[KeywordAvatar]
	if !ok {
		return nil, false
	}
	img, err := decodeBase64(raw)
	if err != nil || !pngchunk.HasSignature(img) {
		return nil, false
	}
	if _, err := pngchunk.Parse(img); err != nil {
		return nil, false
	}
	return img, true
}
