package charcard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"cardvault/internal/pngchunk"
)

// Strategy names, in the order DecodePayload tries them.
const (
	StrategyJSON          = "json"
	StrategyBase64        = "base64"
	StrategyBase64Deflate = "base64+deflate"
)

var errEmptyPayload = errors.New("empty payload")

// base64 variants seen in the wild. Padding and alphabet both vary by tool.
var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodePayload parses raw chara text into a Card. See DecodePayloadStrategy.
func DecodePayload(raw string) (*Card, error) {
	card, _, err := DecodePayloadStrategy(raw)
	return card, err
}

// DecodePayloadStrategy parses raw chara text and reports which encoding
// matched: plain JSON when the trimmed text opens with { or [, then base64
// JSON, then base64 of a deflate stream. The first strategy to parse wins.
// When none does the error is a *DecodeError wrapping ErrUndecodable.
func DecodePayloadStrategy(raw string) (*Card, string, error) {
	var attempts []error
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		card, err := parseCard([]byte(trimmed))
		if err == nil {
			return card, StrategyJSON, nil
		}
		attempts = append(attempts, fmt.Errorf("%s: %w", StrategyJSON, err))
	}

	decoded, err := decodeBase64(trimmed)
	if err != nil {
		attempts = append(attempts, fmt.Errorf("%s: %w", StrategyBase64, err))
		return nil, "", &DecodeError{Err: ErrUndecodable, Attempts: attempts}
	}

	card, err := parseCard(decoded)
	if err == nil {
		return card, StrategyBase64, nil
	}
	attempts = append(attempts, fmt.Errorf("%s: %w", StrategyBase64, err))

	inflated, err := pngchunk.Inflate(decoded)
	if err == nil {
		card, err = parseCard(inflated)
		if err == nil {
			return card, StrategyBase64Deflate, nil
		}
	}
	attempts = append(attempts, fmt.Errorf("%s: %w", StrategyBase64Deflate, err))
	return nil, "", &DecodeError{Err: ErrUndecodable, Attempts: attempts}
}

// decodeBase64 ignores embedded whitespace, which line-wrapping tools insert.
func decodeBase64(s string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if compact == "" {
		return nil, errEmptyPayload
	}
	var firstErr error
	for _, enc := range encodings {
		out, err := enc.DecodeString(compact)
		if err == nil {
			return out, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
