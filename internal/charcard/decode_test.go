package charcard_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"

	"cardvault/internal/charcard"
	"cardvault/internal/testsupport"
)

const aliceJSON = `{"spec":"chara_card_v2","spec_version":"2.0","data":{"name":"Alice"}}`

func rawDeflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		t.Fatalf("flate writer: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePayloadStrategies(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString

	tests := []struct {
		name     string
		raw      string
		strategy string
	}{
		{"plain json", aliceJSON, charcard.StrategyJSON},
		{"plain json padded", "  \n" + aliceJSON + "\n", charcard.StrategyJSON},
		{"base64", b64([]byte(aliceJSON)), charcard.StrategyBase64},
		{"base64 raw", base64.RawStdEncoding.EncodeToString([]byte(aliceJSON + " ")), charcard.StrategyBase64},
		{"base64 url", base64.URLEncoding.EncodeToString([]byte(aliceJSON)), charcard.StrategyBase64},
		{"base64 wrapped lines", b64([]byte(aliceJSON))[:20] + "\n" + b64([]byte(aliceJSON))[20:], charcard.StrategyBase64},
		{"base64 zlib", b64(testsupport.Deflate(t, []byte(aliceJSON))), charcard.StrategyBase64Deflate},
		{"base64 raw deflate", b64(rawDeflate(t, []byte(aliceJSON))), charcard.StrategyBase64Deflate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, strategy, err := charcard.DecodePayloadStrategy(tt.raw)
			if err != nil {
				t.Fatalf("DecodePayloadStrategy returned error: %v", err)
			}
			if strategy != tt.strategy {
				t.Fatalf("strategy = %q want %q", strategy, tt.strategy)
			}
			if card.Data.Name != "Alice" {
				t.Fatalf("name = %q", card.Data.Name)
			}
			if card.Spec != charcard.SpecV2 || card.SpecVersion != charcard.SpecVersionV2 {
				t.Fatalf("unexpected spec tags %q %q", card.Spec, card.SpecVersion)
			}
		})
	}
}

func TestDecodePayloadFailures(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString
	cases := map[string]string{
		"empty":             "",
		"garbage":           "not a card at all!",
		"broken json":       `{"data": {"name": "x"`,
		"array of strings":  `["chara"]`,
		"base64 of text":    b64([]byte("hello world")),
		"base64 of garbage": b64([]byte{0xff, 0x00, 0x13, 0x37}),
		"deflate of text":   b64(testsupport.Deflate(t, []byte("not json"))),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			card, err := charcard.DecodePayload(raw)
			if card != nil {
				t.Fatalf("expected no card, got %+v", card)
			}
			var decodeErr *charcard.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if !errors.Is(err, charcard.ErrUndecodable) {
				t.Fatalf("expected ErrUndecodable, got %v", err)
			}
		})
	}
}

func TestDecodePayloadDoesNotApplyDefaults(t *testing.T) {
	card, err := charcard.DecodePayload(`{"spec":"chara_card_v2","data":{}}`)
	if err != nil {
		t.Fatalf("DecodePayload returned error: %v", err)
	}
	if card.Data.Name != "" || card.Data.Description != "" || card.Data.CharacterVersion != "" {
		t.Fatalf("decoder must not fill defaults, got %+v", card.Data)
	}
}

func TestDecodePayloadLiftsV1Cards(t *testing.T) {
	card, err := charcard.DecodePayload(`{"name":"Old","description":"v1 card","first_mes":"hi","creator":"me"}`)
	if err != nil {
		t.Fatalf("DecodePayload returned error: %v", err)
	}
	if card.Spec != "" {
		t.Fatalf("expected empty spec for V1, got %q", card.Spec)
	}
	want := charcard.CardData{Name: "Old", Description: "v1 card", FirstMes: "hi", Creator: "me"}
	if card.Data.Name != want.Name || card.Data.Description != want.Description ||
		card.Data.FirstMes != want.FirstMes || card.Data.Creator != want.Creator {
		t.Fatalf("got %+v want %+v", card.Data, want)
	}
}

func TestDecodePayloadTolerantFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want charcard.CardData
	}{
		{
			name: "numeric version and mixed tags",
			raw:  `{"data":{"character_version":2.5,"tags":["a"," ",3,"b",null]}}`,
			want: charcard.CardData{CharacterVersion: "2.5", Tags: charcard.TagList{"a", "3", "b"}},
		},
		{
			name: "comma separated tags and null version",
			raw:  `{"data":{"tags":"fantasy, mage ,","character_version":null}}`,
			want: charcard.CardData{Tags: charcard.TagList{"fantasy", "mage"}},
		},
		{
			name: "number description",
			raw:  `{"spec":"chara_card_v2","spec_version":"2.0","data":{"name":"Bob","description":7}}`,
			want: charcard.CardData{Name: "Bob", Description: "7"},
		},
		{
			name: "array creator dropped",
			raw:  `{"spec":"chara_card_v2","spec_version":"2.0","data":{"name":"Bob","creator":["a"]}}`,
			want: charcard.CardData{Name: "Bob"},
		},
		{
			name: "object and bool fields",
			raw:  `{"data":{"name":{"first":"x"},"first_mes":true,"tags":{"a":1}}}`,
			want: charcard.CardData{FirstMes: "true"},
		},
		{
			name: "numeric spec and string data means v1",
			raw:  `{"spec":2,"data":"none","name":"Flat"}`,
			want: charcard.CardData{Name: "Flat"},
		},
		{
			name: "array takes first object",
			raw:  `[1, {"spec":"chara_card_v2","data":{"name":"Alice"}}, {"data":{"name":"Other"}}]`,
			want: charcard.CardData{Name: "Alice"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, strategy, err := charcard.DecodePayloadStrategy(tt.raw)
			if err != nil {
				t.Fatalf("DecodePayloadStrategy returned error: %v", err)
			}
			if strategy != charcard.StrategyJSON {
				t.Fatalf("strategy = %q", strategy)
			}
			got := card.Data
			if got.Name != tt.want.Name || got.Description != tt.want.Description ||
				got.FirstMes != tt.want.FirstMes || got.Creator != tt.want.Creator ||
				got.CharacterVersion != tt.want.CharacterVersion {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
			if strings.Join(got.Tags, "|") != strings.Join(tt.want.Tags, "|") {
				t.Fatalf("tags = %q want %q", got.Tags, tt.want.Tags)
			}
		})
	}
}
