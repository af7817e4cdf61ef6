package charcard

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Spec tags written by V2-aware card tools.
const (
	SpecV2        = "chara_card_v2"
	SpecVersionV2 = "2.0"
)

// Card is a decoded character card. V1 cards, which keep their fields at the
// top level, are lifted into Data on decode.
type Card struct {
	Spec        string   `json:"spec,omitempty"`
	SpecVersion string   `json:"spec_version,omitempty"`
	Data        CardData `json:"data"`
}

// CardData holds the card fields the catalog cares about. Every field is
// optional.
type CardData struct {
	Name             string      `json:"name,omitempty"`
	Description      string      `json:"description,omitempty"`
	FirstMes         string      `json:"first_mes,omitempty"`
	Creator          string      `json:"creator,omitempty"`
	CharacterVersion LooseString `json:"character_version,omitempty"`
	Tags             TagList     `json:"tags,omitempty"`
}

// LooseString accepts any JSON value. Strings are kept, numbers and booleans
// become their text, and null, arrays and objects decode as empty. Card tools
// disagree on field types, e.g. character_version "1.2" versus 1.2.
type LooseString string

func (s *LooseString) UnmarshalJSON(b []byte) error {
	v, err := decodeAny(b)
	if err != nil {
		return err
	}
	*s = LooseString(scalarText(v))
	return nil
}

// CardData decodes every text field through LooseString so a card with an
// oddly typed optional field still parses.
func (d *CardData) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name             LooseString `json:"name"`
		Description      LooseString `json:"description"`
		FirstMes         LooseString `json:"first_mes"`
		Creator          LooseString `json:"creator"`
		CharacterVersion LooseString `json:"character_version"`
		Tags             TagList     `json:"tags"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = CardData{
		Name:             string(raw.Name),
		Description:      string(raw.Description),
		FirstMes:         string(raw.FirstMes),
		Creator:          string(raw.Creator),
		CharacterVersion: raw.CharacterVersion,
		Tags:             raw.Tags,
	}
	return nil
}

func decodeAny(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func scalarText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// TagList accepts an array of strings or numbers, or a single comma-separated
// string. Blank and non-scalar entries are dropped, as is any other value.
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	v, err := decodeAny(b)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*t = cleanTags(strings.Split(x, ","))
	case []any:
		tags := make([]string, 0, len(x))
		for _, item := range x {
			switch item.(type) {
			case string, json.Number:
				tags = append(tags, scalarText(item))
			}
		}
		*t = cleanTags(tags)
	default:
		*t = nil
	}
	return nil
}

func cleanTags(in []string) TagList {
	out := make(TagList, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseCard decodes a card document. A top-level array yields its first
// object element. A data value that is not an object means a V1 card, whose
// top-level fields become Data.
func parseCard(doc []byte) (*Card, error) {
	doc = bytes.TrimSpace(doc)
	if len(doc) > 0 && doc[0] == '[' {
		obj, err := firstObject(doc)
		if err != nil {
			return nil, err
		}
		doc = obj
	}
	var envelope struct {
		Spec        LooseString     `json:"spec"`
		SpecVersion LooseString     `json:"spec_version"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, err
	}
	card := &Card{Spec: string(envelope.Spec), SpecVersion: string(envelope.SpecVersion)}
	src := bytes.TrimSpace(envelope.Data)
	if len(src) == 0 || src[0] != '{' {
		src = doc
	}
	if err := json.Unmarshal(src, &card.Data); err != nil {
		return nil, err
	}
	return card, nil
}

var errNoCardObject = errors.New("json array holds no card object")

func firstObject(doc []byte) ([]byte, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(doc, &items); err != nil {
		return nil, err
	}
	for _, item := range items {
		if item = bytes.TrimSpace(item); len(item) > 0 && item[0] == '{' {
			return item, nil
		}
	}
	return nil, errNoCardObject
}
