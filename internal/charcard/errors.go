package charcard

import (
	"errors"
	"fmt"
)

var (
	// ErrUndecodable marks payloads that no decoding strategy could parse.
	ErrUndecodable = errors.New("cannot decode character payload")
	// ErrMissingPayload marks PNGs carrying neither a chara nor a chara_card_v2 keyword.
	ErrMissingPayload = errors.New("no character payload")
)

// DecodeError reports why a card could not be read from its payload text.
// Attempts holds the per-strategy failures in the order they were tried.
type DecodeError struct {
	Err      error
	Attempts []error
}

func (e *DecodeError) Error() string {
	if len(e.Attempts) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (%s)", e.Err, errors.Join(e.Attempts...).Error())
}

func (e *DecodeError) Unwrap() error { return e.Err }
