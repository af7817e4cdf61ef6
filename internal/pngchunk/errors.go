package pngchunk

import "fmt"

const (
	reasonSignature = "not a valid PNG"
	reasonTruncated = "truncated chunk"
)

// FormatError reports corrupted PNG framing. No partial chunk list is ever
// returned alongside it.
type FormatError struct {
	Reason string
	// Offset is the byte position where the problem was detected, or -1 when
	// it does not apply.
	Offset int
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("png format: %s at offset %d", e.Reason, e.Offset)
	}
	return "png format: " + e.Reason
}

// IsSignatureError reports whether err was caused by a missing PNG signature.
func (e *FormatError) IsSignatureError() bool {
	return e != nil && e.Reason == reasonSignature
}

func signatureError() error {
	return &FormatError{Reason: reasonSignature, Offset: -1}
}

func truncatedError(offset int) error {
	return &FormatError{Reason: reasonTruncated, Offset: offset}
}
