package transcoder

import (
	"errors"
	"fmt"
)

var (
	// ErrBinary is returned when content classified as Binary is asked to be decoded as text.
	ErrBinary = errors.New("content is binary")
	// ErrUnsupportedCodepage is returned for code pages without a known encoding.
	ErrUnsupportedCodepage = errors.New("unsupported codepage")
)

// UnmappableError reports the first code point that the ANSI code page cannot represent.
type UnmappableError struct {
	Codepage int
	Rune     rune
	// Offset is the index of the offending code unit in the wide input.
	Offset int
}

func (e *UnmappableError) Error() string {
	return fmt.Sprintf("U+%04X at offset %d is not representable in code page %d", e.Rune, e.Offset, e.Codepage)
}

// Is allows for error checking with errors.Is().
func (e *UnmappableError) Is(target error) bool {
	_, ok := target.(*UnmappableError)
	return ok
}
