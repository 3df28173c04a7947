package transcoder

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ansiReplacement is written in place of characters the ANSI code page lacks.
const ansiReplacement = '.'

// ANSICodec converts between wide text and one legacy narrow code page.
type ANSICodec struct {
	codepage int
	enc      encoding.Encoding
	// single-byte tables are converted without the transform machinery
	table *charmap.Charmap
}

// NewANSICodec returns a codec for the given Windows code page number.
func NewANSICodec(codepage int) (*ANSICodec, error) {
	enc, err := lookupANSI(codepage)
	if err != nil {
		return nil, err
	}
	c := &ANSICodec{codepage: codepage, enc: enc}
	if cm, ok := enc.(*charmap.Charmap); ok {
		c.table = cm
	}
	return c, nil
}

// Codepage returns the Windows code page number of c.
func (c *ANSICodec) Codepage() int { return c.codepage }

// Encoding returns the x/text encoding behind c.
func (c *ANSICodec) Encoding() encoding.Encoding { return c.enc }

// Encode narrows w, replacing unmappable characters with '.'. It also
// returns how many replacements were made.
func (c *ANSICodec) Encode(w Wide) ([]byte, int) {
	if len(w) == 0 {
		return nil, 0
	}
	out := make([]byte, 0, len(w))
	substitutions := 0
	enc := c.newRuneEncoder()
	for i := 0; i < len(w); {
		r, n, valid := nextRune(w, i)
		ok := false
		if valid {
			out, ok = enc(out, r)
		}
		if !ok {
			out = append(out, ansiReplacement)
			substitutions++
		}
		i += n
	}
	return out, substitutions
}

// EncodeStrict narrows w and fails on the first unmappable character.
func (c *ANSICodec) EncodeStrict(w Wide) ([]byte, error) {
	if len(w) == 0 {
		return nil, nil
	}
	out := make([]byte, 0, len(w))
	enc := c.newRuneEncoder()
	for i := 0; i < len(w); {
		r, n, valid := nextRune(w, i)
		if !valid {
			return nil, &UnmappableError{Codepage: c.codepage, Rune: rune(w[i]), Offset: i}
		}
		var ok bool
		if out, ok = enc(out, r); !ok {
			return nil, &UnmappableError{Codepage: c.codepage, Rune: r, Offset: i}
		}
		i += n
	}
	return out, nil
}

// Decode widens b. Zero-length input returns nil.
func (c *ANSICodec) Decode(b []byte) Wide {
	if len(b) == 0 {
		return nil
	}
	if c.table != nil {
		out := make(Wide, 0, len(b))
		for _, x := range b {
			out = utf16.AppendRune(out, c.table.DecodeByte(x))
		}
		return out
	}
	// x/text decoders substitute U+FFFD for invalid sequences rather than failing
	s, _ := c.enc.NewDecoder().Bytes(b)
	return UTF8ToWide(s)
}

type runeEncoder func(dst []byte, r rune) ([]byte, bool)

func (c *ANSICodec) newRuneEncoder() runeEncoder {
	if c.table != nil {
		return func(dst []byte, r rune) ([]byte, bool) {
			b, ok := c.table.EncodeRune(r)
			if !ok {
				return dst, false
			}
			return append(dst, b), true
		}
	}
	e := c.enc.NewEncoder()
	var buf [utf8.UTFMax]byte
	return func(dst []byte, r rune) ([]byte, bool) {
		if r < utf8.RuneSelf {
			return append(dst, byte(r)), true
		}
		n := utf8.EncodeRune(buf[:], r)
		b, err := e.Bytes(buf[:n])
		if err != nil {
			return dst, false
		}
		return append(dst, b...), true
	}
}

// nextRune decodes the code point starting at w[i] and how many units it
// spans. An unpaired surrogate reports valid false and decodes as
// utf8.RuneError; a literal U+FFFD in w is valid.
func nextRune(w Wide, i int) (r rune, n int, valid bool) {
	u := rune(w[i])
	if utf16.IsSurrogate(u) {
		if i+1 < len(w) {
			if r := utf16.DecodeRune(u, rune(w[i+1])); r != utf8.RuneError {
				return r, 2, true
			}
		}
		return utf8.RuneError, 1, false
	}
	return u, 1, true
}

// WideToANSI narrows w into the active ANSI code page.
func WideToANSI(w Wide) []byte {
	out, _ := ActiveANSI().Encode(w)
	return out
}

// ANSIToWide widens b from the active ANSI code page.
func ANSIToWide(b []byte) Wide {
	return ActiveANSI().Decode(b)
}

// WideToUTF8 converts w to UTF-8. Unpaired surrogates become U+FFFD.
func WideToUTF8(w Wide) []byte {
	if len(w) == 0 {
		return nil
	}
	out := make([]byte, 0, len(w))
	for i := 0; i < len(w); {
		r, n, _ := nextRune(w, i)
		out = utf8.AppendRune(out, r)
		i += n
	}
	return out
}

// UTF8ToWide converts b to UTF-16. Invalid bytes are consumed one at a time
// as U+FFFD; validation is DetectEncoding's job.
func UTF8ToWide(b []byte) Wide {
	if len(b) == 0 {
		return nil
	}
	out := make(Wide, 0, len(b))
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		out = utf16.AppendRune(out, r)
		b = b[n:]
	}
	return out
}

// UTF-8 is the interchange form for internal text.
var (
	StringToUTF8 = WideToUTF8
	UTF8ToString = UTF8ToWide
)

// WideString converts s to wide text.
func WideString(s string) Wide {
	return UTF8ToWide([]byte(s))
}

func (w Wide) String() string {
	return string(WideToUTF8(w))
}
