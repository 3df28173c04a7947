package transcoder

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// EncodingFor maps a codepage to an x/text encoding. Decoders strip a leading
// BOM; encoders never write one.
func EncodingFor(cp Codepage) (encoding.Encoding, error) {
	switch cp {
	case ANSI:
		return ActiveANSI().Encoding(), nil
	case UTF8:
		return unicode.UTF8BOM, nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case Binary:
		return nil, ErrBinary
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedCodepage, int(cp))
}

// NormalizeToUTF8 detects the encoding of data and converts it to UTF-8
// without a BOM.
func NormalizeToUTF8(data []byte) ([]byte, Detection, error) {
	d := DetectEncoding(data)
	out, err := ConvertToUTF8(data, d)
	return out, d, err
}

// ConvertToUTF8 converts data from the encoding described by d to UTF-8,
// dropping the BOM when d has one. The result never shares memory with data.
// UTF-8 input goes through the same decoder as StreamNormalizeToUTF8: one
// leading BOM is dropped and each invalid byte becomes U+FFFD.
func ConvertToUTF8(data []byte, d Detection) ([]byte, error) {
	switch d.Codepage {
	case Binary:
		return nil, ErrBinary
	case ANSI:
		return WideToUTF8(ActiveANSI().Decode(data)), nil
	case UTF8:
		// UTF8BOM strips its own mark
	default:
		data = stripBOM(data, d)
	}
	enc, err := EncodingFor(d.Codepage)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.Codepage, err)
	}
	return out, nil
}

// Decode detects the encoding of data and converts it to wide text.
func Decode(data []byte) (Wide, Detection, error) {
	d := DetectEncoding(data)
	w, err := DecodeAs(data, d)
	return w, d, err
}

// DecodeAs converts data to wide text using the encoding in d, typically a
// detection result or a caller-forced encoding.
func DecodeAs(data []byte, d Detection) (Wide, error) {
	if d.Codepage == ANSI {
		return ANSIToWide(data), nil
	}
	out, err := ConvertToUTF8(data, d)
	if err != nil {
		return nil, err
	}
	return UTF8ToWide(out), nil
}

// ConvertFromUTF8 converts UTF-8 text back to the encoding described by d,
// writing the BOM first when d has one. Characters the ANSI code page cannot
// represent are replaced.
func ConvertFromUTF8(data []byte, d Detection) ([]byte, error) {
	var body []byte
	switch d.Codepage {
	case Binary:
		return nil, ErrBinary
	case UTF8:
		body = data
	case ANSI:
		body = WideToANSI(UTF8ToWide(data))
	default:
		enc, err := EncodingFor(d.Codepage)
		if err != nil {
			return nil, err
		}
		if body, err = enc.NewEncoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("encode %s: %w", d.Codepage, err)
		}
	}
	if !d.HasBOM {
		return body, nil
	}
	bom := d.Codepage.BOM()
	out := make([]byte, 0, len(bom)+len(body))
	return append(append(out, bom...), body...), nil
}

// StreamNormalizeToUTF8 returns a reader that converts r from the encoding in
// d to UTF-8 on the fly.
func StreamNormalizeToUTF8(r io.Reader, d Detection) (io.Reader, error) {
	enc, err := EncodingFor(d.Codepage)
	if err != nil {
		return nil, err
	}
	if d.HasBOM && d.Codepage != UTF8 {
		// UTF8BOM strips its own mark; the others are configured to ignore it
		if _, err := io.CopyN(io.Discard, r, int64(d.BOMLen())); err != nil {
			return nil, err
		}
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func stripBOM(data []byte, d Detection) []byte {
	if d.HasBOM {
		return bytes.TrimPrefix(data, d.Codepage.BOM())
	}
	return data
}
