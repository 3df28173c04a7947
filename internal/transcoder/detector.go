package transcoder

import (
	"bytes"
	"encoding/binary"
	"io"
	"unicode/utf8"
)

const (
	// DetectionBufferSize is the amount of data we'll read to detect encoding.
	DetectionBufferSize = 4096

	// nulDensityDivisor sets the UTF-16 threshold: more than len/50 NUL bytes.
	nulDensityDivisor = 50
	fastScanStride    = 8
)

// stage is one step of the detection chain. It reports done when it has
// reached a verdict and later stages must not run.
type stage func(data []byte) (d Detection, done bool)

// detectionChain runs in strict precedence order.
var detectionChain = []stage{
	tooShort,
	binaryWords,
	bom32,
	bom16,
	bom8,
	utf8Scan,
}

// DetectEncoding classifies data as one of the supported code pages. It never
// fails: ambiguous input falls back to ANSI.
func DetectEncoding(data []byte) Detection {
	for _, s := range detectionChain {
		if d, done := s(data); done {
			return d
		}
	}
	return Detection{Codepage: ANSI}
}

// DetectHead classifies the first limit bytes of data. When data runs past
// limit, the window is stretched to finish a multi-byte UTF-8 sequence the
// limit cuts, so at most utf8.UTFMax-1 extra bytes are examined. A limit <= 0
// classifies all of data.
func DetectHead(data []byte, limit int) Detection {
	if limit <= 0 || len(data) <= limit {
		return DetectEncoding(data)
	}
	return DetectEncoding(data[:sequenceEnd(data, limit)])
}

// sequenceEnd returns limit, or the end of the UTF-8 sequence that starts
// before limit and continues past it, capped at len(data).
func sequenceEnd(data []byte, limit int) int {
	for i := limit - 1; i >= 0 && i > limit-utf8.UTFMax; i-- {
		c := data[i]
		switch {
		case c < 0x80:
			return limit
		case c&0xC0 == 0x80:
			continue
		}
		return min(max(i+sequenceLen(c), limit), len(data))
	}
	return limit
}

// sequenceLen is the length a UTF-8 lead byte announces.
func sequenceLen(lead byte) int {
	switch {
	case lead >= 0xF0:
		return 4
	case lead >= 0xE0:
		return 3
	}
	return 2
}

// DetectReader sniffs up to DetectionBufferSize bytes from r.
func DetectReader(r io.Reader) (Detection, []byte, error) {
	return DetectReaderN(r, DetectionBufferSize)
}

// DetectReaderN sniffs up to limit bytes from r. Up to utf8.UTFMax-1 bytes
// past limit are read to finish a cut UTF-8 sequence; every byte read is
// returned so callers can replay it.
func DetectReaderN(r io.Reader, limit int) (Detection, []byte, error) {
	if limit < 1 {
		limit = DetectionBufferSize
	}
	head := make([]byte, limit+utf8.UTFMax-1)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Detection{Codepage: ANSI}, nil, err
	}
	head = head[:n]
	return DetectHead(head, limit), head, nil
}

func tooShort(data []byte) (Detection, bool) {
	return Detection{Codepage: ANSI}, len(data) < 2
}

// binaryWords looks for an all-zero aligned 32-bit word. A trailing partial
// word is ignored.
func binaryWords(data []byte) (Detection, bool) {
	words := len(data) / 4
	for i := 0; i < words; i++ {
		if binary.LittleEndian.Uint32(data[i*4:]) == 0 {
			return Detection{Codepage: Binary}, true
		}
	}
	return Detection{}, false
}

func bom32(data []byte) (Detection, bool) {
	if len(data) < 4 {
		return Detection{}, false
	}
	switch {
	case bytes.HasPrefix(data, bomUTF32LE):
		return Detection{Codepage: UTF32LE, HasBOM: true}, true
	case bytes.HasPrefix(data, bomUTF32BE):
		return Detection{Codepage: UTF32BE, HasBOM: true}, true
	}
	return Detection{}, false
}

func bom16(data []byte) (Detection, bool) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		return Detection{Codepage: UTF16LE, HasBOM: true}, true
	case bytes.HasPrefix(data, bomUTF16BE):
		return Detection{Codepage: UTF16BE, HasBOM: true}, true
	}
	return Detection{}, false
}

func bom8(data []byte) (Detection, bool) {
	if len(data) < 3 {
		return Detection{Codepage: ANSI}, true
	}
	if bytes.HasPrefix(data, bomUTF8) {
		return Detection{Codepage: UTF8, HasBOM: true}, true
	}
	return Detection{}, false
}

// fastScanEnd returns the offset of the first 8-byte stride that needs the
// byte-by-byte pass: one with a high bit set or a NUL byte. Any trailing
// partial stride is always left to the slow pass.
func fastScanEnd(data []byte) int {
	i := 0
	for ; i+fastScanStride <= len(data); i += fastScanStride {
		v := binary.LittleEndian.Uint64(data[i:])
		if v&0x8080808080808080 != 0 || hasZeroByte(v) {
			break
		}
	}
	return i
}

// hasZeroByte reports whether any byte of v is zero.
func hasZeroByte(v uint64) bool {
	return (v-0x0101010101010101)&^v&0x8080808080808080 != 0
}

// utf8Scan validates UTF-8 lead/continuation structure and counts NUL bytes.
// It always decides.
func utf8Scan(data []byte) (Detection, bool) {
	ansi := Detection{Codepage: ANSI}
	var (
		need      int
		nuls      int
		nonASCII  bool
		threshold = len(data) / nulDensityDivisor
	)
	for i := fastScanEnd(data); i < len(data); i++ {
		c := data[i]
		switch {
		case c == 0:
			nuls++
			if nuls > threshold {
				if i%2 == 1 {
					return Detection{Codepage: UTF16LE}, true
				}
				return Detection{Codepage: UTF16BE}, true
			}
			need = 0
		case c < 0x80:
			if need > 0 {
				return ansi, true
			}
		case c&0x40 == 0:
			// 10xxxxxx
			if need == 0 {
				return ansi, true
			}
			nonASCII = true
			need--
		case need > 0:
			return ansi, true
		case c&0x20 == 0:
			// 110xxxxx, 0xC0 and 0xC1 are overlong
			if c <= 0xC1 {
				return ansi, true
			}
			nonASCII = true
			need = 1
		case c&0x10 == 0:
			// 1110xxxx
			nonASCII = true
			need = 2
		case c&0x08 == 0:
			// 11110xxx, above U+10FFFF from 0xF5
			if c >= 0xF5 {
				return ansi, true
			}
			nonASCII = true
			need = 3
		default:
			return ansi, true
		}
	}
	if nonASCII && need == 0 {
		return Detection{Codepage: UTF8}, true
	}
	return ansi, true
}
