package transcoder

import (
	"bytes"
	"strings"
	"testing"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Detection
	}{
		{"empty", nil, Detection{Codepage: ANSI}},
		{"single byte", []byte{0xFF}, Detection{Codepage: ANSI}},
		{"ascii", []byte("hello world"), Detection{Codepage: ANSI}},
		{"utf8 no bom", []byte("héllo wörld"), Detection{Codepage: UTF8}},
		{"utf8 three byte", []byte("日本語のテキスト"), Detection{Codepage: UTF8}},
		{"utf8 four byte", []byte("smile 😀"), Detection{Codepage: UTF8}},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "héllo"...), Detection{Codepage: UTF8, HasBOM: true}},
		{"utf8 bom only", []byte{0xEF, 0xBB, 0xBF}, Detection{Codepage: UTF8, HasBOM: true}},
		{"utf16le bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, Detection{Codepage: UTF16LE, HasBOM: true}},
		{"utf16be bom", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, Detection{Codepage: UTF16BE, HasBOM: true}},
		{"utf16le bom two bytes", []byte{0xFF, 0xFE}, Detection{Codepage: UTF16LE, HasBOM: true}},
		{"utf16le bom three bytes", []byte{0xFF, 0xFE, 0x00}, Detection{Codepage: UTF16LE, HasBOM: true}},
		{"utf32le bom", []byte{0xFF, 0xFE, 0, 0, 'A', 0, 0, 0}, Detection{Codepage: UTF32LE, HasBOM: true}},
		{"utf32le bom only", []byte{0xFF, 0xFE, 0, 0}, Detection{Codepage: UTF32LE, HasBOM: true}},
		{"utf32be bom", []byte{0, 0, 0xFE, 0xFF, 0, 0, 0, 'A'}, Detection{Codepage: UTF32BE, HasBOM: true}},
		{"two byte utf8 too short", []byte("é"), Detection{Codepage: ANSI}},
		{"latin1 word", []byte("caf\xe9 au lait"), Detection{Codepage: ANSI}},
		{"truncated sequence", []byte("abc\xe6\x97"), Detection{Codepage: ANSI}},
		{"stray continuation", []byte("abc\x80def"), Detection{Codepage: ANSI}},
		{"lead while pending", []byte("abc\xc3\xc3\xa9"), Detection{Codepage: ANSI}},
		{"overlong c0", []byte("abc\xc0\x80"), Detection{Codepage: ANSI}},
		{"overlong c1", []byte("abc\xc1\xbf"), Detection{Codepage: ANSI}},
		{"lead f5", []byte("abc\xf5\x80\x80\x80"), Detection{Codepage: ANSI}},
		{"lead f8", []byte("abc\xf8\x80\x80\x80\x80"), Detection{Codepage: ANSI}},
		{"lead ff", []byte("abcdefg\xff"), Detection{Codepage: ANSI}},
		{"valid then invalid", []byte("héllo \xe9 wörld"), Detection{Codepage: ANSI}},
		{"binary zero word", []byte("abcd\x00\x00\x00\x00efgh"), Detection{Codepage: Binary}},
		{"binary beats utf8 bom", []byte("\xef\xbb\xbfa\x00\x00\x00\x00"), Detection{Codepage: Binary}},
		{"binary beats utf16 bom", []byte{0xFF, 0xFE, 'a', 0, 0, 0, 0, 0}, Detection{Codepage: Binary}},
		{"binary beats valid utf8", append([]byte("héllo wörld!!!"), 0, 0, 0, 0), Detection{Codepage: Binary}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectEncoding(tt.data); got != tt.want {
				t.Errorf("DetectEncoding(%q) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestDetectEncodingUnalignedZeros(t *testing.T) {
	// four zero bytes that straddle two words are not a binary signal
	data := []byte("abcde\x00\x00\x00\x00fgh" + strings.Repeat("x", 300))
	if got := DetectEncoding(data); got.Codepage == Binary {
		t.Fatalf("DetectEncoding() = %v, unaligned zeros must not be binary", got)
	}
}

func TestDetectEncodingTrailingPartialWord(t *testing.T) {
	// the zero run sits in the partial word at the end, so only the NUL
	// density rule applies
	data := []byte("abcd\x00\x00\x00")
	want := Detection{Codepage: UTF16BE}
	if got := DetectEncoding(data); got != want {
		t.Errorf("DetectEncoding(%q) = %v, want %v", data, got, want)
	}
}

func TestDetectEncodingUTF16ByNulDensity(t *testing.T) {
	le := bytes.Repeat([]byte{'a', 0}, 100)
	if got := DetectEncoding(le); got != (Detection{Codepage: UTF16LE}) {
		t.Errorf("DetectEncoding(le) = %v, want UTF-16LE", got)
	}
	be := bytes.Repeat([]byte{0, 'a'}, 100)
	if got := DetectEncoding(be); got != (Detection{Codepage: UTF16BE}) {
		t.Errorf("DetectEncoding(be) = %v, want UTF-16BE", got)
	}
}

func TestDetectEncodingSparseNuls(t *testing.T) {
	// 200 bytes allow four NULs before the buffer counts as UTF-16
	data := bytes.Repeat([]byte("x"), 200)
	for _, i := range []int{10, 50, 90, 130} {
		data[i] = 0
	}
	if got := DetectEncoding(data); got != (Detection{Codepage: ANSI}) {
		t.Errorf("four NULs: DetectEncoding() = %v, want ANSI", got)
	}
	data[171] = 0
	if got := DetectEncoding(data); got != (Detection{Codepage: UTF16LE}) {
		t.Errorf("five NULs: DetectEncoding() = %v, want UTF-16LE", got)
	}
}

func TestDetectEncodingNulClearsPending(t *testing.T) {
	data := append([]byte{0xE6, 0x00}, "é"...)
	data = append(data, bytes.Repeat([]byte("x"), 96)...)
	if got := DetectEncoding(data); got != (Detection{Codepage: UTF8}) {
		t.Errorf("DetectEncoding() = %v, want UTF-8", got)
	}
}

func TestDetectEncodingPureASCIILengths(t *testing.T) {
	for _, n := range []int{2, 3, 7, 8, 9, 63, 64, 65, 4096, 10000} {
		data := bytes.Repeat([]byte("The quick brown fox. "), n/21+1)[:n]
		if got := DetectEncoding(data); got != (Detection{Codepage: ANSI}) {
			t.Errorf("len %d: DetectEncoding() = %v, want ANSI", n, got)
		}
	}
}

// Every length around the 8-byte fast scan stride, with the deciding byte
// placed last so a short scan would miss it.
func TestDetectEncodingStrideBoundaries(t *testing.T) {
	for n := 0; n <= 16; n++ {
		ascii := bytes.Repeat([]byte("a"), n)
		if got := DetectEncoding(ascii); got != (Detection{Codepage: ANSI}) {
			t.Errorf("ascii len %d: got %v, want ANSI", n, got)
		}

		if n >= 2 {
			tail := append(bytes.Repeat([]byte("a"), n-2), 0xC3, 0xA9)
			want := Detection{Codepage: UTF8}
			if n == 2 {
				want = Detection{Codepage: ANSI}
			}
			if got := DetectEncoding(tail); got != want {
				t.Errorf("utf8 tail len %d: got %v, want %v", n, got, want)
			}
		}

		if n >= 1 {
			pending := append(bytes.Repeat([]byte("a"), n-1), 0xE9)
			if got := DetectEncoding(pending); got != (Detection{Codepage: ANSI}) {
				t.Errorf("latin1 tail len %d: got %v, want ANSI", n, got)
			}
		}

		if n >= 3 {
			nul := append(bytes.Repeat([]byte("a"), n-1), 0)
			want := Detection{Codepage: UTF16BE}
			if (n-1)%2 == 1 {
				want = Detection{Codepage: UTF16LE}
			}
			if got := DetectEncoding(nul); got != want {
				t.Errorf("nul tail len %d: got %v, want %v", n, got, want)
			}
		}
	}
}

func TestFastScanEnd(t *testing.T) {
	tests := []struct {
		data []byte
		want int
	}{
		{[]byte("abcdefg"), 0},
		{[]byte("abcdefgh"), 8},
		{[]byte("abcdefghij"), 8},
		{[]byte("abcdefgh\xc3\xa9bcdefg"), 8},
		{[]byte("abcdefghijklmno\x80"), 8},
		{[]byte("abcdefghijklmnop"), 16},
		{[]byte("abc\x00efghijklmnop"), 0},
	}
	for _, tt := range tests {
		if got := fastScanEnd(tt.data); got != tt.want {
			t.Errorf("fastScanEnd(%q) = %d, want %d", tt.data, got, tt.want)
		}
	}
}

func TestHasZeroByte(t *testing.T) {
	tests := []struct {
		v    uint64
		want bool
	}{
		{0x0101010101010101, false},
		{0x7F7F7F7F7F7F7F7F, false},
		{0x6162636465666768, false},
		{0x6162630065666768, true},
		{0x0062636465666768, true},
		{0x6162636465666700, true},
		{0x0100000000000001, true},
	}
	for _, tt := range tests {
		if got := hasZeroByte(tt.v); got != tt.want {
			t.Errorf("hasZeroByte(%#x) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestDetectionChainStages(t *testing.T) {
	if _, done := binaryWords([]byte("abc\x00\x00\x00")); done {
		t.Error("binaryWords decided on a partial word")
	}
	if _, done := bom32([]byte{0xFF, 0xFE, 0x00}); done {
		t.Error("bom32 decided on three bytes")
	}
	if d, done := bom8([]byte{0xEF, 0xBB}); !done || d != (Detection{Codepage: ANSI}) {
		t.Errorf("bom8 on two bytes = %v, %v, want ANSI, true", d, done)
	}
	if _, done := bom8([]byte("abc")); done {
		t.Error("bom8 decided on plain text")
	}
}

func TestDetectReader(t *testing.T) {
	body := append([]byte{0xEF, 0xBB, 0xBF}, bytes.Repeat([]byte("é"), DetectionBufferSize)...)
	d, head, err := DetectReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("DetectReader() failed: %v", err)
	}
	if d != (Detection{Codepage: UTF8, HasBOM: true}) {
		t.Errorf("DetectReader() = %v, want UTF-8 (BOM)", d)
	}
	if len(head) != DetectionBufferSize+3 {
		t.Errorf("DetectReader() head len = %d, want %d", len(head), DetectionBufferSize+3)
	}

	d, head, err = DetectReader(strings.NewReader("hi"))
	if err != nil {
		t.Fatalf("DetectReader(short) failed: %v", err)
	}
	if d.Codepage != ANSI || string(head) != "hi" {
		t.Errorf("DetectReader(short) = %v, %q", d, head)
	}
}

func TestDetectHeadCutSequence(t *testing.T) {
	pad := func(n int) []byte { return bytes.Repeat([]byte("a"), n) }
	tests := []struct {
		name string
		data []byte
		want Codepage
	}{
		{"two-byte char straddles limit", append(pad(DetectionBufferSize-1), "éé"...), UTF8},
		{"three-byte char straddles limit", append(pad(DetectionBufferSize-2), "日本"...), UTF8},
		{"four-byte char straddles limit", append(pad(DetectionBufferSize-3), "😀😀"...), UTF8},
		{"char ends on limit", append(pad(DetectionBufferSize-2), "éé"...), UTF8},
		{"truncated at end of input", append(pad(DetectionBufferSize-1), 0xC3), ANSI},
		{"latin1 before limit", append(append(pad(10), 0xE9), pad(DetectionBufferSize)...), ANSI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectHead(tt.data, DetectionBufferSize); got.Codepage != tt.want {
				t.Errorf("DetectHead() = %v, want %v", got, tt.want)
			}
		})
	}
	// the bare window ends on a lead byte
	cut := append(pad(DetectionBufferSize-1), "éé"...)
	if got := DetectEncoding(cut[:DetectionBufferSize]); got.Codepage != ANSI {
		t.Errorf("DetectEncoding(cut window) = %v, want ANSI", got)
	}
	if got := DetectHead(cut, 0); got.Codepage != UTF8 {
		t.Errorf("DetectHead(limit 0) = %v, want UTF-8", got)
	}
}

func TestSequenceEnd(t *testing.T) {
	tests := []struct {
		data  string
		limit int
		want  int
	}{
		{"abcd", 2, 2},
		{"a\xc3\xa9b", 2, 3},
		{"a\xc3\xa9b", 3, 3},
		{"a\xe6\x97\xa5b", 2, 4},
		{"a\xe6\x97\xa5b", 3, 4},
		{"a\xf0\x9f\x98\x80b", 4, 5},
		{"a\xf0\x9f", 2, 3},
		{"\x80\x80\x80\x80\x80", 4, 4},
	}
	for _, tt := range tests {
		if got := sequenceEnd([]byte(tt.data), tt.limit); got != tt.want {
			t.Errorf("sequenceEnd(%q, %d) = %d, want %d", tt.data, tt.limit, got, tt.want)
		}
	}
}

func TestDetectReaderNStraddle(t *testing.T) {
	body := append(bytes.Repeat([]byte("a"), 511), "éé"...)
	d, head, err := DetectReaderN(bytes.NewReader(body), 512)
	if err != nil {
		t.Fatalf("DetectReaderN() failed: %v", err)
	}
	if d.Codepage != UTF8 {
		t.Errorf("DetectReaderN() = %v, want UTF-8", d)
	}
	if !bytes.Equal(head, body[:515]) {
		t.Errorf("DetectReaderN() head len = %d, want 515", len(head))
	}

	d, _, err = DetectReaderN(strings.NewReader("caf\xe9"), 512)
	if err != nil || d.Codepage != ANSI {
		t.Errorf("DetectReaderN(latin1) = %v, %v, want ANSI", d, err)
	}
}
