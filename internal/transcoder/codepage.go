package transcoder

import (
	"fmt"
	"strconv"
	"strings"
)

// Codepage identifies a text encoding using the Windows code page numbers.
type Codepage int

const (
	// ANSI is the system default legacy code page (CP_ACP).
	ANSI Codepage = 0
	// Binary is a detection-only sentinel for content that is not text.
	Binary  Codepage = -1
	UTF8    Codepage = 65001
	UTF16LE Codepage = 1200
	UTF16BE Codepage = 1201
	UTF32LE Codepage = 12000
	UTF32BE Codepage = 12001
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
)

var codepageNames = map[Codepage]string{
	ANSI:    "ANSI",
	Binary:  "BINARY",
	UTF8:    "UTF-8",
	UTF16LE: "UTF-16LE",
	UTF16BE: "UTF-16BE",
	UTF32LE: "UTF-32LE",
	UTF32BE: "UTF-32BE",
}

func (c Codepage) String() string {
	if name, ok := codepageNames[c]; ok {
		return name
	}
	return "CP" + strconv.Itoa(int(c))
}

// BOM returns the canonical byte order mark for c, or nil if c has none.
func (c Codepage) BOM() []byte {
	switch c {
	case UTF8:
		return bomUTF8
	case UTF16LE:
		return bomUTF16LE
	case UTF16BE:
		return bomUTF16BE
	case UTF32LE:
		return bomUTF32LE
	case UTF32BE:
		return bomUTF32BE
	}
	return nil
}

// ParseCodepage accepts a codepage name such as "utf-16le", "utf16le", "ansi"
// or a Windows code page number such as "65001".
func ParseCodepage(s string) (Codepage, error) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	for cp, name := range codepageNames {
		if cp == Binary {
			continue
		}
		if strings.ReplaceAll(name, "-", "") == key {
			return cp, nil
		}
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return ANSI, fmt.Errorf("%w: %q", ErrUnsupportedCodepage, s)
	}
	cp := Codepage(n)
	if _, ok := codepageNames[cp]; !ok || cp == Binary {
		return ANSI, fmt.Errorf("%w: %q", ErrUnsupportedCodepage, s)
	}
	return cp, nil
}

// Detection is the result of classifying a buffer.
type Detection struct {
	Codepage Codepage
	HasBOM   bool
}

// BOMLen is the number of leading bytes occupied by the byte order mark.
func (d Detection) BOMLen() int {
	if !d.HasBOM {
		return 0
	}
	return len(d.Codepage.BOM())
}

func (d Detection) String() string {
	if d.HasBOM {
		return d.Codepage.String() + " (BOM)"
	}
	return d.Codepage.String()
}

// Wide is a sequence of UTF-16 code units.
type Wide []uint16
