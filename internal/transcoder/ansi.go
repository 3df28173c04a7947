package transcoder

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultANSICodepage is used when the platform does not report one.
const DefaultANSICodepage = 1252

var ansiCodepages = map[int]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	20866: charmap.KOI8R,
	20932: japanese.EUCJP,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28595: charmap.ISO8859_5,
	28605: charmap.ISO8859_15,
	54936: simplifiedchinese.GB18030,
}

var activeANSI atomic.Pointer[ANSICodec]

func init() {
	cp := systemANSICodepage()
	c, err := NewANSICodec(cp)
	if err != nil {
		c, _ = NewANSICodec(DefaultANSICodepage)
	}
	activeANSI.Store(c)
}

// ActiveANSI returns the codec used for the ANSI code page.
func ActiveANSI() *ANSICodec {
	return activeANSI.Load()
}

// SetANSICodepage replaces the process-wide ANSI code page.
func SetANSICodepage(cp int) error {
	c, err := NewANSICodec(cp)
	if err != nil {
		return err
	}
	activeANSI.Store(c)
	return nil
}

// SupportedANSICodepage reports whether cp has an encoding table.
func SupportedANSICodepage(cp int) bool {
	_, ok := ansiCodepages[cp]
	return ok
}

func lookupANSI(cp int) (encoding.Encoding, error) {
	enc, ok := ansiCodepages[cp]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCodepage, cp)
	}
	return enc, nil
}
