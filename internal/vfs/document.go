package vfs

import (
	"errors"
	"io"
	"sync"

	"github.com/scriptkitz/eelua/internal/transcoder"
)

var errNegativeOffset = errors.New("negative offset")

// Document is the UTF-8 view of a transcoded file. It remembers the encoding
// the file was stored in so Encode can restore it.
type Document struct {
	mu        sync.Mutex
	detection transcoder.Detection
	content   []byte
	dirty     bool
}

// LoadDocument classifies the first sniffSize bytes of raw and converts the
// whole buffer to UTF-8. Binary content fails with transcoder.ErrBinary.
func LoadDocument(raw []byte, sniffSize int) (*Document, error) {
	d := transcoder.DetectHead(raw, sniffSize)
	content, err := transcoder.ConvertToUTF8(raw, d)
	if err != nil {
		return nil, err
	}
	return &Document{detection: d, content: content}, nil
}

// NewDocument starts an empty document that will be saved as d.
func NewDocument(d transcoder.Detection) *Document {
	return &Document{detection: d}
}

func (doc *Document) Detection() transcoder.Detection {
	return doc.detection
}

func (doc *Document) Size() int64 {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return int64(len(doc.content))
}

func (doc *Document) Dirty() bool {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.dirty
}

// ReadAt implements io.ReaderAt over the UTF-8 content.
func (doc *Document) ReadAt(p []byte, off int64) (int, error) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if off < 0 {
		return 0, errNegativeOffset
	}
	if off >= int64(len(doc.content)) {
		return 0, io.EOF
	}
	n := copy(p, doc.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt, growing the content as needed.
func (doc *Document) WriteAt(p []byte, off int64) (int, error) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if off < 0 {
		return 0, errNegativeOffset
	}
	end := off + int64(len(p))
	if end > int64(len(doc.content)) {
		grown := make([]byte, end)
		copy(grown, doc.content)
		doc.content = grown
	}
	copy(doc.content[off:], p)
	doc.dirty = true
	return len(p), nil
}

// Truncate changes the content length, zero-filling when it grows.
func (doc *Document) Truncate(size int64) error {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if size < 0 {
		return errNegativeOffset
	}
	switch {
	case size == int64(len(doc.content)):
		return nil
	case size < int64(len(doc.content)):
		doc.content = doc.content[:size]
	default:
		grown := make([]byte, size)
		copy(grown, doc.content)
		doc.content = grown
	}
	doc.dirty = true
	return nil
}

// Encode converts the content back to the stored encoding. For ANSI files it
// also reports how many characters had to be replaced.
func (doc *Document) Encode() (raw []byte, substitutions int, err error) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.detection.Codepage == transcoder.ANSI {
		raw, substitutions = transcoder.ActiveANSI().Encode(transcoder.UTF8ToWide(doc.content))
		return raw, substitutions, nil
	}
	raw, err = transcoder.ConvertFromUTF8(doc.content, doc.detection)
	return raw, 0, err
}

// MarkClean records that the content has been persisted.
func (doc *Document) MarkClean() {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	doc.dirty = false
}
