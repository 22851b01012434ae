package tree

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// binarySniffLen is how much of a file is checked for NUL bytes.
const binarySniffLen = 8000

var (
	ErrNotRegular    = errors.New("not a regular file")
	ErrBinaryContent = errors.New("file appears to contain binary content")
	ErrInvalidUTF8   = errors.New("file is not valid UTF-8 text")
)

// ReadResult is the outcome of reading one matched file. Exactly one of Content or Err is meaningful.
type ReadResult struct {
	Content string
	Err     error
}

func (r ReadResult) OK() bool {
	return r.Err == nil
}

// ReadFile reads path as text. UTF-16 files with a byte order mark are converted to UTF-8 and a UTF-8 BOM is
// stripped. Anything else must already be valid UTF-8 without NUL bytes near the start.
func ReadFile(path string) ReadResult {
	info, err := os.Stat(path)
	if err != nil {
		return ReadResult{Err: err}
	}

	if !info.Mode().IsRegular() {
		return ReadResult{Err: fmt.Errorf("%w (mode %s)", ErrNotRegular, info.Mode().Type())}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return ReadResult{Err: err}
	}

	content, err := decodeText(raw)
	if err != nil {
		return ReadResult{Err: err}
	}

	return ReadResult{Content: content}
}

func decodeText(raw []byte) (string, error) {
	if !hasUTF16BOM(raw) {
		if bytes.IndexByte(raw[:min(len(raw), binarySniffLen)], 0) >= 0 {
			return "", ErrBinaryContent
		}

		if !utf8.Valid(raw) {
			return "", ErrInvalidUTF8
		}
	}

	text, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}

	return string(text), nil
}

func hasUTF16BOM(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF})
}
