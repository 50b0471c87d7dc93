package parser

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffLen is how much of a file is checked for NUL bytes.
const sniffLen = 8000

// ReadSource reads path as text. Invalid UTF-8 sequences are replaced with
// U+FFFD and a leading byte order mark is dropped. Files with a NUL byte in
// their first 8000 bytes are rejected with ErrBinary.
func ReadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- scanning user-provided paths is the point
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return DecodeSource(path, data)
}

// DecodeSource decodes raw file content the way ReadSource does.
func DecodeSource(path string, data []byte) (*Source, error) {
	if bytes.IndexByte(data[:min(len(data), sniffLen)], 0) >= 0 {
		return nil, fmt.Errorf("reading %s: %w", path, ErrBinary)
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return &Source{Path: path, Text: text, Lines: splitLines(text)}, nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
