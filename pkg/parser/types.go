// Package parser reads source files and builds syntax trees for the
// languages that are fully parsed.
package parser

import (
	"errors"
	"fmt"
)

// ErrBinary is returned by ReadSource for content that is not text.
var ErrBinary = errors.New("binary content")

// Source is a decoded source file.
type Source struct {
	// Path is the path the file was read from.
	Path string

	// Text is the decoded content with line endings normalized to "\n".
	Text string

	// Lines holds Text split into lines without terminators. A trailing
	// newline does not produce an extra empty line.
	Lines []string
}

// Line returns the 1-based line n, or "" when out of range.
func (s *Source) Line(n int) string {
	if n < 1 || n > len(s.Lines) {
		return ""
	}
	return s.Lines[n-1]
}

// SyntaxError describes the first syntax error found in a file.
type SyntaxError struct {
	// Line and Column are 1-based.
	Line   int
	Column int

	// Text is the offending source line.
	Text string

	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", e.Msg, e.Line, e.Column)
}
