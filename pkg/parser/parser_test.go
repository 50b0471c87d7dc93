package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/buginspector/pkg/rules"
)

func TestReadSource_Lines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", nil},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"bare cr", "a\rb", []string{"a", "b"}},
		{"blank lines kept", "a\n\n\nb\n", []string{"a", "", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "f.py", tt.content)
			src, err := ReadSource(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.Lines)
		})
	}
}

func TestReadSource_InvalidUTF8Replaced(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.py", "x = '\xff\xfe'\n")
	src, err := ReadSource(path)
	require.NoError(t, err)
	assert.Equal(t, "x = '\uFFFD\uFFFD'", src.Lines[0])
}

func TestReadSource_BOMDropped(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.py", "\xef\xbb\xbfimport os\n")
	src, err := ReadSource(path)
	require.NoError(t, err)
	assert.Equal(t, "import os", src.Lines[0])
}

func TestReadSource_Binary(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.py", "abc\x00def")
	_, err := ReadSource(path)
	assert.ErrorIs(t, err, ErrBinary)
}

func TestReadSource_Missing(t *testing.T) {
	_, err := ReadSource(filepath.Join(t.TempDir(), "nope.py"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSourceLine(t *testing.T) {
	src := &Source{Lines: []string{"one", "two"}}
	assert.Equal(t, "two", src.Line(2))
	assert.Empty(t, src.Line(0))
	assert.Empty(t, src.Line(3))
}

func TestForFamily(t *testing.T) {
	assert.NotNil(t, ForFamily(rules.FamilyPython))
	assert.Nil(t, ForFamily(rules.FamilyJavaScript))
}

func TestPythonParse_Valid(t *testing.T) {
	src := mustDecode(t, "def f(x):\n    \"\"\"Doc.\"\"\"\n    return eval(x)\n")
	tree, err := Python{}.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, "module", tree.Root.Type())

	kinds := map[string]int{}
	Walk(tree.Root, tree.Source, func(n *sitter.Node, _ []byte) bool {
		kinds[n.Type()]++
		return true
	})
	assert.Equal(t, 1, kinds["function_definition"])
	assert.Equal(t, 1, kinds["call"])
}

func TestPythonParse_SyntaxError(t *testing.T) {
	src := mustDecode(t, "x = 1\ny = (2 +\nz = 3\n\ndef broken(:\n    pass\n")
	_, err := Python{}.Parse(context.Background(), src)

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.GreaterOrEqual(t, serr.Line, 2)
	assert.GreaterOrEqual(t, serr.Column, 1)
	assert.NotEmpty(t, serr.Text)
}

func TestPythonParse_RejectsPython2(t *testing.T) {
	tests := []struct {
		name string
		code string
		line int
		msg  string
	}{
		{"print statement", "print \"hello\"\n", 1, "Missing parentheses in call to 'print'"},
		{"print chevron", "import sys\nprint >>sys.stderr, \"x\"\n", 2, "Missing parentheses in call to 'print'"},
		{"exec statement", "exec \"x = 1\"\n", 1, "Missing parentheses in call to 'exec'"},
		{"except comma", "try:\n    pass\nexcept ValueError, e:\n    pass\n", 3, "multiple exception types must be parenthesized"},
		{"diamond operator", "if a <> b:\n    pass\n", 1, "invalid syntax"},
		{"legacy octal", "x = 0777\n", 1, "leading zeros in decimal integer literals are not permitted; use an 0o prefix for octal integers"},
		{"long suffix", "x = 10L\n", 1, "invalid decimal literal"},
		{"backticks", "x = `y`\n", 1, "invalid syntax"},
		{"positional after keyword", "f(a=1, b)\n", 1, "positional argument follows keyword argument"},
		{"positional after mapping unpack", "f(**kw, b)\n", 1, "positional argument follows keyword argument unpacking"},
		{"first violation wins", "x = 1\nprint \"a\"\ny = 0777\n", 2, "Missing parentheses in call to 'print'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Python{}.Parse(context.Background(), mustDecode(t, tt.code))

			var serr *SyntaxError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.line, serr.Line)
			assert.Equal(t, tt.msg, serr.Msg)
			assert.NotEmpty(t, serr.Text)
		})
	}
}

func TestPythonParse_AcceptsPython3(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"print call", "print(\"hello\")\n"},
		{"print to file", "import sys\nprint(\"x\", file=sys.stderr)\n"},
		{"exec call", "exec(\"x = 1\")\n"},
		{"except as", "try:\n    pass\nexcept (KeyError, ValueError) as e:\n    pass\n"},
		{"not equal", "if a != b:\n    pass\n"},
		{"zero literals", "x = 0\ny = 00\nz = 0_0\n"},
		{"prefixed integers", "x = 0o777\ny = 0x1F\nz = 0b101\n"},
		{"imaginary with leading zero", "x = 0777j\n"},
		{"keyword then splats", "f(a, *rest, key=1, *more, **kw)\n"},
		{"class keyword", "class C(Base, metaclass=Meta):\n    pass\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Python{}.Parse(context.Background(), mustDecode(t, tt.code))
			require.NoError(t, err)
			tree.Close()
		})
	}
}

func TestPythonParse_Empty(t *testing.T) {
	tree, err := Python{}.Parse(context.Background(), mustDecode(t, ""))
	require.NoError(t, err)
	tree.Close()
	tree.Close()
}

func TestWalk_SkipChildren(t *testing.T) {
	src := mustDecode(t, "def f():\n    eval('1')\n")
	tree, err := Python{}.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	var calls int
	Walk(tree.Root, tree.Source, func(n *sitter.Node, _ []byte) bool {
		if n.Type() == "call" {
			calls++
		}
		return n.Type() != "function_definition"
	})
	assert.Zero(t, calls, "Walk visited calls inside a skipped subtree")
}

func mustDecode(t *testing.T, content string) *Source {
	t.Helper()
	src, err := DecodeSource("test.py", []byte(content))
	require.NoError(t, err)
	return src
}
