package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Python parses Python 3 source with tree-sitter.
type Python struct{}

// Parse implements Language. tree-sitter recovers from errors, so a file is
// reported as invalid when its tree holds an ERROR or MISSING node; the first
// one in pre-order becomes the SyntaxError. The grammar also accepts Python 2
// forms, which are rejected afterwards by python2Construct.
func (Python) Parse(ctx context.Context, src *Source) (*Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(python.GetLanguage())

	content := []byte(src.Text)
	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.Path, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing %s: no tree produced", src.Path)
	}

	root := tree.RootNode()
	if root.HasError() {
		serr := firstError(root, content, src)
		tree.Close()
		return nil, serr
	}
	if serr := python2Construct(root, content, src); serr != nil {
		tree.Close()
		return nil, serr
	}

	return &Tree{Root: root, Source: content, tree: tree}, nil
}

func firstError(root *sitter.Node, content []byte, src *Source) *SyntaxError {
	var bad *sitter.Node
	Walk(root, content, func(n *sitter.Node, _ []byte) bool {
		if bad != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			bad = n
			return false
		}
		return n.HasError()
	})

	if bad == nil {
		// HasError was set but no node carries it; point at the start.
		return &SyntaxError{Line: 1, Column: 1, Text: strings.TrimSpace(src.Line(1)), Msg: "invalid syntax"}
	}

	pt := bad.StartPoint()
	line := int(pt.Row) + 1
	msg := "invalid syntax"
	if bad.IsMissing() {
		msg = fmt.Sprintf("expected %q", bad.Type())
	}
	return &SyntaxError{
		Line:   line,
		Column: int(pt.Column) + 1,
		Text:   strings.TrimSpace(src.Line(line)),
		Msg:    msg,
	}
}

// python2Construct returns a SyntaxError for the first node in pre-order that
// the grammar accepts but Python 3 does not, or nil.
func python2Construct(root *sitter.Node, content []byte, src *Source) *SyntaxError {
	var (
		bad *sitter.Node
		msg string
	)
	Walk(root, content, func(n *sitter.Node, content []byte) bool {
		if bad != nil {
			return false
		}
		if m := python3Violation(n, content); m != "" {
			bad, msg = n, m
			return false
		}
		return true
	})
	if bad == nil {
		return nil
	}

	pt := bad.StartPoint()
	line := int(pt.Row) + 1
	return &SyntaxError{
		Line:   line,
		Column: int(pt.Column) + 1,
		Text:   strings.TrimSpace(src.Line(line)),
		Msg:    msg,
	}
}

func python3Violation(n *sitter.Node, content []byte) string {
	switch n.Type() {
	case "print_statement":
		return "Missing parentheses in call to 'print'"
	case "exec_statement":
		return "Missing parentheses in call to 'exec'"
	case "<>":
		return "invalid syntax"
	case "string":
		if strings.HasPrefix(n.Content(content), "`") {
			return "invalid syntax"
		}
	case "integer":
		return integerViolation(n.Content(content))
	case "except_clause":
		for i := 0; i < int(n.ChildCount()); i++ {
			if n.Child(i).Type() == "," {
				return "multiple exception types must be parenthesized"
			}
		}
	case "argument_list":
		return argumentOrderViolation(n)
	}
	return ""
}

// integerViolation rejects long suffixes and leading zeros on decimal
// literals other than zero itself.
func integerViolation(text string) string {
	text = strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(text)
	if strings.HasSuffix(lower, "l") {
		return "invalid decimal literal"
	}
	if strings.HasSuffix(lower, "j") || len(text) < 2 || text[0] != '0' {
		return ""
	}
	if strings.ContainsAny(lower[1:2], "xob") {
		return ""
	}
	if strings.Trim(text, "0") == "" {
		return ""
	}
	return "leading zeros in decimal integer literals are not permitted; use an 0o prefix for octal integers"
}

// argumentOrderViolation checks that positional arguments precede keyword
// arguments and that iterable unpacking precedes mapping unpacking.
func argumentOrderViolation(args *sitter.Node) string {
	var keyword, mapping bool
	for i := 0; i < int(args.NamedChildCount()); i++ {
		switch args.NamedChild(i).Type() {
		case "comment":
		case "keyword_argument":
			keyword = true
		case "dictionary_splat":
			mapping = true
		case "list_splat":
			if mapping {
				return "iterable argument unpacking follows keyword argument unpacking"
			}
		default:
			if mapping {
				return "positional argument follows keyword argument unpacking"
			}
			if keyword {
				return "positional argument follows keyword argument"
			}
		}
	}
	return ""
}
