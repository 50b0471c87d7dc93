package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ccollicutt/buginspector/pkg/rules"
)

// Language builds a syntax tree for one language family.
// Implementations must be safe for concurrent use.
type Language interface {
	// Parse returns the tree for src. When the source does not parse the
	// error is a *SyntaxError; any other error means the parser itself
	// failed.
	Parse(ctx context.Context, src *Source) (*Tree, error)
}

// ForFamily returns the Language for family, or nil when the family is only
// matched line by line.
func ForFamily(family rules.Family) Language {
	if family == rules.FamilyPython {
		return Python{}
	}
	return nil
}

// Tree is a parsed file. Close releases the underlying parser memory.
type Tree struct {
	Root   *sitter.Node
	Source []byte

	tree *sitter.Tree
}

// Close releases the tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Walk visits node and its descendants in pre-order, each exactly once.
// Returning false from fn skips the node's children.
func Walk(node *sitter.Node, source []byte, fn func(*sitter.Node, []byte) bool) {
	if node == nil || !fn(node, source) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(i), source, fn)
	}
}
