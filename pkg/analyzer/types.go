// Package analyzer walks Python syntax trees and dispatches nodes to
// structural checks.
package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// Node kinds produced by the Python grammar that checks dispatch on.
const (
	KindFunctionDefinition = "function_definition"
	KindExceptClause       = "except_clause"
	KindCall               = "call"
)

// File is the file a tree was parsed from.
type File struct {
	// Path is recorded on every finding.
	Path string

	// Source is the exact content that was parsed.
	Source []byte
}

// Text returns the source text spanned by n.
func (f *File) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.Source)
}

// record builds a finding for node. The classification is fixed by the
// caller so construction cannot fail.
func (f *File) record(check Check, node *sitter.Node, title, description string, typ bug.Classification, snippet string) *bug.Bug {
	loc := bug.At(f.Path, int(node.StartPoint().Row)+1).WithSnippet(snippet)
	b := bug.MustNew(title, description, typ, loc)
	b.Metadata["check"] = check.Name()
	return b
}
