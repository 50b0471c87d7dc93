package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// Check inspects syntax tree nodes of the kinds it declares.
// Each check implementation is stateless and safe for concurrent use.
type Check interface {
	// Name identifies the check in record metadata and logs.
	Name() string

	// Kinds returns the node kinds the check is dispatched for.
	Kinds() []string

	// Visit returns the findings for a single node. It must not walk into
	// the node's children; the analyzer visits those itself.
	Visit(node *sitter.Node, file *File) []*bug.Bug
}
