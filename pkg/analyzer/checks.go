package analyzer

import (
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// MissingDocstringCheck reports public functions without a docstring. A
// function is public when its name does not start with an underscore.
type MissingDocstringCheck struct{}

func (MissingDocstringCheck) Name() string { return "missing_docstring" }

func (MissingDocstringCheck) Kinds() []string { return []string{KindFunctionDefinition} }

func (c MissingDocstringCheck) Visit(node *sitter.Node, file *File) []*bug.Bug {
	name := file.Text(node.ChildByFieldName("name"))
	if name == "" || strings.HasPrefix(name, "_") {
		return nil
	}
	if hasDocstring(node.ChildByFieldName("body"), file) {
		return nil
	}
	return []*bug.Bug{file.record(c, node,
		fmt.Sprintf("Missing docstring in function '%s'", name),
		"Public function lacks documentation",
		bug.TypeCodeQuality,
		fmt.Sprintf("def %s(...):", name),
	)}
}

// hasDocstring reports whether the first statement of body is a bare string
// expression. Comments are not statements. F-strings and bytes literals are
// not docstrings.
func hasDocstring(body *sitter.Node, file *File) bool {
	if body == nil {
		return false
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return false
		}
		expr := stmt.NamedChild(0)
		switch expr.Type() {
		case "string":
			return plainString(expr, file)
		case "concatenated_string":
			for j := 0; j < int(expr.NamedChildCount()); j++ {
				part := expr.NamedChild(j)
				if part.Type() == "string" && !plainString(part, file) {
					return false
				}
			}
			return true
		}
		return false
	}
	return false
}

// plainString reports whether a string literal has neither an f nor a b
// prefix.
func plainString(n *sitter.Node, file *File) bool {
	text := file.Text(n)
	prefix := text[:max(strings.IndexAny(text, "'\""), 0)]
	return !strings.ContainsAny(prefix, "fFbB")
}

// BareExceptCheck reports except clauses that do not name an exception type.
type BareExceptCheck struct{}

func (BareExceptCheck) Name() string { return "bare_except" }

func (BareExceptCheck) Kinds() []string { return []string{KindExceptClause} }

func (c BareExceptCheck) Visit(node *sitter.Node, file *File) []*bug.Bug {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		switch node.NamedChild(i).Type() {
		case "block", "comment":
		default:
			return nil
		}
	}
	return []*bug.Bug{file.record(c, node,
		"Bare except clause",
		"Except clause should specify exception type",
		bug.TypeLogicError,
		"except:",
	)}
}

// DangerousCallCheck reports direct calls to builtins that execute code
// built at runtime.
type DangerousCallCheck struct {
	// Names are the callee identifiers reported.
	Names []string
}

// NewDangerousCallCheck returns a check for eval and exec.
func NewDangerousCallCheck() DangerousCallCheck {
	return DangerousCallCheck{Names: []string{"eval", "exec"}}
}

func (DangerousCallCheck) Name() string { return "dangerous_call" }

func (DangerousCallCheck) Kinds() []string { return []string{KindCall} }

func (c DangerousCallCheck) Visit(node *sitter.Node, file *File) []*bug.Bug {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return nil
	}
	name := file.Text(fn)
	if !slices.Contains(c.Names, name) {
		return nil
	}
	return []*bug.Bug{file.record(c, node,
		fmt.Sprintf("Dangerous use of %s()", name),
		fmt.Sprintf("%s() can execute arbitrary code", name),
		bug.TypeSecurityVulnerability,
		fmt.Sprintf("%s(...)", name),
	)}
}
