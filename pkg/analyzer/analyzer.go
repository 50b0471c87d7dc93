package analyzer

import (
	"context"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/parser"
)

// Analyzer runs structural checks over a syntax tree.
type Analyzer struct {
	checks   []Check
	dispatch map[string][]Check

	logger *slog.Logger
}

// Option configures analyzer behavior.
type Option func(*Analyzer)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New creates an analyzer running checks. A node handled by several checks
// is given to them in the order they were passed.
func New(checks []Check, opts ...Option) *Analyzer {
	a := &Analyzer{
		checks:   checks,
		dispatch: make(map[string][]Check),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, c := range checks {
		for _, kind := range c.Kinds() {
			a.dispatch[kind] = append(a.dispatch[kind], c)
		}
	}
	return a
}

// DefaultChecks returns the built-in checks.
func DefaultChecks() []Check {
	return []Check{
		MissingDocstringCheck{},
		BareExceptCheck{},
		NewDangerousCallCheck(),
	}
}

// Default returns an analyzer running DefaultChecks.
func Default(opts ...Option) *Analyzer {
	return New(DefaultChecks(), opts...)
}

// Checks returns the configured checks.
func (a *Analyzer) Checks() []Check {
	return a.checks
}

// Analyze walks tree in pre-order and returns the findings in visit order.
// Cancellation stops the walk and returns what was found so far.
func (a *Analyzer) Analyze(ctx context.Context, path string, tree *parser.Tree) []*bug.Bug {
	if tree == nil || tree.Root == nil {
		return nil
	}

	file := &File{Path: path, Source: tree.Source}
	var found []*bug.Bug
	visited := 0

	parser.Walk(tree.Root, tree.Source, func(n *sitter.Node, _ []byte) bool {
		if ctx.Err() != nil {
			return false
		}
		visited++
		for _, c := range a.dispatch[n.Type()] {
			found = append(found, c.Visit(n, file)...)
		}
		return true
	})

	a.logger.Debug("structural analysis complete", "path", path, "nodes", visited, "findings", len(found))
	return found
}
