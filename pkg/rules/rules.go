// Package rules holds the ordered line-pattern tables the detector applies to
// source files.
package rules

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// Family identifies a source-language family.
type Family string

const (
	FamilyPython     Family = "python"
	FamilyJavaScript Family = "javascript"
	// FamilyGeneral rules apply to every scanned file.
	FamilyGeneral Family = "general"
)

// Concern groups rules by what they look for.
type Concern string

const (
	ConcernSyntax      Concern = "syntax"
	ConcernLogic       Concern = "logic"
	ConcernSecurity    Concern = "security"
	ConcernPerformance Concern = "performance"
	ConcernStyle       Concern = "style"
	ConcernCommon      Concern = "common"
	// ConcernCustom is used for groups loaded from configuration that do
	// not name a concern.
	ConcernCustom Concern = "custom"
)

// Rule is a single (pattern, classification, message) triple.
type Rule struct {
	Pattern string
	Type    bug.Classification
	Message string

	re *regexp.Regexp
}

// Match reports whether line matches the rule. Matching is case-insensitive.
func (r *Rule) Match(line string) bool {
	return r.re.MatchString(line)
}

// Group is an ordered list of rules for one family and concern.
type Group struct {
	Family  Family
	Concern Concern
	Rules   []Rule
}

// Set is an immutable, compiled rule table. It is safe for concurrent use.
type Set struct {
	groups     []Group
	extensions map[string]bool
}

// NewSet compiles groups into a Set. Rules keep their order; groups for the
// same family keep the order they were given in.
func NewSet(extensions []string, groups ...Group) (*Set, error) {
	s := &Set{
		groups:     make([]Group, 0, len(groups)),
		extensions: make(map[string]bool, len(extensions)),
	}
	for _, ext := range extensions {
		s.extensions[normalizeExt(ext)] = true
	}
	for gi, g := range groups {
		if g.Family == "" {
			return nil, fmt.Errorf("group %d: family is required", gi)
		}
		compiled := Group{Family: g.Family, Concern: g.Concern, Rules: make([]Rule, 0, len(g.Rules))}
		for ri, r := range g.Rules {
			if !r.Type.Valid() {
				return nil, fmt.Errorf("%s/%s rule %d: invalid bug type %q", g.Family, g.Concern, ri, r.Type)
			}
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%s/%s rule %d: invalid pattern: %w", g.Family, g.Concern, ri, err)
			}
			r.re = re
			compiled.Rules = append(compiled.Rules, r)
		}
		s.groups = append(s.groups, compiled)
	}
	return s, nil
}

// MustNewSet is NewSet that panics on error, for built-in tables.
func MustNewSet(extensions []string, groups ...Group) *Set {
	s, err := NewSet(extensions, groups...)
	if err != nil {
		panic(err)
	}
	return s
}

// Groups returns the compiled groups in order.
func (s *Set) Groups() []Group {
	return slices.Clone(s.groups)
}

// Applicable returns the groups to run for a file of the given family: that
// family's groups followed by the general groups.
func (s *Set) Applicable(family Family) []Group {
	var out []Group
	if family != FamilyGeneral {
		for _, g := range s.groups {
			if g.Family == family {
				out = append(out, g)
			}
		}
	}
	for _, g := range s.groups {
		if g.Family == FamilyGeneral {
			out = append(out, g)
		}
	}
	return out
}

// Supports reports whether files with path's extension are scanned.
func (s *Set) Supports(path string) bool {
	return s.extensions[normalizeExt(filepath.Ext(path))]
}

// Extensions returns the supported extensions, sorted.
func (s *Set) Extensions() []string {
	out := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// Len returns the total number of rules.
func (s *Set) Len() int {
	n := 0
	for _, g := range s.groups {
		n += len(g.Rules)
	}
	return n
}

// ParseFamily converts a family name into a Family.
func ParseFamily(s string) (Family, error) {
	switch f := Family(strings.ToLower(strings.TrimSpace(s))); f {
	case FamilyPython, FamilyJavaScript, FamilyGeneral:
		return f, nil
	}
	return "", fmt.Errorf("unknown family %q (must be python, javascript, or general)", s)
}

// FamilyForPath returns the language family for path. Files outside a known
// family get FamilyGeneral.
func FamilyForPath(path string) Family {
	switch normalizeExt(filepath.Ext(path)) {
	case ".py":
		return FamilyPython
	case ".js":
		return FamilyJavaScript
	default:
		return FamilyGeneral
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
