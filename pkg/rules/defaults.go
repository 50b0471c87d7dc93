package rules

import (
	"slices"
	"strings"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// DefaultExtensions are the file extensions scanned by default.
var DefaultExtensions = []string{".py", ".js", ".java", ".cpp", ".c", ".h", ".cs", ".php", ".rb", ".go"}

// DefaultGroups returns the built-in rule table. Within a family, groups are
// ordered syntax, logic, security, performance, style.
func DefaultGroups() []Group {
	return []Group{
		{
			Family:  FamilyPython,
			Concern: ConcernSyntax,
			Rules: []Rule{
				{Pattern: `^\s*print\s+[^(]`, Type: bug.TypeSyntaxError, Message: "Missing parentheses in print statement"},
				{Pattern: `if\s+.*[^:]\s*$`, Type: bug.TypeSyntaxError, Message: "Missing colon in if statement"},
				{Pattern: `def\s+\w+\(.*\)[^:]\s*$`, Type: bug.TypeSyntaxError, Message: "Missing colon in function definition"},
				{Pattern: `class\s+\w+.*[^:]\s*$`, Type: bug.TypeSyntaxError, Message: "Missing colon in class definition"},
			},
		},
		{
			Family:  FamilyPython,
			Concern: ConcernLogic,
			Rules: []Rule{
				{Pattern: `if\s+.*=\s+.*:`, Type: bug.TypeLogicError, Message: "Assignment in if condition (should be ==?)"},
				{Pattern: `\.get\(\s*['"][^'"]*['"]\s*\)\s*==\s*None`, Type: bug.TypeLogicError, Message: "Using == None instead of 'is None'"},
				{Pattern: `len\s*\(\s*\w+\s*\)\s*==\s*0`, Type: bug.TypeCodeQuality, Message: "Use 'not list' instead of 'len(list) == 0'"},
				{Pattern: `except\s*:`, Type: bug.TypeLogicError, Message: "Bare except clause - should specify exception type"},
			},
		},
		{
			Family:  FamilyPython,
			Concern: ConcernSecurity,
			Rules: []Rule{
				{Pattern: `eval\s*\(`, Type: bug.TypeSecurityVulnerability, Message: "Use of eval() can be dangerous"},
				{Pattern: `exec\s*\(`, Type: bug.TypeSecurityVulnerability, Message: "Use of exec() can be dangerous"},
				{Pattern: `subprocess\.call\s*\(.*shell\s*=\s*True`, Type: bug.TypeSecurityVulnerability, Message: "Shell injection vulnerability"},
				{Pattern: `pickle\.loads?\s*\(`, Type: bug.TypeSecurityVulnerability, Message: "Pickle deserialization can be unsafe"},
			},
		},
		{
			Family:  FamilyPython,
			Concern: ConcernPerformance,
			Rules: []Rule{
				{Pattern: `for\s+\w+\s+in\s+range\s*\(\s*len\s*\(`, Type: bug.TypePerformanceIssue, Message: "Use enumerate() instead of range(len())"},
				{Pattern: `for\s+\w+\s+in\s+\w+\.keys\(\)\s*:`, Type: bug.TypePerformanceIssue, Message: "Use .items() instead of .keys() when accessing values"},
			},
		},
		{
			Family:  FamilyPython,
			Concern: ConcernStyle,
			Rules: []Rule{
				{Pattern: `^\s*import\s+\*`, Type: bug.TypeCodeQuality, Message: "Avoid wildcard imports"},
				{Pattern: `^\s*from\s+.*\s+import\s+\*`, Type: bug.TypeCodeQuality, Message: "Avoid wildcard imports"},
				{Pattern: `^\s*#\s*TODO`, Type: bug.TypeCodeQuality, Message: "TODO comment found"},
				{Pattern: `^\s*#\s*FIXME`, Type: bug.TypeCodeQuality, Message: "FIXME comment found"},
				{Pattern: `^\s*#\s*HACK`, Type: bug.TypeCodeQuality, Message: "HACK comment found"},
			},
		},
		{
			Family:  FamilyJavaScript,
			Concern: ConcernSyntax,
			Rules: []Rule{
				{Pattern: `if\s*\([^)]*\)\s*[^{].*[^;]\s*$`, Type: bug.TypeSyntaxError, Message: "Missing semicolon or braces"},
				{Pattern: `function\s+\w+\s*\([^)]*\)\s*[^{]`, Type: bug.TypeSyntaxError, Message: "Missing opening brace in function"},
			},
		},
		{
			Family:  FamilyJavaScript,
			Concern: ConcernLogic,
			Rules: []Rule{
				{Pattern: `if\s*\([^)]*=\s*[^=]`, Type: bug.TypeLogicError, Message: "Assignment in if condition"},
				{Pattern: `==\s*null`, Type: bug.TypeCodeQuality, Message: "Use strict equality (===) instead of =="},
				{Pattern: `!=\s*null`, Type: bug.TypeCodeQuality, Message: "Use strict inequality (!==) instead of !="},
			},
		},
		{
			Family:  FamilyJavaScript,
			Concern: ConcernSecurity,
			Rules: []Rule{
				{Pattern: `eval\s*\(`, Type: bug.TypeSecurityVulnerability, Message: "Use of eval() can be dangerous"},
				{Pattern: `innerHTML\s*=`, Type: bug.TypeSecurityVulnerability, Message: "innerHTML assignment can lead to XSS"},
				{Pattern: `document\.write\s*\(`, Type: bug.TypeSecurityVulnerability, Message: "document.write can be unsafe"},
			},
		},
		{
			Family:  FamilyGeneral,
			Concern: ConcernCommon,
			Rules: []Rule{
				{Pattern: `password\s*=\s*['"][^'"]+['"]`, Type: bug.TypeSecurityVulnerability, Message: "Hardcoded password"},
				{Pattern: `api_key\s*=\s*['"][^'"]+['"]`, Type: bug.TypeSecurityVulnerability, Message: "Hardcoded API key"},
				{Pattern: `secret\s*=\s*['"][^'"]+['"]`, Type: bug.TypeSecurityVulnerability, Message: "Hardcoded secret"},
				{Pattern: `\.printStackTrace\(\)`, Type: bug.TypeSecurityVulnerability, Message: "Stack trace exposure"},
				{Pattern: `console\.log\s*\(`, Type: bug.TypeCodeQuality, Message: "Debug statement left in code"},
				{Pattern: `print\s*\(.*debug`, Type: bug.TypeCodeQuality, Message: "Debug print statement"},
			},
		},
	}
}

// Default returns the compiled built-in rule set.
func Default() *Set {
	return MustNewSet(DefaultExtensions, DefaultGroups()...)
}

// WithoutMessages returns groups with every rule whose message matches one of
// disabled (case-insensitive) removed. Empty groups are dropped.
func WithoutMessages(groups []Group, disabled []string) []Group {
	if len(disabled) == 0 {
		return groups
	}
	off := make([]string, 0, len(disabled))
	for _, d := range disabled {
		off = append(off, strings.ToLower(strings.TrimSpace(d)))
	}
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		g.Rules = slices.DeleteFunc(slices.Clone(g.Rules), func(r Rule) bool {
			return slices.Contains(off, strings.ToLower(r.Message))
		})
		if len(g.Rules) > 0 {
			out = append(out, g)
		}
	}
	return out
}
