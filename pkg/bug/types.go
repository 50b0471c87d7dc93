// Package bug defines the finding record shared by the detector, the store and
// the report formatters.
package bug

import "fmt"

// Classification is the fixed category of a finding.
type Classification string

const (
	TypeSyntaxError           Classification = "syntax_error"
	TypeLogicError            Classification = "logic_error"
	TypeRuntimeError          Classification = "runtime_error"
	TypeSecurityVulnerability Classification = "security_vulnerability"
	TypePerformanceIssue      Classification = "performance_issue"
	TypeCodeQuality           Classification = "code_quality"
	TypeMemoryLeak            Classification = "memory_leak"
	TypeNullPointer           Classification = "null_pointer"
	TypeUnhandledException    Classification = "unhandled_exception"
	TypeDeprecatedAPI         Classification = "deprecated_api"
	TypeUnusedCode            Classification = "unused_code"
	TypeDuplicateCode         Classification = "duplicate_code"
)

// Classifications lists every classification in declaration order.
var Classifications = []Classification{
	TypeSyntaxError,
	TypeLogicError,
	TypeRuntimeError,
	TypeSecurityVulnerability,
	TypePerformanceIssue,
	TypeCodeQuality,
	TypeMemoryLeak,
	TypeNullPointer,
	TypeUnhandledException,
	TypeDeprecatedAPI,
	TypeUnusedCode,
	TypeDuplicateCode,
}

// Valid reports whether c is a known classification.
func (c Classification) Valid() bool {
	_, ok := severityByType[c]
	return ok
}

// DefaultSeverity returns the severity a new finding of this classification
// starts with. Unknown classifications map to medium.
func (c Classification) DefaultSeverity() Severity {
	if s, ok := severityByType[c]; ok {
		return s
	}
	return SeverityMedium
}

// severityByType is the fixed classification to severity table.
var severityByType = map[Classification]Severity{
	TypeSyntaxError:           SeverityHigh,
	TypeSecurityVulnerability: SeverityCritical,
	TypeRuntimeError:          SeverityHigh,
	TypeLogicError:            SeverityMedium,
	TypePerformanceIssue:      SeverityLow,
	TypeCodeQuality:           SeverityLow,
	TypeMemoryLeak:            SeverityHigh,
	TypeNullPointer:           SeverityHigh,
	TypeUnhandledException:    SeverityMedium,
	TypeDeprecatedAPI:         SeverityLow,
	TypeUnusedCode:            SeverityLow,
	TypeDuplicateCode:         SeverityLow,
}

// ParseClassification converts a string tag into a Classification.
func ParseClassification(s string) (Classification, error) {
	c := Classification(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid bug type %q", s)
	}
	return c, nil
}

// Severity is the priority tier of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity from most to least urgent.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Rank orders severities; higher is more urgent. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// AtLeast reports whether s is as urgent as min or more.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// ParseSeverity converts a string tag into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("invalid severity %q", s)
	}
	return sev, nil
}

// Status tracks where a finding is in its lifecycle. Any status may follow
// any other; no transition graph is enforced.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusFixed      Status = "fixed"
	StatusClosed     Status = "closed"
	StatusWontFix    Status = "wont_fix"
	StatusDuplicate  Status = "duplicate"
)

// Statuses lists every status in declaration order.
var Statuses = []Status{
	StatusOpen,
	StatusInProgress,
	StatusFixed,
	StatusClosed,
	StatusWontFix,
	StatusDuplicate,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusFixed, StatusClosed, StatusWontFix, StatusDuplicate:
		return true
	}
	return false
}

// ParseStatus converts a string tag into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return st, nil
}
