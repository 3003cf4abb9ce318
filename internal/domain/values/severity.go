package values

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a compliance rule.
// Enforces valid severity values and provides ordering.
type Severity struct {
	value SeverityLevel
}

// SeverityLevel is the internal representation
type SeverityLevel int

const (
	SeverityUnknown  SeverityLevel = 0
	SeverityLow      SeverityLevel = 1
	SeverityMedium   SeverityLevel = 2
	SeverityHigh     SeverityLevel = 3
	SeverityCritical SeverityLevel = 4
)

// Predefined severity values
var (
	SevUnknown  = Severity{SeverityUnknown}
	SevLow      = Severity{SeverityLow}
	SevMedium   = Severity{SeverityMedium}
	SevHigh     = Severity{SeverityHigh}
	SevCritical = Severity{SeverityCritical}
)

// NewSeverity creates a Severity from string
func NewSeverity(s string) (Severity, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "low":
		return SevLow, nil
	case "medium":
		return SevMedium, nil
	case "high":
		return SevHigh, nil
	case "critical":
		return SevCritical, nil
	case "":
		return SevUnknown, nil
	default:
		return Severity{}, fmt.Errorf("invalid severity: %s", s)
	}
}

// MustNewSeverity creates a Severity or panics (for tests only)
func MustNewSeverity(s string) Severity {
	sev, err := NewSeverity(s)
	if err != nil {
		panic(err)
	}
	return sev
}

// String returns the lowercase string form.
func (s Severity) String() string {
	switch s.value {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return ""
	}
}

// Level returns the numeric level for ordering.
func (s Severity) Level() SeverityLevel {
	return s.value
}

// AtLeast returns true if this severity is at or above the given one.
func (s Severity) AtLeast(other Severity) bool {
	return s.value >= other.value
}

// IsUnknown returns true for the zero severity.
func (s Severity) IsUnknown() bool {
	return s.value == SeverityUnknown
}
