// Package values contains domain value objects that encapsulate
// primitive types with validation.
package values

import "fmt"

// Status represents the outcome of a single finding.
type Status string

const (
	// StatusPass indicates the check passed
	StatusPass Status = "pass"
	// StatusFail indicates the check failed (but ran successfully)
	StatusFail Status = "fail"
	// StatusWarn indicates a non-fatal extraction ambiguity, such as an end
	// pattern that never matched before the end of the document
	StatusWarn Status = "warn"
	// StatusError indicates the check itself was malformed (invalid regex,
	// unknown logic type) and could not be evaluated
	StatusError Status = "error"
	// StatusSkipped indicates the check did not apply (gating condition not met)
	StatusSkipped Status = "skipped"
)

// Precedence returns the numeric precedence of this status.
// Higher values indicate higher priority when aggregating a rule's
// findings into a single outcome.
//
// Precedence: Fail (4) > Error (3) > Warn (2) > Skipped (1) > Pass (0)
func (s Status) Precedence() int {
	switch s {
	case StatusFail:
		return 4
	case StatusError:
		return 3
	case StatusWarn:
		return 2
	case StatusSkipped:
		return 1
	case StatusPass:
		return 0
	default:
		return -1
	}
}

// IsFailure returns true if this status represents a failure or error
func (s Status) IsFailure() bool {
	return s == StatusFail || s == StatusError
}

// IsSuccess returns true if this status represents success
func (s Status) IsSuccess() bool {
	return s == StatusPass
}

// IsSkipped returns true if this status represents a skip
func (s Status) IsSkipped() bool {
	return s == StatusSkipped
}

// Validate returns an error if the status value is invalid
func (s Status) Validate() error {
	switch s {
	case StatusPass, StatusFail, StatusWarn, StatusError, StatusSkipped:
		return nil
	default:
		return fmt.Errorf("invalid status: %s", s)
	}
}
