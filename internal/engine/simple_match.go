package engine

import (
	"context"
	"fmt"
	"regexp"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

// SimpleMatchChecker evaluates a single pattern against the whole document,
// without block scoping. It is the cheapest rule type and covers global
// settings ("service password-encryption", banner presence, and the like).
type SimpleMatchChecker struct{}

func (c *SimpleMatchChecker) LogicType() string { return "simple_match" }

func (c *SimpleMatchChecker) Check(_ context.Context, doc *confparse.Document, req Request) []report.Finding {
	payload, err := rules.ParseSimpleMatch(req.Rule.Payload)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "payload", err.Error())}
	}

	pattern := payload.Pattern
	if !payload.IsRegex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if payload.CaseInsensitive {
		pattern = "(?i)" + pattern
	}

	re, err := req.Patterns.Compile(pattern)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "pattern",
			fmt.Sprintf("invalid pattern: %v", err))}
	}

	var matched []confparse.Line
	for _, line := range doc.Lines {
		if re.MatchString(line.Text) {
			matched = append(matched, line)
		}
	}

	var f report.Finding
	switch payload.MatchMode {
	case rules.ModeMustNotExist:
		if len(matched) == 0 {
			f = newFinding(req, values.StatusPass, DocumentBlockID, "pattern",
				fmt.Sprintf("pattern %q not present", payload.Pattern))
		} else {
			f = newFinding(req, values.StatusFail, DocumentBlockID, "pattern",
				fmt.Sprintf("forbidden line present: %q", payload.Pattern))
			attachLines(&f, matched)
		}
	default: // must_exist
		if len(matched) > 0 {
			f = newFinding(req, values.StatusPass, DocumentBlockID, "pattern",
				fmt.Sprintf("pattern %q present", payload.Pattern))
			attachLines(&f, matched)
		} else {
			f = newFinding(req, values.StatusFail, DocumentBlockID, "pattern",
				fmt.Sprintf("required line missing: %q", payload.Pattern))
		}
	}
	return []report.Finding{f}
}
