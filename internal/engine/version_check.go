package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/confgate-dev/confgate/internal/confparse"
	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/domain/values"
)

// VersionChecker extracts a version string from the document and compares
// it against a required version. Vendor version strings are rarely clean
// semver ("15.2(4)M7", "9.3(5)"), so parsing falls back to the numeric
// runs when strict parsing fails.
type VersionChecker struct{}

func (c *VersionChecker) LogicType() string { return "version_check" }

var numericRun = regexp.MustCompile(`\d+`)

func (c *VersionChecker) Check(_ context.Context, doc *confparse.Document, req Request) []report.Finding {
	payload, err := rules.ParseVersionCheck(req.Rule.Payload)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "payload", err.Error())}
	}

	re, err := req.Patterns.Compile(payload.Pattern)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "pattern",
			fmt.Sprintf("invalid pattern: %v", err))}
	}
	group := payload.VersionGroup
	if group == 0 {
		group = 1
	}
	if re.NumSubexp() < group {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "pattern",
			fmt.Sprintf("pattern %q has %d capture groups, version_group is %d", payload.Pattern, re.NumSubexp(), group))}
	}

	raw, line, ok := findVersion(doc, re, group)
	if !ok {
		return []report.Finding{newFinding(req, values.StatusFail, DocumentBlockID, "pattern",
			fmt.Sprintf("version pattern %q not found", payload.Pattern))}
	}

	found, err := parseLooseVersion(raw)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "pattern",
			fmt.Sprintf("cannot parse version %q: %v", raw, err))}
	}

	f, err := c.compare(req, payload, raw, found)
	if err != nil {
		return []report.Finding{newFinding(req, values.StatusError, DocumentBlockID, "value", err.Error())}
	}
	f.Lines = []int{line}
	f.Matched = []string{raw}
	return []report.Finding{f}
}

func findVersion(doc *confparse.Document, re *regexp.Regexp, group int) (string, int, bool) {
	for _, line := range doc.Lines {
		m := re.FindStringSubmatch(line.Text)
		if m != nil && m[group] != "" {
			return m[group], line.Number, true
		}
	}
	return "", 0, false
}

func (c *VersionChecker) compare(req Request, payload *rules.VersionCheckPayload, raw string, found *semver.Version) (report.Finding, error) {
	if payload.Operator == rules.VersionOpInRange {
		min, err := parseLooseVersion(payload.MinVersion)
		if err != nil {
			return report.Finding{}, fmt.Errorf("invalid min_version %q: %w", payload.MinVersion, err)
		}
		max, err := parseLooseVersion(payload.MaxVersion)
		if err != nil {
			return report.Finding{}, fmt.Errorf("invalid max_version %q: %w", payload.MaxVersion, err)
		}
		if found.Compare(min) >= 0 && found.Compare(max) <= 0 {
			return newFinding(req, values.StatusPass, DocumentBlockID, "value",
				fmt.Sprintf("version %s within [%s, %s]", raw, payload.MinVersion, payload.MaxVersion)), nil
		}
		return newFinding(req, values.StatusFail, DocumentBlockID, "value",
			fmt.Sprintf("version %s outside [%s, %s]", raw, payload.MinVersion, payload.MaxVersion)), nil
	}

	want, err := parseLooseVersion(payload.Value)
	if err != nil {
		return report.Finding{}, fmt.Errorf("invalid value %q: %w", payload.Value, err)
	}

	cmp := found.Compare(want)
	var ok bool
	switch payload.EffectiveOperator() {
	case rules.VersionOpEQ:
		ok = cmp == 0
	case rules.VersionOpNE:
		ok = cmp != 0
	case rules.VersionOpGT:
		ok = cmp > 0
	case rules.VersionOpLT:
		ok = cmp < 0
	case rules.VersionOpLE:
		ok = cmp <= 0
	default: // ge
		ok = cmp >= 0
	}

	if ok {
		return newFinding(req, values.StatusPass, DocumentBlockID, "value",
			fmt.Sprintf("version %s satisfies %s %s", raw, payload.EffectiveOperator(), payload.Value)), nil
	}
	return newFinding(req, values.StatusFail, DocumentBlockID, "value",
		fmt.Sprintf("version %s does not satisfy %s %s", raw, payload.EffectiveOperator(), payload.Value)), nil
}

// parseLooseVersion parses a version string, falling back to joining the
// numeric runs when the raw form is not valid semver. "15.2(4)M7" becomes
// "15.2.4" plus the remaining runs trimmed to three components.
func parseLooseVersion(raw string) (*semver.Version, error) {
	if v, err := semver.NewVersion(strings.TrimSpace(raw)); err == nil {
		return v, nil
	}
	runs := numericRun.FindAllString(raw, 3)
	if len(runs) == 0 {
		return nil, fmt.Errorf("no numeric components")
	}
	for len(runs) < 3 {
		runs = append(runs, "0")
	}
	return semver.NewVersion(strings.Join(runs, "."))
}
