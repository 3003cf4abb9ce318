package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/values"
	"github.com/confgate-dev/confgate/internal/engine"
)

type sarifMapper struct {
	result      *engine.ScanResult
	configPaths map[string]string
	cwd         string
	artifacts   map[string]*sarif.Artifact
}

func newSARIFMapper(result *engine.ScanResult, configPaths map[string]string) *sarifMapper {
	cwd, _ := os.Getwd()
	return &sarifMapper{
		result:      result,
		configPaths: configPaths,
		cwd:         cwd,
		artifacts:   make(map[string]*sarif.Artifact),
	}
}

// mapToRun populates the SARIF run with rules, results, artifacts, and
// the invocation record.
func (m *sarifMapper) mapToRun(run *sarif.Run) {
	m.addRules(run)
	m.addResults(run)
	m.addArtifacts(run)
	m.addInvocation(run)
	m.addProperties(run)
}

// addRules registers one SARIF rule per distinct compliance rule seen in
// the findings.
func (m *sarifMapper) addRules(run *sarif.Run) {
	seen := make(map[string]bool)
	for _, rep := range m.result.Reports {
		for i := range rep.Findings {
			f := &rep.Findings[i]
			if seen[f.RuleID] {
				continue
			}
			seen[f.RuleID] = true

			rule := sarif.NewReportingDescriptor().WithID(f.RuleID)
			rule.WithName(f.RuleTitle)
			rule.WithShortDescription(&sarif.MultiformatMessageString{
				Text: ptrString(f.RuleTitle),
			})
			if f.Remediation != "" {
				rule.WithHelp(&sarif.MultiformatMessageString{
					Text: ptrString(f.Remediation),
				})
			}
			rule.WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: m.mapSeverityToLevel(f.Severity),
			})

			props := sarif.NewPropertyBag()
			if f.Severity != "" {
				props.Add("severity", f.Severity)
			}
			rule.WithProperties(props)

			run.Tool.Driver.AddRule(rule)
		}
	}
}

// addResults converts every finding to a SARIF result.
func (m *sarifMapper) addResults(run *sarif.Run) {
	for _, rep := range m.result.Reports {
		for i := range rep.Findings {
			run.AddResult(m.mapFinding(rep, &rep.Findings[i]))
		}
	}
}

func (m *sarifMapper) mapFinding(rep *report.Report, f *report.Finding) *sarif.Result {
	result := sarif.NewRuleResult(f.RuleID)
	result.Level = m.mapStatusToLevel(f.Status, f.Severity)
	result.Kind = m.mapStatusToKind(f.Status)

	msg := f.Message
	if msg == "" {
		msg = f.RuleTitle
	}
	result.Message = sarif.NewTextMessage(msg)

	if loc := m.location(rep.Device, f); loc != nil {
		result.Locations = []*sarif.Location{loc}
	}

	props := sarif.NewPropertyBag()
	props.Add("device", rep.Device)
	props.Add("block", f.BlockID)
	props.Add("check", f.Check)
	if f.Severity != "" {
		props.Add("severity", f.Severity)
	}
	if f.Aggregate {
		props.Add("aggregate", true)
	}
	result.WithProperties(props)

	return result
}

// mapStatusToLevel converts a finding status plus severity to a SARIF level.
func (m *sarifMapper) mapStatusToLevel(status values.Status, severity string) string {
	switch status {
	case values.StatusPass:
		return "note"
	case values.StatusFail:
		switch severity {
		case "critical", "high":
			return "error"
		default:
			return "warning"
		}
	case values.StatusWarn:
		return "warning"
	case values.StatusError:
		return "error"
	case values.StatusSkipped:
		return "none"
	default:
		return "warning"
	}
}

// mapStatusToKind converts a finding status to a SARIF kind.
func (m *sarifMapper) mapStatusToKind(status values.Status) string {
	switch status {
	case values.StatusPass:
		return "pass"
	case values.StatusFail, values.StatusError:
		return "fail"
	case values.StatusWarn:
		return "review"
	case values.StatusSkipped:
		return "notApplicable"
	default:
		return "fail"
	}
}

// mapSeverityToLevel converts severity alone to the rule's default level.
func (m *sarifMapper) mapSeverityToLevel(severity string) string {
	switch severity {
	case "critical", "high":
		return "error"
	default:
		return "warning"
	}
}

// location builds a physical location inside the device's configuration
// file, when the path is known and the finding carries line evidence.
func (m *sarifMapper) location(device string, f *report.Finding) *sarif.Location {
	path, ok := m.configPaths[device]
	if !ok || path == "" {
		return nil
	}

	uri := m.normalizeURI(path)
	m.registerArtifact(path)

	pLoc := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithURI(uri))

	if len(f.Lines) > 0 {
		region := sarif.NewRegion().WithStartLine(f.Lines[0])
		if last := f.Lines[len(f.Lines)-1]; last > f.Lines[0] {
			region.WithEndLine(last)
		}
		pLoc.WithRegion(region)
	}

	return sarif.NewLocation().WithPhysicalLocation(pLoc)
}

// normalizeURI converts a file path to a SARIF-compliant URI.
func (m *sarifMapper) normalizeURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	if m.cwd != "" {
		if rel, err := filepath.Rel(m.cwd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return "file://" + filepath.ToSlash(abs)
}

// registerArtifact records a configuration file in the run's artifacts,
// deduplicated by URI.
func (m *sarifMapper) registerArtifact(path string) {
	uri := m.normalizeURI(path)
	if _, exists := m.artifacts[uri]; exists {
		return
	}
	m.artifacts[uri] = sarif.NewArtifact().
		WithLocation(sarif.NewArtifactLocation().WithURI(uri))
}

func (m *sarifMapper) addArtifacts(run *sarif.Run) {
	for _, artifact := range m.artifacts {
		run.AddArtifact(artifact)
	}
}

// addInvocation records execution metadata.
func (m *sarifMapper) addInvocation(run *sarif.Run) {
	invocation := sarif.NewInvocation()

	invocation.ExecutionSuccessful = ptrBool(m.result.Summary().Errored == 0)

	startTime := m.result.StartTime.UTC().Format("2006-01-02T15:04:05.000Z")
	endTime := m.result.EndTime.UTC().Format("2006-01-02T15:04:05.000Z")
	invocation.StartTimeUtc = &startTime
	invocation.EndTimeUtc = &endTime

	if hostname, err := os.Hostname(); err == nil {
		invocation.Machine = &hostname
	}
	if m.cwd != "" {
		cwd := "file://" + filepath.ToSlash(m.cwd)
		invocation.WorkingDirectory = sarif.NewArtifactLocation().WithURI(cwd)
	}

	props := sarif.NewPropertyBag()
	props.Add("scanId", m.result.ScanID.String())
	invocation.WithProperties(props)

	run.AddInvocation(invocation)
}

// addProperties attaches the aggregate summary to the run.
func (m *sarifMapper) addProperties(run *sarif.Run) {
	props := sarif.NewPropertyBag()
	props.Add("summary", m.result.Summary())
	run.WithProperties(props)
}
