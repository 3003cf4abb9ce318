package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/confgate-dev/confgate/internal/domain/report"
	"github.com/confgate-dev/confgate/internal/domain/values"
	"github.com/confgate-dev/confgate/internal/engine"
)

// JUnitFormatter formats scan results as JUnit XML, one testsuite per
// device and one testcase per finding.
type JUnitFormatter struct {
	writer io.Writer
}

// NewJUnitFormatter creates a new JUnit formatter.
func NewJUnitFormatter(w io.Writer) *JUnitFormatter {
	return &JUnitFormatter{writer: w}
}

// JUnitTestSuites JUnit XML structures
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitError struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// Format writes the scan result as JUnit XML.
func (f *JUnitFormatter) Format(result *engine.ScanResult) error {
	total := result.Summary()
	suites := JUnitTestSuites{
		Name:     "confgate scan " + result.ScanID.String(),
		Tests:    total.Total,
		Failures: total.Failed + total.Warned,
		Errors:   total.Errored,
		Time:     result.EndTime.Sub(result.StartTime).Seconds(),
	}

	for _, rep := range result.Reports {
		suites.TestSuites = append(suites.TestSuites, f.mapReport(rep))
	}

	if _, err := f.writer.Write([]byte(xml.Header)); err != nil {
		return err
	}

	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}

	_, err := f.writer.Write([]byte("\n"))
	return err
}

func (f *JUnitFormatter) mapReport(rep *report.Report) JUnitTestSuite {
	suite := JUnitTestSuite{
		Name:     rep.Device,
		Tests:    rep.Summary.Total,
		Failures: rep.Summary.Failed + rep.Summary.Warned,
		Errors:   rep.Summary.Errored,
		Skipped:  rep.Summary.Skipped,
		Time:     rep.Duration.Seconds(),
	}

	for i := range rep.Findings {
		finding := &rep.Findings[i]
		c := JUnitTestCase{
			Name:      fmt.Sprintf("%s [%s] %s", finding.RuleID, finding.BlockID, finding.Check),
			ClassName: finding.RuleTitle,
		}

		switch finding.Status {
		case values.StatusFail, values.StatusWarn:
			c.Failure = &JUnitFailure{
				Message: finding.Message,
				Content: formatEvidence(finding),
			}
		case values.StatusError:
			c.Error = &JUnitError{
				Message: finding.Message,
			}
		case values.StatusSkipped:
			c.Skipped = &JUnitSkipped{
				Message: finding.Message,
			}
		}

		suite.TestCases = append(suite.TestCases, c)
	}
	return suite
}

func formatEvidence(finding *report.Finding) string {
	var b strings.Builder
	for i, line := range finding.Lines {
		if i < len(finding.Matched) {
			fmt.Fprintf(&b, "line %d: %s\n", line, finding.Matched[i])
		} else {
			fmt.Fprintf(&b, "line %d\n", line)
		}
	}
	if finding.Remediation != "" {
		fmt.Fprintf(&b, "Remediation: %s\n", finding.Remediation)
	}
	return b.String()
}
