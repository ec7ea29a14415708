package sarif

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/codemedic/internal/findings"
)

const (
	ToolName           = "codemedic"
	ToolInformationURI = "https://github.com/scan-io-git/codemedic"
)

// Report wraps a SARIF report built from or loaded for a pipeline run.
type Report struct {
	*sarif.Report
	logger hclog.Logger
}

// Options tunes how a finding set is rendered as SARIF.
type Options struct {
	// ArtifactURI names the analysed sample. Defaults to "sample.<ext>" for the sample language.
	ArtifactURI string
	ToolVersion string
}

// FromFindingSet converts the findings of one run into a single-run SARIF 2.1.0 report.
// Results are ordered from the most to the least severe level.
// Findings with an unknown line are reported against the artifact without a region.
func FromFindingSet(set *findings.FindingSet, sample findings.CodeSample, opts Options, logger hclog.Logger) (*Report, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	uri := opts.ArtifactURI
	if uri == "" {
		uri = "sample." + findings.FileExtension(sample.Language)
	}

	run := sarif.NewRunWithInformationURI(ToolName, ToolInformationURI)
	if opts.ToolVersion != "" {
		run.Tool.Driver.Version = &opts.ToolVersion
	}
	if sample.Language != "" {
		language := sample.Language
		run.Language = &language
	}

	if set != nil {
		for _, issue := range set.Issues {
			addIssue(run, issue, uri)
		}
	}
	report.AddRun(run)

	built := &Report{Report: report, logger: logger}
	built.SortResultsByLevel()
	logger.Debug("SARIF report built", "results", len(run.Results), "rules", len(run.Tool.Driver.Rules))
	return built, nil
}

func addIssue(run *sarif.Run, issue findings.Finding, uri string) {
	level := levelForSeverity(issue.Severity)
	ruleID := ruleIDFor(issue.IssueType)

	rule := run.AddRule(ruleID).
		WithName(ruleName(issue.IssueType)).
		WithDescription(ruleName(issue.IssueType)).
		WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})
	if issue.Suggestion != "" {
		rule.WithTextHelp(issue.Suggestion)
	}

	region := sarif.NewRegion()
	if issue.LineNumber.Known() {
		region.WithStartLine(int(issue.LineNumber))
	}
	if issue.CodeSnippet != "" {
		region.WithSnippet(sarif.NewArtifactContent().WithText(issue.CodeSnippet))
	}
	physical := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri))
	if issue.LineNumber.Known() || issue.CodeSnippet != "" {
		physical.WithRegion(region)
	}

	result := sarif.NewRuleResult(rule.ID).
		WithMessage(sarif.NewTextMessage(issueMessage(issue))).
		WithLevel(level).
		WithLocations([]*sarif.Location{sarif.NewLocation().WithPhysicalLocation(physical)})
	result.PartialFingerprints = map[string]interface{}{
		fingerprintKey: fingerprint(issue),
	}
	result.Properties = sarif.Properties{
		"Severity":  displaySeverity(issue.Severity, level),
		"IssueType": issue.IssueType,
	}
	if issue.Suggestion != "" {
		result.Properties["Suggestion"] = issue.Suggestion
	}
	run.AddResult(result)
}

// WriteFile writes the report with indentation, creating parent folders as needed.
func (r Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create folder for SARIF report: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report file: %w", err)
	}
	defer file.Close()

	if err := r.PrettyWrite(file); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	r.logger.Debug("SARIF report written", "path", path)
	return nil
}

// CollectSeverityInfo counts results per SARIF level across all runs.
// Levels other than error and warning are counted as low.
func (r Report) CollectSeverityInfo() map[string]int {
	severityInfo := map[string]int{
		"low":    0,
		"medium": 0,
		"high":   0,
		"total":  0,
	}

	for _, run := range r.Runs {
		for _, result := range run.Results {
			switch resultLevel(result) {
			case levelError:
				severityInfo["high"]++
			case levelWarning:
				severityInfo["medium"]++
			default:
				severityInfo["low"]++
			}
			severityInfo["total"]++
		}
	}

	return severityInfo
}

// SortResultsByLevel orders results error, warning, note, none, then anything else.
// The relative order of results with the same level is kept.
func (r Report) SortResultsByLevel() {
	levelOrder := map[string]int{
		levelError:   0,
		levelWarning: 1,
		levelNote:    2,
		levelNone:    3,
	}
	rank := func(result *sarif.Result) int {
		if order, ok := levelOrder[resultLevel(result)]; ok {
			return order
		}
		return len(levelOrder)
	}

	for _, run := range r.Runs {
		sort.SliceStable(run.Results, func(i, j int) bool {
			return rank(run.Results[i]) < rank(run.Results[j])
		})
	}
}

func resultLevel(result *sarif.Result) string {
	if result.Level == nil {
		return ""
	}
	return *result.Level
}
