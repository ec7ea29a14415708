package report

import (
	"bytes"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/scan-io-git/codemedic/internal/agents"
	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/pipeline"
	"github.com/scan-io-git/codemedic/pkg/issuecorrelation"
)

const textTemplateName = "report.txt.tmpl"

// TallyLine is one severity row of the summary.
type TallyLine struct {
	Label string
	Count int
}

// View is the data rendered into the plain-text report.
type View struct {
	RunID       string
	Language    string
	State       pipeline.State
	GeneratedAt time.Time
	Total       int
	Tally       []TallyLine
	Findings    *findings.FindingSet
	Issues      []findings.Finding
	Fix         *findings.FixResult
	Report      *findings.ValidationReport
	Failure     *agents.StageError
	Comparison  *issuecorrelation.Comparison
}

// NewView flattens a pipeline result for rendering.
func NewView(result *pipeline.Result) View {
	view := View{
		RunID:       result.RunID,
		Language:    result.Sample.Language,
		State:       result.State,
		GeneratedAt: result.FinishedAt,
		Findings:    result.Findings,
		Fix:         result.Fix,
		Report:      result.Report,
		Failure:     result.Failure,
		Comparison:  result.Comparison,
	}
	if view.Language == "" {
		view.Language = findings.LanguageOther
	}

	set := result.Findings
	if set != nil {
		view.Total = set.TotalFound
		view.Issues = set.Issues
	}
	for _, severity := range findings.Severities {
		view.Tally = append(view.Tally, TallyLine{Label: severity, Count: set.CountBySeverity(severity)})
	}
	if set != nil && set.UnrecognizedCount > 0 {
		view.Tally = append(view.Tally, TallyLine{Label: "Other", Count: set.UnrecognizedCount})
	}
	return view
}

// Renderer writes pipeline results as the plain-text analysis report.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded report template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := newTemplate(textTemplateName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Write renders result to w.
func (r *Renderer) Write(w io.Writer, result *pipeline.Result) error {
	if result == nil {
		return fmt.Errorf("no result to render")
	}
	if err := r.tmpl.ExecuteTemplate(w, textTemplateName, NewView(result)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// Text renders result into a string.
func (r *Renderer) Text(result *pipeline.Result) (string, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, result); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FixedCodeFileName returns the download name for remediated code, e.g. fixed_code.py.
func FixedCodeFileName(language string) string {
	return "fixed_code." + findings.FileExtension(language)
}
