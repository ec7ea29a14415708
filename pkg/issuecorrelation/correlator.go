// Package issuecorrelation matches the findings of two runs over the same code,
// so a rerun can tell which issues are recurring, new or resolved.
package issuecorrelation

import (
	"sort"
	"strings"

	"github.com/scan-io-git/codemedic/internal/findings"
)

// IssueMetadata describes the minimal metadata required to correlate issues.
type IssueMetadata struct {
	Index       int // position in the finding set, not used in matching
	IssueType   string
	Severity    string
	Line        int // zero when the location is unknown
	SnippetHash string
}

// FromFindings extracts correlation metadata from findings, keeping their order.
func FromFindings(issues []findings.Finding) []IssueMetadata {
	out := make([]IssueMetadata, 0, len(issues))
	for i, issue := range issues {
		line := 0
		if issue.LineNumber.Known() {
			line = int(issue.LineNumber)
		}
		out = append(out, IssueMetadata{
			Index:       i,
			IssueType:   strings.ToLower(strings.TrimSpace(issue.IssueType)),
			Severity:    issue.Severity,
			Line:        line,
			SnippetHash: SnippetHash(issue.CodeSnippet),
		})
	}
	return out
}

// Match groups a single known issue with the new issues correlated to it.
type Match struct {
	Known IssueMetadata
	New   []IssueMetadata
}

// Correlator computes many-to-many correlations between known and new issues.
// It is inert until Process is called; the accessors call it when needed.
type Correlator struct {
	NewIssues   []IssueMetadata
	KnownIssues []IssueMetadata

	knownToNew map[int][]int
	newToKnown map[int][]int

	processed bool
}

// NewCorrelator creates a Correlator with the provided issues.
func NewCorrelator(newIssues, knownIssues []IssueMetadata) *Correlator {
	return &Correlator{
		NewIssues:   newIssues,
		KnownIssues: knownIssues,
	}
}

// Process correlates every known issue with every new issue in three ordered stages.
// An issue matched in one stage is excluded from later ones, but several matches
// within the same stage are kept. The stages are:
// 1) type + line + snippet hash
// 2) type + snippet hash
// 3) type + line
// Process is idempotent.
func (c *Correlator) Process() {
	if c.processed {
		return
	}
	c.knownToNew = make(map[int][]int)
	c.newToKnown = make(map[int][]int)

	matchedKnown := make(map[int]bool)
	matchedNew := make(map[int]bool)

	for _, stage := range []int{1, 2, 3} {
		matchedKnownThis := make(map[int]bool)
		matchedNewThis := make(map[int]bool)

		for ki, k := range c.KnownIssues {
			if matchedKnown[ki] {
				continue
			}
			for ni, n := range c.NewIssues {
				if matchedNew[ni] {
					continue
				}
				if matchStage(k, n, stage) {
					c.knownToNew[ki] = append(c.knownToNew[ki], ni)
					c.newToKnown[ni] = append(c.newToKnown[ni], ki)
					matchedKnownThis[ki] = true
					matchedNewThis[ni] = true
				}
			}
		}

		for ki := range matchedKnownThis {
			matchedKnown[ki] = true
		}
		for ni := range matchedNewThis {
			matchedNew[ni] = true
		}
	}

	c.processed = true
}

// matchStage applies one stage of the matching rules. The issue type is required
// in every stage; hashes and lines only count when both sides have them.
func matchStage(a, b IssueMetadata, stage int) bool {
	if a.IssueType == "" || a.IssueType != b.IssueType {
		return false
	}

	sameSnippet := a.SnippetHash != "" && a.SnippetHash == b.SnippetHash
	sameLine := a.Line > 0 && a.Line == b.Line

	switch stage {
	case 1:
		return sameLine && sameSnippet
	case 2:
		return sameSnippet
	case 3:
		return sameLine
	default:
		return false
	}
}

// UnmatchedNew returns new issues that do not correlate to any known issue.
func (c *Correlator) UnmatchedNew() []IssueMetadata {
	c.Process()

	var out []IssueMetadata
	for ni, n := range c.NewIssues {
		if len(c.newToKnown[ni]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// UnmatchedKnown returns known issues that do not correlate to any new issue.
func (c *Correlator) UnmatchedKnown() []IssueMetadata {
	c.Process()

	var out []IssueMetadata
	for ki, k := range c.KnownIssues {
		if len(c.knownToNew[ki]) == 0 {
			out = append(out, k)
		}
	}
	return out
}

// Matches returns one entry per known issue with at least one correlated new issue,
// ordered by the position of the known issue.
func (c *Correlator) Matches() []Match {
	c.Process()

	known := make([]int, 0, len(c.knownToNew))
	for ki := range c.knownToNew {
		known = append(known, ki)
	}
	sort.Ints(known)

	var out []Match
	for _, ki := range known {
		m := Match{Known: c.KnownIssues[ki], New: make([]IssueMetadata, 0, len(c.knownToNew[ki]))}
		for _, ni := range c.knownToNew[ki] {
			m.New = append(m.New, c.NewIssues[ni])
		}
		out = append(out, m)
	}
	return out
}

// Comparison summarises how the findings changed between two runs.
type Comparison struct {
	PreviousRunID   string `json:"previous_run_id"`
	Recurring       int    `json:"recurring"`
	New             int    `json:"new"`
	Resolved        int    `json:"resolved"`
	SeverityChanged int    `json:"severity_changed"`
}

// Compare correlates the findings of the current run with those of the previous one.
// SeverityChanged counts previous findings that recur with a different severity.
func Compare(previous, current []findings.Finding) Comparison {
	c := NewCorrelator(FromFindings(current), FromFindings(previous))
	unmatchedNew := len(c.UnmatchedNew())

	changed := 0
	for _, m := range c.Matches() {
		for _, n := range m.New {
			if !strings.EqualFold(m.Known.Severity, n.Severity) {
				changed++
				break
			}
		}
	}

	return Comparison{
		Recurring:       len(current) - unmatchedNew,
		New:             unmatchedNew,
		Resolved:        len(c.UnmatchedKnown()),
		SeverityChanged: changed,
	}
}
