package llm

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"
)

var slotPattern = regexp.MustCompile(`\{\{\s*\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// PromptTemplate is a prompt with named slots written as {{.name}}.
type PromptTemplate struct {
	name  string
	slots []string
	tmpl  *template.Template
}

// NewPromptTemplate parses text and checks that it references exactly the declared slots.
func NewPromptTemplate(name, text string, slots ...string) (*PromptTemplate, error) {
	declared := uniqueSorted(slots)

	var used []string
	for _, m := range slotPattern.FindAllStringSubmatch(text, -1) {
		used = append(used, m[1])
	}
	// Missing: declared but never referenced. Unexpected: referenced but not declared.
	missing, unexpected := diffSlots(declared, uniqueSorted(used))
	if len(missing) > 0 || len(unexpected) > 0 {
		return nil, &SlotMismatchError{Template: name, Missing: missing, Unexpected: unexpected}
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template %q: %w", name, err)
	}
	return &PromptTemplate{name: name, slots: declared, tmpl: tmpl}, nil
}

// MustPromptTemplate is like NewPromptTemplate but panics on error. Use it for package-level prompts.
func MustPromptTemplate(name, text string, slots ...string) *PromptTemplate {
	p, err := NewPromptTemplate(name, text, slots...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the template name.
func (p *PromptTemplate) Name() string {
	return p.name
}

// Slots returns the declared slot names in sorted order.
func (p *PromptTemplate) Slots() []string {
	return append([]string(nil), p.slots...)
}

// Render fills the slots. The keys of args must equal the declared slots.
func (p *PromptTemplate) Render(args map[string]string) (string, error) {
	given := make([]string, 0, len(args))
	for k := range args {
		given = append(given, k)
	}
	missing, unexpected := diffSlots(p.slots, uniqueSorted(given))
	if len(missing) > 0 || len(unexpected) > 0 {
		return "", &SlotMismatchError{Template: p.name, Missing: missing, Unexpected: unexpected}
	}

	var b strings.Builder
	if err := p.tmpl.Execute(&b, args); err != nil {
		return "", fmt.Errorf("failed to render prompt template %q: %w", p.name, err)
	}
	return b.String(), nil
}

// diffSlots returns the entries of want absent from got and the entries of got absent from want.
func diffSlots(want, got []string) (missing, unexpected []string) {
	wantSet := make(map[string]struct{}, len(want))
	for _, w := range want {
		wantSet[w] = struct{}{}
	}
	gotSet := make(map[string]struct{}, len(got))
	for _, g := range got {
		gotSet[g] = struct{}{}
		if _, ok := wantSet[g]; !ok {
			unexpected = append(unexpected, g)
		}
	}
	for _, w := range want {
		if _, ok := gotSet[w]; !ok {
			missing = append(missing, w)
		}
	}
	return missing, unexpected
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
