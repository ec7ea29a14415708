package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptTemplateRender(t *testing.T) {
	tmpl, err := NewPromptTemplate("fix", "Code:\n{{.code}}\nIssues:\n{{ .issues }}\n", "code", "issues")
	require.NoError(t, err)

	out, err := tmpl.Render(map[string]string{"code": "x = {'a': 1}", "issues": "[]"})
	require.NoError(t, err)
	assert.Equal(t, "Code:\nx = {'a': 1}\nIssues:\n[]\n", out)
	assert.Equal(t, []string{"code", "issues"}, tmpl.Slots())
	assert.Equal(t, "fix", tmpl.Name())
}

func TestPromptTemplateRenderSlotMismatch(t *testing.T) {
	tmpl := MustPromptTemplate("detect", "{{.code}}", "code")

	tests := []struct {
		name           string
		args           map[string]string
		wantMissing    []string
		wantUnexpected []string
	}{
		{name: "missing", args: map[string]string{}, wantMissing: []string{"code"}},
		{name: "unexpected", args: map[string]string{"code": "x", "lang": "go"}, wantUnexpected: []string{"lang"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tmpl.Render(tt.args)

			var mismatch *SlotMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, "detect", mismatch.Template)
			assert.Equal(t, tt.wantMissing, mismatch.Missing)
			assert.Equal(t, tt.wantUnexpected, mismatch.Unexpected)
		})
	}
}

func TestNewPromptTemplateChecksDeclaredSlots(t *testing.T) {
	_, err := NewPromptTemplate("verify", "{{.original}} {{.fixed}}", "original")

	var mismatch *SlotMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"fixed"}, mismatch.Unexpected)
	assert.Contains(t, err.Error(), `prompt template "verify": slot mismatch: unexpected fixed`)

	_, err = NewPromptTemplate("verify", "{{.original}}", "original", "fixed")
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"fixed"}, mismatch.Missing)

	assert.Panics(t, func() { MustPromptTemplate("broken", "{{.code}", "code") })
}
