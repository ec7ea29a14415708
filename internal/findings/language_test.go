package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "python", want: "Python"},
		{in: " GO ", want: "Go"},
		{in: "c#", want: "C#"},
		{in: "c++", want: "C++"},
		{in: "", want: LanguageOther},
		{in: "other", want: LanguageOther},
		{in: "Brainfuck", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeLanguage(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "Python, JavaScript")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "py", FileExtension("Python"))
	assert.Equal(t, "cpp", FileExtension("C++"))
	assert.Equal(t, "cs", FileExtension("c#"))
	assert.Equal(t, "txt", FileExtension(LanguageOther))
	assert.Equal(t, "txt", FileExtension(""))
}

func TestLanguageFromPath(t *testing.T) {
	tests := map[string]string{
		"app/main.go":  "Go",
		"script.PY":    "Python",
		"Program.cs":   "C#",
		"lib/util.cpp": "C++",
		"README":       LanguageOther,
		"notes.txt":    LanguageOther,
		"-":            LanguageOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, LanguageFromPath(in), in)
	}
}
