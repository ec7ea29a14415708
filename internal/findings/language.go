package findings

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LanguageOther is used when the sample language is not in the supported list.
const LanguageOther = "Other"

// SupportedLanguages lists the language labels accepted for a code sample.
var SupportedLanguages = []string{"Python", "JavaScript", "Java", "C++", "C#", "PHP", "Ruby", "Go", LanguageOther}

var languageExtensions = map[string]string{
	"python":     "py",
	"javascript": "js",
	"java":       "java",
	"c++":        "cpp",
	"c#":         "cs",
	"php":        "php",
	"ruby":       "rb",
	"go":         "go",
}

// NormalizeLanguage maps a case-insensitive language label to its canonical spelling.
// An empty label is treated as Other.
func NormalizeLanguage(language string) (string, error) {
	language = strings.TrimSpace(language)
	if language == "" {
		return LanguageOther, nil
	}
	for _, supported := range SupportedLanguages {
		if strings.EqualFold(language, supported) {
			return supported, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q: expected one of %s", language, strings.Join(SupportedLanguages, ", "))
}

// FileExtension returns the source file extension for a language, "txt" when it is unknown.
func FileExtension(language string) string {
	if ext, ok := languageExtensions[strings.ToLower(strings.TrimSpace(language))]; ok {
		return ext
	}
	return "txt"
}

// LanguageFromPath guesses the language of a source file from its extension.
func LanguageFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return LanguageOther
	}
	for _, language := range SupportedLanguages {
		if languageExtensions[strings.ToLower(language)] == ext {
			return language
		}
	}
	return LanguageOther
}
