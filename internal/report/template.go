package report

import (
	"embed"
	"fmt"
	"strconv"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// add adds two integers and returns the result.
// helper function for text template
func add(a, b int) int {
	return a + b
}

// ordinalDate returns a string with the ordinal number of the day
// helper function for text template
func ordinalDate(day int) string {
	suffix := "th"
	switch day {
	case 1, 21, 31:
		suffix = "st"
	case 2, 22:
		suffix = "nd"
	case 3, 23:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

// formatDateTime formats a time.Time object as "19th October 2026 3:04:05 pm UTC".
func formatDateTime(t time.Time) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s %s %d %d:%02d:%02d %s %s",
		ordinalDate(t.Day()), t.Month(), t.Year(), hour, t.Minute(), t.Second(), t.Format("pm"), t.Format("MST"))
}

// score prints a score without trailing zeros.
func score(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newTemplate(name string) (*template.Template, error) {
	return template.New(name).
		Funcs(template.FuncMap{
			"add":            add,
			"formatDateTime": formatDateTime,
			"score":          score,
		}).
		ParseFS(templateFS, "templates/"+name)
}
