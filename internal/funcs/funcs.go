package funcs

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var TemplateFuncs = template.FuncMap{
	// Time functions
	"now":        time.Now,
	"formatTime": formatTime,

	// String functions
	"uppercase": strings.ToUpper,
	"lowercase": strings.ToLower,
	"title":     Title,
	"join":      strings.Join,
	"orDefault": orDefault,

	// Number functions
	"formatInt": formatInt,
}

// Title capitalises every word, so "self-employed" reads "Self-Employed".
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

func formatInt(i any) (string, error) {
	switch v := i.(type) {
	case int:
		return printer.Sprintf("%d", v), nil
	case int64:
		return printer.Sprintf("%d", v), nil
	case float64:
		return printer.Sprintf("%.0f", v), nil
	default:
		return "", fmt.Errorf("unable to format %T as an integer", i)
	}
}

func orDefault(fallback, value string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
