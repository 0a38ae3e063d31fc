package server

import (
	"embed"
	"html/template"
	"io"

	"dispute-notepad/internal/form"
	"dispute-notepad/internal/interfaces"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Notice is an inline message shown next to the action that produced it
type Notice struct {
	Level string // info, warning or error
	Text  string
}

// FieldValue is a form field with its current value
type FieldValue struct {
	Key       string
	Label     string
	InputType string
	Value     string
}

// PageData is the view model of the notepad page
type PageData struct {
	Strategy        string
	Input           string
	Recommendation  *interfaces.Recommendation
	RecommendNotice *Notice
	Fields          []FieldValue
	Rendered        string
	FormNotice      *Notice
	FileName        string
}

// newPageData returns the page with the form fields filled from record
func newPageData(strategy string, record form.Record) *PageData {
	fields := form.Fields()
	values := make([]FieldValue, 0, len(fields))
	for _, f := range fields {
		values = append(values, FieldValue{
			Key:       f.Key,
			Label:     f.Label,
			InputType: f.InputType,
			Value:     f.Value(&record),
		})
	}

	return &PageData{
		Strategy: strategy,
		Fields:   values,
		FileName: form.FileName,
	}
}

// noticeFor converts an API error into an inline notice
func noticeFor(apiErr *APIError) *Notice {
	return &Notice{Level: apiErr.Severity(), Text: apiErr.Inline()}
}

func renderPage(w io.Writer, data *PageData) error {
	return pageTemplate.Execute(w, data)
}
