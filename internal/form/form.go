// Package form renders the dispute data-entry form into the fixed plain-text
// block analysts copy into the billing system, and parses it back.
package form

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// FileName is the download name of the rendered form
	FileName = "dispute_form.txt"

	// ContentType is the MIME type of the rendered form
	ContentType = "text/plain"

	// continuation prefixes the second and later lines of a multi-line value
	continuation = "  "
)

// Record holds the values of the dispute form. Values are kept verbatim;
// nothing is validated.
type Record struct {
	DisputeID        string `json:"dispute_id"`
	Account          string `json:"account"`
	CustomerName     string `json:"customer_name"`
	ServiceAddress   string `json:"service_address"`
	MeterNumber      string `json:"meter_number"`
	Supplier         string `json:"supplier"`
	RateClass        string `json:"rate_class"`
	DisputeDate      string `json:"dispute_date"`
	BillPeriodStart  string `json:"bill_period_start"`
	BillPeriodEnd    string `json:"bill_period_end"`
	DisputedRead     string `json:"disputed_read"`
	DisputedReadDate string `json:"disputed_read_date"`
	BackupRead1      string `json:"backup_read_1"`
	BackupRead1Date  string `json:"backup_read_1_date"`
	BackupRead2      string `json:"backup_read_2"`
	BackupRead2Date  string `json:"backup_read_2_date"`
	AverageRead      string `json:"average_read"`
	CostRate         string `json:"cost_rate"`
	Resolution       string `json:"resolution"`
	Analyst          string `json:"analyst"`
	Remark           string `json:"remark"`
}

// Field describes one labeled entry of the form
type Field struct {
	Key       string
	Label     string
	InputType string // text, date or textarea
	value     func(r *Record) *string
}

// Value returns the field value of r
func (f Field) Value(r *Record) string {
	return *f.value(r)
}

var fields = []Field{
	{"dispute_id", "Dispute ID", "text", func(r *Record) *string { return &r.DisputeID }},
	{"account", "Account", "text", func(r *Record) *string { return &r.Account }},
	{"customer_name", "Customer Name", "text", func(r *Record) *string { return &r.CustomerName }},
	{"service_address", "Service Address", "text", func(r *Record) *string { return &r.ServiceAddress }},
	{"meter_number", "Meter Number", "text", func(r *Record) *string { return &r.MeterNumber }},
	{"supplier", "Supplier", "text", func(r *Record) *string { return &r.Supplier }},
	{"rate_class", "Rate Class", "text", func(r *Record) *string { return &r.RateClass }},
	{"dispute_date", "Dispute Date", "date", func(r *Record) *string { return &r.DisputeDate }},
	{"bill_period_start", "Bill Period Start", "date", func(r *Record) *string { return &r.BillPeriodStart }},
	{"bill_period_end", "Bill Period End", "date", func(r *Record) *string { return &r.BillPeriodEnd }},
	{"disputed_read", "Disputed Read", "text", func(r *Record) *string { return &r.DisputedRead }},
	{"disputed_read_date", "Disputed Read Date", "date", func(r *Record) *string { return &r.DisputedReadDate }},
	{"backup_read_1", "Backup Read 1", "text", func(r *Record) *string { return &r.BackupRead1 }},
	{"backup_read_1_date", "Backup Read 1 Date", "date", func(r *Record) *string { return &r.BackupRead1Date }},
	{"backup_read_2", "Backup Read 2", "text", func(r *Record) *string { return &r.BackupRead2 }},
	{"backup_read_2_date", "Backup Read 2 Date", "date", func(r *Record) *string { return &r.BackupRead2Date }},
	{"average_read", "Average Read", "text", func(r *Record) *string { return &r.AverageRead }},
	{"cost_rate", "Cost Rate", "text", func(r *Record) *string { return &r.CostRate }},
	{"resolution", "Resolution", "text", func(r *Record) *string { return &r.Resolution }},
	{"analyst", "Analyst", "text", func(r *Record) *string { return &r.Analyst }},
	{"remark", "Remark", "textarea", func(r *Record) *string { return &r.Remark }},
}

// Fields returns the form fields in template order
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Render writes every field as "Label: value" in template order. Empty values
// leave the line blank after the label. Line breaks inside a value are
// written as continuation lines indented by two spaces.
func Render(r Record) string {
	var b strings.Builder
	for _, f := range fields {
		value := f.Value(&r)
		b.WriteString(f.Label)
		b.WriteString(": ")
		b.WriteString(strings.ReplaceAll(value, "\n", "\n"+continuation))
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse is the inverse of Render
func Parse(text string) (Record, error) {
	var r Record

	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")

	i := 0
	for _, f := range fields {
		if i >= len(lines) {
			return Record{}, fmt.Errorf("missing field %q", f.Label)
		}

		prefix := f.Label + ": "
		if !strings.HasPrefix(lines[i], prefix) {
			return Record{}, fmt.Errorf("line %d: expected field %q, got %q", i+1, f.Label, lines[i])
		}

		value := strings.TrimPrefix(lines[i], prefix)
		i++
		for i < len(lines) && strings.HasPrefix(lines[i], continuation) {
			value += "\n" + strings.TrimPrefix(lines[i], continuation)
			i++
		}

		*f.value(&r) = value
	}

	if i != len(lines) {
		return Record{}, fmt.Errorf("line %d: unexpected content %q", i+1, lines[i])
	}

	return r, nil
}

// FromValues builds a record from submitted form values keyed by field key
func FromValues(values url.Values) Record {
	var r Record
	for _, f := range fields {
		*f.value(&r) = values.Get(f.Key)
	}
	return r
}
