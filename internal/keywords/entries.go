package keywords

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is a single instruction: a trigger phrase and the advisory shown when
// the phrase appears in the dispute notes
type Entry struct {
	Trigger  string `yaml:"trigger" json:"trigger"`
	Advisory string `yaml:"advisory" json:"advisory"`
}

// DefaultEntries returns the built-in instruction dictionary
func DefaultEntries() []Entry {
	return []Entry{
		{
			Trigger:  "backup read",
			Advisory: "Check backup reads for rate calculation. If there are two backup reads, average them to calculate COS.",
		},
		{
			Trigger:  "supplier",
			Advisory: "Verify the supplier cost rate difference against the billed rate.",
		},
		{
			Trigger:  "cost rate",
			Advisory: "Recalculate the cost rate from the supplier contract and compare it with the bill.",
		},
		{
			Trigger:  "mismatch",
			Advisory: "Escalate if the data mismatch persists after the reads are re-verified.",
		},
		{
			Trigger:  "estimated read",
			Advisory: "Replace the estimated read with an actual or backup read before rebilling.",
		},
		{
			Trigger:  "meter exchange",
			Advisory: "Confirm the old meter final read and the new meter initial read on the exchange date.",
		},
		{
			Trigger:  "rebill",
			Advisory: "Cancel the disputed bill and rebill from the corrected reads; note the rebill in the remark.",
		},
		{
			Trigger:  "switch date",
			Advisory: "Check the supply switch date against the read dates to confirm which supplier owns the usage.",
		},
	}
}

// LoadEntries reads an instruction dictionary from a YAML file of
// trigger/advisory pairs
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file %s: %w", path, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("keyword file %s has no entries", path)
	}

	return entries, nil
}
