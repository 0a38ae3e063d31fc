// Package keywords implements the keyword recommendation strategy: a static
// dictionary of trigger phrases scanned case-insensitively against the notes.
package keywords

import (
	"context"
	"fmt"
	"strings"

	"dispute-notepad/internal/interfaces"
)

// Matcher scans free text for the trigger phrases of a fixed dictionary
type Matcher struct {
	entries  []Entry
	triggers []string // lowercased, parallel to entries
}

// NewMatcher creates a matcher over the given entries. Triggers must be
// non-blank and unique ignoring case.
func NewMatcher(entries []Entry) (*Matcher, error) {
	m := &Matcher{
		entries:  make([]Entry, 0, len(entries)),
		triggers: make([]string, 0, len(entries)),
	}

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		trigger := strings.ToLower(strings.TrimSpace(e.Trigger))
		if trigger == "" {
			return nil, fmt.Errorf("entry %d has an empty trigger", i)
		}
		if seen[trigger] {
			return nil, fmt.Errorf("duplicate trigger %q", e.Trigger)
		}
		seen[trigger] = true

		m.entries = append(m.entries, e)
		m.triggers = append(m.triggers, trigger)
	}

	return m, nil
}

// Match returns the entries whose trigger occurs in input, in dictionary order
func (m *Matcher) Match(input string) []Entry {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	text := strings.ToLower(input)
	var matches []Entry
	for i, trigger := range m.triggers {
		if strings.Contains(text, trigger) {
			matches = append(matches, m.entries[i])
		}
	}

	return matches
}

// Name returns the strategy name
func (m *Matcher) Name() string {
	return interfaces.StrategyKeyword
}

// Recommend implements interfaces.Recommender. It never fails; an input with
// no trigger yields the no-recommendation message.
func (m *Matcher) Recommend(ctx context.Context, input string) (*interfaces.Recommendation, error) {
	result := &interfaces.Recommendation{
		Strategy: interfaces.StrategyKeyword,
	}

	for _, e := range m.Match(input) {
		result.Advisories = append(result.Advisories, interfaces.Advisory{
			Trigger:  e.Trigger,
			Advisory: e.Advisory,
		})
	}

	if len(result.Advisories) == 0 {
		result.Message = interfaces.NoRecommendationMessage
	}

	return result, nil
}

// HealthCheck always succeeds; the dictionary is static
func (m *Matcher) HealthCheck(ctx context.Context) error {
	return nil
}

// GetStats returns statistics about the matcher
func (m *Matcher) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"strategy": interfaces.StrategyKeyword,
		"entries":  len(m.entries),
	}
}
