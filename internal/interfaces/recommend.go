package interfaces

import "context"

// Strategy names accepted by configuration
const (
	StrategyKeyword   = "keyword"
	StrategyRetrieval = "retrieval"
)

// NoRecommendationMessage is shown when the keyword strategy matches nothing
const NoRecommendationMessage = "No recommendation found."

// Advisory is a matched (trigger, advisory) pair
type Advisory struct {
	Trigger  string `json:"trigger"`
	Advisory string `json:"advisory"`
}

// Recommendation is the outcome of a single recommend action
type Recommendation struct {
	Strategy   string     `json:"strategy"`
	Advisories []Advisory `json:"advisories,omitempty"`
	Answer     string     `json:"answer,omitempty"`
	Passages   []string   `json:"passages,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// Empty reports whether the recommendation carries no advisory and no answer
func (r *Recommendation) Empty() bool {
	return r == nil || (len(r.Advisories) == 0 && r.Answer == "")
}

// Recommender is the pluggable next-action strategy
type Recommender interface {
	// Name returns the strategy name
	Name() string

	// Recommend produces next-action suggestions for free-text dispute notes
	Recommend(ctx context.Context, input string) (*Recommendation, error)

	// HealthCheck reports whether the strategy can currently serve requests
	HealthCheck(ctx context.Context) error

	// GetStats returns strategy statistics for health reporting
	GetStats() map[string]interface{}
}
