package server

import (
	"context"
	"time"
	"unicode/utf8"

	"dispute-notepad/internal/form"
	"dispute-notepad/internal/interfaces"

	"github.com/rs/zerolog"
)

// ServiceConfig holds request limits for the notepad service
type ServiceConfig struct {
	MaxInputLength int // in characters
}

// DefaultServiceConfig returns default service limits
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxInputLength: 20000,
	}
}

// NotepadService runs the two user actions: recommend and render form
type NotepadService struct {
	recommender interfaces.Recommender
	metrics     *MetricsCollector
	config      *ServiceConfig
	logger      zerolog.Logger
}

// NewNotepadService creates a new notepad service
func NewNotepadService(recommender interfaces.Recommender, metrics *MetricsCollector, config *ServiceConfig, logger zerolog.Logger) *NotepadService {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if metrics == nil {
		metrics = NewMetricsCollector()
	}

	return &NotepadService{
		recommender: recommender,
		metrics:     metrics,
		config:      config,
		logger:      logger,
	}
}

// Strategy returns the name of the configured strategy
func (s *NotepadService) Strategy() string {
	return s.recommender.Name()
}

// Recommend runs the configured strategy on the dispute text. Failures are
// returned as *APIError.
func (s *NotepadService) Recommend(ctx context.Context, input string) (*interfaces.Recommendation, error) {
	if s.config.MaxInputLength > 0 && utf8.RuneCountInString(input) > s.config.MaxInputLength {
		apiErr := NewAPIError(ErrorCodeInputTooLong, "Dispute text is too long.")
		LogError(s.logger, apiErr, "recommend")
		return nil, apiErr
	}

	start := time.Now()
	recommendation, err := s.recommender.Recommend(ctx, input)
	duration := time.Since(start)

	if err != nil {
		s.metrics.RecordQuery(duration, false, false)
		apiErr := FromError(err)
		LogError(s.logger, apiErr, "recommend")
		return nil, apiErr
	}

	s.metrics.RecordQuery(duration, true, recommendation.Empty())
	s.logger.Debug().
		Str("strategy", recommendation.Strategy).
		Int("advisories", len(recommendation.Advisories)).
		Dur("duration", duration).
		Msg("Recommendation served")

	return recommendation, nil
}

// RenderForm serializes the record into the copyable text block
func (s *NotepadService) RenderForm(record form.Record) string {
	s.metrics.RecordForm()
	return form.Render(record)
}
