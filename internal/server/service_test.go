package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dispute-notepad/internal/form"
	"dispute-notepad/internal/interfaces"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotepadService_Recommend(t *testing.T) {
	metrics := NewMetricsCollector()
	recommender := &MockRecommender{}
	svc := NewNotepadService(recommender, metrics, nil, zerolog.Nop())

	recommendation, err := svc.Recommend(context.Background(), "Customer has a backup read")
	require.NoError(t, err)
	require.Len(t, recommendation.Advisories, 1)
	assert.Equal(t, "Customer has a backup read", recommender.lastInput)

	m := metrics.GetMetrics()
	assert.Equal(t, int64(1), m.QueryCount)
	assert.Equal(t, int64(1), m.SuccessfulQueries)
	assert.Equal(t, int64(0), m.EmptyResults)
}

func TestNotepadService_RecommendEmptyResult(t *testing.T) {
	metrics := NewMetricsCollector()
	recommender := &MockRecommender{recommendation: &interfaces.Recommendation{
		Strategy: interfaces.StrategyKeyword,
		Message:  interfaces.NoRecommendationMessage,
	}}
	svc := NewNotepadService(recommender, metrics, nil, zerolog.Nop())

	recommendation, err := svc.Recommend(context.Background(), "nothing relevant")
	require.NoError(t, err)
	assert.Equal(t, interfaces.NoRecommendationMessage, recommendation.Message)
	assert.Equal(t, int64(1), metrics.GetMetrics().EmptyResults)
}

func TestNotepadService_RecommendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"empty input", fmt.Errorf("%w: blank", interfaces.ErrEmptyInput), ErrorCodeEmptyInput},
		{"missing document", fmt.Errorf("%w: dispute_instructions.txt", interfaces.ErrMissingResource), ErrorCodeMissingResource},
		{"missing credential", fmt.Errorf("%w: key", interfaces.ErrMissingConfiguration), ErrorCodeMissingConfiguration},
		{"provider", fmt.Errorf("%w: 429", interfaces.ErrProvider), ErrorCodeProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewMetricsCollector()
			svc := NewNotepadService(&MockRecommender{recommendErr: tt.err}, metrics, nil, zerolog.Nop())

			_, err := svc.Recommend(context.Background(), "text")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, int64(1), metrics.GetMetrics().FailedQueries)
		})
	}
}

func TestNotepadService_InputTooLong(t *testing.T) {
	recommender := &MockRecommender{}
	svc := NewNotepadService(recommender, nil, &ServiceConfig{MaxInputLength: 10}, zerolog.Nop())

	_, err := svc.Recommend(context.Background(), strings.Repeat("é", 11))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrorCodeInputTooLong, apiErr.Code)
	assert.Empty(t, recommender.lastInput, "recommender must not be called")

	_, err = svc.Recommend(context.Background(), strings.Repeat("é", 10))
	assert.NoError(t, err)
}

func TestNotepadService_RenderForm(t *testing.T) {
	metrics := NewMetricsCollector()
	svc := NewNotepadService(&MockRecommender{}, metrics, nil, zerolog.Nop())

	text := svc.RenderForm(form.Record{DisputeID: "1234", Account: "A-1234566"})

	assert.True(t, strings.HasPrefix(text, "Dispute ID: 1234\nAccount: A-1234566\nCustomer Name: \n"))
	assert.Equal(t, int64(1), metrics.GetMetrics().FormsRendered)
	assert.Equal(t, interfaces.StrategyKeyword, svc.Strategy())
}
