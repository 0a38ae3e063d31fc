package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dispute-notepad/internal/interfaces"

	"github.com/rs/zerolog"
)

// initializer is implemented by recommenders that load resources before
// serving, such as the retriever's index build
type initializer interface {
	Initialize(ctx context.Context) error
}

// ServiceManager manages the lifecycle of the notepad service and its dependencies
type ServiceManager struct {
	service     *NotepadService
	recommender interfaces.Recommender
	vectorDB    interfaces.VectorDB
	llmClient   interfaces.LLMClient
	metrics     *MetricsCollector
	config      *ServiceConfig
	logger      zerolog.Logger

	mu           sync.RWMutex
	isRunning    bool
	healthStatus map[string]bool
}

// NewServiceManager creates a new service manager. vectorDB and llmClient may
// be nil when the keyword strategy is selected or no credential is set.
func NewServiceManager(recommender interfaces.Recommender, vectorDB interfaces.VectorDB, llmClient interfaces.LLMClient, metrics *MetricsCollector, config *ServiceConfig, logger zerolog.Logger) *ServiceManager {
	if metrics == nil {
		metrics = NewMetricsCollector()
	}

	return &ServiceManager{
		recommender:  recommender,
		vectorDB:     vectorDB,
		llmClient:    llmClient,
		metrics:      metrics,
		config:       config,
		logger:       logger.With().Str("component", "service_manager").Logger(),
		healthStatus: make(map[string]bool),
	}
}

// Start initializes dependencies and creates the notepad service. An
// initialization failure of the recommender is logged, not returned: the
// recommender reports it on every request instead.
func (sm *ServiceManager) Start(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.isRunning {
		return fmt.Errorf("service is already running")
	}

	if sm.recommender == nil {
		return NewAPIError(ErrorCodeServiceUnavailable, "no recommender configured")
	}

	if loader, ok := sm.recommender.(initializer); ok {
		start := time.Now()
		if err := loader.Initialize(ctx); err != nil {
			sm.logger.Warn().Err(err).Str("strategy", sm.recommender.Name()).Msg("Recommender unavailable")
		} else {
			sm.logger.Info().Dur("duration", time.Since(start)).Str("strategy", sm.recommender.Name()).Msg("Recommender initialized")
		}
	}

	sm.service = NewNotepadService(sm.recommender, sm.metrics, sm.config, sm.logger)
	sm.isRunning = true

	sm.logger.Info().Str("strategy", sm.recommender.Name()).Msg("Service manager started")
	return nil
}

// Stop closes dependencies
func (sm *ServiceManager) Stop() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.isRunning {
		return nil
	}

	if sm.vectorDB != nil {
		if err := sm.vectorDB.Close(); err != nil {
			sm.logger.Error().Err(err).Msg("Error closing vector database")
		}
	}

	if sm.llmClient != nil {
		if err := sm.llmClient.Close(); err != nil {
			sm.logger.Error().Err(err).Msg("Error closing LLM client")
		}
	}

	sm.isRunning = false
	sm.service = nil
	sm.logger.Info().Msg("Service manager stopped")
	return nil
}

// GetService returns the notepad service, or nil when not running
func (sm *ServiceManager) GetService() *NotepadService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.service
}

// IsRunning returns whether the service is currently running
func (sm *ServiceManager) IsRunning() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.isRunning
}

// GetHealthStatus returns the component status from the last health check
func (sm *ServiceManager) GetHealthStatus() map[string]bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	status := make(map[string]bool)
	for k, v := range sm.healthStatus {
		status[k] = v
	}
	return status
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Strategy  string            `json:"strategy,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Error     string            `json:"error,omitempty"`
}

// Healthy reports whether the overall status is healthy
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// HealthCheck checks every configured component. Components that are not
// configured are reported but do not make the service unhealthy; the
// recommender decides whether requests can be served.
func (sm *ServiceManager) HealthCheck(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}
	components := make(map[string]bool)
	allHealthy := sm.IsRunning()
	if !allHealthy {
		status.Error = "service not running"
	}

	if sm.recommender != nil {
		status.Strategy = sm.recommender.Name()
		if err := sm.recommender.HealthCheck(ctx); err != nil {
			status.Services["recommender"] = fmt.Sprintf("unhealthy: %v", err)
			components["recommender"] = false
			allHealthy = false
		} else {
			status.Services["recommender"] = "healthy"
			components["recommender"] = true
		}
	} else {
		status.Services["recommender"] = "not initialized"
		allHealthy = false
	}

	if sm.vectorDB != nil {
		if err := sm.vectorDB.HealthCheck(ctx); err != nil {
			status.Services["vector_db"] = fmt.Sprintf("unhealthy: %v", err)
			components["vector_db"] = false
			allHealthy = false
		} else {
			status.Services["vector_db"] = "healthy"
			components["vector_db"] = true
		}
	} else {
		status.Services["vector_db"] = "not configured"
	}

	if sm.llmClient != nil {
		if err := sm.llmClient.HealthCheck(ctx); err != nil {
			status.Services["llm_client"] = fmt.Sprintf("unhealthy: %v", err)
			components["llm_client"] = false
			allHealthy = false
		} else {
			status.Services["llm_client"] = "healthy"
			components["llm_client"] = true
		}
	} else {
		status.Services["llm_client"] = "not configured"
	}

	if allHealthy {
		status.Status = "healthy"
	} else {
		status.Status = "unhealthy"
	}

	sm.mu.Lock()
	sm.healthStatus = components
	sm.mu.Unlock()

	return status
}
