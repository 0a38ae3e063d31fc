package server

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PerformanceMetrics holds performance-related metrics
type PerformanceMetrics struct {
	QueryCount          int64         `json:"query_count"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	LastResponseTime    time.Duration `json:"last_response_time"`
	MaxResponseTime     time.Duration `json:"max_response_time"`
	MinResponseTime     time.Duration `json:"min_response_time"`
	ErrorCount          int64         `json:"error_count"`
	LastErrorTime       time.Time     `json:"last_error_time,omitempty"`
	SuccessfulQueries   int64         `json:"successful_queries"`
	FailedQueries       int64         `json:"failed_queries"`
	EmptyResults        int64         `json:"empty_results"`
	FormsRendered       int64         `json:"forms_rendered"`
	TotalResponseTime   time.Duration `json:"-"` // Used for calculating average
	StartTime           time.Time     `json:"start_time"`
}

// MetricsCollector collects and manages performance metrics
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics PerformanceMetrics
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: PerformanceMetrics{
			StartTime: time.Now(),
		},
	}
}

// RecordQuery records metrics for a recommend operation
func (mc *MetricsCollector) RecordQuery(duration time.Duration, success, empty bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m := &mc.metrics
	m.QueryCount++
	m.LastResponseTime = duration
	m.TotalResponseTime += duration

	// Update min/max response times
	if m.MinResponseTime == 0 || duration < m.MinResponseTime {
		m.MinResponseTime = duration
	}
	if duration > m.MaxResponseTime {
		m.MaxResponseTime = duration
	}

	m.AverageResponseTime = m.TotalResponseTime / time.Duration(m.QueryCount)

	if success {
		m.SuccessfulQueries++
		if empty {
			m.EmptyResults++
		}
	} else {
		m.FailedQueries++
		m.ErrorCount++
		m.LastErrorTime = time.Now()
	}
}

// RecordForm counts a rendered form
func (mc *MetricsCollector) RecordForm() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics.FormsRendered++
}

// GetMetrics returns a copy of the current metrics
func (mc *MetricsCollector) GetMetrics() PerformanceMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.metrics
}

// Reset resets all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = PerformanceMetrics{StartTime: time.Now()}
}

// DetailedHealthStatus extends HealthStatus with more comprehensive information
type DetailedHealthStatus struct {
	HealthStatus
	Metrics      PerformanceMetrics          `json:"metrics"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	SystemInfo   SystemInfo                  `json:"system_info"`
	Uptime       time.Duration               `json:"uptime"`
}

// DependencyStatus represents the status of a specific dependency
type DependencyStatus struct {
	Name           string                 `json:"name"`
	Status         string                 `json:"status"`
	LastCheck      time.Time              `json:"last_check"`
	ResponseTime   time.Duration          `json:"response_time,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Version        string                 `json:"version,omitempty"`
	AdditionalInfo map[string]interface{} `json:"additional_info,omitempty"`
}

// SystemInfo holds system-level information
type SystemInfo struct {
	Version   string    `json:"version"`
	GoVersion string    `json:"go_version,omitempty"`
	StartTime time.Time `json:"start_time"`
}

// HealthMonitor provides comprehensive health monitoring capabilities
type HealthMonitor struct {
	metricsCollector *MetricsCollector
	systemInfo       SystemInfo
	startTime        time.Time
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(version string) *HealthMonitor {
	now := time.Now()
	return &HealthMonitor{
		metricsCollector: NewMetricsCollector(),
		systemInfo: SystemInfo{
			Version:   version,
			GoVersion: runtime.Version(),
			StartTime: now,
		},
		startTime: now,
	}
}

// GetMetricsCollector returns the metrics collector
func (hm *HealthMonitor) GetMetricsCollector() *MetricsCollector {
	return hm.metricsCollector
}

// GetDetailedHealthStatus checks every component of the service manager with
// timing and returns the combined status
func (hm *HealthMonitor) GetDetailedHealthStatus(ctx context.Context, sm *ServiceManager) *DetailedHealthStatus {
	basicHealth := sm.HealthCheck(ctx)
	dependencies := make(map[string]DependencyStatus)

	recommender := DependencyStatus{Name: "recommender"}
	if sm.recommender != nil {
		recommender = checkDependency(ctx, "recommender", sm.recommender.HealthCheck)
		recommender.Version = sm.recommender.Name()
		recommender.AdditionalInfo = sm.recommender.GetStats()
	} else {
		recommender.Status = "not_initialized"
		recommender.LastCheck = time.Now()
	}
	dependencies["recommender"] = recommender

	if sm.vectorDB != nil {
		dependencies["vector_db"] = checkDependency(ctx, "vector_db", sm.vectorDB.HealthCheck)
	} else {
		dependencies["vector_db"] = DependencyStatus{Name: "vector_db", Status: "not_configured", LastCheck: time.Now()}
	}

	if sm.llmClient != nil {
		status := checkDependency(ctx, "llm_client", sm.llmClient.HealthCheck)
		if modelInfo, err := sm.llmClient.GetModelInfo(); err == nil {
			status.Version = modelInfo.Name
			status.AdditionalInfo = map[string]interface{}{
				"provider":     modelInfo.Provider,
				"model_status": modelInfo.Status,
			}
		} else {
			status.AdditionalInfo = map[string]interface{}{
				"model_error": err.Error(),
			}
		}
		dependencies["llm_client"] = status
	} else {
		dependencies["llm_client"] = DependencyStatus{Name: "llm_client", Status: "not_configured", LastCheck: time.Now()}
	}

	return &DetailedHealthStatus{
		HealthStatus: *basicHealth,
		Metrics:      hm.metricsCollector.GetMetrics(),
		Dependencies: dependencies,
		SystemInfo:   hm.systemInfo,
		Uptime:       time.Since(hm.startTime),
	}
}

// checkDependency runs check and records its outcome and duration
func checkDependency(ctx context.Context, name string, check func(context.Context) error) DependencyStatus {
	start := time.Now()
	err := check(ctx)

	status := DependencyStatus{
		Name:         name,
		LastCheck:    time.Now(),
		ResponseTime: time.Since(start),
		Status:       "healthy",
	}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}
