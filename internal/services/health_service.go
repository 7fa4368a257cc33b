package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"stockdash/internal/infrastructure"
	"stockdash/pkg/contracts"
)

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Len() int
}

// HealthService provides health check functionality
type HealthService struct {
	version     string
	sessions    SessionCounter
	maxSessions int
	runtime     *infrastructure.RuntimeCollector
	startTime   time.Time
	logger      *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. maxSessions of zero means the
// store is unbounded; collector may be nil.
func NewHealthService(version string, sessions SessionCounter, maxSessions int, collector *infrastructure.RuntimeCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:     version,
		sessions:    sessions,
		maxSessions: maxSessions,
		runtime:     collector,
		startTime:   time.Now(),
		logger:      logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))
	return status
}

// ReadinessCheck reports whether new sessions can be served.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	sessions := hs.checkSessionHealth()
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  map[string]ServiceHealth{"sessions": sessions},
	}
	if sessions.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "not ready", slog.String("reason", sessions.Message))
	}
	return status
}

// LivenessCheck returns liveness status with runtime statistics.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
	if hs.runtime != nil {
		stats := hs.runtime.Collect(ctx)
		status.Runtime = &stats
	} else {
		status.Runtime = &infrastructure.RuntimeStats{
			Goroutines:    int64(runtime.NumGoroutine()),
			CPUCount:      runtime.NumCPU(),
			UptimeSeconds: time.Since(hs.startTime).Seconds(),
		}
	}
	return status
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	info := contracts.GetVersionInfo()
	if hs.version != "" {
		info.Version = hs.version
	}
	return info
}

func (hs *HealthService) checkSessionHealth() ServiceHealth {
	if hs.sessions == nil {
		return ServiceHealth{Status: "not_ready", Message: "session store not initialized"}
	}
	active := hs.sessions.Len()
	if hs.maxSessions > 0 && active >= hs.maxSessions {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("session capacity reached (%d/%d)", active, hs.maxSessions),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d active sessions", active),
	}
}
