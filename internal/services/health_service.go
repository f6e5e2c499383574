package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	startTime time.Time
	profit    *ProfitService
	workbook  string
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Data      DataHealth             `json:"data"`
}

// DataHealth reports whether the profit data set is ready to serve.
type DataHealth struct {
	Loaded   bool       `json:"loaded"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Workbook string     `json:"workbook,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version, workbookPath string, profit *ProfitService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		startTime: time.Now(),
		profit:    profit,
		logger:    logger.With(slog.String("component", "health_service")),
		workbook:  workbookPath,
	}
}

// Check returns the current health status. The service degrades rather than
// fails when the data set is not loaded; the dashboard shows the condition.
func (h *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version":   runtime.Version(),
			"goroutines":   runtime.NumGoroutine(),
			"hostname":     hostname(),
		},
		Data: DataHealth{
			Workbook: h.workbook,
		},
	}

	if h.profit != nil && h.profit.Loaded() {
		status.Data.Loaded = true
		if at, err := h.profit.LoadedAt(); err == nil {
			status.Data.LoadedAt = &at
		}
	} else {
		status.Status = "degraded"
	}

	return status
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
