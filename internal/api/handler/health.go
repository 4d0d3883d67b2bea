package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthReporter 提供某个依赖的最近状态，例如数据库心跳。
type HealthReporter interface {
	HealthStatus() map[string]any
}

// HealthHandler 提供存活探针。它只读取已有状态，不会主动访问数据库。
type HealthHandler struct {
	logger  *slog.Logger
	started time.Time
	now     func() time.Time
	checks  map[string]HealthReporter
}

// NewHealthHandler 创建探针处理器，started 用于计算 uptime。
func NewHealthHandler(logger *slog.Logger, started time.Time, checks map[string]HealthReporter) *HealthHandler {
	return &HealthHandler{logger: logger, started: started, now: time.Now, checks: checks}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	payload := map[string]any{
		"status":    "ok",
		"timestamp": now.UTC().Format(time.RFC3339Nano),
		"uptime":    now.Sub(h.started).Seconds(),
	}
	if len(h.checks) > 0 {
		checks := make(map[string]any, len(h.checks))
		for name, reporter := range h.checks {
			checks[name] = reporter.HealthStatus()
		}
		payload["checks"] = checks
	}
	respondJSON(w, h.logger, http.StatusOK, payload)
}
