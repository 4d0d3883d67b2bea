// 文件路径: internal/job/db_heartbeat.go
// 模块说明: 定期对数据库执行探活查询，并记录最近一次结果供健康检查读取。
package job

import (
	"context"
	"sync"
	"time"
)

// Pinger 是心跳任务需要的最小数据库能力。
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseHeartbeat 执行 SELECT 1 并保存最近一次结果。失败不会重试，等待下一个周期。
type DatabaseHeartbeat struct {
	db  Pinger
	now func() time.Time

	mu        sync.RWMutex
	checkedAt time.Time
	latency   time.Duration
	lastErr   error
}

// NewDatabaseHeartbeat 创建心跳任务。
func NewDatabaseHeartbeat(db Pinger) *DatabaseHeartbeat {
	return &DatabaseHeartbeat{db: db, now: time.Now}
}

func (h *DatabaseHeartbeat) Name() string { return "database.heartbeat" }

func (h *DatabaseHeartbeat) Run(ctx context.Context) error {
	start := h.now()
	err := h.db.Ping(ctx)
	end := h.now()

	h.mu.Lock()
	h.checkedAt = end
	h.latency = end.Sub(start)
	h.lastErr = err
	h.mu.Unlock()
	return err
}

// HealthStatus 返回可直接编码为 JSON 的心跳状态。
func (h *DatabaseHeartbeat) HealthStatus() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.checkedAt.IsZero() {
		return map[string]any{"status": "unknown"}
	}
	status := map[string]any{
		"status":     "ok",
		"checked_at": h.checkedAt.UTC().Format(time.RFC3339Nano),
		"latency_ms": h.latency.Milliseconds(),
	}
	if h.lastErr != nil {
		status["status"] = "error"
		status["error"] = h.lastErr.Error()
	}
	return status
}
