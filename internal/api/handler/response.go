package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// respondJSON 写 JSON 响应；编码失败只记录日志，此时状态码已发出。
func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Warn("failed to encode response JSON", "error", err)
	}
}

// respondText 写纯文本响应。
func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
