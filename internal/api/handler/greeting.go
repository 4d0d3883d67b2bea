package handler

import (
	"log/slog"
	"net/http"
)

// GreetingMessage 是根路由的固定响应体。
const GreetingMessage = "Hello from Acquisitions!"

// GreetingHandler 处理 GET /。
type GreetingHandler struct {
	logger *slog.Logger
}

// NewGreetingHandler 创建根路由处理器。
func NewGreetingHandler(logger *slog.Logger) *GreetingHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GreetingHandler{logger: logger}
}

// ServeHTTP 忽略请求内容，始终返回 200 和固定问候语。
func (h *GreetingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "Hello from Acquisitions!")
	respondText(w, http.StatusOK, GreetingMessage)
}
