// 文件路径: internal/api/middleware/logging.go
// 模块说明: 访问日志中间件，输出 Apache combined 格式的访问行并附带结构化字段
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const combinedTimeLayout = "02/Jan/2006:15:04:05 -0700"

// LoggingConfig 访问日志配置
type LoggingConfig struct {
	Logger    *slog.Logger
	SkipPaths []string         // 跳过日志的路径（如健康检查）
	Now       func() time.Time // 测试时可注入固定时钟
}

// DefaultLoggingConfig 默认配置
func DefaultLoggingConfig(logger *slog.Logger) LoggingConfig {
	return LoggingConfig{
		Logger:    logger,
		SkipPaths: []string{"/health", "/healthz", "/metrics"},
		Now:       time.Now,
	}
}

// AccessLog 每个请求完成后写一条访问日志。
// 消息体是 combined 格式行，字段中同时给出 method/path/status 等便于检索。
func AccessLog(config LoggingConfig) func(http.Handler) http.Handler {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	skipPathMap := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipPathMap[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPathMap[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := config.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := config.Now().Sub(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			remote := getClientIP(r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", duration),
				slog.String("remote_addr", remote),
			}
			if requestID := chiMiddleware.GetReqID(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}

			line := combinedLine(r, remote, start, status, ww.BytesWritten())
			config.Logger.LogAttrs(r.Context(), level, line, attrs...)
		})
	}
}

// combinedLine 格式:
// remote - user [time] "METHOD uri HTTP/x.y" status bytes "referer" "user-agent"
func combinedLine(r *http.Request, remote string, at time.Time, status, bytes int) string {
	var b strings.Builder
	b.Grow(128)

	b.WriteString(orDash(remote))
	b.WriteString(" - ")
	user := "-"
	if name, _, ok := r.BasicAuth(); ok && name != "" {
		user = name
	}
	b.WriteString(user)
	b.WriteString(" [")
	b.WriteString(at.Format(combinedTimeLayout))
	b.WriteString("] \"")
	b.WriteString(r.Method)
	b.WriteByte(' ')
	b.WriteString(r.URL.RequestURI())
	b.WriteString(" HTTP/")
	b.WriteString(strconv.Itoa(r.ProtoMajor))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(r.ProtoMinor))
	b.WriteString("\" ")
	b.WriteString(strconv.Itoa(status))
	b.WriteByte(' ')
	if bytes > 0 {
		b.WriteString(strconv.Itoa(bytes))
	} else {
		b.WriteByte('-')
	}
	b.WriteString(" \"")
	b.WriteString(orDash(r.Referer()))
	b.WriteString("\" \"")
	b.WriteString(orDash(r.UserAgent()))
	b.WriteByte('"')
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
