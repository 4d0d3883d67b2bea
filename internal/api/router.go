// 文件路径: internal/api/router.go
// 模块说明: 组装 HTTP 路由与中间件链，顺序固定：安全头 → CORS → JSON → 表单 → Cookie → 访问日志。
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/acquisitions/internal/api/handler"
	"github.com/creamcroissant/acquisitions/internal/api/middleware"
	"github.com/creamcroissant/acquisitions/internal/config"
)

// RouterOption 允许在创建 Router 时调整默认行为。
type RouterOption func(*routerOptions)

type routerOptions struct {
	bodyLimit int64
	startedAt time.Time
	registry  *prometheus.Registry
	now       func() time.Time
	checks    map[string]handler.HealthReporter
}

// WithBodyLimit 设置 JSON 与表单请求体的最大字节数。
func WithBodyLimit(limit int64) RouterOption {
	return func(ro *routerOptions) {
		ro.bodyLimit = limit
	}
}

// WithStartTime 设置健康检查计算 uptime 的起点。
func WithStartTime(t time.Time) RouterOption {
	return func(ro *routerOptions) {
		ro.startedAt = t
	}
}

// WithMetricsRegistry 使用独立的 registry 注册并暴露指标，测试中避免重复注册。
func WithMetricsRegistry(reg *prometheus.Registry) RouterOption {
	return func(ro *routerOptions) {
		ro.registry = reg
	}
}

// WithClock 替换访问日志使用的时钟。
func WithClock(now func() time.Time) RouterOption {
	return func(ro *routerOptions) {
		ro.now = now
	}
}

// WithHealthCheck 把依赖状态附加到 /healthz 的响应中。
func WithHealthCheck(name string, reporter handler.HealthReporter) RouterOption {
	return func(ro *routerOptions) {
		if reporter == nil {
			return
		}
		if ro.checks == nil {
			ro.checks = make(map[string]handler.HealthReporter)
		}
		ro.checks[name] = reporter
	}
}

// NewRouter 构建应用的 http.Handler。logger 会显式传给中间件和 handler。
func NewRouter(logger *slog.Logger, metricsCfg config.MetricsConfig, opts ...RouterOption) http.Handler {
	options := routerOptions{
		startedAt: time.Now(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chiMiddleware.Recoverer,
	)

	if metricsCfg.Enabled {
		mCfg := middleware.DefaultMetricsConfig()
		if metricsCfg.Namespace != "" {
			mCfg.Namespace = metricsCfg.Namespace
		}
		if metricsCfg.Subsystem != "" {
			mCfg.Subsystem = metricsCfg.Subsystem
		}
		if len(metricsCfg.Buckets) > 0 {
			mCfg.Buckets = metricsCfg.Buckets
		}
		if options.registry != nil {
			mCfg.Registerer = options.registry
		}
		r.Use(middleware.NewMetrics(mCfg).Middleware(mCfg))
	}

	logCfg := middleware.DefaultLoggingConfig(logger)
	logCfg.Now = options.now

	bodyCfg := middleware.DefaultBodyConfig()
	if options.bodyLimit > 0 {
		bodyCfg.MaxBytes = options.bodyLimit
	}

	r.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig()),
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.JSONBody(bodyCfg),
		middleware.URLEncodedBody(bodyCfg),
		middleware.CookieParser(),
		middleware.AccessLog(logCfg),
	)

	r.Method(http.MethodGet, "/", handler.NewGreetingHandler(logger))

	health := handler.NewHealthHandler(logger, options.startedAt, options.checks)
	r.Method(http.MethodGet, "/healthz", health)
	// Alias for Docker health check
	r.Method(http.MethodGet, "/health", health)

	if metricsCfg.Enabled {
		var metricsHandler http.Handler = promhttp.Handler()
		if options.registry != nil {
			metricsHandler = promhttp.HandlerFor(options.registry, promhttp.HandlerOpts{})
		}
		// If token is set, guard the metrics endpoint
		if metricsCfg.Token != "" {
			r.With(middleware.MetricsGuard(metricsCfg.Token)).Handle("/metrics", metricsHandler)
		} else {
			r.Handle("/metrics", metricsHandler)
		}
	}

	return r
}
