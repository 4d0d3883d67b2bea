package config

import (
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/creamcroissant/acquisitions/internal/database"
)

// DevelopmentEnv 是唯一会启用本地数据库代理的部署模式，与 database.ConfigForMode 使用同一个值。
const DevelopmentEnv = database.DevelopmentMode

// Config 汇总应用的全部配置。启动时读取一次，之后只读。
type Config struct {
	Env      string         `mapstructure:"env"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// HTTPConfig 定义 HTTP 服务配置。
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit       string        `mapstructure:"body_limit"`

	// BodyLimitBytes 由 Load 从 BodyLimit 解析得到
	BodyLimitBytes int64 `mapstructure:"-"`
}

// Addr 返回监听地址 host:port。
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// DatabaseConfig 定义数据库配置。
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
	// Heartbeat 是探活任务的 cron 表达式，例如 "@every 30s"；为空则不启用
	Heartbeat string `mapstructure:"heartbeat"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Subsystem string    `mapstructure:"subsystem"`
	Token     string    `mapstructure:"token"`
	Buckets   []float64 `mapstructure:"buckets"`
}

// IsDevelopment 精确匹配 "development"，大小写和空白都不做归一化。
func (c *Config) IsDevelopment() bool {
	return c.Env == DevelopmentEnv
}

// EnvUnset 表示部署模式没有配置。
func (c *Config) EnvUnset() bool {
	return strings.TrimSpace(c.Env) == ""
}

func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
