package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Options 控制配置来源，零值即为生产默认行为。
type Options struct {
	// ConfigFile 显式指定配置文件；为空时在 SearchPaths 中查找 config.yaml
	ConfigFile string
	// SearchPaths 配置文件搜索目录
	SearchPaths []string
	// DotEnvDirs 查找 .env 的目录，按顺序读取
	DotEnvDirs []string
}

func defaultOptions() Options {
	return Options{
		SearchPaths: []string{".", "/etc/acquisitions/"},
		DotEnvDirs:  []string{".", "..", "../.."},
	}
}

// envBindings 将配置键绑定到环境变量名，同一键可接受多个名字（靠前者优先）。
var envBindings = map[string][]string{
	"env":                   {"NODE_ENV", "APP_ENV"},
	"database.url":          {"DATABASE_URL"},
	"database.heartbeat":    {"DATABASE_HEARTBEAT"},
	"http.host":             {"HOST"},
	"http.port":             {"PORT"},
	"http.shutdown_timeout": {"SHUTDOWN_TIMEOUT"},
	"http.body_limit":       {"BODY_LIMIT"},
	"log.level":             {"LOG_LEVEL"},
	"log.format":            {"LOG_FORMAT"},
	"log.add_source":        {"LOG_ADD_SOURCE"},
	"metrics.enabled":       {"METRICS_ENABLED"},
	"metrics.namespace":     {"METRICS_NAMESPACE"},
	"metrics.token":         {"METRICS_TOKEN"},
}

// Load 使用默认来源加载配置。
func Load() (*Config, error) {
	return LoadWith(defaultOptions())
}

// LoadWith 按 默认值 → 配置文件 → .env → 真实环境变量 的优先级加载配置。
func LoadWith(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.ConfigFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// .env 只填补真实环境变量缺失的值
	if err := loadDotEnv(v, opts.DotEnvDirs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	limit, err := humanize.ParseBytes(cfg.HTTP.BodyLimit)
	if err != nil {
		return nil, fmt.Errorf("parse http.body_limit %q: %w", cfg.HTTP.BodyLimit, err)
	}
	cfg.HTTP.BodyLimitBytes = int64(limit)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "")
	v.SetDefault("database.url", "")
	v.SetDefault("database.heartbeat", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.body_limit", "100KiB")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.add_source", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "acquisitions")
	v.SetDefault("metrics.subsystem", "http")
	v.SetDefault("metrics.token", "")
}

func loadDotEnv(v *viper.Viper, dirs []string) error {
	applied := make(map[string]bool)
	for _, dir := range dirs {
		file := filepath.Clean(filepath.Join(dir, ".env"))
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat .env: %w", err)
		}

		values, err := godotenv.Read(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		applyDotEnv(v, values, applied)
	}
	return nil
}

// applyDotEnv 把 .env 中的扁平变量映射到配置键。
// 真实环境变量已存在时跳过；多个 .env 文件中先读到的优先。
func applyDotEnv(v *viper.Viper, values map[string]string, applied map[string]bool) {
	for key, names := range envBindings {
		if applied[key] || envPresent(names) {
			continue
		}
		for _, name := range names {
			if val, ok := values[name]; ok && val != "" {
				v.Set(key, val)
				applied[key] = true
				break
			}
		}
	}
}

func envPresent(names []string) bool {
	for _, name := range names {
		if _, ok := os.LookupEnv(name); ok {
			return true
		}
	}
	return false
}
