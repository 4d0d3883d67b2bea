// 文件路径: internal/bootstrap/database.go
// 模块说明: 根据部署模式构建数据库句柄。句柄是惰性的，这里不会发起任何网络请求。
package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/creamcroissant/acquisitions/internal/config"
	"github.com/creamcroissant/acquisitions/internal/database"
)

// OpenDatabase 解析模式对应的连接配置并返回 HTTP 查询句柄。
// 连接串缺失或非法时不会在这里报错，而是在第一次查询时返回。
func OpenDatabase(cfg *config.Config, logger *slog.Logger, opts ...database.Option) *database.DB {
	dbCfg := database.ConfigForMode(cfg.Env)
	logDatabaseMode(cfg, logger, dbCfg)
	return database.Open(dbCfg, cfg.Database.URL, opts...)
}

// OpenDirectDatabase 返回走 Postgres 线协议的连接池，供迁移等需要事务的命令使用。
func OpenDirectDatabase(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	dbCfg := database.ConfigForMode(cfg.Env)
	logDatabaseMode(cfg, logger, dbCfg)
	return database.OpenDirect(dbCfg, cfg.Database.URL)
}

func logDatabaseMode(cfg *config.Config, logger *slog.Logger, dbCfg database.Config) {
	if logger == nil {
		return
	}
	if cfg.EnvUnset() {
		logger.Warn("deployment mode is not set, using production database settings", "env_vars", "NODE_ENV, APP_ENV")
	}
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL is empty, queries will fail until it is configured")
	}
	logger.Info("database configured",
		"mode", cfg.Env,
		"development", cfg.IsDevelopment(),
		"local_proxy", dbCfg.UsesLocalProxy(),
		"secure_transport", dbCfg.UseSecureWebSocket,
	)
}
