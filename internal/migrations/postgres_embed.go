// 文件路径: internal/migrations/postgres_embed.go
// 模块说明: 嵌入 Postgres 迁移脚本。
package migrations

import "embed"

// Postgres embeds all Postgres migration files.
//
//go:embed postgres/*.sql
var Postgres embed.FS
