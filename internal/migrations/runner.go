// 文件路径: internal/migrations/runner.go
// 模块说明: goose 迁移入口，统一使用 postgres 方言和内嵌脚本。
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"

	"github.com/pressly/goose/v3"
)

const dir = "postgres"

func setup() error {
	goose.SetBaseFS(Postgres)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Up migrates the schema to the latest version.
func Up(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}

// Down rolls back a single migration.
func Down(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, dir)
}

// Status prints migration status.
func Status(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, dir)
}

// Files lists the embedded migration scripts in apply order.
func Files() ([]string, error) {
	names, err := fs.Glob(Postgres, dir+"/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
