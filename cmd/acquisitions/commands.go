package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/acquisitions/internal/bootstrap"
	"github.com/creamcroissant/acquisitions/internal/database"
	"github.com/creamcroissant/acquisitions/internal/migrations"
)

func newMigrateCmd() *cobra.Command {
	var migrateStatus bool
	var migrateRollback bool

	cmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Database migration management",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) > 0 {
				action = args[0]
			}
			if migrateStatus {
				action = "status"
			}
			if migrateRollback {
				action = "down"
			}

			var run func(context.Context, *sql.DB) error
			switch action {
			case "up":
				run = migrations.Up
			case "down":
				run = migrations.Down
			case "status":
				run = migrations.Status
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			db, err := bootstrap.OpenDirectDatabase(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return run(cmd.Context(), db)
		},
	}
	cmd.Flags().BoolVar(&migrateStatus, "status", false, "Show migration status")
	cmd.Flags().BoolVar(&migrateRollback, "rollback", false, "Rollback the last migration")
	return cmd
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}

	var timeout time.Duration
	check := &cobra.Command{
		Use:   "check",
		Short: "Run SELECT 1 against the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			db := bootstrap.OpenDatabase(cfg, logger)
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			rtt, attempts, err := checkDatabase(ctx, db)
			if err != nil {
				return fmt.Errorf("database check failed after %d attempt(s): %w", attempts, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database ok (round trip %s, %d attempt(s))\n", rtt.Round(time.Millisecond), attempts)
			return nil
		},
	}
	check.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")
	cmd.AddCommand(check)
	return cmd
}

// checkDatabase 以指数退避重试 SELECT 1，直到成功或 ctx 结束。
// 配置类错误（连接串缺失或非法）不重试。
func checkDatabase(ctx context.Context, db *database.DB) (time.Duration, int, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 0

	attempts := 0
	var rtt time.Duration
	err := backoff.Retry(func() error {
		attempts++
		start := time.Now()
		var one int
		if err := db.Query.GetContext(ctx, &one, "SELECT 1"); err != nil {
			if database.IsConfigError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		rtt = time.Since(start)
		return nil
	}, backoff.WithContext(policy, ctx))
	return rtt, attempts, err
}
