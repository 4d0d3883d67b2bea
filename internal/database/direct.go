// 文件路径: internal/database/direct.go
// 模块说明: 直连 Postgres 线协议的连接（pgx），用于迁移等需要事务的工具命令。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const defaultPostgresPort = "5432"

// OpenDirect returns a wire-protocol pool honouring the same Config as Open.
// The connection string is validated here, but no connection is dialed
// until the pool is used.
func OpenDirect(cfg Config, connString string) (*sql.DB, error) {
	if strings.TrimSpace(connString) == "" {
		return nil, ErrNoConnectionString
	}

	connString, err := withTransportParams(cfg, connString)
	if err != nil {
		return nil, err
	}

	connCfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: parse connection string: %v", ErrInvalidConnectionString, err)
	}

	if cfg.WSProxy != nil {
		proxy := cfg.WSProxy
		dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 5 * time.Minute}
		connCfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}
			return dialer.DialContext(ctx, network, proxyAddress(proxy(host)))
		}
	}

	if cfg.PipelineConnect {
		connCfg.DefaultQueryExecMode = pgx.QueryExecModeExec
	}

	return stdlib.OpenDB(*connCfg), nil
}

// withTransportParams folds the TLS knobs into the connection string so
// pgx derives its TLS settings from them.
func withTransportParams(cfg Config, connString string) (string, error) {
	params := map[string]string{}
	if !cfg.UseSecureWebSocket {
		params["sslmode"] = "disable"
	} else if cfg.PipelineTLS && requiresTLS(connString) {
		params["sslnegotiation"] = "direct"
	}
	if len(params) == 0 {
		return connString, nil
	}

	if isURL(connString) {
		u, err := url.Parse(connString)
		if err != nil {
			return "", fmt.Errorf("%w: parse connection string: %v", ErrInvalidConnectionString, err)
		}
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(connString))
	for _, k := range []string{"sslmode", "sslnegotiation"} {
		if v, ok := params[k]; ok {
			fmt.Fprintf(&b, " %s=%s", k, v)
		}
	}
	return b.String(), nil
}

func isURL(connString string) bool {
	return strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://")
}

// requiresTLS reports whether sslmode demands TLS; direct negotiation is
// only valid in that case.
func requiresTLS(connString string) bool {
	mode := ""
	if isURL(connString) {
		if u, err := url.Parse(connString); err == nil {
			mode = u.Query().Get("sslmode")
		}
	} else {
		for _, field := range strings.Fields(connString) {
			if v, ok := strings.CutPrefix(field, "sslmode="); ok {
				mode = v
			}
		}
	}
	switch mode {
	case "require", "verify-ca", "verify-full":
		return true
	}
	return false
}

// proxyAddress turns "host:5432/v1" into a dialable "host:5432".
func proxyAddress(derived string) string {
	addr := derived
	if i := strings.Index(addr, "/"); i >= 0 {
		addr = addr[:i]
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultPostgresPort)
	}
	return addr
}
