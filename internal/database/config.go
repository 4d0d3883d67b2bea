// 文件路径: internal/database/config.go
// 模块说明: 根据部署模式生成数据库连接参数（本地代理 / 远程安全端点）。
package database

// DevelopmentMode is the only deployment mode that routes traffic through the local proxy.
const DevelopmentMode = "development"

const (
	localFetchEndpoint = "http://neon-local:5432/sql"
	localProxyPort     = "5432"
	localProxyPath     = "/v1"
)

// Config holds the transport knobs used when a connection handle is built.
// Handles copy the Config at construction time; later edits to a Config value
// never reach an existing handle.
type Config struct {
	// FetchEndpoint maps the connection-string host to the SQL-over-HTTP URL.
	FetchEndpoint func(host string) string
	// UseSecureWebSocket enables TLS on the direct transport.
	UseSecureWebSocket bool
	// WSProxy derives the proxy address dialed instead of the database host.
	// nil dials the host from the connection string.
	WSProxy func(host string) string
	// PipelineTLS starts TLS without the SSLRequest round trip.
	PipelineTLS bool
	// PipelineConnect sends statements without a separate describe round trip.
	PipelineConnect bool
}

// DefaultConfig describes a remote, TLS-protected endpoint.
func DefaultConfig() Config {
	return Config{
		FetchEndpoint:      remoteFetchEndpoint,
		UseSecureWebSocket: true,
		WSProxy:            nil,
		PipelineTLS:        true,
		PipelineConnect:    true,
	}
}

// ConfigForMode returns the connection settings for a deployment mode.
// Only an exact match on DevelopmentMode applies the local proxy overrides;
// every other value, including "", gets DefaultConfig.
func ConfigForMode(mode string) Config {
	cfg := DefaultConfig()
	if mode != DevelopmentMode {
		return cfg
	}

	cfg.FetchEndpoint = func(string) string { return localFetchEndpoint }
	cfg.UseSecureWebSocket = false
	cfg.WSProxy = func(host string) string { return host + ":" + localProxyPort + localProxyPath }
	cfg.PipelineTLS = false
	cfg.PipelineConnect = false
	return cfg
}

// UsesLocalProxy reports whether connections are redirected to a proxy.
func (c Config) UsesLocalProxy() bool {
	return c.WSProxy != nil
}

func (c Config) endpoint(host string) string {
	if c.FetchEndpoint == nil {
		return remoteFetchEndpoint(host)
	}
	return c.FetchEndpoint(host)
}

func remoteFetchEndpoint(host string) string {
	return "https://" + host + "/sql"
}
