// 文件路径: internal/database/httpdriver.go
// 模块说明: 基于 HTTP 的 SQL 执行通道（Neon SQL-over-HTTP 协议），实现 database/sql 驱动接口。
package database

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	headerConnectionString = "Neon-Connection-String"
	headerRawTextOutput    = "Neon-Raw-Text-Output"
	headerArrayMode        = "Neon-Array-Mode"

	defaultHTTPTimeout = 30 * time.Second
)

// httpConnector builds HTTP "connections" on demand. Nothing is parsed or
// dialed until database/sql asks for the first connection.
type httpConnector struct {
	cfg        Config
	connString string
	client     *http.Client
}

func newHTTPConnector(cfg Config, connString string) *httpConnector {
	return &httpConnector{
		cfg:        cfg,
		connString: connString,
		client:     &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (c *httpConnector) Connect(ctx context.Context) (driver.Conn, error) {
	host, err := connectionHost(c.connString)
	if err != nil {
		return nil, err
	}
	return &httpConn{
		endpoint:   c.cfg.endpoint(host),
		connString: c.connString,
		client:     c.client,
	}, nil
}

func (c *httpConnector) Driver() driver.Driver {
	return httpDriver{}
}

type httpDriver struct{}

// Open lets the driver be used through sql.Open with the default remote config.
func (httpDriver) Open(name string) (driver.Conn, error) {
	return newHTTPConnector(DefaultConfig(), name).Connect(context.Background())
}

func connectionHost(connString string) (string, error) {
	if strings.TrimSpace(connString) == "" {
		return "", ErrNoConnectionString
	}
	parsed, err := pgconn.ParseConfig(connString)
	if err != nil {
		return "", fmt.Errorf("%w: parse connection string: %v", ErrInvalidConnectionString, err)
	}
	if parsed.Host == "" || strings.HasPrefix(parsed.Host, "/") {
		return "", fmt.Errorf("%w: parse connection string: no network host", ErrInvalidConnectionString)
	}
	return parsed.Host, nil
}

type httpConn struct {
	endpoint   string
	connString string
	client     *http.Client
	types      *pgtype.Map
}

type queryRequest struct {
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

type queryField struct {
	Name       string `json:"name"`
	DataTypeID uint32 `json:"dataTypeID"`
}

type queryResponse struct {
	Command  string       `json:"command"`
	RowCount *int64       `json:"rowCount"`
	Rows     [][]*string  `json:"rows"`
	Fields   []queryField `json:"fields"`
}

func (c *httpConn) Prepare(query string) (driver.Stmt, error) {
	return &httpStmt{conn: c, query: query}, nil
}

func (c *httpConn) Close() error { return nil }

func (c *httpConn) Begin() (driver.Tx, error) {
	return nil, ErrTxUnsupported
}

func (c *httpConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return nil, ErrTxUnsupported
}

func (c *httpConn) CheckNamedValue(nv *driver.NamedValue) error {
	if nv.Name != "" {
		return ErrNamedParams
	}
	encoded, err := encodeParam(nv.Value)
	if err != nil {
		return err
	}
	nv.Value = encoded
	return nil
}

func (c *httpConn) Ping(ctx context.Context) error {
	_, err := c.run(ctx, "SELECT 1", nil)
	return err
}

func (c *httpConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	resp, err := c.run(ctx, query, args)
	if err != nil {
		return nil, err
	}
	var affected int64
	if resp.RowCount != nil {
		affected = *resp.RowCount
	}
	return httpResult{rowsAffected: affected}, nil
}

func (c *httpConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	resp, err := c.run(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return &httpRows{conn: c, fields: resp.Fields, rows: resp.Rows}, nil
}

func (c *httpConn) run(ctx context.Context, query string, args []driver.NamedValue) (*queryResponse, error) {
	params := make([]any, len(args))
	for _, arg := range args {
		if arg.Name != "" {
			return nil, ErrNamedParams
		}
		if arg.Ordinal < 1 || arg.Ordinal > len(args) {
			return nil, fmt.Errorf("database: parameter ordinal %d out of range", arg.Ordinal)
		}
		encoded, err := encodeParam(arg.Value)
		if err != nil {
			return nil, err
		}
		params[arg.Ordinal-1] = encoded
	}

	payload, err := json.Marshal(queryRequest{Query: query, Params: params})
	if err != nil {
		return nil, fmt.Errorf("database: encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("database: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerConnectionString, c.connString)
	req.Header.Set(headerRawTextOutput, "true")
	req.Header.Set(headerArrayMode, "true")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("database: send query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("database: decode response: %w", err)
	}
	return &out, nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	dbErr := &Error{Status: resp.StatusCode}
	if err := json.Unmarshal(body, dbErr); err != nil || dbErr.Message == "" {
		dbErr.Message = strings.TrimSpace(string(body))
	}
	return dbErr
}

func (c *httpConn) typeMap() *pgtype.Map {
	if c.types == nil {
		c.types = pgtype.NewMap()
	}
	return c.types
}

type httpStmt struct {
	conn  *httpConn
	query string
}

func (s *httpStmt) Close() error  { return nil }
func (s *httpStmt) NumInput() int { return -1 }

func (s *httpStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.conn.ExecContext(context.Background(), s.query, namedValues(args))
}

func (s *httpStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.conn.QueryContext(context.Background(), s.query, namedValues(args))
}

func (s *httpStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *httpStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

func namedValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

type httpResult struct {
	rowsAffected int64
}

func (httpResult) LastInsertId() (int64, error) {
	return 0, fmt.Errorf("database: LastInsertId is not supported, use RETURNING")
}

func (r httpResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type httpRows struct {
	conn   *httpConn
	fields []queryField
	rows   [][]*string
	pos    int
}

func (r *httpRows) Columns() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

func (r *httpRows) Close() error {
	r.rows = nil
	return nil
}

func (r *httpRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	if len(row) != len(r.fields) {
		return fmt.Errorf("database: row has %d values, expected %d", len(row), len(r.fields))
	}
	for i, raw := range row {
		v, err := decodeValue(r.conn.typeMap(), r.fields[i].DataTypeID, raw)
		if err != nil {
			return fmt.Errorf("database: column %q: %w", r.fields[i].Name, err)
		}
		dest[i] = v
	}
	return nil
}

// ColumnTypeDatabaseTypeName reports the Postgres type name, e.g. "INT4".
func (r *httpRows) ColumnTypeDatabaseTypeName(index int) string {
	if t, ok := r.conn.typeMap().TypeForOID(r.fields[index].DataTypeID); ok {
		return strings.ToUpper(t.Name)
	}
	return ""
}
