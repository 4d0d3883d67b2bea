package database

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoConnectionString is returned on first use when DATABASE_URL was empty.
	ErrNoConnectionString = errors.New("database connection string is empty")
	// ErrInvalidConnectionString wraps connection string parse failures.
	ErrInvalidConnectionString = errors.New("invalid database connection string")
	// ErrTxUnsupported is returned by BeginTx on the HTTP transport.
	ErrTxUnsupported = errors.New("transactions are not supported over the HTTP transport")
	// ErrNamedParams is returned when a query uses sql.Named arguments.
	ErrNamedParams = errors.New("named parameters are not supported, use $n placeholders")
)

// Error is a failure reported by the SQL-over-HTTP endpoint.
type Error struct {
	Status   int    `json:"-"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
	Hint     string `json:"hint"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("database: ")
	if e.Severity != "" {
		b.WriteString(e.Severity)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		fmt.Fprintf(&b, "http status %d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (SQLSTATE %s)", e.Code)
	}
	return b.String()
}

// IsConfigError reports whether err comes from a missing or malformed
// connection string. Retrying such errors cannot succeed.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoConnectionString) || errors.Is(err, ErrInvalidConnectionString)
}
