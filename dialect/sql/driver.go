package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sqlcraft/core/dialect"
)

// driverName maps a dialect.Name to the database/sql driver name
// registered by the corresponding third-party driver package (lib/pq,
// go-sql-driver/mysql, go-mssqldb, modernc.org/sqlite).
func driverName(d dialect.Name) (string, error) {
	switch d {
	case dialect.Postgres:
		return "postgres", nil
	case dialect.MySQL:
		return "mysql", nil
	case dialect.MSSQL:
		return "sqlserver", nil
	case dialect.SQLite:
		return "sqlite", nil
	default:
		return "", dialect.NewError(dialect.InvalidArgument, "driverName", fmt.Errorf("unsupported dialect %q", d))
	}
}

// Driver adapts a *sql.DB to the dialect.Executor capability the core
// borrows to run compiled SQL against a real connection.
type Driver struct {
	db   *sql.DB
	name dialect.Name
}

// Open opens a database handle for name using dataSourceName and wraps
// it as a Driver. The concrete driver package (lib/pq, go-sql-driver,
// go-mssqldb, modernc.org/sqlite) must be imported (blank import is
// enough) by the caller for its database/sql driver to be registered.
func Open(name dialect.Name, dataSourceName string) (*Driver, error) {
	drv, err := driverName(name)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(drv, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", name, err)
	}
	return OpenDB(name, db), nil
}

// OpenDB wraps an already-opened *sql.DB as a Driver.
func OpenDB(name dialect.Name, db *sql.DB) *Driver {
	return &Driver{db: db, name: name}
}

// DB returns the underlying *sql.DB.
func (d *Driver) DB() *sql.DB { return d.db }

// Close closes the underlying connection pool.
func (d *Driver) Close() error { return d.db.Close() }

// Capabilities implements dialect.Executor.
func (d *Driver) Capabilities() dialect.Capabilities {
	return dialect.Capabilities{
		Transactions:    true,
		ReturningClause: d.name != dialect.MySQL,
	}
}

// ExecuteSQL implements dialect.Executor by always routing through
// QueryContext: every bundled driver tolerates running non-SELECT
// statements this way, and MSSQL's OUTPUT/Postgres's RETURNING rely on
// a result set being available even for INSERT/UPDATE/DELETE.
func (d *Driver) ExecuteSQL(ctx context.Context, query string, args []any) (dialect.QueryResult, error) {
	ex, cf, err := maySetVars(ctx, d.db, d.name)
	if err != nil {
		return dialect.QueryResult{}, fmt.Errorf("dialect/sql: exec: set session vars: %w", err)
	}
	if cf != nil {
		defer cf()
	}
	return runQuery(ctx, ex, query, args)
}

// BeginTx implements dialect.Executor.
func (d *Driver) BeginTx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin tx: %w", err)
	}
	return &Tx{tx: tx, name: d.name}, nil
}

// Tx implements dialect.Tx over a *sql.Tx.
type Tx struct {
	tx   *sql.Tx
	name dialect.Name
}

// ExecuteSQL implements dialect.Tx.
func (t *Tx) ExecuteSQL(ctx context.Context, query string, args []any) (dialect.QueryResult, error) {
	ex, cf, err := maySetVars(ctx, t.tx, t.name)
	if err != nil {
		return dialect.QueryResult{}, fmt.Errorf("dialect/sql: exec: set session vars: %w", err)
	}
	if cf != nil {
		defer cf()
	}
	return runQuery(ctx, ex, query, args)
}

// Commit implements dialect.Tx.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback implements dialect.Tx.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// queryContexter is the subset of *sql.DB/*sql.Tx/*sql.Conn used by runQuery.
type queryContexter interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func runQuery(ctx context.Context, ex queryContexter, query string, args []any) (dialect.QueryResult, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return dialect.QueryResult{}, fmt.Errorf("dialect/sql: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return dialect.QueryResult{}, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	result := dialect.QueryResult{Columns: cols}
	for rows.Next() {
		scanDest := make([]any, len(cols))
		values := make([]any, len(cols))
		for i := range scanDest {
			scanDest[i] = &values[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return dialect.QueryResult{}, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		result.Values = append(result.Values, values)
	}
	if err := rows.Err(); err != nil {
		return dialect.QueryResult{}, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return result, nil
}

// --- session variables ---------------------------------------------------

// validIdentifierRe validates session variable names to guard against
// injection through WithVar, since they are interpolated into `SET`
// statements that cannot be parameterized on most drivers.
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

type ctxVarsKey struct{}

type sessionVar struct{ k, v string }

// WithVar returns a context carrying a session/transaction variable to
// be set before the next statement executed through it.
func WithVar(ctx context.Context, name, value string) context.Context {
	vars, _ := ctx.Value(ctxVarsKey{}).([]sessionVar)
	vars = append(vars, sessionVar{k: name, v: value})
	return context.WithValue(ctx, ctxVarsKey{}, vars)
}

// WithIntVar calls WithVar with the decimal representation of value.
func WithIntVar(ctx context.Context, name string, value int) context.Context {
	return WithVar(ctx, name, strconv.Itoa(value))
}

// VarFromContext returns the session variable previously attached via
// WithVar, if any.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	vars, _ := ctx.Value(ctxVarsKey{}).([]sessionVar)
	for _, v := range vars {
		if v.k == name {
			return v.v, true
		}
	}
	return "", false
}

// execContexter is the subset of *sql.DB/*sql.Tx used to run a `SET`
// statement while applying session variables.
type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// connProvider is implemented by *sql.DB to borrow a single pooled
// connection for the lifetime of the session variables (*sql.Tx already
// pins one connection, so it implements queryContexter/execContexter
// directly and never needs this).
type connProvider interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// maySetVars applies any WithVar-attached session variables before a
// statement runs. On a *sql.DB it borrows a dedicated *sql.Conn for the
// duration (since SET only affects the connection it runs on) and
// returns a close func that resets the variables and releases it; on a
// *sql.Tx it runs in place, since the whole transaction is already
// pinned to one connection.
func maySetVars(ctx context.Context, ex any, name dialect.Name) (queryContexter, func() error, error) {
	vars, _ := ctx.Value(ctxVarsKey{}).([]sessionVar)
	asQuerier, ok := ex.(queryContexter)
	if !ok {
		return nil, nil, fmt.Errorf("dialect/sql: unsupported executor type %T", ex)
	}
	if len(vars) == 0 {
		return asQuerier, nil, nil
	}

	var (
		target execContexter
		cf     func() error
	)
	switch e := ex.(type) {
	case *sql.Tx:
		target = e
		asQuerier = e
	case connProvider:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		target = conn
		asQuerier = conn
		cf = conn.Close
	default:
		return nil, nil, fmt.Errorf("dialect/sql: unsupported executor type %T", ex)
	}

	var reset []string
	seen := make(map[string]struct{}, len(vars))
	for _, v := range vars {
		if !isValidIdentifier(v.k) {
			if cf != nil {
				_ = cf()
			}
			return nil, nil, fmt.Errorf("dialect/sql: invalid session variable name %q", v.k)
		}
		if _, ok := seen[v.k]; !ok {
			switch name {
			case dialect.Postgres:
				reset = append(reset, fmt.Sprintf("RESET %s", v.k))
			case dialect.MySQL:
				reset = append(reset, fmt.Sprintf("SET %s = NULL", v.k))
			}
			seen[v.k] = struct{}{}
		}
		if _, err := target.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", v.k, escapeStringValue(v.v))); err != nil {
			if cf != nil {
				err = errors.Join(err, cf())
			}
			return nil, nil, err
		}
	}
	if cf != nil && len(reset) > 0 {
		closeConn := cf
		cf = func() error {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			var err error
			for _, q := range reset {
				if _, e := target.ExecContext(cleanupCtx, q); e != nil {
					err = errors.Join(err, e)
				}
			}
			return errors.Join(err, closeConn())
		}
	}
	return asQuerier, cf, nil
}

var _ dialect.Executor = (*Driver)(nil)
var _ dialect.Tx = (*Tx)(nil)
