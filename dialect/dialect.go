package dialect

import "context"

// Name identifies a supported SQL dialect.
type Name string

// Supported dialects.
const (
	Postgres Name = "postgres"
	MySQL    Name = "mysql"
	MSSQL    Name = "mssql"
	SQLite   Name = "sqlite"
)

// String returns the dialect name.
func (n Name) String() string { return string(n) }

// Valid reports whether n is one of the four supported dialects.
func (n Name) Valid() bool {
	switch n {
	case Postgres, MySQL, MSSQL, SQLite:
		return true
	default:
		return false
	}
}

// All returns the four supported dialects, in a stable order. Tests use
// this to run the same assertion across every dialect.
func All() []Name { return []Name{Postgres, MySQL, MSSQL, SQLite} }

// Capabilities describes the optional features an Executor's underlying
// database supports. The compiler and DDL engine consult these only
// through the Dialect capability (they are static per dialect); Capabilities
// is about what a particular connection can actually do at runtime.
type Capabilities struct {
	// Transactions reports whether BeginTx/Commit/Rollback are supported.
	Transactions bool
	// ReturningClause reports whether the connected database understands
	// RETURNING/OUTPUT on DML statements (always true for Postgres/SQLite/
	// MSSQL, false for MySQL).
	ReturningClause bool
}

// QueryResult is the normalized result of ExecuteSQL: column names plus
// rows of opaque values, in column order.
type QueryResult struct {
	Columns []string
	Values  [][]any
}

// Tx is a started transaction borrowed from an Executor.
type Tx interface {
	ExecuteSQL(ctx context.Context, query string, args []any) (QueryResult, error)
	Commit() error
	Rollback() error
}

// Executor is the capability the core borrows from the caller to run
// compiled SQL. The core never stores it beyond the duration of a single
// operation (introspect, or one synchronize call).
type Executor interface {
	// Capabilities reports what this connection supports.
	Capabilities() Capabilities
	// ExecuteSQL runs query with the given positional parameters and
	// returns every row produced (empty for statements with no result set).
	ExecuteSQL(ctx context.Context, query string, args []any) (QueryResult, error)
	// BeginTx starts a transaction. Callers whose Capabilities().Transactions
	// is false may return an error here; synchronize falls back to
	// executing changes outside a transaction in that case.
	BeginTx(ctx context.Context) (Tx, error)
}
