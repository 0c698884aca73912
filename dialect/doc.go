// Package dialect provides the database-dialect abstraction shared by the
// query compiler, the DDL engine, and the introspectors.
//
// It defines the set of supported SQL dialects, the Executor capability the
// core borrows from callers to run compiled SQL, and the stable error Kind
// taxonomy every other package in this module reports through.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.MSSQL    = "mssql"
//	dialect.SQLite   = "sqlite"
//
// # Executor
//
// The core never executes SQL itself outside of schema synchronization and
// introspection. Both depend on a narrow, caller-owned capability:
//
//	type Executor interface {
//	    Capabilities() Capabilities
//	    ExecuteSQL(ctx context.Context, query string, args []any) (QueryResult, error)
//	    BeginTx(ctx context.Context) (Tx, error)
//	}
//
// A concrete implementation on top of database/sql is provided by
// dialect/sql.Driver; callers may supply their own.
//
// # Errors
//
// Every error this module returns is a *dialect.Error carrying a stable
// Kind (InvalidArgument, UnsupportedFeature, ...). Use dialect.KindOf(err)
// to inspect it, or errors.As for the concrete type.
package dialect
