// Package sql implements the dialect-agnostic query AST, its expression
// builders, the scalar/aggregate function registry, and the per-dialect
// compiler that lowers the AST into parameterized SQL text for
// PostgreSQL, MySQL, MSSQL, and SQLite.
//
// # AST construction
//
// A query is built as a plain value tree, never a mutable builder:
// Table, Col, and the comparison/membership/pattern helpers (Eq, In,
// LikeExpr, IsNullExpr, ...) construct Operand and Expression nodes that
// are assembled into a *SelectQuery, *InsertQuery, *UpdateQuery,
// *DeleteQuery, or *ProcedureCall.
//
//	q := &sql.SelectQuery{
//		From:    sql.Table("users"),
//		Columns: []sql.Column{sql.Col("id"), sql.Col("name")},
//		Where:   sql.Eq(sql.Col("status"), "active"),
//	}
//
// # Compiling
//
// A Dialect compiles an AST into SQL text and positional/named
// parameters:
//
//	d, err := sql.New(dialect.Postgres)
//	compiled, err := d.CompileSelect(q)
//	compiled.SQL     // `SELECT "id", "name" FROM "users" WHERE "status" = $1`
//	compiled.Params  // []any{"active"}
//
// The same AST compiles unchanged against any registered dialect; only
// identifier quoting, placeholder style, and per-function rendering
// (registry.go, functions.go, postgres.go/mysql.go/mssql.go/sqlite.go)
// vary.
//
// # Typed field helpers
//
// predicate.go layers generated-code-friendly wrappers (StringField,
// OrderedField and its IntField/Int64Field/TimeField/UUIDField/EnumField
// aliases) over the same Expression builders, so field accessors can be
// declared once per column and reused across call sites without
// repeating the column name.
//
// # Driver
//
// driver.go adapts a *database/sql.DB/*sql.Tx to the dialect.Executor
// capability interface the rest of the core depends on to actually run
// compiled SQL, including WithVar/WithIntVar for session/transaction
// variables that must be SET before a statement runs.
package sql
