package schema

import (
	"fmt"
	"strings"

	"github.com/sqlcraft/core/dialect"
)

// RenderColumnType resolves the concrete SQL type for c under dialect d,
// honoring c.DialectTypes[d]/c.DialectTypes["default"] overrides before
// falling back to the semantic type table (§4.4).
func RenderColumnType(c ColumnDef, d dialect.Name) (string, error) {
	if c.DialectTypes != nil {
		if t, ok := c.DialectTypes[d]; ok {
			return t, nil
		}
		if t, ok := c.DialectTypes[dialect.Name("default")]; ok {
			return t, nil
		}
	}
	return semanticType(strings.ToLower(c.Type), c.Args, d)
}

func semanticType(semantic string, args []any, d dialect.Name) (string, error) {
	switch semantic {
	case "int":
		return map[dialect.Name]string{
			dialect.Postgres: "INTEGER", dialect.MySQL: "INT", dialect.MSSQL: "INT", dialect.SQLite: "INTEGER",
		}[d], nil
	case "bigint":
		return map[dialect.Name]string{
			dialect.Postgres: "BIGINT", dialect.MySQL: "BIGINT", dialect.MSSQL: "BIGINT", dialect.SQLite: "INTEGER",
		}[d], nil
	case "uuid":
		return map[dialect.Name]string{
			dialect.Postgres: "UUID", dialect.MySQL: "CHAR(36)", dialect.MSSQL: "UNIQUEIDENTIFIER", dialect.SQLite: "TEXT",
		}[d], nil
	case "boolean":
		return map[dialect.Name]string{
			dialect.Postgres: "BOOLEAN", dialect.MySQL: "TINYINT(1)", dialect.MSSQL: "BIT", dialect.SQLite: "INTEGER",
		}[d], nil
	case "json":
		return map[dialect.Name]string{
			dialect.Postgres: "JSONB", dialect.MySQL: "JSON", dialect.MSSQL: "NVARCHAR(MAX)", dialect.SQLite: "TEXT",
		}[d], nil
	case "varchar":
		n, err := intArg(args, 0, "varchar")
		if err != nil {
			return "", err
		}
		switch d {
		case dialect.Postgres:
			return fmt.Sprintf("VARCHAR(%d)", n), nil
		case dialect.MySQL:
			return fmt.Sprintf("VARCHAR(%d)", n), nil
		case dialect.MSSQL:
			return fmt.Sprintf("NVARCHAR(%d)", n), nil
		case dialect.SQLite:
			return "TEXT", nil
		}
	case "text":
		return map[dialect.Name]string{
			dialect.Postgres: "TEXT", dialect.MySQL: "TEXT", dialect.MSSQL: "NVARCHAR(MAX)", dialect.SQLite: "TEXT",
		}[d], nil
	case "timestamp":
		withTZ := len(args) > 0
		switch d {
		case dialect.Postgres:
			if withTZ {
				return "TIMESTAMPTZ", nil
			}
			return "TIMESTAMP", nil
		case dialect.MySQL:
			return "TIMESTAMP", nil
		case dialect.MSSQL:
			return "DATETIME2", nil
		case dialect.SQLite:
			return "TEXT", nil
		}
	case "decimal":
		p, err := intArg(args, 0, "decimal")
		if err != nil {
			return "", err
		}
		s, err := intArg(args, 1, "decimal")
		if err != nil {
			return "", err
		}
		switch d {
		case dialect.Postgres:
			return fmt.Sprintf("NUMERIC(%d,%d)", p, s), nil
		case dialect.MySQL, dialect.MSSQL:
			return fmt.Sprintf("DECIMAL(%d,%d)", p, s), nil
		case dialect.SQLite:
			return "NUMERIC", nil
		}
	case "blob":
		return map[dialect.Name]string{
			dialect.Postgres: "BYTEA", dialect.MySQL: "BLOB", dialect.MSSQL: "VARBINARY(MAX)", dialect.SQLite: "BLOB",
		}[d], nil
	case "enum":
		switch d {
		// Postgres/SQLite represent enums as TEXT plus a CHECK(col IN (...))
		// table constraint, built separately in ddl.go where the column
		// name is in scope.
		case dialect.Postgres, dialect.SQLite:
			return "TEXT", nil
		case dialect.MySQL:
			values := make([]string, len(args))
			for i, a := range args {
				values[i] = "'" + strings.ReplaceAll(fmt.Sprint(a), "'", "''") + "'"
			}
			return fmt.Sprintf("ENUM(%s)", strings.Join(values, ", ")), nil
		case dialect.MSSQL:
			return "NVARCHAR(255)", nil
		}
	}
	return "", dialect.NewError(dialect.InvalidArgument, "RenderColumnType", fmt.Errorf("unknown semantic type %q", semantic))
}

func intArg(args []any, i int, ctx string) (int64, error) {
	if i >= len(args) {
		return 0, dialect.NewError(dialect.InvalidArgument, "RenderColumnType", fmt.Errorf("%s requires argument %d", ctx, i))
	}
	switch v := args[i].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, dialect.NewError(dialect.InvalidArgument, "RenderColumnType", fmt.Errorf("%s argument %d must be an integer, got %T", ctx, i, args[i]))
	}
}

// AutoIncrementClause returns the dialect-specific auto-increment
// fragment for a column, or "" if the dialect expresses it elsewhere
// (SQLite folds it into the column type itself; see columnClause in
// ddl.go).
func AutoIncrementClause(d dialect.Name, g Generated) string {
	switch d {
	case dialect.Postgres:
		if g == GeneratedByDefault {
			return "GENERATED BY DEFAULT AS IDENTITY"
		}
		return "GENERATED ALWAYS AS IDENTITY"
	case dialect.MySQL:
		return "AUTO_INCREMENT"
	case dialect.MSSQL:
		return "IDENTITY(1,1)"
	default:
		return ""
	}
}
