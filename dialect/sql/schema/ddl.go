package schema

import (
	"fmt"
	"strings"

	"github.com/sqlcraft/core/dialect"
)

// quoteFunc quotes a single identifier per a dialect's delimiter rules;
// identical in behavior to sql.Dialect.QuoteIdentifier, duplicated here
// so this package does not need to depend on the concrete *sql.Dialect
// type (only on dialect.Name).
type quoteFunc func(string) (string, error)

func quoteDoubled(open, close string) quoteFunc {
	return func(name string) (string, error) {
		if name == "" {
			return "", dialect.NewError(dialect.InvalidArgument, "QuoteIdentifier", fmt.Errorf("identifier must not be empty"))
		}
		return open + strings.ReplaceAll(name, close, close+close) + close, nil
	}
}

func quoteBacktickDDL(name string) (string, error) {
	if name == "" {
		return "", dialect.NewError(dialect.InvalidArgument, "QuoteIdentifier", fmt.Errorf("identifier must not be empty"))
	}
	if strings.Contains(name, "`") {
		return "", dialect.NewError(dialect.InvalidArgument, "QuoteIdentifier", fmt.Errorf("mysql identifier %q contains a backtick, which cannot be escaped", name))
	}
	return "`" + name + "`", nil
}

func quoterFor(d dialect.Name) (quoteFunc, error) {
	switch d {
	case dialect.Postgres, dialect.SQLite:
		return quoteDoubled(`"`, `"`), nil
	case dialect.MSSQL:
		return quoteDoubled("[", "]"), nil
	case dialect.MySQL:
		return quoteBacktickDDL, nil
	default:
		return nil, dialect.NewError(dialect.InvalidArgument, "quoterFor", fmt.Errorf("unknown dialect %q", d))
	}
}

// columnClause renders one column's definition inside CREATE TABLE,
// including its auto-increment strategy (§4.4) and, for Postgres/
// SQLite enums, recording the CHECK constraint to add at the table
// level (returned via extraConstraint).
func columnClause(d dialect.Name, q quoteFunc, c ColumnDef) (clause string, extraConstraint string, err error) {
	name, err := q(c.Name)
	if err != nil {
		return "", "", err
	}
	typ, err := RenderColumnType(c, d)
	if err != nil {
		return "", "", err
	}

	// SQLite's single-column integer primary key folds PRIMARY KEY and
	// AUTOINCREMENT into the type itself (§4.4).
	if d == dialect.SQLite && c.AutoIncrement && c.Primary {
		return name + " INTEGER PRIMARY KEY AUTOINCREMENT", "", nil
	}

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(" ")
	sb.WriteString(typ)

	if c.AutoIncrement {
		if ai := AutoIncrementClause(d, c.Generated); ai != "" {
			sb.WriteString(" ")
			sb.WriteString(ai)
		}
	}
	if c.Primary {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.NotNull && !c.Primary {
		sb.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		lit, err := formatDefaultLiteral(d, c.Default)
		if err != nil {
			return "", "", err
		}
		sb.WriteString(" DEFAULT ")
		sb.WriteString(lit)
	}
	if c.Collation != "" {
		sb.WriteString(" COLLATE ")
		qc, err := q(c.Collation)
		if err != nil {
			return "", "", err
		}
		sb.WriteString(qc)
	}

	if strings.EqualFold(c.Type, "enum") && (d == dialect.Postgres || d == dialect.SQLite) {
		values := make([]string, len(c.Args))
		for i, a := range c.Args {
			values[i] = "'" + strings.ReplaceAll(fmt.Sprint(a), "'", "''") + "'"
		}
		extraConstraint = fmt.Sprintf("CHECK (%s IN (%s))", name, strings.Join(values, ", "))
	}

	return sb.String(), extraConstraint, nil
}

// formatDefaultLiteral inlines a column DEFAULT value using the same
// per-dialect scalar formatting as sql.Dialect.FormatLiteral (kept
// free-standing here to avoid importing the sql package).
func formatDefaultLiteral(d dialect.Name, v any) (string, error) {
	if raw, ok := v.(RawDefault); ok {
		return string(raw), nil
	}
	switch t := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		switch d {
		case dialect.Postgres:
			if t {
				return "TRUE", nil
			}
			return "FALSE", nil
		default:
			if t {
				return "1", nil
			}
			return "0", nil
		}
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'", nil
	case int, int64, float64:
		return fmt.Sprint(t), nil
	default:
		return "", dialect.NewError(dialect.InvalidArgument, "formatDefaultLiteral", fmt.Errorf("unsupported default literal type %T", v))
	}
}

// RawDefault inlines a DEFAULT expression verbatim (e.g. "CURRENT_TIMESTAMP").
type RawDefault string

// RenderCreateTable renders the CREATE TABLE statement for t, followed
// by one CREATE INDEX statement per entry in t.Indexes (§4.4/§6).
func RenderCreateTable(t TableDef, d dialect.Name) ([]string, error) {
	q, err := quoterFor(d)
	if err != nil {
		return nil, err
	}
	name, err := q(t.Name)
	if err != nil {
		return nil, err
	}
	if t.Schema != "" {
		qs, err := q(t.Schema)
		if err != nil {
			return nil, err
		}
		name = qs + "." + name
	}

	var lines []string
	var constraints []string
	for _, c := range t.OrderedColumns() {
		clause, extra, err := columnClause(d, q, c)
		if err != nil {
			return nil, err
		}
		lines = append(lines, clause)
		if extra != "" {
			constraints = append(constraints, extra)
		}
		if c.References != nil {
			fk, err := renderInlineForeignKey(q, c)
			if err != nil {
				return nil, err
			}
			constraints = append(constraints, fk)
		}
	}

	// A multi-column primary key is a table-level constraint. A
	// single-column primary key built with ColumnBuilder.PrimaryKey is
	// already attached to the column itself by columnClause (whether or
	// not it's also auto-incrementing), so it must not be repeated here.
	if len(t.PrimaryKey) > 0 && !singleColumnPK(t) {
		cols := make([]string, len(t.PrimaryKey))
		for i, k := range t.PrimaryKey {
			col, ok := t.Columns[k]
			if !ok {
				return nil, dialect.NewError(dialect.InvalidArgument, "RenderCreateTable", fmt.Errorf("primary key column %q not found in table %q", k, t.Name))
			}
			qn, err := q(col.Name)
			if err != nil {
				return nil, err
			}
			cols[i] = qn
		}
		constraints = append(constraints, "PRIMARY KEY ("+strings.Join(cols, ", ")+")")
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(name)
	sb.WriteString(" (\n  ")
	sb.WriteString(strings.Join(append(lines, constraints...), ",\n  "))
	sb.WriteString("\n)")
	sb.WriteString(tableOptions(t, d))
	sb.WriteString(";")

	stmts := []string{sb.String()}
	for _, idx := range t.Indexes {
		stmt, err := RenderCreateIndex(t, idx, d)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// singleColumnPK reports whether t's primary key is a single column whose
// own ColumnDef.Primary is set, meaning columnClause already rendered it
// as an inline "PRIMARY KEY" and no table-level clause should follow. A
// single-column key declared instead via TableBuilder.PrimaryKey (column
// Primary left false) still needs the table-level clause.
func singleColumnPK(t TableDef) bool {
	if len(t.PrimaryKey) != 1 {
		return false
	}
	col, ok := t.Columns[t.PrimaryKey[0]]
	return ok && col.Primary
}

func renderInlineForeignKey(q quoteFunc, c ColumnDef) (string, error) {
	name, err := q(c.Name)
	if err != nil {
		return "", err
	}
	refTable, err := q(c.References.Table)
	if err != nil {
		return "", err
	}
	refCol, err := q(c.References.Column)
	if err != nil {
		return "", err
	}
	stmt := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", name, refTable, refCol)
	if c.References.OnDelete != "" {
		stmt += " ON DELETE " + string(c.References.OnDelete)
	}
	if c.References.OnUpdate != "" {
		stmt += " ON UPDATE " + string(c.References.OnUpdate)
	}
	return stmt, nil
}

func tableOptions(t TableDef, d dialect.Name) string {
	if d != dialect.MySQL {
		return ""
	}
	var sb strings.Builder
	if t.Engine != "" {
		sb.WriteString(" ENGINE=")
		sb.WriteString(t.Engine)
	}
	if t.Charset != "" {
		sb.WriteString(" DEFAULT CHARSET=")
		sb.WriteString(t.Charset)
	}
	if t.Collation != "" {
		sb.WriteString(" COLLATE=")
		sb.WriteString(t.Collation)
	}
	return sb.String()
}

// RenderCreateIndex renders one CREATE INDEX statement. Partial indexes
// (idx.Where) are supported on Postgres/SQLite/MSSQL; MySQL fails with
// UnsupportedFeature (§4.4).
func RenderCreateIndex(t TableDef, idx IndexDef, d dialect.Name) (string, error) {
	if idx.Where != "" && d == dialect.MySQL {
		return "", dialect.NewError(dialect.UnsupportedFeature, "RenderCreateIndex", fmt.Errorf("mysql does not support partial indexes"))
	}
	q, err := quoterFor(d)
	if err != nil {
		return "", err
	}
	tableName, err := q(t.Name)
	if err != nil {
		return "", err
	}
	idxName, err := q(idx.Name)
	if err != nil {
		return "", err
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		qn, err := q(c.Column)
		if err != nil {
			return "", err
		}
		if c.Direction != "" {
			qn += " " + c.Direction
		}
		cols[i] = qn
	}
	kw := "CREATE INDEX"
	if idx.Unique {
		kw = "CREATE UNIQUE INDEX"
	}
	stmt := fmt.Sprintf("%s %s ON %s (%s)", kw, idxName, tableName, strings.Join(cols, ", "))
	if idx.Where != "" {
		stmt += " WHERE " + idx.Where
	}
	return stmt + ";", nil
}

// RenderDropTable renders a DROP TABLE statement.
func RenderDropTable(t TableDef, d dialect.Name) (string, error) {
	q, err := quoterFor(d)
	if err != nil {
		return "", err
	}
	name, err := q(t.Name)
	if err != nil {
		return "", err
	}
	return "DROP TABLE " + name + ";", nil
}

// RenderDropColumn renders an ALTER TABLE ... DROP COLUMN statement.
func RenderDropColumn(table, column string, d dialect.Name) (string, error) {
	q, err := quoterFor(d)
	if err != nil {
		return "", err
	}
	qt, err := q(table)
	if err != nil {
		return "", err
	}
	qc, err := q(column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", qt, qc), nil
}

// RenderAddColumn renders an ALTER TABLE ... ADD COLUMN statement.
func RenderAddColumn(table string, c ColumnDef, d dialect.Name) (string, error) {
	q, err := quoterFor(d)
	if err != nil {
		return "", err
	}
	qt, err := q(table)
	if err != nil {
		return "", err
	}
	clause, _, err := columnClause(d, q, c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", qt, clause), nil
}

// RenderDropIndex renders a DROP INDEX statement.
func RenderDropIndex(table, index string, d dialect.Name) (string, error) {
	q, err := quoterFor(d)
	if err != nil {
		return "", err
	}
	qi, err := q(index)
	if err != nil {
		return "", err
	}
	switch d {
	case dialect.MySQL:
		qt, err := q(table)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("DROP INDEX %s ON %s;", qi, qt), nil
	case dialect.MSSQL:
		qt, err := q(table)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("DROP INDEX %s ON %s;", qi, qt), nil
	default:
		return "DROP INDEX " + qi + ";", nil
	}
}

// RenderAlterColumn renders the ALTER statement(s) needed to transition
// a column from its observed shape to its desired one, per §4.4's
// per-dialect ALTER strategy. SQLite, which cannot alter columns, gets
// only a warning describing the unsupported operation; MSSQL gets its
// ALTER COLUMN statement plus a warning when a default or identity change
// is left to be applied by hand; MySQL and Postgres get statements only.
func RenderAlterColumn(table string, observed DatabaseColumn, desired ColumnDef, diff ColumnDiff, d dialect.Name) (statements []string, warning string, err error) {
	q, err := quoterFor(d)
	if err != nil {
		return nil, "", err
	}
	qt, err := q(table)
	if err != nil {
		return nil, "", err
	}
	qc, err := q(desired.Name)
	if err != nil {
		return nil, "", err
	}

	switch d {
	case dialect.MySQL:
		clause, _, err := columnClause(d, q, desired)
		if err != nil {
			return nil, "", err
		}
		return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", qt, clause)}, "", nil

	case dialect.Postgres:
		var stmts []string
		if diff.TypeChanged {
			typ, err := RenderColumnType(desired, d)
			if err != nil {
				return nil, "", err
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", qt, qc, typ))
		}
		if diff.DefaultChanged {
			if desired.Default == nil {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", qt, qc))
			} else {
				lit, err := formatDefaultLiteral(d, desired.Default)
				if err != nil {
					return nil, "", err
				}
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", qt, qc, lit))
			}
		}
		if diff.NullabilityChanged {
			if desired.NotNull {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", qt, qc))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", qt, qc))
			}
		}
		if diff.AutoIncrementChanged {
			if desired.AutoIncrement {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s ADD %s;", qt, qc, AutoIncrementClause(d, desired.Generated)))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP IDENTITY;", qt, qc))
			}
		}
		return stmts, "", nil

	case dialect.MSSQL:
		typ, err := RenderColumnType(desired, d)
		if err != nil {
			return nil, "", err
		}
		nullability := "NOT NULL"
		if !desired.NotNull {
			nullability = "NULL"
		}
		stmts := []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s %s;", qt, qc, typ, nullability)}
		if diff.DefaultChanged || diff.AutoIncrementChanged {
			warning = fmt.Sprintf("mssql: default/identity change on %s.%s must be applied manually (requires dropping and recreating the constraint)", table, desired.Name)
		}
		return stmts, warning, nil

	case dialect.SQLite:
		return nil, fmt.Sprintf("sqlite: column %s.%s cannot be altered in place; recreate the table to apply this change", table, desired.Name), nil

	default:
		return nil, "", dialect.NewError(dialect.InvalidArgument, "RenderAlterColumn", fmt.Errorf("unknown dialect %q", d))
	}
}
