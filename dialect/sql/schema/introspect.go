package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sqlcraft/core/dialect"
)

// IntrospectOptions narrows what Introspect reads from the catalog (§4.6).
type IntrospectOptions struct {
	// Schema restricts introspection to one schema/database; "" means the
	// dialect's default ("public" for Postgres, the connected database for
	// MySQL, "dbo" for MSSQL, the single SQLite database).
	Schema string
	// TableFilter, when non-nil, is consulted per table name; only tables
	// for which it returns true are included.
	TableFilter func(name string) bool
	// IncludeViews additionally populates DatabaseSchema.Views.
	IncludeViews bool
}

func (o IntrospectOptions) includeTable(name string) bool {
	if o.TableFilter == nil {
		return true
	}
	return o.TableFilter(name)
}

// Introspect reads the live catalog of the connected database through
// executor and normalizes it into a DatabaseSchema (§3.2, §4.6). Once the
// table list itself is known, the tables are read concurrently via
// errgroup; one table's columns, indexes and foreign keys are read in
// sequence.
func Introspect(ctx context.Context, executor dialect.Executor, d dialect.Name, opts IntrospectOptions) (DatabaseSchema, error) {
	switch d {
	case dialect.Postgres:
		return introspectPostgres(ctx, executor, opts)
	case dialect.MySQL:
		return introspectMySQL(ctx, executor, opts)
	case dialect.MSSQL:
		return introspectMSSQL(ctx, executor, opts)
	case dialect.SQLite:
		return introspectSQLite(ctx, executor, opts)
	default:
		return DatabaseSchema{}, dialect.NewError(dialect.InvalidArgument, "Introspect", fmt.Errorf("unknown dialect %q", d))
	}
}

// query runs a catalog statement and reports a wrapped IntrospectionFailed
// error on failure, consistent across the four dialect-specific readers.
func query(ctx context.Context, executor dialect.Executor, op, stmt string, args ...any) (dialect.QueryResult, error) {
	res, err := executor.ExecuteSQL(ctx, stmt, args)
	if err != nil {
		return dialect.QueryResult{}, dialect.NewError(dialect.IntrospectionFailed, op, err)
	}
	return res, nil
}

func colIndex(res dialect.QueryResult, name string) int {
	for i, c := range res.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func strAt(row []any, i int) string {
	if i < 0 || i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func boolAt(row []any, i int) bool {
	if i < 0 || i >= len(row) {
		return false
	}
	switch v := row[i].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		return v == "t" || v == "true" || v == "1" || v == "YES"
	default:
		return false
	}
}

// normalizeAction maps a catalog referential-action code or name to the
// stable ReferentialAction enum, per §4.6's row-normalization rule:
// unrecognized values become "" rather than a guess.
func normalizeAction(raw string) ReferentialAction {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "NO ACTION", "NO_ACTION", "A":
		return NoAction
	case "RESTRICT", "R":
		return Restrict
	case "CASCADE", "C":
		return Cascade
	case "SET NULL", "SET_NULL", "N":
		return SetNull
	case "SET DEFAULT", "SET_DEFAULT", "D":
		return SetDefault
	default:
		return ""
	}
}

func introspectTablesConcurrently(ctx context.Context, names []string, read func(ctx context.Context, name string) (DatabaseTable, error)) ([]DatabaseTable, error) {
	tables := make([]DatabaseTable, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			t, err := read(gctx, name)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}
