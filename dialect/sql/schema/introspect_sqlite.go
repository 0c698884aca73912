package schema

import (
	"context"

	coresql "github.com/sqlcraft/core/dialect/sql"

	"github.com/sqlcraft/core/dialect"
)

// sqliteASTDialect is the *sql.Dialect the pragma-function reads below
// compile against. Built once since New never fails for a bundled
// dialect name.
var sqliteASTDialect = mustASTDialect(dialect.SQLite)

func mustASTDialect(d dialect.Name) *coresql.Dialect {
	dl, err := coresql.New(d)
	if err != nil {
		panic(err)
	}
	return dl
}

// queryAST compiles q against dl and runs it through executor, wrapping
// any compile or execution failure as IntrospectionFailed.
func queryAST(ctx context.Context, executor dialect.Executor, op string, dl *coresql.Dialect, q *coresql.SelectQuery) (dialect.QueryResult, error) {
	compiled, err := dl.CompileSelect(q)
	if err != nil {
		return dialect.QueryResult{}, dialect.NewError(dialect.IntrospectionFailed, op, err)
	}
	res, err := executor.ExecuteSQL(ctx, compiled.SQL, compiled.Params)
	if err != nil {
		return dialect.QueryResult{}, dialect.NewError(dialect.IntrospectionFailed, op, err)
	}
	return res, nil
}

// pragmaTable builds a FunctionTable source for one of SQLite's
// pragma_* table-valued functions, called with a single bound argument
// (the table or index name), per §4.6's "pragma functions as
// FunctionTable sources" design.
func pragmaTable(name, arg string) coresql.FunctionTable {
	return coresql.FunctionTable{Name: name, Args: []coresql.Operand{coresql.Lit(arg)}}
}

// introspectSQLite reads sqlite_master plus the pragma_table_info/
// pragma_foreign_key_list/pragma_index_list/pragma_index_info
// table-valued functions to build a DatabaseSchema (§4.6). An optional
// schema_comments(table, column, comment) side table, when present, is
// consulted for column comments since SQLite itself has no native
// COMMENT support.
func introspectSQLite(ctx context.Context, executor dialect.Executor, opts IntrospectOptions) (DatabaseSchema, error) {
	namesQ := &coresql.SelectQuery{
		From:    coresql.Table("sqlite_master"),
		Columns: []coresql.Column{coresql.Col("name")},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(coresql.Col("type"), coresql.Lit("table")),
				coresql.NotLike(coresql.Col("name"), coresql.Lit("sqlite_%")),
			)
			return e
		}(),
		OrderBy: []coresql.OrderBy{{Term: coresql.Col("name")}},
	}
	namesRes, err := queryAST(ctx, executor, "introspectSQLite", sqliteASTDialect, namesQ)
	if err != nil {
		return DatabaseSchema{}, err
	}
	var names []string
	for _, row := range namesRes.Values {
		name := strAt(row, 0)
		if opts.includeTable(name) {
			names = append(names, name)
		}
	}

	hasComments := sqliteHasCommentsTable(ctx, executor)

	tables, err := introspectTablesConcurrently(ctx, names, func(ctx context.Context, name string) (DatabaseTable, error) {
		return introspectSQLiteTable(ctx, executor, name, hasComments)
	})
	if err != nil {
		return DatabaseSchema{}, err
	}

	result := DatabaseSchema{Tables: tables}
	if opts.IncludeViews {
		views, err := introspectSQLiteViews(ctx, executor)
		if err != nil {
			return DatabaseSchema{}, err
		}
		result.Views = views
	}
	return result, nil
}

func sqliteHasCommentsTable(ctx context.Context, executor dialect.Executor) bool {
	q := &coresql.SelectQuery{
		From:    coresql.Table("sqlite_master"),
		Columns: []coresql.Column{coresql.Col("name")},
		Where: coresql.Eq(coresql.Col("name"), coresql.Lit("schema_comments")),
	}
	res, err := queryAST(ctx, executor, "introspectSQLite", sqliteASTDialect, q)
	return err == nil && len(res.Values) > 0
}

func introspectSQLiteTable(ctx context.Context, executor dialect.Executor, name string, hasComments bool) (DatabaseTable, error) {
	table := DatabaseTable{Name: name, Schema: ""}

	colsQ := &coresql.SelectQuery{
		From: pragmaTable("pragma_table_info", name),
		Columns: []coresql.Column{
			coresql.Col("name"), coresql.Col("type"), coresql.Col("notnull"),
			coresql.Col("dflt_value"), coresql.Col("pk"),
		},
	}
	colsRes, err := queryAST(ctx, executor, "introspectSQLite", sqliteASTDialect, colsQ)
	if err != nil {
		return DatabaseTable{}, err
	}
	comments := map[string]string{}
	if hasComments {
		commentsQ := &coresql.SelectQuery{
			From:    coresql.Table("schema_comments"),
			Columns: []coresql.Column{coresql.Col("column"), coresql.Col("comment")},
			Where:   coresql.Eq(coresql.Col("table"), coresql.Lit(name)),
		}
		cres, err := queryAST(ctx, executor, "introspectSQLite", sqliteASTDialect, commentsQ)
		if err == nil {
			for _, row := range cres.Values {
				comments[strAt(row, 0)] = strAt(row, 1)
			}
		}
	}
	for _, row := range colsRes.Values {
		isPK := toInt64(row[4]) > 0
		col := DatabaseColumn{
			Name:    strAt(row, 0),
			Type:    strAt(row, 1),
			NotNull: boolAt(row, 2),
			Default: nonEmptyDefault(strAt(row, 3)),
			Primary: isPK,
			Comment: comments[strAt(row, 0)],
		}
		table.Columns = append(table.Columns, col)
		if isPK {
			table.PrimaryKey = append(table.PrimaryKey, col.Name)
		}
	}
	// A single-column INTEGER PRIMARY KEY is SQLite's implicit rowid
	// alias and therefore always an autoincrement-eligible column.
	if len(table.PrimaryKey) == 1 {
		for i, c := range table.Columns {
			if c.Name == table.PrimaryKey[0] && c.Type == "INTEGER" {
				table.Columns[i].AutoIncrement = true
			}
		}
	}

	fkQ := &coresql.SelectQuery{
		From: pragmaTable("pragma_foreign_key_list", name),
		Columns: []coresql.Column{
			coresql.Col("from"), coresql.Col("table"), coresql.Col("to"),
			coresql.Col("on_update"), coresql.Col("on_delete"),
		},
	}
	fkRes, err := queryAST(ctx, executor, "introspectSQLite", sqliteASTDialect, fkQ)
	if err != nil {
		return DatabaseTable{}, err
	}
	for _, row := range fkRes.Values {
		colName := strAt(row, 0)
		ref := &Reference{
			Table:    strAt(row, 1),
			Column:   strAt(row, 2),
			OnUpdate: normalizeAction(strAt(row, 3)),
			OnDelete: normalizeAction(strAt(row, 4)),
		}
		for i, c := range table.Columns {
			if c.Name == colName {
				table.Columns[i].References = ref
			}
		}
	}

	idxListQ := &coresql.SelectQuery{
		From:    pragmaTable("pragma_index_list", name),
		Columns: []coresql.Column{coresql.Col("name"), coresql.Col("unique")},
		Where:   coresql.Neq(coresql.Col("origin"), coresql.Lit("pk")),
	}
	idxListRes, err := queryAST(ctx, executor, "introspectSQLite", sqliteASTDialect, idxListQ)
	if err != nil {
		return DatabaseTable{}, err
	}
	for _, row := range idxListRes.Values {
		idxName := strAt(row, 0)
		unique := boolAt(row, 1)
		idxColsQ := &coresql.SelectQuery{
			From:    pragmaTable("pragma_index_info", idxName),
			Columns: []coresql.Column{coresql.Col("name")},
			OrderBy: []coresql.OrderBy{{Term: coresql.Col("seqno")}},
		}
		colsRes, err := queryAST(ctx, executor, "introspectSQLite", sqliteASTDialect, idxColsQ)
		if err != nil {
			return DatabaseTable{}, err
		}
		var cols []IndexColumn
		for _, cr := range colsRes.Values {
			cols = append(cols, IndexColumn{Column: strAt(cr, 0)})
		}
		table.Indexes = append(table.Indexes, DatabaseIndex{Name: idxName, Unique: unique, Columns: cols})
	}

	return table, nil
}

func introspectSQLiteViews(ctx context.Context, executor dialect.Executor) ([]DatabaseView, error) {
	q := &coresql.SelectQuery{
		From:    coresql.Table("sqlite_master"),
		Columns: []coresql.Column{coresql.Col("name"), coresql.Col("sql")},
		Where:   coresql.Eq(coresql.Col("type"), coresql.Lit("view")),
	}
	res, err := queryAST(ctx, executor, "introspectSQLite", sqliteASTDialect, q)
	if err != nil {
		return nil, err
	}
	var views []DatabaseView
	for _, row := range res.Values {
		views = append(views, DatabaseView{Name: strAt(row, 0), Definition: strAt(row, 1)})
	}
	return views, nil
}
