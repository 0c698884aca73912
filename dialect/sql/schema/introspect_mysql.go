package schema

import (
	"context"
	"strings"

	coresql "github.com/sqlcraft/core/dialect/sql"

	"github.com/sqlcraft/core/dialect"
)

var mysqlASTDialect = mustASTDialect(dialect.MySQL)

// introspectMySQL reads information_schema.tables/columns/
// key_column_usage/referential_constraints/statistics to build a
// DatabaseSchema (§4.6). Index columns are grouped with
// GROUP_CONCAT(... ORDER BY seq_in_index) so one row already carries the
// full ordered column list for an index.
func introspectMySQL(ctx context.Context, executor dialect.Executor, opts IntrospectOptions) (DatabaseSchema, error) {
	schemaName := opts.Schema
	if schemaName == "" {
		// SELECT DATABASE() has no FROM clause at all; SelectQuery always
		// requires one, so this single call stays outside the AST.
		res, err := query(ctx, executor, "introspectMySQL", "SELECT DATABASE()")
		if err != nil {
			return DatabaseSchema{}, err
		}
		if len(res.Values) > 0 {
			schemaName = strAt(res.Values[0], 0)
		}
	}

	namesQ := &coresql.SelectQuery{
		From:    coresql.TableRef{Schema: "information_schema", Name: "tables"},
		Columns: []coresql.Column{coresql.Col("table_name")},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(coresql.Col("table_schema"), coresql.Lit(schemaName)),
				coresql.Eq(coresql.Col("table_type"), coresql.Lit("BASE TABLE")),
			)
			return e
		}(),
		OrderBy: []coresql.OrderBy{{Term: coresql.Col("table_name")}},
	}
	namesRes, err := queryAST(ctx, executor, "introspectMySQL", mysqlASTDialect, namesQ)
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

	tables, err := introspectTablesConcurrently(ctx, names, func(ctx context.Context, name string) (DatabaseTable, error) {
		return introspectMySQLTable(ctx, executor, schemaName, name)
	})
	if err != nil {
		return DatabaseSchema{}, err
	}

	result := DatabaseSchema{Tables: tables}
	if opts.IncludeViews {
		views, err := introspectMySQLViews(ctx, executor, schemaName)
		if err != nil {
			return DatabaseSchema{}, err
		}
		result.Views = views
	}
	return result, nil
}

func introspectMySQLTable(ctx context.Context, executor dialect.Executor, schemaName, name string) (DatabaseTable, error) {
	table := DatabaseTable{Name: name, Schema: schemaName}

	colsQ := &coresql.SelectQuery{
		From: coresql.TableRef{Schema: "information_schema", Name: "columns"},
		Columns: []coresql.Column{
			coresql.Col("column_name"), coresql.Col("column_type"), coresql.Col("is_nullable"),
			coresql.Col("column_default"), coresql.Col("extra"), coresql.Col("column_comment"),
			coresql.Col("column_key"),
		},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(coresql.Col("table_schema"), coresql.Lit(schemaName)),
				coresql.Eq(coresql.Col("table_name"), coresql.Lit(name)),
			)
			return e
		}(),
		OrderBy: []coresql.OrderBy{{Term: coresql.Col("ordinal_position")}},
	}
	colsRes, err := queryAST(ctx, executor, "introspectMySQL", mysqlASTDialect, colsQ)
	if err != nil {
		return DatabaseTable{}, err
	}
	for _, row := range colsRes.Values {
		extra := strAt(row, 4)
		isPK := strAt(row, 6) == "PRI"
		col := DatabaseColumn{
			Name:          strAt(row, 0),
			Type:          strings.ToUpper(strAt(row, 1)),
			NotNull:       strAt(row, 2) == "NO",
			AutoIncrement: strings.Contains(extra, "auto_increment"),
			Default:       nonEmptyMySQLDefault(row),
			Comment:       strAt(row, 5),
			Primary:       isPK,
		}
		table.Columns = append(table.Columns, col)
		if isPK {
			table.PrimaryKey = append(table.PrimaryKey, col.Name)
		}
	}

	fkQ := &coresql.SelectQuery{
		From: coresql.TableRef{Schema: "information_schema", Name: "key_column_usage", Alias: "k"},
		Joins: []coresql.Join{{
			Kind:  coresql.JoinInner,
			Table: coresql.TableRef{Schema: "information_schema", Name: "referential_constraints", Alias: "r"},
			Condition: func() coresql.Expression {
				e, _ := coresql.And(
					coresql.Eq(coresql.Column{Table: "r", Name: "constraint_schema"}, coresql.Column{Table: "k", Name: "constraint_schema"}),
					coresql.Eq(coresql.Column{Table: "r", Name: "constraint_name"}, coresql.Column{Table: "k", Name: "constraint_name"}),
				)
				return e
			}(),
		}},
		Columns: []coresql.Column{
			{Table: "k", Name: "column_name"}, {Table: "k", Name: "referenced_table_name"},
			{Table: "k", Name: "referenced_column_name"}, {Table: "r", Name: "update_rule"},
			{Table: "r", Name: "delete_rule"},
		},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(coresql.Column{Table: "k", Name: "table_schema"}, coresql.Lit(schemaName)),
				coresql.Eq(coresql.Column{Table: "k", Name: "table_name"}, coresql.Lit(name)),
				coresql.IsNotNull(coresql.Column{Table: "k", Name: "referenced_table_name"}),
			)
			return e
		}(),
	}
	fkRes, err := queryAST(ctx, executor, "introspectMySQL", mysqlASTDialect, fkQ)
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

	// Left un-compiled deliberately: SelectQuery.Columns is []Column, a
	// plain column reference, with no variant for a computed/aliased
	// projection — a GROUP_CONCAT call cannot be placed in this SELECT
	// list through the AST as it stands. The GROUP_CONCAT call is written
	// out in the SQL text below and does not go through the function
	// registry.
	idxRes, err := query(ctx, executor, "introspectMySQL",
		`SELECT index_name, NOT non_unique, GROUP_CONCAT(column_name ORDER BY seq_in_index)
		 FROM information_schema.statistics
		 WHERE table_schema = ? AND table_name = ? AND index_name <> 'PRIMARY'
		 GROUP BY index_name, non_unique`, schemaName, name)
	if err != nil {
		return DatabaseTable{}, err
	}
	for _, row := range idxRes.Values {
		cols := strings.Split(strAt(row, 2), ",")
		idxCols := make([]IndexColumn, len(cols))
		for i, c := range cols {
			idxCols[i] = IndexColumn{Column: c}
		}
		table.Indexes = append(table.Indexes, DatabaseIndex{
			Name:    strAt(row, 0),
			Unique:  boolAt(row, 1),
			Columns: idxCols,
		})
	}

	return table, nil
}

func introspectMySQLViews(ctx context.Context, executor dialect.Executor, schemaName string) ([]DatabaseView, error) {
	q := &coresql.SelectQuery{
		From:    coresql.TableRef{Schema: "information_schema", Name: "views"},
		Columns: []coresql.Column{coresql.Col("table_name"), coresql.Col("view_definition")},
		Where:   coresql.Eq(coresql.Col("table_schema"), coresql.Lit(schemaName)),
	}
	res, err := queryAST(ctx, executor, "introspectMySQL", mysqlASTDialect, q)
	if err != nil {
		return nil, err
	}
	var views []DatabaseView
	for _, row := range res.Values {
		views = append(views, DatabaseView{Name: strAt(row, 0), Schema: schemaName, Definition: strAt(row, 1)})
	}
	return views, nil
}

func nonEmptyMySQLDefault(row []any) any {
	if len(row) <= 3 || row[3] == nil {
		return nil
	}
	return RawDefault(strAt(row, 3))
}
