package schema

import (
	"context"
	"fmt"
	"strings"

	coresql "github.com/sqlcraft/core/dialect/sql"

	"github.com/sqlcraft/core/dialect"
)

var mssqlASTDialect = mustASTDialect(dialect.MSSQL)

func mssqlCol(table, name string) coresql.Column { return coresql.Column{Table: table, Name: name} }

// introspectMSSQL reads sys.schemas/tables/columns/types/indexes/
// index_columns/foreign_keys/foreign_key_columns/extended_properties to
// build a DatabaseSchema (§4.6). Column data_type strings are built by
// concatenating the base type name with length/precision/scale the way
// sys.columns exposes them.
func introspectMSSQL(ctx context.Context, executor dialect.Executor, opts IntrospectOptions) (DatabaseSchema, error) {
	schemaName := opts.Schema
	if schemaName == "" {
		schemaName = "dbo"
	}

	namesQ := &coresql.SelectQuery{
		From: coresql.TableRef{Schema: "sys", Name: "tables", Alias: "t"},
		Joins: []coresql.Join{{
			Kind:      coresql.JoinInner,
			Table:     coresql.TableRef{Schema: "sys", Name: "schemas", Alias: "s"},
			Condition: coresql.Eq(mssqlCol("s", "schema_id"), mssqlCol("t", "schema_id")),
		}},
		Columns: []coresql.Column{mssqlCol("t", "name")},
		Where:   coresql.Eq(mssqlCol("s", "name"), coresql.Lit(schemaName)),
		OrderBy: []coresql.OrderBy{{Term: mssqlCol("t", "name")}},
	}
	namesRes, err := queryAST(ctx, executor, "introspectMSSQL", mssqlASTDialect, namesQ)
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
		return introspectMSSQLTable(ctx, executor, schemaName, name)
	})
	if err != nil {
		return DatabaseSchema{}, err
	}

	result := DatabaseSchema{Tables: tables}
	if opts.IncludeViews {
		views, err := introspectMSSQLViews(ctx, executor, schemaName)
		if err != nil {
			return DatabaseSchema{}, err
		}
		result.Views = views
	}
	return result, nil
}

func introspectMSSQLTable(ctx context.Context, executor dialect.Executor, schemaName, name string) (DatabaseTable, error) {
	table := DatabaseTable{Name: name, Schema: schemaName}

	colsQ := &coresql.SelectQuery{
		From: coresql.TableRef{Schema: "sys", Name: "columns", Alias: "c"},
		Joins: []coresql.Join{
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "tables", Alias: "t"}, Condition: coresql.Eq(mssqlCol("t", "object_id"), mssqlCol("c", "object_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "schemas", Alias: "s"}, Condition: coresql.Eq(mssqlCol("s", "schema_id"), mssqlCol("t", "schema_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "types", Alias: "ty"}, Condition: coresql.Eq(mssqlCol("ty", "user_type_id"), mssqlCol("c", "user_type_id"))},
			{Kind: coresql.JoinLeft, Table: coresql.TableRef{Schema: "sys", Name: "default_constraints", Alias: "dc"}, Condition: coresql.Eq(mssqlCol("dc", "object_id"), mssqlCol("c", "default_object_id"))},
			{Kind: coresql.JoinLeft, Table: coresql.TableRef{Schema: "sys", Name: "extended_properties", Alias: "ep"}, Condition: func() coresql.Expression {
				e, _ := coresql.And(
					coresql.Eq(mssqlCol("ep", "major_id"), mssqlCol("c", "object_id")),
					coresql.Eq(mssqlCol("ep", "minor_id"), mssqlCol("c", "column_id")),
					coresql.Eq(mssqlCol("ep", "name"), coresql.Lit("MS_Description")),
				)
				return e
			}()},
		},
		Columns: []coresql.Column{
			mssqlCol("c", "name"), mssqlCol("ty", "name"), mssqlCol("c", "max_length"),
			mssqlCol("c", "precision"), mssqlCol("c", "scale"), mssqlCol("c", "is_nullable"),
			mssqlCol("c", "is_identity"), mssqlCol("dc", "definition"), mssqlCol("ep", "value"),
		},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(mssqlCol("s", "name"), coresql.Lit(schemaName)),
				coresql.Eq(mssqlCol("t", "name"), coresql.Lit(name)),
			)
			return e
		}(),
		OrderBy: []coresql.OrderBy{{Term: mssqlCol("c", "column_id")}},
	}
	colsRes, err := queryAST(ctx, executor, "introspectMSSQL", mssqlASTDialect, colsQ)
	if err != nil {
		return DatabaseTable{}, err
	}
	for _, row := range colsRes.Values {
		table.Columns = append(table.Columns, DatabaseColumn{
			Name:          strAt(row, 0),
			Type:          mssqlDataType(strAt(row, 1), row[2], row[3], row[4]),
			NotNull:       !boolAt(row, 5),
			AutoIncrement: boolAt(row, 6),
			Default:       nonEmptyDefault(strAt(row, 7)),
			Comment:       strAt(row, 8),
		})
	}

	pkQ := &coresql.SelectQuery{
		From: coresql.TableRef{Schema: "sys", Name: "indexes", Alias: "i"},
		Joins: []coresql.Join{
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "index_columns", Alias: "ic"}, Condition: func() coresql.Expression {
				e, _ := coresql.And(
					coresql.Eq(mssqlCol("ic", "object_id"), mssqlCol("i", "object_id")),
					coresql.Eq(mssqlCol("ic", "index_id"), mssqlCol("i", "index_id")),
				)
				return e
			}()},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "columns", Alias: "c"}, Condition: func() coresql.Expression {
				e, _ := coresql.And(
					coresql.Eq(mssqlCol("c", "object_id"), mssqlCol("ic", "object_id")),
					coresql.Eq(mssqlCol("c", "column_id"), mssqlCol("ic", "column_id")),
				)
				return e
			}()},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "tables", Alias: "t"}, Condition: coresql.Eq(mssqlCol("t", "object_id"), mssqlCol("i", "object_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "schemas", Alias: "s"}, Condition: coresql.Eq(mssqlCol("s", "schema_id"), mssqlCol("t", "schema_id"))},
		},
		Columns: []coresql.Column{mssqlCol("c", "name")},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(mssqlCol("i", "is_primary_key"), coresql.Lit(1)),
				coresql.Eq(mssqlCol("s", "name"), coresql.Lit(schemaName)),
				coresql.Eq(mssqlCol("t", "name"), coresql.Lit(name)),
			)
			return e
		}(),
		OrderBy: []coresql.OrderBy{{Term: mssqlCol("ic", "key_ordinal")}},
	}
	pkRes, err := queryAST(ctx, executor, "introspectMSSQL", mssqlASTDialect, pkQ)
	if err != nil {
		return DatabaseTable{}, err
	}
	for _, row := range pkRes.Values {
		table.PrimaryKey = append(table.PrimaryKey, strAt(row, 0))
	}
	pkSet := make(map[string]bool, len(table.PrimaryKey))
	for _, k := range table.PrimaryKey {
		pkSet[k] = true
	}
	for i, c := range table.Columns {
		table.Columns[i].Primary = pkSet[c.Name]
	}

	fkQ := &coresql.SelectQuery{
		From: coresql.TableRef{Schema: "sys", Name: "foreign_keys", Alias: "fk"},
		Joins: []coresql.Join{
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "foreign_key_columns", Alias: "fkc"}, Condition: coresql.Eq(mssqlCol("fkc", "constraint_object_id"), mssqlCol("fk", "object_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "tables", Alias: "t"}, Condition: coresql.Eq(mssqlCol("t", "object_id"), mssqlCol("fk", "parent_object_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "schemas", Alias: "s"}, Condition: coresql.Eq(mssqlCol("s", "schema_id"), mssqlCol("t", "schema_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "columns", Alias: "pc"}, Condition: func() coresql.Expression {
				e, _ := coresql.And(
					coresql.Eq(mssqlCol("pc", "object_id"), mssqlCol("fkc", "parent_object_id")),
					coresql.Eq(mssqlCol("pc", "column_id"), mssqlCol("fkc", "parent_column_id")),
				)
				return e
			}()},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "tables", Alias: "rt"}, Condition: coresql.Eq(mssqlCol("rt", "object_id"), mssqlCol("fk", "referenced_object_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "columns", Alias: "rc"}, Condition: func() coresql.Expression {
				e, _ := coresql.And(
					coresql.Eq(mssqlCol("rc", "object_id"), mssqlCol("fkc", "referenced_object_id")),
					coresql.Eq(mssqlCol("rc", "column_id"), mssqlCol("fkc", "referenced_column_id")),
				)
				return e
			}()},
		},
		Columns: []coresql.Column{
			mssqlCol("pc", "name"), mssqlCol("rt", "name"), mssqlCol("rc", "name"),
			mssqlCol("fk", "update_referential_action_desc"), mssqlCol("fk", "delete_referential_action_desc"),
		},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(mssqlCol("s", "name"), coresql.Lit(schemaName)),
				coresql.Eq(mssqlCol("t", "name"), coresql.Lit(name)),
			)
			return e
		}(),
	}
	fkRes, err := queryAST(ctx, executor, "introspectMSSQL", mssqlASTDialect, fkQ)
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

	idxQ := &coresql.SelectQuery{
		From: coresql.TableRef{Schema: "sys", Name: "indexes", Alias: "i"},
		Joins: []coresql.Join{
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "index_columns", Alias: "ic"}, Condition: func() coresql.Expression {
				e, _ := coresql.And(
					coresql.Eq(mssqlCol("ic", "object_id"), mssqlCol("i", "object_id")),
					coresql.Eq(mssqlCol("ic", "index_id"), mssqlCol("i", "index_id")),
				)
				return e
			}()},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "columns", Alias: "c"}, Condition: func() coresql.Expression {
				e, _ := coresql.And(
					coresql.Eq(mssqlCol("c", "object_id"), mssqlCol("ic", "object_id")),
					coresql.Eq(mssqlCol("c", "column_id"), mssqlCol("ic", "column_id")),
				)
				return e
			}()},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "tables", Alias: "t"}, Condition: coresql.Eq(mssqlCol("t", "object_id"), mssqlCol("i", "object_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "schemas", Alias: "s"}, Condition: coresql.Eq(mssqlCol("s", "schema_id"), mssqlCol("t", "schema_id"))},
		},
		Columns: []coresql.Column{mssqlCol("i", "name"), mssqlCol("c", "name"), mssqlCol("i", "is_unique")},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(mssqlCol("i", "is_primary_key"), coresql.Lit(0)),
				coresql.IsNotNull(mssqlCol("i", "name")),
				coresql.Eq(mssqlCol("s", "name"), coresql.Lit(schemaName)),
				coresql.Eq(mssqlCol("t", "name"), coresql.Lit(name)),
			)
			return e
		}(),
		OrderBy: []coresql.OrderBy{{Term: mssqlCol("i", "name")}, {Term: mssqlCol("ic", "key_ordinal")}},
	}
	idxRes, err := queryAST(ctx, executor, "introspectMSSQL", mssqlASTDialect, idxQ)
	if err != nil {
		return DatabaseTable{}, err
	}
	table.Indexes = groupIndexRows(idxRes)

	return table, nil
}

func introspectMSSQLViews(ctx context.Context, executor dialect.Executor, schemaName string) ([]DatabaseView, error) {
	q := &coresql.SelectQuery{
		From: coresql.TableRef{Schema: "sys", Name: "views", Alias: "v"},
		Joins: []coresql.Join{
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "schemas", Alias: "s"}, Condition: coresql.Eq(mssqlCol("s", "schema_id"), mssqlCol("v", "schema_id"))},
			{Kind: coresql.JoinInner, Table: coresql.TableRef{Schema: "sys", Name: "sql_modules", Alias: "m"}, Condition: coresql.Eq(mssqlCol("m", "object_id"), mssqlCol("v", "object_id"))},
		},
		Columns: []coresql.Column{mssqlCol("v", "name"), mssqlCol("m", "definition")},
		Where:   coresql.Eq(mssqlCol("s", "name"), coresql.Lit(schemaName)),
	}
	res, err := queryAST(ctx, executor, "introspectMSSQL", mssqlASTDialect, q)
	if err != nil {
		return nil, err
	}
	var views []DatabaseView
	for _, row := range res.Values {
		views = append(views, DatabaseView{Name: strAt(row, 0), Schema: schemaName, Definition: strAt(row, 1)})
	}
	return views, nil
}

func mssqlDataType(typeName string, maxLength, precision, scale any) string {
	typeName = strings.ToUpper(typeName)
	switch typeName {
	case "VARCHAR", "CHAR", "NVARCHAR", "NCHAR", "VARBINARY", "BINARY":
		n := toInt64(maxLength)
		if n < 0 {
			return fmt.Sprintf("%s(MAX)", typeName)
		}
		if typeName == "NVARCHAR" || typeName == "NCHAR" {
			n /= 2
		}
		return fmt.Sprintf("%s(%d)", typeName, n)
	case "DECIMAL", "NUMERIC":
		return fmt.Sprintf("%s(%d,%d)", typeName, toInt64(precision), toInt64(scale))
	default:
		return typeName
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	default:
		return 0
	}
}
