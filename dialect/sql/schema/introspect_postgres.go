package schema

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	coresql "github.com/sqlcraft/core/dialect/sql"

	"github.com/sqlcraft/core/dialect"
)

var postgresASTDialect = mustASTDialect(dialect.Postgres)

func pgCol(table, name string) coresql.Column { return coresql.Column{Table: table, Name: name} }

// introspectPostgres reads pg_class/pg_attribute/pg_constraint/pg_index/
// pg_description to build a DatabaseSchema (§4.6). Column type modifiers
// (atttypmod) are parsed back into VARCHAR(n)/NUMERIC(p,s) via
// parsePostgresTypmod.
func introspectPostgres(ctx context.Context, executor dialect.Executor, opts IntrospectOptions) (DatabaseSchema, error) {
	schemaName := opts.Schema
	if schemaName == "" {
		schemaName = "public"
	}

	namesQ := &coresql.SelectQuery{
		From: coresql.TableRef{Name: "pg_class", Alias: "c"},
		Joins: []coresql.Join{{
			Kind:      coresql.JoinInner,
			Table:     coresql.TableRef{Name: "pg_namespace", Alias: "n"},
			Condition: coresql.Eq(pgCol("n", "oid"), pgCol("c", "relnamespace")),
		}},
		Columns: []coresql.Column{pgCol("c", "relname")},
		Where: func() coresql.Expression {
			e, _ := coresql.And(
				coresql.Eq(pgCol("n", "nspname"), coresql.Lit(schemaName)),
				coresql.Eq(pgCol("c", "relkind"), coresql.Lit("r")),
			)
			return e
		}(),
		OrderBy: []coresql.OrderBy{{Term: pgCol("c", "relname")}},
	}
	namesRes, err := queryAST(ctx, executor, "introspectPostgres", postgresASTDialect, namesQ)
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
		return introspectPostgresTable(ctx, executor, schemaName, name)
	})
	if err != nil {
		return DatabaseSchema{}, err
	}

	result := DatabaseSchema{Tables: tables}
	if opts.IncludeViews {
		views, err := introspectPostgresViews(ctx, executor, schemaName)
		if err != nil {
			return DatabaseSchema{}, err
		}
		result.Views = views
	}
	return result, nil
}

func introspectPostgresTable(ctx context.Context, executor dialect.Executor, schemaName, name string) (DatabaseTable, error) {
	table := DatabaseTable{Name: name, Schema: schemaName}

	// Left un-compiled deliberately: the default/comment columns are
	// pg_get_expr(ad.adbin, ad.adrelid) and col_description(c.oid,
	// a.attnum) function calls, not plain column references, and
	// SelectQuery.Columns is []Column with no variant for a computed
	// projection — the same limitation that keeps MySQL's GROUP_CONCAT
	// index query outside the AST.
	colsRes, err := query(ctx, executor, "introspectPostgres",
		`SELECT a.attname, t.typname, a.atttypmod, a.attnotnull, a.attidentity <> '',
		        pg_get_expr(ad.adbin, ad.adrelid), col_description(c.oid, a.attnum)
		 FROM pg_attribute a
		 JOIN pg_class c ON c.oid = a.attrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN pg_type t ON t.oid = a.atttypid
		 LEFT JOIN pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
		 WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
		 ORDER BY a.attnum`, schemaName, name)
	if err != nil {
		return DatabaseTable{}, err
	}
	for _, row := range colsRes.Values {
		typmod := int64(0)
		if v, ok := row[2].(int64); ok {
			typmod = v
		}
		table.Columns = append(table.Columns, DatabaseColumn{
			Name:          strAt(row, 0),
			Type:          parsePostgresTypmod(strAt(row, 1), typmod),
			NotNull:       boolAt(row, 3),
			AutoIncrement: boolAt(row, 4),
			Default:       nonEmptyDefault(strAt(row, 5)),
			Comment:       strAt(row, 6),
		})
	}

	// Left un-compiled deliberately: the JOIN unnest(...) WITH ORDINALITY
	// AS k(attnum, ord) ON true pattern unpacks a constraint's packed
	// column-number array into ordered rows by joining against a
	// table-valued function result with a synthesized ordinality column
	// — there is no TableSource/Join shape for that; FunctionTable
	// models a function called with bound arguments, not a join whose
	// ON clause is the literal constant true against a derived ordinal
	// column.
	pkRes, err := query(ctx, executor, "introspectPostgres",
		`SELECT a.attname FROM pg_constraint con
		 JOIN pg_class c ON c.oid = con.conrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		 JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		 WHERE con.contype = 'p' AND n.nspname = $1 AND c.relname = $2
		 ORDER BY k.ord`, schemaName, name)
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

	// Left un-compiled for the same unnest(...) WITH ORDINALITY reason as
	// the primary-key query above (here doubled, once per side of the
	// foreign key).
	fkRes, err := query(ctx, executor, "introspectPostgres",
		`SELECT a.attname, rn.nspname, rc.relname, ra.attname, con.confupdtype, con.confdeltype
		 FROM pg_constraint con
		 JOIN pg_class c ON c.oid = con.conrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		 JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		 JOIN unnest(con.confkey) WITH ORDINALITY AS rk(attnum, ord) ON rk.ord = k.ord
		 JOIN pg_class rc ON rc.oid = con.confrelid
		 JOIN pg_namespace rn ON rn.oid = rc.relnamespace
		 JOIN pg_attribute ra ON ra.attrelid = rc.oid AND ra.attnum = rk.attnum
		 WHERE con.contype = 'f' AND n.nspname = $1 AND c.relname = $2`, schemaName, name)
	if err != nil {
		return DatabaseTable{}, err
	}
	for _, row := range fkRes.Values {
		colName := strAt(row, 0)
		ref := &Reference{
			Table:    strAt(row, 2),
			Column:   strAt(row, 3),
			OnUpdate: normalizeAction(strAt(row, 4)),
			OnDelete: normalizeAction(strAt(row, 5)),
		}
		for i, c := range table.Columns {
			if c.Name == colName {
				table.Columns[i].References = ref
			}
		}
	}

	// Left un-compiled for the same unnest(...) WITH ORDINALITY reason.
	idxRes, err := query(ctx, executor, "introspectPostgres",
		`SELECT ic.relname, a.attname, ix.indisunique
		 FROM pg_index ix
		 JOIN pg_class c ON c.oid = ix.indrelid
		 JOIN pg_class ic ON ic.oid = ix.indexrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		 JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		 WHERE n.nspname = $1 AND c.relname = $2 AND NOT ix.indisprimary
		 ORDER BY ic.relname, k.ord`, schemaName, name)
	if err != nil {
		return DatabaseTable{}, err
	}
	table.Indexes = groupIndexRows(idxRes)

	return table, nil
}

func introspectPostgresViews(ctx context.Context, executor dialect.Executor, schemaName string) ([]DatabaseView, error) {
	q := &coresql.SelectQuery{
		From:    coresql.Table("pg_views"),
		Columns: []coresql.Column{coresql.Col("viewname"), coresql.Col("definition")},
		Where:   coresql.Eq(coresql.Col("schemaname"), coresql.Lit(schemaName)),
	}
	res, err := queryAST(ctx, executor, "introspectPostgres", postgresASTDialect, q)
	if err != nil {
		return nil, err
	}
	var views []DatabaseView
	for _, row := range res.Values {
		views = append(views, DatabaseView{Name: strAt(row, 0), Schema: schemaName, Definition: strAt(row, 1)})
	}
	return views, nil
}

// groupIndexRows folds (index_name, column_name, unique) rows, already
// ordered by (index_name, ordinal), into one DatabaseIndex per distinct
// index name.
func groupIndexRows(res dialect.QueryResult) []DatabaseIndex {
	var out []DatabaseIndex
	byName := map[string]*DatabaseIndex{}
	for _, row := range res.Values {
		idxName := strAt(row, 0)
		idx, ok := byName[idxName]
		if !ok {
			out = append(out, DatabaseIndex{Name: idxName, Unique: boolAt(row, 2)})
			idx = &out[len(out)-1]
			byName[idxName] = idx
		}
		idx.Columns = append(idx.Columns, IndexColumn{Column: strAt(row, 1)})
	}
	return out
}

func nonEmptyDefault(expr string) any {
	if expr == "" {
		return nil
	}
	return RawDefault(expr)
}

var pgVarlenTypes = map[string]bool{"varchar": true, "bpchar": true}

// parsePostgresTypmod reconstructs VARCHAR(n)/NUMERIC(p,s) from a base
// type name and its raw atttypmod, per §4.6.
func parsePostgresTypmod(typname string, typmod int64) string {
	if typmod <= 0 {
		return pgTypeAlias(typname)
	}
	switch typname {
	case "varchar", "bpchar":
		n := typmod - 4
		return "VARCHAR(" + strconv.FormatInt(n, 10) + ")"
	case "numeric":
		raw := typmod - 4
		precision := (raw >> 16) & 0xffff
		scale := raw & 0xffff
		return "NUMERIC(" + strconv.FormatInt(precision, 10) + "," + strconv.FormatInt(scale, 10) + ")"
	default:
		return pgTypeAlias(typname)
	}
}

var pgTypeAliasRe = regexp.MustCompile(`^_`)

func pgTypeAlias(typname string) string {
	switch typname {
	case "int4":
		return "INTEGER"
	case "int8":
		return "BIGINT"
	case "int2":
		return "SMALLINT"
	case "bool":
		return "BOOLEAN"
	case "text":
		return "TEXT"
	case "timestamptz":
		return "TIMESTAMPTZ"
	case "timestamp":
		return "TIMESTAMP"
	case "uuid":
		return "UUID"
	case "jsonb":
		return "JSONB"
	case "json":
		return "JSON"
	case "bytea":
		return "BYTEA"
	default:
		return strings.ToUpper(pgTypeAliasRe.ReplaceAllString(typname, "")) // strip array prefix if any slipped through
	}
}
