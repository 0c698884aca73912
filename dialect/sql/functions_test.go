package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcraft/core/dialect"
)

func compileIdent(op Operand) (string, error) {
	if col, ok := op.(Column); ok {
		return `"` + col.Name + `"`, nil
	}
	if lit, ok := op.(Literal); ok {
		if s, ok := lit.Value.(string); ok {
			return "'" + s + "'", nil
		}
	}
	return "?", nil
}

// inlineIdent renders a value as literal SQL text, mirroring the quoting
// compileIdent applies to a Literal operand. Used as the inlineLiteral
// argument so these unit tests keep exercising the resolution algorithm
// in isolation from a real Dialect's formatLit.
func inlineIdent(v any) (string, error) {
	if s, ok := v.(string); ok {
		return "'" + s + "'", nil
	}
	return "?", nil
}

func noopWarn(string) {}

func TestGroupConcat_MySQLDefaultSeparator(t *testing.T) {
	node := &Function{Key: "GROUP_CONCAT", Args: []Operand{Col("tag")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.MySQL, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `GROUP_CONCAT("tag" SEPARATOR ',')`, sql)
}

func TestGroupConcat_MySQLWithOrderByAndDistinct(t *testing.T) {
	node := &Function{
		Key:      "GROUP_CONCAT",
		Args:     []Operand{Col("tag")},
		Distinct: true,
		OrderBy:  []OrderBy{{Term: Col("tag")}},
	}
	sql, err := DefaultRegistry.Resolve(node, dialect.MySQL, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `GROUP_CONCAT(DISTINCT "tag" ORDER BY "tag" ASC SEPARATOR ',')`, sql)
}

func TestGroupConcat_PostgresRendersAsStringAgg(t *testing.T) {
	node := &Function{Key: "GROUP_CONCAT", Args: []Operand{Col("tag")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.Postgres, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `STRING_AGG("tag", ',')`, sql)
}

func TestGroupConcat_MSSQLUsesWithinGroup(t *testing.T) {
	node := &Function{
		Key:     "GROUP_CONCAT",
		Args:    []Operand{Col("tag")},
		OrderBy: []OrderBy{{Term: Col("tag"), Direction: Desc}},
	}
	sql, err := DefaultRegistry.Resolve(node, dialect.MSSQL, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `STRING_AGG("tag", ',') WITHIN GROUP (ORDER BY "tag" DESC)`, sql)
}

func TestGroupConcat_SQLiteTakesSeparatorAsSecondArg(t *testing.T) {
	node := &Function{
		Key:       "GROUP_CONCAT",
		Args:      []Operand{Col("tag")},
		Separator: Lit("; "),
	}
	sql, err := DefaultRegistry.Resolve(node, dialect.SQLite, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `GROUP_CONCAT("tag", '; ')`, sql)
}

func TestGroupConcat_SQLiteWarnsWhenOrderByDropped(t *testing.T) {
	node := &Function{
		Key:     "GROUP_CONCAT",
		Args:    []Operand{Col("tag")},
		OrderBy: []OrderBy{{Term: Col("tag")}},
	}
	var warned string
	sql, err := DefaultRegistry.Resolve(node, dialect.SQLite, compileIdent, inlineIdent, func(msg string) { warned = msg })
	require.NoError(t, err)
	assert.Equal(t, `GROUP_CONCAT("tag", ',')`, sql)
	assert.NotEmpty(t, warned)
}

func TestStringAgg_MySQLRendersAsGroupConcat(t *testing.T) {
	node := &Function{Key: "STRING_AGG", Args: []Operand{Col("tag")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.MySQL, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `GROUP_CONCAT("tag" SEPARATOR ',')`, sql)
}

func TestGroupConcat_WrongArgCountFails(t *testing.T) {
	node := &Function{Key: "GROUP_CONCAT", Args: []Operand{Col("a"), Col("b")}}
	_, err := DefaultRegistry.Resolve(node, dialect.MySQL, compileIdent, inlineIdent, noopWarn)
	require.Error(t, err)
	assert.Equal(t, dialect.InvalidArgument, dialect.KindOf(err))
}

func TestLogBase_DefaultRendersNativeLog(t *testing.T) {
	node := &Function{Key: "LOG_BASE", Args: []Operand{Lit(2), Col("value")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.Postgres, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `LOG(?, "value")`, sql)
}

func TestLogBase_SQLiteRewritesToLnRatio(t *testing.T) {
	node := &Function{Key: "LOG_BASE", Args: []Operand{Lit(2), Col("value")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.SQLite, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `(LN("value") / LN(?))`, sql)
}

func TestLogBase_WrongArgCountFails(t *testing.T) {
	node := &Function{Key: "LOG_BASE", Args: []Operand{Lit(2)}}
	_, err := DefaultRegistry.Resolve(node, dialect.SQLite, compileIdent, inlineIdent, noopWarn)
	require.Error(t, err)
	assert.Equal(t, dialect.InvalidArgument, dialect.KindOf(err))
}

func TestDateTrunc_PostgresUsesDefaultRenderer(t *testing.T) {
	node := &Function{Key: "DATE_TRUNC", Args: []Operand{Lit("day"), Col("created_at")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.Postgres, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `DATE_TRUNC('day', "created_at")`, sql)
}

func TestDateTrunc_MySQLUsesDateFormat(t *testing.T) {
	node := &Function{Key: "DATE_TRUNC", Args: []Operand{Lit("month"), Col("created_at")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.MySQL, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `DATE_FORMAT("created_at", '%Y-%m-01')`, sql)
}

func TestDateTrunc_MySQLUnsupportedUnitFails(t *testing.T) {
	node := &Function{Key: "DATE_TRUNC", Args: []Operand{Lit("century"), Col("created_at")}}
	_, err := DefaultRegistry.Resolve(node, dialect.MySQL, compileIdent, inlineIdent, noopWarn)
	require.Error(t, err)
	assert.Equal(t, dialect.UnsupportedFeature, dialect.KindOf(err))
}

func TestDateTrunc_SQLiteUsesStrftime(t *testing.T) {
	node := &Function{Key: "DATE_TRUNC", Args: []Operand{Lit("hour"), Col("created_at")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.SQLite, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `STRFTIME('%Y-%m-%d %H:00:00', "created_at")`, sql)
}

func TestDateTrunc_MSSQLUsesDatetrunc(t *testing.T) {
	node := &Function{Key: "DATE_TRUNC", Args: []Operand{Lit("year"), Col("created_at")}}
	sql, err := DefaultRegistry.Resolve(node, dialect.MSSQL, compileIdent, inlineIdent, noopWarn)
	require.NoError(t, err)
	assert.Equal(t, `DATETRUNC(year, "created_at")`, sql)
}

// The tests above drive FunctionRegistry.Resolve directly with a fake
// compile func, which sidesteps the real parameter-binding path. The
// tests below go through an actual *Dialect's CompileSelect, the only
// way to prove a GROUP_CONCAT/STRING_AGG separator is rendered as an
// inline SQL constant rather than pushed onto the bound-parameter
// vector (MySQL's SEPARATOR clause rejects a placeholder outright).

func TestCompileSelect_GroupConcatSeparatorIsInlinedNotParameterized_MySQL(t *testing.T) {
	d, err := New(dialect.MySQL)
	require.NoError(t, err)

	q := &SelectQuery{
		From:    Table("tags"),
		Columns: []Column{Col("group_id")},
		Having:  Eq(GroupConcat(Col("tag"), Lit("; ")), Lit("x")),
	}
	compiled, err := d.CompileSelect(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "SEPARATOR '; '")
	for _, p := range compiled.Params {
		assert.NotEqual(t, "; ", p)
	}
}

func TestCompileSelect_GroupConcatSeparatorIsInlinedNotParameterized_Postgres(t *testing.T) {
	d, err := New(dialect.Postgres)
	require.NoError(t, err)

	q := &SelectQuery{
		From:    Table("tags"),
		Columns: []Column{Col("group_id")},
		Having:  Eq(GroupConcat(Col("tag"), Lit("; ")), Lit("x")),
	}
	compiled, err := d.CompileSelect(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, `STRING_AGG("tag", '; ')`)
	for _, p := range compiled.Params {
		assert.NotEqual(t, "; ", p)
	}
}

func TestCompileSelect_GroupConcatDefaultSeparatorIsInlined_MSSQL(t *testing.T) {
	d, err := New(dialect.MSSQL)
	require.NoError(t, err)

	// Built directly (not via the GroupConcat helper, which always
	// converts its sep argument to an explicit Literal) so Separator is
	// left nil, exercising the default-comma branch of sepLiteral.
	agg := Function{Key: "GROUP_CONCAT", Args: []Operand{Col("tag")}}
	q := &SelectQuery{
		From:    Table("tags"),
		Columns: []Column{Col("group_id")},
		Having:  Eq(agg, Lit("x")),
	}
	compiled, err := d.CompileSelect(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "STRING_AGG(")
	assert.Contains(t, compiled.SQL, "',')")
	for _, p := range compiled.Params {
		assert.NotEqual(t, ",", p)
	}
}
