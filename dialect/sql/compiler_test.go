package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcraft/core/dialect"
)

func TestNew_UnsupportedDialect(t *testing.T) {
	_, err := New(dialect.Name("oracle"))
	require.Error(t, err)
}

func TestCompileSelect_Postgres(t *testing.T) {
	d, err := New(dialect.Postgres)
	require.NoError(t, err)

	q := &SelectQuery{
		From:    Table("users"),
		Columns: []Column{Col("id"), Col("email")},
		Where:   Eq(Col("id"), 1),
	}
	compiled, err := d.CompileSelect(q)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "email" FROM "users" WHERE "id" = $1`, compiled.SQL)
	assert.Equal(t, []any{1}, compiled.Params)
}

func TestCompileSelect_MySQLUsesQuestionMarkPlaceholders(t *testing.T) {
	d, err := New(dialect.MySQL)
	require.NoError(t, err)

	q := &SelectQuery{
		From:  Table("users"),
		Where: And2(t, Eq(Col("active"), true), Gt(Col("age"), 18)),
	}
	compiled, err := d.CompileSelect(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` WHERE (`active` = ? AND `age` > ?)", compiled.SQL)
	assert.Equal(t, []any{true, 18}, compiled.Params)
}

func And2(t *testing.T, a, b Expression) Expression {
	t.Helper()
	e, err := And(a, b)
	require.NoError(t, err)
	return e
}

func TestCompileSelect_LimitOffsetPostgres(t *testing.T) {
	d, err := New(dialect.Postgres)
	require.NoError(t, err)
	limit, offset := int64(10), int64(5)
	q := &SelectQuery{From: Table("users"), Limit: &limit, Offset: &offset}
	compiled, err := d.CompileSelect(q)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" LIMIT 10 OFFSET 5`, compiled.SQL)
}

func TestCompileSelect_JoinsAndAlias(t *testing.T) {
	d, err := New(dialect.Postgres)
	require.NoError(t, err)
	q := &SelectQuery{
		From: Table("users").As("u"),
		Columns: []Column{
			ColumnOf("u", "id"),
			ColumnOf("p", "title").As("post_title"),
		},
		Joins: []Join{
			{Kind: JoinLeft, Table: Table("posts").As("p"), Condition: Eq(ColumnOf("p", "author_id"), ColumnOf("u", "id"))},
		},
	}
	compiled, err := d.CompileSelect(q)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "u"."id", "p"."title" AS "post_title" FROM "users" AS "u" LEFT JOIN "posts" AS "p" ON "p"."author_id" = "u"."id"`,
		compiled.SQL)
}

func TestCompileInsert_RequiresColumnsAndRows(t *testing.T) {
	d, err := New(dialect.Postgres)
	require.NoError(t, err)

	_, err = d.CompileInsert(&InsertQuery{Into: Table("users")})
	require.Error(t, err)
	assert.Equal(t, dialect.InvalidArgument, dialect.KindOf(err))

	_, err = d.CompileInsert(&InsertQuery{Into: Table("users"), Columns: []Column{Col("id")}, Source: InsertValues{}})
	require.Error(t, err)
	assert.Equal(t, dialect.InvalidArgument, dialect.KindOf(err))
}

func TestCompileInsert_PostgresReturning(t *testing.T) {
	d, err := New(dialect.Postgres)
	require.NoError(t, err)

	q := &InsertQuery{
		Into:      Table("users"),
		Columns:   []Column{Col("email")},
		Source:    InsertValues{Rows: [][]Operand{{Lit("a@b.com")}}},
		Returning: []Column{Col("id")},
	}
	compiled, err := d.CompileInsert(q)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("email") VALUES ($1) RETURNING "id"`, compiled.SQL)
	assert.Equal(t, []any{"a@b.com"}, compiled.Params)
}

func TestCompileInsert_MySQLRejectsReturning(t *testing.T) {
	d, err := New(dialect.MySQL)
	require.NoError(t, err)

	q := &InsertQuery{
		Into:      Table("users"),
		Columns:   []Column{Col("email")},
		Source:    InsertValues{Rows: [][]Operand{{Lit("a@b.com")}}},
		Returning: []Column{Col("id")},
	}
	_, err = d.CompileInsert(q)
	require.Error(t, err)
	assert.Equal(t, dialect.UnsupportedFeature, dialect.KindOf(err))
}

func TestCompileUpdate_Simple(t *testing.T) {
	d, err := New(dialect.Postgres)
	require.NoError(t, err)

	q := &UpdateQuery{
		Table: Table("users"),
		Set:   []Assignment{{Column: Col("email"), Value: Lit("new@b.com")}},
		Where: Eq(Col("id"), 1),
	}
	compiled, err := d.CompileUpdate(q)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "email" = $1 WHERE "id" = $2`, compiled.SQL)
	assert.Equal(t, []any{"new@b.com", 1}, compiled.Params)
}

func TestCompileDelete_Simple(t *testing.T) {
	d, err := New(dialect.MySQL)
	require.NoError(t, err)

	q := &DeleteQuery{From: Table("users"), Where: Eq(Col("id"), 1)}
	compiled, err := d.CompileDelete(q)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `users` WHERE `id` = ?", compiled.SQL)
	assert.Equal(t, []any{1}, compiled.Params)
}

func TestQuoteBacktick_RejectsEmbeddedBacktick(t *testing.T) {
	d, err := New(dialect.MySQL)
	require.NoError(t, err)
	_, err = d.QuoteIdentifier("evil`name")
	require.Error(t, err)
	assert.Equal(t, dialect.InvalidArgument, dialect.KindOf(err))
}

func TestFormatLiteral_BooleanPerDialect(t *testing.T) {
	pg, err := New(dialect.Postgres)
	require.NoError(t, err)
	s, err := pg.FormatLiteral(true)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", s)

	my, err := New(dialect.MySQL)
	require.NoError(t, err)
	s, err = my.FormatLiteral(false)
	require.NoError(t, err)
	assert.Equal(t, "0", s)
}

func TestCompileSelect_InWithEmptyValuesIsConstantFalse(t *testing.T) {
	d, err := New(dialect.Postgres)
	require.NoError(t, err)
	q := &SelectQuery{From: Table("users"), Where: In(Col("id"))}
	compiled, err := d.CompileSelect(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "1 = 0")
}
