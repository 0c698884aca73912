package sql

import (
	"testing"

	"github.com/sqlcraft/core/dialect"
)

func mustDialect(b *testing.B, name Name) *Dialect {
	b.Helper()
	d, err := New(name)
	if err != nil {
		b.Fatal(err)
	}
	return d
}

func mustExpr(b *testing.B, e Expression, err error) Expression {
	b.Helper()
	if err != nil {
		b.Fatal(err)
	}
	return e
}

func BenchmarkCompileInsert_Minimal(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			q := &InsertQuery{
				Into:      Table("users"),
				Columns:   []Column{Col("id")},
				Source:    InsertValues{Rows: [][]Operand{{Lit(1)}}},
				Returning: []Column{Col("id")},
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileInsert(q)
			}
		})
	}
}

func BenchmarkCompileInsert_Small(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			q := &InsertQuery{
				Into: Table("users"),
				Columns: []Column{
					Col("id"), Col("age"), Col("first_name"), Col("last_name"),
					Col("nickname"), Col("spouse_id"), Col("created_at"), Col("updated_at"),
				},
				Source: InsertValues{Rows: [][]Operand{{
					Lit(1), Lit(30), Lit("Ariel"), Lit("Mashraki"), Lit("a8m"),
					Lit(2), Lit("2009-11-10 23:00:00"), Lit("2009-11-10 23:00:00"),
				}}},
				Returning: []Column{Col("id")},
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileInsert(q)
			}
		})
	}
}

func BenchmarkCompileSelect_Simple(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			q := &SelectQuery{
				From:    Table("users"),
				Columns: []Column{Col("id"), Col("name"), Col("email")},
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileSelect(q)
			}
		})
	}
}

func BenchmarkCompileSelect_WithJoins(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			users := Table("users").As("u")
			posts := Table("posts").As("p")
			limit := int64(10)
			q := &SelectQuery{
				From:    users,
				Columns: []Column{ColumnOf("u", "id"), ColumnOf("u", "name"), ColumnOf("p", "title")},
				Joins: []Join{
					{Kind: JoinInner, Table: posts, Condition: Eq(ColumnOf("u", "id"), ColumnOf("p", "user_id"))},
				},
				Where:   Eq(ColumnOf("u", "active"), true),
				OrderBy: []OrderBy{{Term: ColumnOf("u", "created_at")}},
				Limit:   &limit,
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileSelect(q)
			}
		})
	}
}

func BenchmarkCompileSelect_Complex(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			limit, offset := int64(100), int64(50)
			or := mustExpr(b, Or(Gt(Col("age"), 18), Eq(Col("role"), "admin")))
			where := mustExpr(b, And(
				Eq(Col("status"), "active"),
				or,
				In(Col("department"), "engineering", "product", "design"),
				IsNotNull(Col("email")),
			))
			q := &SelectQuery{
				From:    Table("users"),
				Columns: []Column{{Name: "*"}},
				Where:   where,
				OrderBy: []OrderBy{{Term: Col("created_at")}, {Term: Col("name")}},
				Limit:   &limit,
				Offset:  &offset,
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileSelect(q)
			}
		})
	}
}

func BenchmarkCompileUpdate_Simple(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			q := &UpdateQuery{
				Table: Table("users"),
				Set: []Assignment{
					{Column: Col("name"), Value: Lit("John")},
					{Column: Col("updated_at"), Value: Lit("2024-01-01 00:00:00")},
				},
				Where: Eq(Col("id"), 1),
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileUpdate(q)
			}
		})
	}
}

func BenchmarkCompileUpdate_Multiple(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			q := &UpdateQuery{
				Table: Table("users"),
				Set: []Assignment{
					{Column: Col("first_name"), Value: Lit("John")},
					{Column: Col("last_name"), Value: Lit("Doe")},
					{Column: Col("email"), Value: Lit("john@example.com")},
					{Column: Col("age"), Value: Lit(30)},
					{Column: Col("status"), Value: Lit("active")},
					{Column: Col("updated_at"), Value: Lit("2024-01-01 00:00:00")},
				},
				Where: In(Col("id"), 1, 2, 3, 4, 5),
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileUpdate(q)
			}
		})
	}
}

func BenchmarkCompileDelete_Simple(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			q := &DeleteQuery{From: Table("users"), Where: Eq(Col("id"), 1)}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileDelete(q)
			}
		})
	}
}

func BenchmarkCompileDelete_WithConditions(b *testing.B) {
	for _, name := range []Name{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(string(name), func(b *testing.B) {
			d := mustDialect(b, name)
			where := mustExpr(b, And(
				Eq(Col("status"), "deleted"),
				Lt(Col("deleted_at"), "2023-01-01"),
				NotIn(Col("role"), "admin", "moderator"),
			))
			q := &DeleteQuery{From: Table("users"), Where: where}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = d.CompileDelete(q)
			}
		})
	}
}

func BenchmarkPredicates_Simple(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Eq(Col("name"), "John")
		_ = Neq(Col("status"), "deleted")
		_ = Gt(Col("age"), 18)
		_ = Lt(Col("score"), 100)
	}
}

func BenchmarkPredicates_Compound(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		or, _ := Or(Gt(Col("age"), 18), Eq(Col("role"), "admin"))
		_, _ = And(
			Eq(Col("status"), "active"),
			or,
			In(Col("department"), "eng", "product"),
			IsNotNull(Col("email")),
			LikeExpr(Col("name"), "%John%"),
		)
	}
}
