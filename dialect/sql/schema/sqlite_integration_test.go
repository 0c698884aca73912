package schema

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlcraft/core/dialect"
	sqldriver "github.com/sqlcraft/core/dialect/sql"

	_ "modernc.org/sqlite"
)

// TestSynchronize_RealSQLiteDatabase exercises Synchronize and Introspect
// against an actual in-memory SQLite connection rather than a mock, the
// way a caller wiring this core against modernc.org/sqlite would.
func TestSynchronize_RealSQLiteDatabase(t *testing.T) {
	drv, err := sqldriver.Open(dialect.SQLite, fmt.Sprintf("file:sync-%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	ctx := context.Background()

	table := Table("widgets").
		Column("id", Int("id").PrimaryKey().AutoIncrement().Build()).
		Column("name", Varchar("name", 255).NotNull().Build()).
		Build()

	create, err := RenderCreateTable(table, dialect.SQLite)
	require.NoError(t, err)

	plan := DiffPlan{Changes: []Change{
		{Kind: CreateTable, Table: "widgets", Statements: create, Safe: true},
	}}

	applied, err := Synchronize(ctx, drv, plan, SyncOptions{InTransaction: true})
	require.NoError(t, err)
	require.Len(t, applied.Changes, 1)

	_, err = drv.DB().ExecContext(ctx, `INSERT INTO widgets (name) VALUES ('sprocket')`)
	require.NoError(t, err)

	var count int
	require.NoError(t, drv.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM widgets`).Scan(&count))
	require.Equal(t, 1, count)

	observed, err := Introspect(ctx, drv, dialect.SQLite, IntrospectOptions{})
	require.NoError(t, err)

	var found bool
	for _, tbl := range observed.Tables {
		if tbl.Name == "widgets" {
			found = true
		}
	}
	require.True(t, found, "expected widgets table to be observed after Synchronize")
}

func TestSynchronize_RealSQLiteDatabase_RollsBackOnFailure(t *testing.T) {
	drv, err := sqldriver.Open(dialect.SQLite, fmt.Sprintf("file:rollback-%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	ctx := context.Background()

	plan := DiffPlan{Changes: []Change{
		{Kind: CreateTable, Table: "ok_table", Statements: []string{"CREATE TABLE ok_table (id INTEGER PRIMARY KEY);"}, Safe: true},
		{Kind: CreateTable, Table: "bad_table", Statements: []string{"NOT VALID SQL;"}, Safe: true},
	}}

	_, err = Synchronize(ctx, drv, plan, SyncOptions{InTransaction: true})
	require.Error(t, err)
	require.Equal(t, dialect.SyncFailed, dialect.KindOf(err))

	var count int
	row := drv.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='ok_table'`)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 0, count, "transaction rollback should have undone ok_table's creation")
}
