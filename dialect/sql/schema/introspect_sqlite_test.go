package schema

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcraft/core/dialect"
	sqldriver "github.com/sqlcraft/core/dialect/sql"
)

func TestIntrospectSQLite_FullTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sqldriver.OpenDB(dialect.SQLite, db)

	mock.ExpectQuery("sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("users"))
	mock.ExpectQuery("sqlite_master").WithArgs("schema_comments").
		WillReturnRows(sqlmock.NewRows([]string{"name"})) // probe query, no rows -> hasComments false
	mock.ExpectQuery("pragma_table_info").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "notnull", "dflt_value", "pk"}).
			AddRow("id", "INTEGER", int64(0), nil, int64(1)).
			AddRow("email", "TEXT", int64(1), nil, int64(0)))
	mock.ExpectQuery("pragma_foreign_key_list").
		WillReturnRows(sqlmock.NewRows([]string{"from", "table", "to", "on_update", "on_delete"}))
	mock.ExpectQuery("pragma_index_list").
		WillReturnRows(sqlmock.NewRows([]string{"name", "unique"}).AddRow("users_email_idx", int64(1)))
	mock.ExpectQuery("pragma_index_info").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("email"))

	schema, err := Introspect(context.Background(), drv, dialect.SQLite, IntrospectOptions{})
	require.NoError(t, err)
	require.Len(t, schema.Tables, 1)

	tbl := schema.Tables[0]
	assert.Equal(t, "users", tbl.Name)
	require.Len(t, tbl.Columns, 2)
	assert.Equal(t, []string{"id"}, tbl.PrimaryKey)

	idCol, ok := tbl.Column("id")
	require.True(t, ok)
	assert.True(t, idCol.Primary)
	assert.True(t, idCol.AutoIncrement, "single INTEGER PRIMARY KEY must be flagged autoincrement-eligible")

	emailCol, ok := tbl.Column("email")
	require.True(t, ok)
	assert.True(t, emailCol.NotNull)

	require.Len(t, tbl.Indexes, 1)
	assert.Equal(t, "users_email_idx", tbl.Indexes[0].Name)
	assert.True(t, tbl.Indexes[0].Unique)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntrospectSQLite_TableFilterExcludesTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sqldriver.OpenDB(dialect.SQLite, db)

	mock.ExpectQuery("sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("users").AddRow("internal_cache"))
	mock.ExpectQuery("sqlite_master").WithArgs("schema_comments").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectQuery("pragma_table_info").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "notnull", "dflt_value", "pk"}).
			AddRow("id", "INTEGER", int64(0), nil, int64(1)))
	mock.ExpectQuery("pragma_foreign_key_list").
		WillReturnRows(sqlmock.NewRows([]string{"from", "table", "to", "on_update", "on_delete"}))
	mock.ExpectQuery("pragma_index_list").
		WillReturnRows(sqlmock.NewRows([]string{"name", "unique"}))

	schema, err := Introspect(context.Background(), drv, dialect.SQLite, IntrospectOptions{
		TableFilter: func(name string) bool { return name == "users" },
	})
	require.NoError(t, err)
	require.Len(t, schema.Tables, 1)
	assert.Equal(t, "users", schema.Tables[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
