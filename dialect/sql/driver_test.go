package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/sqlcraft/core/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithVars(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := drv.ExecuteSQL(WithVar(context.Background(), "foo", "bar"), "SELECT 1", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, res.Columns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithIntVar(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.MySQL, db)

	mock.ExpectExec("SET foo = '42'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("SET foo = NULL").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = drv.ExecuteSQL(WithIntVar(context.Background(), "foo", 42), "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithVarsInvalidIdentifier(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.Postgres, db)

	_, err = drv.ExecuteSQL(WithVar(context.Background(), "foo; DROP TABLE users; --", "bar"), "SELECT 1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session variable name")
}

func TestWithVarsEscapedValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectExec("SET foo = 'it''s escaped'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = drv.ExecuteSQL(WithVar(context.Background(), "foo", "it's escaped"), "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDB(t *testing.T) {
	tests := []struct {
		name string
		d    dialect.Name
	}{
		{"Postgres", dialect.Postgres},
		{"MySQL", dialect.MySQL},
		{"SQLite", dialect.SQLite},
		{"MSSQL", dialect.MSSQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.d, db)
			assert.NotNil(t, drv)
			assert.Equal(t, db, drv.DB())
		})
	}
}

func TestDriverCapabilities(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pg := OpenDB(dialect.Postgres, db)
	require.True(t, pg.Capabilities().Transactions)
	require.True(t, pg.Capabilities().ReturningClause)

	my := OpenDB(dialect.MySQL, db)
	require.True(t, my.Capabilities().Transactions)
	require.False(t, my.Capabilities().ReturningClause)
}

func TestDriverExecuteSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("simple_query", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "Alice").
				AddRow(2, "Bob"))

		res, err := drv.ExecuteSQL(context.Background(), "SELECT id, name FROM users", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"id", "name"}, res.Columns)
		require.Len(t, res.Values, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_with_args", func(t *testing.T) {
		mock.ExpectQuery(`SELECT name FROM users WHERE id = \$1`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Alice"))

		res, err := drv.ExecuteSQL(context.Background(), "SELECT name FROM users WHERE id = $1", []any{1})
		require.NoError(t, err)
		require.Len(t, res.Values, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_error", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("database error"))

		_, err := drv.ExecuteSQL(context.Background(), "SELECT", nil)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_via_query", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		res, err := drv.ExecuteSQL(context.Background(), "INSERT INTO users (name) VALUES ('test') RETURNING id", nil)
		require.NoError(t, err)
		require.Len(t, res.Values, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBeginTxCommit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	tx, err := drv.BeginTx(context.Background())
	require.NoError(t, err)
	res, err := tx.ExecuteSQL(context.Background(), "INSERT INTO users DEFAULT VALUES RETURNING id", nil)
	require.NoError(t, err)
	require.Len(t, res.Values, 1)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginTxRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	tx, err := drv.BeginTx(context.Background())
	require.NoError(t, err)
	_, err = tx.ExecuteSQL(context.Background(), "SELECT 1", nil)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContextCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock.ExpectQuery("SELECT").WillReturnError(context.Canceled)
	_, err = drv.ExecuteSQL(ctx, "SELECT 1", nil)
	assert.Error(t, err)
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid_simple", "foo", true},
		{"valid_with_underscore", "foo_bar", true},
		{"valid_with_number", "foo123", true},
		{"valid_with_dot", "schema.table", true},
		{"valid_starting_underscore", "_private", true},
		{"invalid_empty", "", false},
		{"invalid_starting_number", "123foo", false},
		{"invalid_with_space", "foo bar", false},
		{"invalid_with_quote", "foo'bar", false},
		{"invalid_with_semicolon", "foo;DROP TABLE", false},
		{"invalid_with_dash", "foo-bar", false},
		{"invalid_too_long", string(make([]byte, 129)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isValidIdentifier(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEscapeStringValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no_escaping_needed", "hello", "hello"},
		{"single_quote", "it's", "it''s"},
		{"multiple_quotes", "he said 'hello'", "he said ''hello''"},
		{"backslash", `path\to\file`, `path\\to\\file`},
		{"both_quote_and_backslash", `it's a \test`, `it''s a \\test`},
		{"empty_string", "", ""},
		{"sql_injection_attempt", "'; DROP TABLE users; --", "''; DROP TABLE users; --"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := escapeStringValue(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNullValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).
			AddRow("Alice", nil).
			AddRow(nil, "bob@example.com"))

	res, err := drv.ExecuteSQL(context.Background(), "SELECT name, email FROM users", nil)
	require.NoError(t, err)
	require.Len(t, res.Values, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMultipleDialects(t *testing.T) {
	dialects := []dialect.Name{dialect.Postgres, dialect.MySQL, dialect.SQLite, dialect.MSSQL}

	for _, d := range dialects {
		t.Run(string(d), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(d, db)

			mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

			res, err := drv.ExecuteSQL(context.Background(), "SELECT id FROM users", nil)
			require.NoError(t, err)
			require.Len(t, res.Values, 1)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func BenchmarkDriverExecuteSQL(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	b.Run("Query_Simple", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			_, _ = drv.ExecuteSQL(context.Background(), "SELECT 1", nil)
		}
	})

	b.Run("Transaction_Lifecycle", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			mock.ExpectBegin()
			mock.ExpectCommit()
			tx, _ := drv.BeginTx(context.Background())
			_ = tx.Commit()
		}
	})
}
