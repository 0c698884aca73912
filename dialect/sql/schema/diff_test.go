package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcraft/core/dialect"
)

func TestDiffSchema_CreateTableForMissingTable(t *testing.T) {
	expected := []TableDef{Table("users").Column("id", Int("id").PrimaryKey().Build()).Build()}
	plan, err := DiffSchema(expected, DatabaseSchema{}, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, CreateTable, plan.Changes[0].Kind)
	assert.True(t, plan.Changes[0].Safe)
}

func TestDiffSchema_DropTableForRemovedTable(t *testing.T) {
	observed := DatabaseSchema{Tables: []DatabaseTable{{Name: "legacy"}}}
	plan, err := DiffSchema(nil, observed, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, DropTableK, plan.Changes[0].Kind)
	assert.False(t, plan.Changes[0].Safe)
}

func TestDiffSchema_AddColumn(t *testing.T) {
	expected := []TableDef{
		Table("users").
			Column("id", Int("id").PrimaryKey().Build()).
			Column("age", Int("age").Build()).
			Build(),
	}
	observed := DatabaseSchema{Tables: []DatabaseTable{{
		Name:    "users",
		Columns: []DatabaseColumn{{Name: "id", Type: "INTEGER", Primary: true}},
	}}}

	plan, err := DiffSchema(expected, observed, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, AddColumn, plan.Changes[0].Kind)
	assert.Equal(t, "age", plan.Changes[0].Column)
	assert.True(t, plan.Changes[0].Safe)
}

func TestDiffSchema_DropColumnIsUnsafe(t *testing.T) {
	expected := []TableDef{Table("users").Column("id", Int("id").PrimaryKey().Build()).Build()}
	observed := DatabaseSchema{Tables: []DatabaseTable{{
		Name: "users",
		Columns: []DatabaseColumn{
			{Name: "id", Type: "INTEGER", Primary: true},
			{Name: "legacy_flag", Type: "INTEGER"},
		},
	}}}

	plan, err := DiffSchema(expected, observed, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, DropColumnK, plan.Changes[0].Kind)
	assert.False(t, plan.Changes[0].Safe)
}

func TestDiffSchema_WideningTypeChangeIsSafe(t *testing.T) {
	expected := []TableDef{Table("users").Column("id", BigInt("id").Build()).Build()}
	observed := DatabaseSchema{Tables: []DatabaseTable{{
		Name:    "users",
		Columns: []DatabaseColumn{{Name: "id", Type: "INTEGER"}},
	}}}

	plan, err := DiffSchema(expected, observed, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, AlterColumnK, plan.Changes[0].Kind)
	assert.True(t, plan.Changes[0].Safe)
}

func TestDiffSchema_NarrowingTypeChangeIsUnsafe(t *testing.T) {
	expected := []TableDef{Table("users").Column("id", Int("id").Build()).Build()}
	observed := DatabaseSchema{Tables: []DatabaseTable{{
		Name:    "users",
		Columns: []DatabaseColumn{{Name: "id", Type: "BIGINT"}},
	}}}

	plan, err := DiffSchema(expected, observed, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, AlterColumnK, plan.Changes[0].Kind)
	assert.False(t, plan.Changes[0].Safe)
}

func TestDiffSchema_SQLiteAlterColumnBecomesWarningNotChange(t *testing.T) {
	expected := []TableDef{Table("users").Column("age", Int("age").NotNull().Build()).Build()}
	observed := DatabaseSchema{Tables: []DatabaseTable{{
		Name:    "users",
		Columns: []DatabaseColumn{{Name: "age", Type: "INTEGER", NotNull: false}},
	}}}

	plan, err := DiffSchema(expected, observed, dialect.SQLite)
	require.NoError(t, err)
	assert.Empty(t, plan.Changes)
	require.Len(t, plan.Warnings, 1)
}

func TestDiffSchema_OrderingGuarantee(t *testing.T) {
	expected := []TableDef{
		Table("new_table").Column("id", Int("id").PrimaryKey().Build()).Build(),
		Table("users").
			Column("id", Int("id").PrimaryKey().Build()).
			Column("age", BigInt("age").Build()).
			Index(Idx("users_age", false, "age")).
			Build(),
	}
	observed := DatabaseSchema{Tables: []DatabaseTable{
		{
			Name: "users",
			Columns: []DatabaseColumn{
				{Name: "id", Type: "INTEGER", Primary: true},
				{Name: "age", Type: "INTEGER"},
				{Name: "legacy", Type: "TEXT"},
			},
		},
		{Name: "obsolete"},
	}}

	plan, err := DiffSchema(expected, observed, dialect.Postgres)
	require.NoError(t, err)

	var kinds []ChangeKind
	for _, c := range plan.Changes {
		kinds = append(kinds, c.Kind)
	}

	createIdx := indexOfKind(kinds, CreateTable)
	dropTableIdx := indexOfKind(kinds, DropTableK)
	dropColIdx := indexOfKind(kinds, DropColumnK)
	alterIdx := indexOfKind(kinds, AlterColumnK)
	addIdxIdx := indexOfKind(kinds, AddIndex)

	require.True(t, createIdx >= 0)
	require.True(t, dropTableIdx >= 0)
	require.True(t, dropColIdx >= 0)
	require.True(t, alterIdx >= 0)
	require.True(t, addIdxIdx >= 0)

	assert.Less(t, createIdx, dropTableIdx)
	assert.Less(t, dropTableIdx, dropColIdx)
	assert.Less(t, dropColIdx, alterIdx)
	assert.Less(t, alterIdx, addIdxIdx)
}

func indexOfKind(kinds []ChangeKind, k ChangeKind) int {
	for i, kk := range kinds {
		if kk == k {
			return i
		}
	}
	return -1
}

func TestDiffSchema_IndexChanges(t *testing.T) {
	expected := []TableDef{
		Table("users").
			Column("id", Int("id").PrimaryKey().Build()).
			Column("email", Varchar("email", 255).Build()).
			Index(Idx("users_email", true, "email")).
			Build(),
	}
	observed := DatabaseSchema{Tables: []DatabaseTable{{
		Name: "users",
		Columns: []DatabaseColumn{
			{Name: "id", Type: "INTEGER", Primary: true},
			{Name: "email", Type: "VARCHAR(255)"},
		},
		Indexes: []DatabaseIndex{{Name: "users_legacy_idx", Columns: []IndexColumn{{Column: "email"}}, Unique: false}},
	}}}

	plan, err := DiffSchema(expected, observed, dialect.Postgres)
	require.NoError(t, err)

	var adds, drops int
	for _, c := range plan.Changes {
		switch c.Kind {
		case AddIndex:
			adds++
		case DropIndexK:
			drops++
		}
	}
	assert.Equal(t, 1, adds)
	assert.Equal(t, 1, drops)
}
