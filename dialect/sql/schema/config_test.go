package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcraft/core/dialect"
)

const sampleConfigYAML = `
dialect: postgres
schema: public
tables:
  - name: users
    engine: InnoDB
    columns:
      - name: id
        type: bigint
        primary: true
        autoIncrement: true
      - name: email
        type: varchar
        args: [255]
        notNull: true
      - name: author_id
        type: int
        references:
          table: authors
          column: id
          onDelete: CASCADE
          onUpdate: NO ACTION
    primaryKey: [id]
    indexes:
      - name: users_email
        columns: [email]
        unique: true
sync:
  dryRun: true
  allowDestructive: false
  inTransaction: true
  strict: true
`

func TestLoadConfig_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfigYAML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, cfg.Dialect)
	assert.Equal(t, "public", cfg.Schema)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "users", cfg.Tables[0].Name)
	require.Len(t, cfg.Tables[0].Columns, 3)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/schema.yaml")
	require.Error(t, err)
}

func TestConfig_ToTableDefs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfigYAML), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	defs := cfg.ToTableDefs()
	require.Len(t, defs, 1)
	tbl := defs[0]
	assert.Equal(t, "users", tbl.Name)
	assert.Equal(t, "public", tbl.Schema)
	assert.Equal(t, []string{"id"}, tbl.PrimaryKey)
	assert.Equal(t, "InnoDB", tbl.Engine)

	idCol, ok := tbl.Column("id")
	require.True(t, ok)
	assert.True(t, idCol.Primary)
	assert.True(t, idCol.AutoIncrement)

	emailCol, ok := tbl.Column("email")
	require.True(t, ok)
	assert.True(t, emailCol.NotNull)
	assert.Equal(t, []any{255}, emailCol.Args)

	authorCol, ok := tbl.Column("author_id")
	require.True(t, ok)
	require.NotNil(t, authorCol.References)
	assert.Equal(t, "authors", authorCol.References.Table)
	assert.Equal(t, Cascade, authorCol.References.OnDelete)
	assert.Equal(t, NoAction, authorCol.References.OnUpdate)

	require.Len(t, tbl.Indexes, 1)
	assert.Equal(t, "users_email", tbl.Indexes[0].Name)
	assert.True(t, tbl.Indexes[0].Unique)
}

func TestConfig_ToSyncOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfigYAML), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	opts := cfg.ToSyncOptions()
	assert.True(t, opts.DryRun)
	assert.False(t, opts.AllowDestructive)
	assert.True(t, opts.InTransaction)
	assert.True(t, opts.Strict)
}
