package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sqlcraft/core/dialect"
)

// Config is the on-disk, YAML-loadable description of a database's
// desired schema, one entry per table, plus the dialect it targets and
// the sync defaults to apply when no SyncOptions are given explicitly.
type Config struct {
	Dialect dialect.Name  `yaml:"dialect"`
	Schema  string        `yaml:"schema"`
	Tables  []TableConfig `yaml:"tables"`
	Sync    SyncConfig    `yaml:"sync"`
}

// TableConfig is the YAML shape of one TableDef.
type TableConfig struct {
	Name       string          `yaml:"name"`
	Columns    []ColumnConfig  `yaml:"columns"`
	PrimaryKey []string        `yaml:"primaryKey"`
	Indexes    []IndexConfig   `yaml:"indexes"`
	Engine     string          `yaml:"engine"`
	Charset    string          `yaml:"charset"`
	Collation  string          `yaml:"collation"`
	Comment    string          `yaml:"comment"`
}

// ColumnConfig is the YAML shape of one ColumnDef.
type ColumnConfig struct {
	Name          string   `yaml:"name"`
	Type          string   `yaml:"type"`
	Args          []any    `yaml:"args"`
	NotNull       bool     `yaml:"notNull"`
	Primary       bool     `yaml:"primary"`
	AutoIncrement bool     `yaml:"autoIncrement"`
	Default       any      `yaml:"default"`
	Comment       string   `yaml:"comment"`
	Collation     string   `yaml:"collation"`
	References    *RefConfig `yaml:"references"`
}

// RefConfig is the YAML shape of a Reference.
type RefConfig struct {
	Table    string `yaml:"table"`
	Column   string `yaml:"column"`
	OnDelete string `yaml:"onDelete"`
	OnUpdate string `yaml:"onUpdate"`
}

// IndexConfig is the YAML shape of one IndexDef.
type IndexConfig struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
	Where   string   `yaml:"where"`
}

// SyncConfig is the YAML shape of SyncOptions.
type SyncConfig struct {
	DryRun           bool `yaml:"dryRun"`
	AllowDestructive bool `yaml:"allowDestructive"`
	InTransaction    bool `yaml:"inTransaction"`
	Strict           bool `yaml:"strict"`
}

// LoadConfig reads and parses a YAML schema config file from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read config %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("schema: parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// ToTableDefs converts the config's table entries into TableDefs.
func (c *Config) ToTableDefs() []TableDef {
	out := make([]TableDef, len(c.Tables))
	for i, tc := range c.Tables {
		b := Table(tc.Name).InSchema(c.Schema).
			PrimaryKey(tc.PrimaryKey...).
			Engine(tc.Engine).Charset(tc.Charset).Collation(tc.Collation).Comment(tc.Comment)
		for _, cc := range tc.Columns {
			col := Col(cc.Name, cc.Type, cc.Args...)
			if cc.NotNull {
				col = col.NotNull()
			}
			if cc.Primary {
				col = col.PrimaryKey()
			}
			if cc.AutoIncrement {
				col = col.AutoIncrement()
			}
			if cc.Default != nil {
				col = col.Default(cc.Default)
			}
			if cc.Comment != "" {
				col = col.Comment(cc.Comment)
			}
			if cc.Collation != "" {
				col = col.Collation(cc.Collation)
			}
			if cc.References != nil {
				col = col.References(cc.References.Table, cc.References.Column,
					ReferentialAction(cc.References.OnDelete), ReferentialAction(cc.References.OnUpdate))
			}
			b = b.Column(cc.Name, col.Build())
		}
		for _, ic := range tc.Indexes {
			b = b.Index(Idx(ic.Name, ic.Unique, ic.Columns...))
		}
		out[i] = b.Build()
	}
	return out
}

// ToSyncOptions converts the config's sync defaults into SyncOptions.
func (c *Config) ToSyncOptions() SyncOptions {
	return SyncOptions{
		DryRun:           c.Sync.DryRun,
		AllowDestructive: c.Sync.AllowDestructive,
		InTransaction:    c.Sync.InTransaction,
		Strict:           c.Sync.Strict,
	}
}
