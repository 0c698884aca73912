// Package schema implements the schema model (§3.2), the DDL renderer
// (§4.4), the diff/sync engine (§4.5), and the introspectors (§4.6) of
// the core.
package schema

import "github.com/sqlcraft/core/dialect"

// Generated describes a GENERATED ALWAYS/BY DEFAULT column strategy
// (used for auto-increment and generated-expression columns).
type Generated string

const (
	GeneratedAlways    Generated = "ALWAYS"
	GeneratedByDefault Generated = "BY_DEFAULT"
)

// ReferentialAction is a normalized FK action, per §4.6's row
// normalization rule: unrecognized catalog values become "" rather than
// a guess.
type ReferentialAction string

const (
	NoAction   ReferentialAction = "NO ACTION"
	Restrict   ReferentialAction = "RESTRICT"
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	SetDefault ReferentialAction = "SET DEFAULT"
)

// Reference describes a column's FOREIGN KEY target.
type Reference struct {
	Table    string
	Column   string
	OnDelete ReferentialAction
	OnUpdate ReferentialAction
}

// ColumnDef is the desired, user-authored description of one column
// (§3.2). Args carries type parameters (e.g. varchar(255) -> Args:
// []any{255}; decimal(10,2) -> Args: []any{10, 2}).
type ColumnDef struct {
	Name          string
	Type          string
	Args          []any
	NotNull       bool
	Primary       bool
	AutoIncrement bool
	Default       any
	Generated     Generated
	DialectTypes  map[dialect.Name]string
	References    *Reference
	Comment       string
	Collation     string
	OnUpdate      any
}

// BoundColumn pairs a ColumnDef with the name of its owning table so it
// satisfies sql.ColumnDescriptor (ColumnDef alone does not know its
// owning table).
type BoundColumn struct {
	Table string
	Col   ColumnDef
}

func (b BoundColumn) TableName() string  { return b.Table }
func (b BoundColumn) ColumnName() string { return b.Col.Name }

// IndexColumn is one column participating in an index, with its own
// sort direction.
type IndexColumn struct {
	Column    string
	Direction string // "ASC"/"DESC", empty means dialect default
}

// IndexDef is the desired description of one index (§3.2).
type IndexDef struct {
	Name    string
	Columns []IndexColumn
	Unique  bool
	Where   string // partial index predicate; unsupported on MySQL
}

// TableDef is the desired, user-authored description of one table
// (§3.2). Columns is keyed by the column's logical identifier, which is
// also the identifier the AST layer uses to reference it; it usually
// (but need not) equal ColumnDef.Name.
type TableDef struct {
	Name       string
	Schema     string
	Columns    map[string]ColumnDef
	ColumnOrder []string // preserves declaration order for deterministic DDL
	PrimaryKey []string
	Indexes    []IndexDef
	Engine     string
	Charset    string
	Collation  string
	Comment    string
	Relations  map[string]RelationDef
}

// RelationDef describes a logical relation to another table, kept
// alongside the physical FK References on the owning column; it exists
// for higher-level (ORM-style) consumers and is not interpreted by the
// DDL renderer or diff engine.
type RelationDef struct {
	Table string
	Type  string // e.g. "has_many", "belongs_to", "has_one"
}

// Column returns the column registered under key, and whether it exists.
func (t TableDef) Column(key string) (ColumnDef, bool) {
	c, ok := t.Columns[key]
	return c, ok
}

// OrderedColumns returns the table's columns in declaration order, as
// recorded in ColumnOrder. When ColumnOrder is empty the order is that of
// map iteration and is not defined.
func (t TableDef) OrderedColumns() []ColumnDef {
	if len(t.ColumnOrder) == 0 {
		out := make([]ColumnDef, 0, len(t.Columns))
		for _, c := range t.Columns {
			out = append(out, c)
		}
		return out
	}
	out := make([]ColumnDef, 0, len(t.ColumnOrder))
	for _, key := range t.ColumnOrder {
		if c, ok := t.Columns[key]; ok {
			out = append(out, c)
		}
	}
	return out
}

// DatabaseColumn mirrors ColumnDef for an introspected column.
type DatabaseColumn struct {
	Name          string
	Type          string
	NotNull       bool
	Primary       bool
	AutoIncrement bool
	Default       any
	References    *Reference
	Comment       string
	Collation     string
}

// DatabaseIndex mirrors IndexDef for an introspected index.
type DatabaseIndex struct {
	Name    string
	Columns []IndexColumn
	Unique  bool
	Where   string
}

// DatabaseTable mirrors TableDef for an introspected table (§3.2).
type DatabaseTable struct {
	Name       string
	Schema     string
	Columns    []DatabaseColumn
	PrimaryKey []string
	Indexes    []DatabaseIndex
	Comment    string
}

// Column returns the column named name, and whether it exists.
func (t DatabaseTable) Column(name string) (DatabaseColumn, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return DatabaseColumn{}, false
}

// DatabaseView is an introspected view (read-only; the core does not
// diff or synchronize views).
type DatabaseView struct {
	Name       string
	Schema     string
	Definition string
}

// DatabaseSchema is the normalized result of introspection (§3.2).
type DatabaseSchema struct {
	Tables []DatabaseTable
	Views  []DatabaseView
}

// Table returns the table named name (optionally schema-qualified), and
// whether it exists.
func (s DatabaseSchema) Table(schemaName, name string) (DatabaseTable, bool) {
	for _, t := range s.Tables {
		if t.Name == name && t.Schema == schemaName {
			return t, true
		}
	}
	return DatabaseTable{}, false
}
