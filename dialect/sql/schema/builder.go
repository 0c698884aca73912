package schema

import (
	"github.com/google/uuid"

	"github.com/sqlcraft/core/dialect"
)

// ColumnBuilder builds one ColumnDef via chained, owned-value calls: no
// call mutates a shared instance, each returns an updated copy, per the
// "owned, value-style builders" design note.
type ColumnBuilder struct{ def ColumnDef }

// Int starts an "int" column.
func Int(name string) ColumnBuilder { return ColumnBuilder{def: ColumnDef{Name: name, Type: "int"}} }

// BigInt starts a "bigint" column.
func BigInt(name string) ColumnBuilder {
	return ColumnBuilder{def: ColumnDef{Name: name, Type: "bigint"}}
}

// UUID starts a "uuid" column.
func UUID(name string) ColumnBuilder { return ColumnBuilder{def: ColumnDef{Name: name, Type: "uuid"}} }

// Bool starts a "boolean" column.
func Bool(name string) ColumnBuilder {
	return ColumnBuilder{def: ColumnDef{Name: name, Type: "boolean"}}
}

// JSON starts a "json" column.
func JSON(name string) ColumnBuilder { return ColumnBuilder{def: ColumnDef{Name: name, Type: "json"}} }

// Varchar starts a "varchar(n)" column.
func Varchar(name string, n int64) ColumnBuilder {
	return ColumnBuilder{def: ColumnDef{Name: name, Type: "varchar", Args: []any{n}}}
}

// Text starts a "text" column.
func Text(name string) ColumnBuilder { return ColumnBuilder{def: ColumnDef{Name: name, Type: "text"}} }

// Timestamp starts a "timestamp" column; withTZ selects the
// timestamp-with-timezone variant where the dialect distinguishes one.
func Timestamp(name string, withTZ bool) ColumnBuilder {
	args := []any{}
	if withTZ {
		args = append(args, "tz")
	}
	return ColumnBuilder{def: ColumnDef{Name: name, Type: "timestamp", Args: args}}
}

// Decimal starts a "decimal(p,s)" column.
func Decimal(name string, precision, scale int64) ColumnBuilder {
	return ColumnBuilder{def: ColumnDef{Name: name, Type: "decimal", Args: []any{precision, scale}}}
}

// Blob starts a "blob" column.
func Blob(name string) ColumnBuilder { return ColumnBuilder{def: ColumnDef{Name: name, Type: "blob"}} }

// Enum starts an "enum" column with the given allowed values.
func Enum(name string, values ...string) ColumnBuilder {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return ColumnBuilder{def: ColumnDef{Name: name, Type: "enum", Args: args}}
}

// Col starts a column with an arbitrary semantic type name and type
// arguments, for semantics not covered by the named constructors above.
func Col(name, typ string, args ...any) ColumnBuilder {
	return ColumnBuilder{def: ColumnDef{Name: name, Type: typ, Args: args}}
}

func (b ColumnBuilder) NotNull() ColumnBuilder {
	b.def.NotNull = true
	return b
}

func (b ColumnBuilder) PrimaryKey() ColumnBuilder {
	b.def.Primary = true
	b.def.NotNull = true
	return b
}

func (b ColumnBuilder) AutoIncrement() ColumnBuilder {
	b.def.AutoIncrement = true
	return b
}

func (b ColumnBuilder) Default(v any) ColumnBuilder {
	b.def.Default = v
	return b
}

// DefaultUUID sets the column's default to a single, freshly generated
// (v4) UUID literal. This is for stamping a fixed backfill value onto a
// new NOT NULL column (e.g. an AddColumn change migrating existing rows)
// rather than a per-row default — every row created before the default
// is later replaced shares this one value.
func (b ColumnBuilder) DefaultUUID() ColumnBuilder {
	b.def.Default = uuid.New().String()
	return b
}

func (b ColumnBuilder) Generated(g Generated) ColumnBuilder {
	b.def.Generated = g
	return b
}

func (b ColumnBuilder) DialectType(d dialect.Name, typ string) ColumnBuilder {
	if b.def.DialectTypes == nil {
		b.def.DialectTypes = make(map[dialect.Name]string)
	}
	b.def.DialectTypes[d] = typ
	return b
}

func (b ColumnBuilder) References(table, column string, onDelete, onUpdate ReferentialAction) ColumnBuilder {
	b.def.References = &Reference{Table: table, Column: column, OnDelete: onDelete, OnUpdate: onUpdate}
	return b
}

func (b ColumnBuilder) Comment(c string) ColumnBuilder {
	b.def.Comment = c
	return b
}

func (b ColumnBuilder) Collation(c string) ColumnBuilder {
	b.def.Collation = c
	return b
}

func (b ColumnBuilder) OnUpdate(v any) ColumnBuilder {
	b.def.OnUpdate = v
	return b
}

// Build finalizes the column definition.
func (b ColumnBuilder) Build() ColumnDef { return b.def }

// TableBuilder builds one TableDef via chained, owned-value calls.
type TableBuilder struct{ def TableDef }

// Table starts a table definition named name.
func Table(name string) TableBuilder {
	return TableBuilder{def: TableDef{Name: name, Columns: make(map[string]ColumnDef)}}
}

func (b TableBuilder) InSchema(schema string) TableBuilder {
	b.def.Schema = schema
	return b
}

// Column registers a column under key (its logical identifier). If
// col.Primary is set, key is also appended to the table's PrimaryKey.
func (b TableBuilder) Column(key string, col ColumnDef) TableBuilder {
	cols := make(map[string]ColumnDef, len(b.def.Columns)+1)
	for k, v := range b.def.Columns {
		cols[k] = v
	}
	cols[key] = col
	b.def.Columns = cols
	b.def.ColumnOrder = append(append([]string{}, b.def.ColumnOrder...), key)
	if col.Primary {
		found := false
		for _, k := range b.def.PrimaryKey {
			if k == key {
				found = true
				break
			}
		}
		if !found {
			b.def.PrimaryKey = append(append([]string{}, b.def.PrimaryKey...), key)
		}
	}
	return b
}

func (b TableBuilder) PrimaryKey(keys ...string) TableBuilder {
	b.def.PrimaryKey = keys
	return b
}

func (b TableBuilder) Index(idx IndexDef) TableBuilder {
	b.def.Indexes = append(append([]IndexDef{}, b.def.Indexes...), idx)
	return b
}

func (b TableBuilder) Engine(e string) TableBuilder {
	b.def.Engine = e
	return b
}

func (b TableBuilder) Charset(c string) TableBuilder {
	b.def.Charset = c
	return b
}

func (b TableBuilder) Collation(c string) TableBuilder {
	b.def.Collation = c
	return b
}

func (b TableBuilder) Comment(c string) TableBuilder {
	b.def.Comment = c
	return b
}

func (b TableBuilder) Relation(name string, rel RelationDef) TableBuilder {
	rels := make(map[string]RelationDef, len(b.def.Relations)+1)
	for k, v := range b.def.Relations {
		rels[k] = v
	}
	rels[name] = rel
	b.def.Relations = rels
	return b
}

// Build finalizes the table definition.
func (b TableBuilder) Build() TableDef { return b.def }

// Idx builds an IndexDef over the given column names, in ASC order.
func Idx(name string, unique bool, columns ...string) IndexDef {
	cols := make([]IndexColumn, len(columns))
	for i, c := range columns {
		cols[i] = IndexColumn{Column: c}
	}
	return IndexDef{Name: name, Columns: cols, Unique: unique}
}
