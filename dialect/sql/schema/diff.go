package schema

import (
	"fmt"
	"sort"

	"github.com/sqlcraft/core/dialect"
)

// ChangeKind discriminates one entry in a DiffPlan (§4.5).
type ChangeKind string

const (
	CreateTable ChangeKind = "createTable"
	DropTableK  ChangeKind = "dropTable"
	AddColumn   ChangeKind = "addColumn"
	DropColumnK ChangeKind = "dropColumn"
	AlterColumnK ChangeKind = "alterColumn"
	AddIndex    ChangeKind = "addIndex"
	DropIndexK  ChangeKind = "dropIndex"
)

// Change is one entry in a DiffPlan.
type Change struct {
	Kind       ChangeKind
	Table      string
	Column     string // set for column-level changes
	Index      string // set for index-level changes
	Statements []string
	Safe       bool
}

// DiffPlan is the ordered, safety-classified output of DiffSchema (§4.5).
type DiffPlan struct {
	Changes  []Change
	Warnings []string
}

// ColumnDiff records which column attributes differ between the
// observed and expected shape of one column (§4.5 step 2).
type ColumnDiff struct {
	TypeChanged          bool
	NullabilityChanged   bool
	DefaultChanged       bool
	AutoIncrementChanged bool
}

// Any reports whether any field of the diff is set.
func (d ColumnDiff) Any() bool {
	return d.TypeChanged || d.NullabilityChanged || d.DefaultChanged || d.AutoIncrementChanged
}

// diffColumn computes a ColumnDiff between an observed and a desired
// column shape, using the dialect-aware type equivalence predicate.
func diffColumn(d dialect.Name, observed DatabaseColumn, desired ColumnDef) (ColumnDiff, error) {
	desiredType, err := RenderColumnType(desired, d)
	if err != nil {
		return ColumnDiff{}, err
	}
	var diff ColumnDiff
	diff.TypeChanged = !TypesEquivalent(d, observed.Type, desiredType)
	// A primary-key column is NOT NULL even where the catalog does not
	// report it (SQLite's table_info gives notnull=0 for a rowid key).
	diff.NullabilityChanged = (observed.NotNull || observed.Primary) != desired.NotNull
	diff.AutoIncrementChanged = observed.AutoIncrement != desired.AutoIncrement
	diff.DefaultChanged = !defaultsEqual(observed.Default, desired.Default)
	return diff, nil
}

func defaultsEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// isWideningTypeChange reports whether a type transition is considered
// safe (widening) rather than destructive, per §4.5 step 2's "safe
// unless typeChanged with a non-widening transition" rule. Only a small
// set of well-known widenings are recognized; anything else is treated
// as potentially destructive.
func isWideningTypeChange(from, to string) bool {
	widenings := map[string][]string{
		"INT":      {"BIGINT"},
		"INTEGER":  {"BIGINT"},
		"SMALLINT": {"INT", "INTEGER", "BIGINT"},
		"REAL":     {"DOUBLE PRECISION", "FLOAT"},
	}
	for _, to2 := range widenings[from] {
		if to2 == to {
			return true
		}
	}
	return false
}

// indexColumnsEqual compares two index column lists by normalized
// (name, direction) pairs, ignoring order sensitivity beyond position
// (index column order is itself semantically meaningful, so position
// does matter).
func indexColumnsEqual(a, b []IndexColumn) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Column != b[i].Column || a[i].Direction != b[i].Direction {
			return false
		}
	}
	return true
}

func indexKey(idx IndexDef) string {
	if idx.Name != "" {
		return idx.Name
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = c.Column + ":" + c.Direction
	}
	sort.Strings(cols)
	key := ""
	for _, c := range cols {
		key += c + ","
	}
	return key
}

// DiffSchema computes the ordered, safety-classified plan to transform
// observed into expected, for the given dialect (§4.5).
func DiffSchema(expected []TableDef, observed DatabaseSchema, d dialect.Name) (DiffPlan, error) {
	observedByKey := make(map[string]DatabaseTable, len(observed.Tables))
	for _, t := range observed.Tables {
		observedByKey[schemaKey(t.Schema, t.Name)] = t
	}
	expectedByKey := make(map[string]TableDef, len(expected))
	for _, t := range expected {
		expectedByKey[schemaKey(t.Schema, t.Name)] = t
	}

	var (
		adds     []Change
		drops    []Change
		alters   []Change
		indexOps []Change
		warnings []string
	)

	for _, t := range expected {
		key := schemaKey(t.Schema, t.Name)
		obs, ok := observedByKey[key]
		if !ok {
			stmts, err := RenderCreateTable(t, d)
			if err != nil {
				return DiffPlan{}, err
			}
			adds = append(adds, Change{Kind: CreateTable, Table: t.Name, Statements: stmts, Safe: true})
			continue
		}

		colAdds, colDrops, colAlters, idxOps, warns, err := diffTable(t, obs, d)
		if err != nil {
			return DiffPlan{}, err
		}
		adds = append(adds, colAdds...)
		drops = append(drops, colDrops...)
		alters = append(alters, colAlters...)
		indexOps = append(indexOps, idxOps...)
		warnings = append(warnings, warns...)
	}

	var tableDrops []Change
	for _, obs := range observed.Tables {
		key := schemaKey(obs.Schema, obs.Name)
		if _, ok := expectedByKey[key]; ok {
			continue
		}
		stmt, err := RenderDropTable(TableDef{Name: obs.Name, Schema: obs.Schema}, d)
		if err != nil {
			return DiffPlan{}, err
		}
		tableDrops = append(tableDrops, Change{Kind: DropTableK, Table: obs.Name, Statements: []string{stmt}, Safe: false})
	}

	plan := DiffPlan{Warnings: warnings}
	// Ordering guarantee (§4.5): adds, then drops (whole tables before
	// single columns), then alters, then index changes.
	plan.Changes = append(plan.Changes, adds...)
	plan.Changes = append(plan.Changes, tableDrops...)
	plan.Changes = append(plan.Changes, drops...)
	plan.Changes = append(plan.Changes, alters...)
	plan.Changes = append(plan.Changes, indexOps...)
	return plan, nil
}

func schemaKey(schemaName, name string) string { return schemaName + "." + name }

func diffTable(expected TableDef, observed DatabaseTable, d dialect.Name) (adds, drops, alters, indexOps []Change, warnings []string, err error) {
	observedCols := make(map[string]DatabaseColumn, len(observed.Columns))
	for _, c := range observed.Columns {
		observedCols[c.Name] = c
	}
	expectedCols := make(map[string]ColumnDef, len(expected.Columns))
	for _, c := range expected.Columns {
		expectedCols[c.Name] = c
	}

	for _, c := range expected.OrderedColumns() {
		obs, ok := observedCols[c.Name]
		if !ok {
			stmt, err := RenderAddColumn(expected.Name, c, d)
			if err != nil {
				return nil, nil, nil, nil, nil, err
			}
			adds = append(adds, Change{Kind: AddColumn, Table: expected.Name, Column: c.Name, Statements: []string{stmt}, Safe: true})
			continue
		}
		cdiff, err := diffColumn(d, obs, c)
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		if !cdiff.Any() {
			continue
		}
		if d == dialect.SQLite {
			stmts, warn, err := RenderAlterColumn(expected.Name, obs, c, cdiff, d)
			if err != nil {
				return nil, nil, nil, nil, nil, err
			}
			_ = stmts
			warnings = append(warnings, warn)
			continue
		}
		stmts, warn, err := RenderAlterColumn(expected.Name, obs, c, cdiff, d)
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		if warn != "" {
			warnings = append(warnings, warn)
		}
		safe := true
		if cdiff.TypeChanged {
			renderedDesired, _ := RenderColumnType(c, d)
			safe = isWideningTypeChange(normalizeTypeName(d, obs.Type), normalizeTypeName(d, renderedDesired))
		}
		alters = append(alters, Change{Kind: AlterColumnK, Table: expected.Name, Column: c.Name, Statements: stmts, Safe: safe})
	}

	for _, obs := range observed.Columns {
		if _, ok := expectedCols[obs.Name]; ok {
			continue
		}
		stmt, err := RenderDropColumn(expected.Name, obs.Name, d)
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		drops = append(drops, Change{Kind: DropColumnK, Table: expected.Name, Column: obs.Name, Statements: []string{stmt}, Safe: false})
	}

	idxOps, err := diffIndexes(expected, observed, d)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	indexOps = append(indexOps, idxOps...)
	return adds, drops, alters, indexOps, warnings, nil
}

func diffIndexes(expected TableDef, observed DatabaseTable, d dialect.Name) ([]Change, error) {
	observedByKey := make(map[string]DatabaseIndex, len(observed.Indexes))
	for _, idx := range observed.Indexes {
		observedByKey[indexKey(IndexDef{Name: idx.Name, Columns: idx.Columns})] = idx
	}
	var changes []Change
	seen := make(map[string]bool, len(expected.Indexes))
	for _, idx := range expected.Indexes {
		key := indexKey(idx)
		seen[key] = true
		obs, ok := observedByKey[key]
		matches := ok && indexColumnsEqual(obs.Columns, idx.Columns) && obs.Unique == idx.Unique
		if matches {
			continue
		}
		if ok {
			stmt, err := RenderDropIndex(expected.Name, obs.Name, d)
			if err != nil {
				return nil, err
			}
			changes = append(changes, Change{Kind: DropIndexK, Table: expected.Name, Index: obs.Name, Statements: []string{stmt}, Safe: false})
		}
		stmt, err := RenderCreateIndex(expected, idx, d)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Change{Kind: AddIndex, Table: expected.Name, Index: idx.Name, Statements: []string{stmt}, Safe: true})
	}
	for key, obs := range observedByKey {
		if seen[key] {
			continue
		}
		stmt, err := RenderDropIndex(expected.Name, obs.Name, d)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Change{Kind: DropIndexK, Table: expected.Name, Index: obs.Name, Statements: []string{stmt}, Safe: false})
	}
	return changes, nil
}
