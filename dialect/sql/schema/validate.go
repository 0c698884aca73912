package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowDropIndex     bool
	allowNullToNotNull bool
}

// AllowDropColumn allows dropping columns without error.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) { c.allowDropColumn = true }
}

// AllowDropTable allows dropping tables without error.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) { c.allowDropTable = true }
}

// AllowDropIndex allows dropping indexes without error.
func AllowDropIndex() ValidateOption {
	return func(c *validateConfig) { c.allowDropIndex = true }
}

// AllowNullToNotNull allows changing nullable columns to not null.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) { c.allowNullToNotNull = true }
}

// ValidateDiff validates the difference between the observed and desired
// schema. It returns validation errors for breaking changes and warnings
// for potentially dangerous operations — a pre-flight check independent
// of DiffSchema's own Safe classification, meant for callers that want to
// fail fast before ever computing or applying a DiffPlan.
//
// Example:
//
//	result := schema.ValidateDiff(observed, desired)
//	if result.HasBreakingChanges() {
//	    log.Fatal("breaking changes detected: ", result)
//	}
func ValidateDiff(observed []DatabaseTable, desired []TableDef, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	result := &ValidationResult{}
	observedMap := make(map[string]DatabaseTable, len(observed))
	for _, t := range observed {
		observedMap[t.Name] = t
	}
	desiredMap := make(map[string]TableDef, len(desired))
	for _, t := range desired {
		desiredMap[t.Name] = t
	}

	for name := range observedMap {
		if _, ok := desiredMap[name]; !ok {
			err := &ValidationError{Table: name, Message: "table will be dropped", Breaking: true}
			if cfg.allowDropTable {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
	}

	for name, des := range desiredMap {
		obs, exists := observedMap[name]
		if !exists {
			continue
		}
		validateTableDiff(obs, des, cfg, result)
	}

	return result
}

func validateTableDiff(observed DatabaseTable, desired TableDef, cfg *validateConfig, result *ValidationResult) {
	observedCols := make(map[string]DatabaseColumn, len(observed.Columns))
	for _, c := range observed.Columns {
		observedCols[c.Name] = c
	}

	for name := range observedCols {
		if _, ok := desired.Column(name); ok {
			continue
		}
		found := false
		for _, c := range desired.Columns {
			if c.Name == name {
				found = true
				break
			}
		}
		if found {
			continue
		}
		err := &ValidationError{Table: observed.Name, Column: name, Message: "column will be dropped", Breaking: true}
		if cfg.allowDropColumn {
			result.Warnings = append(result.Warnings, err)
		} else {
			result.Errors = append(result.Errors, err)
		}
	}

	for _, desiredCol := range desired.OrderedColumns() {
		observedCol, exists := observedCols[desiredCol.Name]
		if !exists {
			if desiredCol.NotNull && desiredCol.Default == nil {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   desired.Name,
					Column:  desiredCol.Name,
					Message: "new NOT NULL column without default value may fail if table has data",
				})
			}
			continue
		}

		if observedCol.Type != "" && observedCol.Type != desiredCol.Type {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   desired.Name,
				Column:  desiredCol.Name,
				Message: fmt.Sprintf("column type changing from %v to %v", observedCol.Type, desiredCol.Type),
			})
		}

		if !observedCol.NotNull && desiredCol.NotNull {
			err := &ValidationError{
				Table:    desired.Name,
				Column:   desiredCol.Name,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			}
			if cfg.allowNullToNotNull {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
	}

	observedIdxs := make(map[string]DatabaseIndex, len(observed.Indexes))
	for _, idx := range observed.Indexes {
		observedIdxs[idx.Name] = idx
	}
	for name := range observedIdxs {
		found := false
		for _, idx := range desired.Indexes {
			if idx.Name == name {
				found = true
				break
			}
		}
		if !found {
			err := &ValidationError{Table: desired.Name, Message: fmt.Sprintf("index %q will be dropped", name)}
			if cfg.allowDropIndex {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
	}
}

// ValidateTable validates a single table definition in isolation (no
// regard for any observed counterpart).
func ValidateTable(t TableDef) *ValidationResult {
	result := &ValidationResult{}

	if len(t.PrimaryKey) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}

	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true
	}

	idxNames := make(map[string]bool)
	for _, idx := range t.Indexes {
		if idx.Name != "" {
			if idxNames[idx.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("duplicate index name: %s", idx.Name),
				})
			}
			idxNames[idx.Name] = true
		}

		for _, col := range idx.Columns {
			if !colNames[col.Column] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("index %q references non-existent column %q", idx.Name, col.Column),
				})
			}
		}
	}

	for _, c := range t.Columns {
		if c.References == nil {
			continue
		}
		if c.References.Table == "" {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "foreign key has no referenced table",
			})
		}
	}

	return result
}

// ValidateSchema validates all tables in a schema, including cross-table
// foreign key references.
func ValidateSchema(tables []TableDef) *ValidationResult {
	result := &ValidationResult{}

	tableNames := make(map[string]bool, len(tables))
	for _, t := range tables {
		if tableNames[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		tableNames[t.Name] = true

		tableResult := ValidateTable(t)
		result.Errors = append(result.Errors, tableResult.Errors...)
		result.Warnings = append(result.Warnings, tableResult.Warnings...)
	}

	for _, t := range tables {
		for _, c := range t.Columns {
			if c.References == nil {
				continue
			}
			if !tableNames[c.References.Table] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Column:  c.Name,
					Message: fmt.Sprintf("foreign key references non-existent table %q", c.References.Table),
				})
			}
		}
	}

	return result
}
