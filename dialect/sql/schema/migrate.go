package schema

import (
	"context"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/sqltool"
)

// Atlas exports a DiffPlan as a versioned migration file using
// ariga.io/atlas's migration-directory tooling, so the DiffPlan this
// package already computes can be handed to whichever migration runner
// the caller's project uses (golang-migrate, goose, dbmate, Flyway,
// Liquibase) without this package depending on any of them directly.
//
// Atlas only formats and writes files; it never computes a diff itself —
// DiffSchema/Synchronize remain the sole diff/apply engine.
type Atlas struct {
	dir migrate.Dir
	fmt migrate.Formatter
}

// MigrateOption configures an Atlas exporter.
type MigrateOption func(*Atlas)

// WithDir sets the migration directory implementation files are written
// to. When unset, NewAtlas uses a plain migrate.LocalDir on the current
// working directory, which gets golang-migrate's file format.
func WithDir(dir migrate.Dir) MigrateOption {
	return func(a *Atlas) { a.dir = dir }
}

// WithFormatter overrides the file formatter used to render a plan. When
// unset, the formatter is inferred from the concrete Dir implementation
// (golang-migrate/goose/dbmate/Flyway/Liquibase), falling back to
// golang-migrate's format for an unrecognized Dir.
func WithFormatter(f migrate.Formatter) MigrateOption {
	return func(a *Atlas) { a.fmt = f }
}

// NewAtlas constructs an Atlas exporter over dir, inferring a matching
// Formatter unless overridden by WithFormatter.
func NewAtlas(opts ...MigrateOption) (*Atlas, error) {
	a := &Atlas{}
	for _, opt := range opts {
		opt(a)
	}
	if a.dir == nil {
		dir, err := migrate.NewLocalDir(".")
		if err != nil {
			return nil, fmt.Errorf("schema: default migration dir: %w", err)
		}
		a.dir = dir
	}
	if a.fmt == nil {
		a.fmt = inferFormatter(a.dir)
	}
	return a, nil
}

func inferFormatter(dir migrate.Dir) migrate.Formatter {
	switch dir.(type) {
	case *sqltool.GolangMigrateDir:
		return sqltool.GolangMigrateFormatter
	case *sqltool.GooseDir:
		return sqltool.GooseFormatter
	case *sqltool.DBMateDir:
		return sqltool.DBMateFormatter
	case *sqltool.FlywayDir:
		return sqltool.FlywayFormatter
	case *sqltool.LiquibaseDir:
		return sqltool.LiquibaseFormatter
	default:
		return sqltool.GolangMigrateFormatter
	}
}

// WriteMigrationDir renders plan as one named migration and writes it to
// the configured directory via the configured Formatter.
func (a *Atlas) WriteMigrationDir(_ context.Context, name string, plan DiffPlan) error {
	mp := toAtlasPlan(name, plan)
	files, err := a.fmt.Format(mp)
	if err != nil {
		return fmt.Errorf("schema: format migration %q: %w", name, err)
	}
	for _, f := range files {
		b, err := f.Bytes()
		if err != nil {
			return fmt.Errorf("schema: render migration file %q: %w", f.Name(), err)
		}
		if err := a.dir.WriteFile(f.Name(), b); err != nil {
			return fmt.Errorf("schema: write migration file %q: %w", f.Name(), err)
		}
	}
	return nil
}

// toAtlasPlan converts our dialect-agnostic DiffPlan into an atlas
// migrate.Plan, one migrate.Change per rendered statement. Reverse
// statements are not populated: this package's Change does not carry a
// reverse rendering (§4.5's plan is forward-only), so plans exported this
// way are not reversible by atlas's own bookkeeping.
func toAtlasPlan(name string, plan DiffPlan) *migrate.Plan {
	mp := &migrate.Plan{Name: name, Transactional: true}
	for _, c := range plan.Changes {
		for _, stmt := range c.Statements {
			mp.Changes = append(mp.Changes, &migrate.Change{
				Cmd:     stmt,
				Comment: string(c.Kind) + " " + changeTarget(c),
			})
		}
	}
	return mp
}
