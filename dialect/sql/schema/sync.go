package schema

import (
	"context"
	"fmt"

	"github.com/sqlcraft/core/dialect"
)

// SyncOptions controls how Synchronize applies a DiffPlan (§4.5's
// "synchronize" operation).
type SyncOptions struct {
	// DryRun, when true, never calls executor.ExecuteSQL; Synchronize
	// returns the changes it would apply, after the same unsafe-change
	// skipping (or Strict abort) as a real run (L2).
	DryRun bool
	// AllowDestructive permits unsafe changes (Change.Safe == false) to be
	// applied. When false, unsafe changes are skipped and recorded as
	// warnings instead.
	AllowDestructive bool
	// InTransaction wraps every applied statement in a single transaction
	// when the executor's capabilities allow it; otherwise statements run
	// individually and a failure leaves prior statements applied.
	InTransaction bool
	// Strict, when true, turns a skipped unsafe change into a DiffAborted
	// error instead of a warning.
	Strict bool
}

// Synchronize applies plan's changes via executor, honoring opts. It
// returns the plan actually applied (with any skipped changes removed
// and skip reasons appended to Warnings), or a *dialect.Error of Kind
// SyncFailed/DiffAborted on failure.
func Synchronize(ctx context.Context, executor dialect.Executor, plan DiffPlan, opts SyncOptions) (*DiffPlan, error) {
	applied := DiffPlan{Warnings: append([]string{}, plan.Warnings...)}

	var toApply []Change
	for _, c := range plan.Changes {
		if !c.Safe && !opts.AllowDestructive {
			msg := fmt.Sprintf("skipped unsafe change %s on %s (allowDestructive=false)", c.Kind, changeTarget(c))
			if opts.Strict {
				return nil, dialect.NewError(dialect.DiffAborted, "Synchronize", fmt.Errorf("%s", msg))
			}
			applied.Warnings = append(applied.Warnings, msg)
			continue
		}
		toApply = append(toApply, c)
	}

	if opts.DryRun {
		applied.Changes = toApply
		return &applied, nil
	}

	useTx := opts.InTransaction && executor.Capabilities().Transactions
	if useTx {
		return synchronizeInTx(ctx, executor, toApply, applied)
	}
	return synchronizeDirect(ctx, executor, toApply, applied)
}

func synchronizeDirect(ctx context.Context, executor dialect.Executor, changes []Change, applied DiffPlan) (*DiffPlan, error) {
	for i, c := range changes {
		for _, stmt := range c.Statements {
			if _, err := executor.ExecuteSQL(ctx, stmt, nil); err != nil {
				syncErr := dialect.NewError(dialect.SyncFailed, "Synchronize", err)
				syncErr.ChangeIndex = i
				syncErr.RollbackApplies = false
				return nil, syncErr
			}
		}
		applied.Changes = append(applied.Changes, c)
	}
	return &applied, nil
}

func synchronizeInTx(ctx context.Context, executor dialect.Executor, changes []Change, applied DiffPlan) (*DiffPlan, error) {
	tx, err := executor.BeginTx(ctx)
	if err != nil {
		return nil, dialect.NewError(dialect.SyncFailed, "Synchronize", fmt.Errorf("begin transaction: %w", err))
	}
	for i, c := range changes {
		for _, stmt := range c.Statements {
			if _, err := tx.ExecuteSQL(ctx, stmt, nil); err != nil {
				syncErr := dialect.NewError(dialect.SyncFailed, "Synchronize", err)
				syncErr.ChangeIndex = i
				syncErr.RollbackApplies = true
				syncErr.RollbackOK = tx.Rollback() == nil
				return nil, syncErr
			}
		}
		applied.Changes = append(applied.Changes, c)
	}
	if err := tx.Commit(); err != nil {
		syncErr := dialect.NewError(dialect.SyncFailed, "Synchronize", fmt.Errorf("commit: %w", err))
		syncErr.ChangeIndex = len(changes) - 1
		syncErr.RollbackApplies = false
		return nil, syncErr
	}
	return &applied, nil
}

func changeTarget(c Change) string {
	switch {
	case c.Column != "":
		return c.Table + "." + c.Column
	case c.Index != "":
		return c.Table + " (index " + c.Index + ")"
	default:
		return c.Table
	}
}
