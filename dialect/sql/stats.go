package sql

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sqlcraft/core/dialect"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	TotalQueries  atomic.Int64
	TotalDuration atomic.Int64 // nanoseconds
	SlowQueries   atomic.Int64
	Errors        atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	if s.TotalQueries == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.TotalQueries)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalDuration, s.AvgQueryDuration(), s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is called when a statement exceeds the slow threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver wraps a *Driver with query statistics collection and,
// optionally, slow-query logging via logrus.
type StatsDriver struct {
	*Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) { s.slowThreshold = d }
}

// WithSlowQueryHook sets a callback invoked whenever a statement exceeds
// the slow threshold.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) { s.slowHook = hook }
}

// WithSlowQueryLog logs slow queries through logrus's standard logger.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, args []any, duration time.Duration) {
		logrus.WithFields(logrus.Fields{
			"duration": duration,
			"query":    query,
			"args":     args,
		}).Warn("slow query detected")
	})
}

// NewStatsDriver wraps drv with statistics collection.
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &QueryStats{}, slowThreshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats { return d.stats }

// SlowThreshold returns the current slow-query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow-query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// ExecuteSQL runs the statement and records statistics.
func (d *StatsDriver) ExecuteSQL(ctx context.Context, query string, args []any) (dialect.QueryResult, error) {
	start := time.Now()
	res, err := d.Driver.ExecuteSQL(ctx, query, args)
	d.record(ctx, query, args, start, err)
	return res, err
}

func (d *StatsDriver) record(ctx context.Context, query string, args []any, start time.Time, err error) {
	duration := time.Since(start)
	d.stats.TotalQueries.Add(1)
	d.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, args, duration)
		}
	}
}

// BeginTx starts a transaction that also records statistics.
func (d *StatsDriver) BeginTx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{tx: tx, driver: d}, nil
}

// StatsTx wraps a dialect.Tx with statistics collection.
type StatsTx struct {
	tx     dialect.Tx
	driver *StatsDriver
}

// ExecuteSQL runs the statement within the transaction and records statistics.
func (t *StatsTx) ExecuteSQL(ctx context.Context, query string, args []any) (dialect.QueryResult, error) {
	start := time.Now()
	res, err := t.tx.ExecuteSQL(ctx, query, args)
	t.driver.record(ctx, query, args, start, err)
	return res, err
}

// Commit implements dialect.Tx.
func (t *StatsTx) Commit() error { return t.tx.Commit() }

// Rollback implements dialect.Tx.
func (t *StatsTx) Rollback() error { return t.tx.Rollback() }

// DebugDriver wraps a *Driver with logrus debug logging of every statement.
type DebugDriver struct {
	*Driver
	log *logrus.Logger
}

// NewDebugDriver wraps drv so every statement is logged at debug level.
func NewDebugDriver(drv *Driver, log *logrus.Logger) *DebugDriver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DebugDriver{Driver: drv, log: log}
}

// ExecuteSQL logs the statement, then runs it.
func (d *DebugDriver) ExecuteSQL(ctx context.Context, query string, args []any) (dialect.QueryResult, error) {
	d.log.WithField("args", args).Debug(query)
	return d.Driver.ExecuteSQL(ctx, query, args)
}

// BeginTx starts a transaction with debug logging.
func (d *DebugDriver) BeginTx(ctx context.Context) (dialect.Tx, error) {
	d.log.Debug("begin transaction")
	tx, err := d.Driver.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{tx: tx, log: d.log}, nil
}

// DebugTx wraps a dialect.Tx with logrus debug logging.
type DebugTx struct {
	tx  dialect.Tx
	log *logrus.Logger
}

// ExecuteSQL logs the statement, then runs it within the transaction.
func (t *DebugTx) ExecuteSQL(ctx context.Context, query string, args []any) (dialect.QueryResult, error) {
	t.log.WithField("args", args).Debug(query)
	return t.tx.ExecuteSQL(ctx, query, args)
}

// Commit commits the transaction and logs it.
func (t *DebugTx) Commit() error {
	t.log.Debug("commit transaction")
	return t.tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (t *DebugTx) Rollback() error {
	t.log.Debug("rollback transaction")
	return t.tx.Rollback()
}

var (
	_ dialect.Executor = (*StatsDriver)(nil)
	_ dialect.Tx       = (*StatsTx)(nil)
	_ dialect.Executor = (*DebugDriver)(nil)
	_ dialect.Tx       = (*DebugTx)(nil)
)
