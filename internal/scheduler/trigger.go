// Package scheduler fires scheduler runs on a cron expression.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec fires once a day at 06:00 in the configured zone.
const DefaultSpec = "0 6 * * *"

// ErrNotStarted is returned by Next before Start.
var ErrNotStarted = errors.New("scheduler: trigger not started")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec validates a five field cron expression or descriptor such as "@daily".
func ParseSpec(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	return schedule, nil
}

// Job is invoked on every fire.
type Job func(ctx context.Context) error

// Config describes when the job fires.
type Config struct {
	Spec     string
	Location *time.Location
	// Timeout bounds each invocation; zero means no deadline.
	Timeout time.Duration
}

// Trigger runs a Job on a cron schedule. A fire that arrives while the previous
// invocation is still running is skipped.
type Trigger struct {
	cfg    Config
	job    Job
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	baseCtx context.Context

	running atomic.Bool
	fired   atomic.Int64
	skipped atomic.Int64
}

// New validates cfg.Spec and prepares a trigger. It does not start firing.
func New(cfg Config, job Job, logger *slog.Logger) (*Trigger, error) {
	if job == nil {
		return nil, errors.New("scheduler: job is required")
	}
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if _, err := ParseSpec(cfg.Spec); err != nil {
		return nil, err
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{cfg: cfg, job: job, logger: logger.With("component", "cron_trigger")}, nil
}

// Start begins firing. Jobs derive their context from ctx.
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cron != nil {
		return nil
	}

	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(t.cfg.Location),
		cron.WithChain(cron.Recover(cronLogger{t.logger})),
	)
	if _, err := c.AddFunc(t.cfg.Spec, func() { t.Fire() }); err != nil {
		return fmt.Errorf("scheduler: add job: %w", err)
	}

	t.baseCtx = ctx
	t.cron = c
	c.Start()
	t.logger.Info("cron trigger started", "spec", t.cfg.Spec, "tz", t.cfg.Location.String())
	return nil
}

// Stop stops firing and waits for a running job until ctx is done.
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	c := t.cron
	t.cron = nil
	t.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		t.logger.Info("cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next scheduled fire time.
func (t *Trigger) Next() (time.Time, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cron == nil {
		return time.Time{}, ErrNotStarted
	}
	entries := t.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, ErrNotStarted
	}
	return entries[0].Next, nil
}

// Fire runs the job once unless an invocation is already in flight. It
// reports whether the job ran.
func (t *Trigger) Fire() bool {
	if !t.running.CompareAndSwap(false, true) {
		t.skipped.Add(1)
		t.logger.Warn("previous run still in progress, skipping fire")
		return false
	}
	defer t.running.Store(false)
	t.fired.Add(1)

	t.mu.Lock()
	ctx := t.baseCtx
	t.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	if err := t.job(ctx); err != nil {
		t.logger.Error("scheduled run failed", "error", err, "duration", time.Since(started))
		return true
	}
	t.logger.Info("scheduled run completed", "duration", time.Since(started))
	return true
}

// Stats returns how many fires ran and how many were skipped.
func (t *Trigger) Stats() (fired, skipped int64) {
	return t.fired.Load(), t.skipped.Load()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
