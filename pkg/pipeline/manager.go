package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager builds the copies of every configured step and drives rows from a
// Source through them.
type Manager struct {
	logger *zap.Logger
	// newBackOff returns the retry policy for temporary Initialize failures
	newBackOff func() backoff.BackOff
	// bufferSize is the capacity of each copy's row channel
	bufferSize int
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used by the manager and handed to each step.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithBackOff overrides the retry policy used when a step fails to initialize
// with a temporary error.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(m *Manager) {
		m.newBackOff = f
	}
}

// WithBufferSize sets the per-copy row channel capacity.
func WithBufferSize(n int) Option {
	return func(m *Manager) {
		m.bufferSize = n
	}
}

// NewManager returns a new Manager instance.
func NewManager(opts ...Option) *Manager {
	logger, _ := zap.NewProduction()

	m := &Manager{
		logger:     logger,
		bufferSize: 100,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = 10 * time.Second
			return backoff.WithMaxRetries(b, 3)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Stats summarizes a finished run.
type Stats struct {
	Read      int64
	Published int64
	Failed    int64
	// Dropped counts row deliveries abandoned when the run stopped early:
	// rows still buffered for a copy or never handed to it.
	Dropped int64
}

// RowError is a failure to publish one row, identified by its position in
// the source stream.
type RowError struct {
	Step  string
	Copy  int
	Index int64
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("step %s.%d: row %d: %v", e.Step, e.Copy, e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// NewStep creates and configures a step from its configuration.
func (m *Manager) NewStep(sc StepConfig) (Step, error) {
	factory, err := LookupStep(sc.Type)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", sc.Name, err)
	}

	step := factory(sc.Name, m.logger.Named(sc.Name))
	if err := step.Configure(sc.Config); err != nil {
		return nil, fmt.Errorf("failed to configure step %s: %w", sc.Name, err)
	}
	return step, nil
}

// Check validates every step of the pipeline. prev is the schema of the
// source if already known, or nil.
func (m *Manager) Check(cfg *Config, prev row.Schema) []Diagnostic {
	var diags []Diagnostic
	for _, sc := range cfg.Steps {
		if _, err := sc.policy(); err != nil {
			diags = append(diags, Errorf(sc.Name, "%v", err))
		}
		step, err := m.NewStep(sc)
		if err != nil {
			diags = append(diags, Errorf(sc.Name, "%v", err))
			continue
		}
		diags = append(diags, step.Check(prev)...)
	}
	return diags
}

// stepCopy is one running instance of a configured step.
type stepCopy struct {
	cfg    StepConfig
	policy RowErrorPolicy
	nr     int
	step   Step
	rows   chan indexedRow
	logger *zap.Logger
}

type indexedRow struct {
	index int64
	row   row.Row
}

// Run initializes all step copies against the source schema, then reads the
// source until io.EOF, ctx cancellation or a fatal row error. Every copy is
// closed (and thereby flushed) before Run returns.
func (m *Manager) Run(ctx context.Context, cfg *Config, src Source) (Stats, error) {
	var stats Stats
	runID := uuid.NewString()
	logger := m.logger.With(zap.String("pipeline", cfg.Name), zap.String("run", runID))

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	schema := src.Schema()
	logger.Info("Initializing pipeline",
		zap.Int("stepCount", len(cfg.Steps)),
		zap.Strings("fields", schema.Names()))

	var copies []*stepCopy
	groups := make([][]*stepCopy, 0, len(cfg.Steps))
	defer func() {
		for _, c := range copies {
			if err := c.step.Close(); err != nil {
				c.logger.Error("Failed to close step", zap.Error(err))
			}
		}
	}()

	for _, sc := range cfg.Steps {
		policy, err := sc.policy()
		if err != nil {
			return stats, err
		}
		group := make([]*stepCopy, 0, sc.copies())
		for nr := range sc.copies() {
			step, err := m.NewStep(sc)
			if err != nil {
				return stats, err
			}
			c := &stepCopy{
				cfg:    sc,
				policy: policy,
				nr:     nr,
				step:   step,
				rows:   make(chan indexedRow, m.bufferSize),
				logger: logger.With(zap.String("step", sc.Name), zap.Int("copy", nr)),
			}
			copies = append(copies, c)
			if err := m.initialize(ctx, c, schema); err != nil {
				return stats, fmt.Errorf("failed to initialize step %s.%d: %w", sc.Name, nr, err)
			}
			group = append(group, c)
		}
		groups = append(groups, group)
	}
	logger.Info("Successfully initialized all steps", zap.Int("totalCopies", len(copies)))

	var wg sync.WaitGroup
	for _, c := range copies {
		wg.Add(1)
		go processStepRows(ctx, &wg, c, &stats, cancel)
	}

	var readErr error
ReadLoop:
	for {
		r, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("failed to read row %d: %w", stats.Read, err)
			cancel(readErr)
			break
		}

		idx := atomic.AddInt64(&stats.Read, 1) - 1
		for gi, group := range groups {
			c := group[idx%int64(len(group))]
			select {
			case c.rows <- indexedRow{index: idx, row: r}:
			case <-ctx.Done():
				stats.Dropped += int64(len(groups) - gi)
				break ReadLoop
			}
		}
	}

	for _, c := range copies {
		close(c.rows)
	}
	wg.Wait()

	for _, c := range copies {
		stats.Dropped += int64(len(c.rows))
	}
	if stats.Dropped > 0 {
		logger.Warn("Run stopped with undelivered rows", zap.Int64("dropped", stats.Dropped))
	}

	var closeErrs []error
	for _, c := range copies {
		if err := c.step.Close(); err != nil {
			closeErrs = append(closeErrs, fmt.Errorf("close step %s.%d: %w", c.cfg.Name, c.nr, err))
		}
	}
	copies = nil

	logger.Info("Pipeline finished",
		zap.Int64("read", stats.Read),
		zap.Int64("published", stats.Published),
		zap.Int64("failed", stats.Failed),
		zap.Int64("dropped", stats.Dropped))

	runErr := context.Cause(ctx)
	if errors.Is(runErr, context.Canceled) {
		// cancellation by the caller is a normal shutdown
		runErr = nil
	}
	return stats, errors.Join(append([]error{runErr}, closeErrs...)...)
}

// initialize retries temporary failures with backoff, like peers reconnecting on startup.
func (m *Manager) initialize(ctx context.Context, c *stepCopy, schema row.Schema) error {
	op := func() error {
		err := c.step.Initialize(ctx, schema)
		if err != nil && !IsTemporary(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		c.logger.Warn("Retrying step initialization",
			zap.Duration("delay", delay),
			zap.Error(err))
	}
	return backoff.RetryNotify(op, backoff.WithContext(m.newBackOff(), ctx), notify)
}
