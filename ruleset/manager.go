package ruleset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/liamcoop/linkrules/rules"
)

const tracerName = "github.com/liamcoop/linkrules/ruleset"

// Manager owns the active registry built from a definition file.
// Reloads build a complete new registry and swap it in atomically, so a
// run in progress always sees one consistent set of rules.
type Manager struct {
	path     string
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer
	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
}

// snapshot is one successfully loaded definition
type snapshot struct {
	registry *rules.Registry
	schema   rules.FactSchema
}

// Run is the result of one RunAll call
type Run struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Results  []*rules.EvaluationResult
}

// Failed counts results that carry an error
func (r *Run) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Fired counts results whose rule fired, partially fired ones included
func (r *Run) Fired() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == rules.Fired {
			n++
		}
	}
	return n
}

// NewManager loads the definition at path. It fails if the initial load fails.
func NewManager(path string, opts Options) (*Manager, error) {
	m := &Manager{
		path:   path,
		opts:   opts,
		logger: opts.logger().With("component", "ruleset"),
		tracer: opts.tracerProvider().Tracer(tracerName),
	}

	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the definition file path
func (m *Manager) Path() string {
	return m.path
}

// Registry returns the active registry
func (m *Manager) Registry() *rules.Registry {
	return m.current.Load().registry
}

// Schema returns the fact schema of the active definition
func (m *Manager) Schema() rules.FactSchema {
	return m.current.Load().schema
}

// Reload rebuilds the registry from disk. On failure the previous registry
// stays active.
func (m *Manager) Reload() error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	snap, err := m.build()
	if m.opts.Metrics != nil {
		n := 0
		if snap != nil {
			n = snap.registry.Len()
		}
		m.opts.Metrics.ObserveReload(n, err)
	}
	if err != nil {
		m.logger.Error("rule reload failed", "path", m.path, "error", err)
		return err
	}

	m.current.Store(snap)
	m.logger.Info("rules loaded", "path", m.path, "count", snap.registry.Len(), "rules", snap.registry.Names())
	return nil
}

func (m *Manager) build() (*snapshot, error) {
	def, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	reg, err := Build(def, m.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	return &snapshot{registry: reg, schema: def.Facts}, nil
}

// RunAll evaluates every active rule once against facts. The context is
// only checked before the run starts; evaluation itself is synchronous.
func (m *Manager) RunAll(ctx context.Context, facts rules.FactSource) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg := m.Registry()
	run := &Run{ID: uuid.NewString(), Started: time.Now()}

	ctx, span := m.tracer.Start(ctx, "ruleset.RunAll", trace.WithAttributes(
		attribute.String("linkrules.run_id", run.ID),
		attribute.Int("linkrules.rules", reg.Len()),
	))
	defer span.End()

	run.Results = reg.RunAll(facts)
	run.Duration = time.Since(run.Started)

	for _, r := range run.Results {
		m.record(ctx, span, run.ID, r)
	}

	failed := run.Failed()
	span.SetAttributes(
		attribute.Int("linkrules.fired", run.Fired()),
		attribute.Int("linkrules.failed", failed),
	)
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d rule(s) failed", failed))
	}

	m.logger.InfoContext(ctx, "rules evaluated",
		"run_id", run.ID,
		"rules", len(run.Results),
		"fired", run.Fired(),
		"failed", failed,
		"duration_ms", run.Duration.Milliseconds(),
	)

	return run, nil
}

func (m *Manager) record(ctx context.Context, span trace.Span, runID string, r *rules.EvaluationResult) {
	if m.opts.Metrics != nil {
		m.opts.Metrics.ObserveResult(r)
	}

	attrs := []attribute.KeyValue{
		attribute.String("linkrules.rule", r.RuleName),
		attribute.String("linkrules.outcome", r.Outcome.String()),
	}

	if r.Err != nil {
		attrs = append(attrs, attribute.String("linkrules.error_kind", r.Kind().String()))
		span.AddEvent("rule failed", trace.WithAttributes(attrs...))
		m.logger.WarnContext(ctx, "rule evaluation failed",
			"run_id", runID,
			"rule", r.RuleName,
			"outcome", r.Outcome.String(),
			"error_kind", r.Kind().String(),
			"actions_run", r.ActionsRun,
			"error", r.Err,
		)
		return
	}

	span.AddEvent("rule evaluated", trace.WithAttributes(attrs...))
	m.logger.DebugContext(ctx, "rule evaluated",
		"run_id", runID,
		"rule", r.RuleName,
		"outcome", r.Outcome.String(),
	)
}
