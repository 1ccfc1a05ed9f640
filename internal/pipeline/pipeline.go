// Package pipeline runs the relation inference stages in order and keeps every
// intermediate product for reporting.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schema-miner/internal/adapter"
	"schema-miner/internal/analyzer"
	"schema-miner/internal/graph"
	"schema-miner/internal/relation"
)

// Stage names, in execution order.
const (
	StageMine      = "mine"
	StageMerge     = "merge"
	StageFilter    = "filter"
	StageNormalize = "normalize"
	StageDetect    = "detect"
	StageReview    = "review"
	StageBuild     = "build"
	StagePrune     = "prune"
	StageResolve   = "resolve"
)

// Options configures a run.
type Options struct {
	Strictness         adapter.Strictness
	Workers            int
	Tolerance          float64
	MinReverseStrength float64
	DiscardWeakReverse bool
	Decisions          *relation.Decisions
	PruneRedundant     bool
	ResolveMultiParent bool
	Logger             *zap.Logger
}

// DefaultOptions enables both graph passes with the default thresholds.
func DefaultOptions() Options {
	return Options{
		Strictness:         adapter.StrictExact,
		Tolerance:          relation.DefaultTolerance,
		MinReverseStrength: relation.DefaultMinReverseStrength,
		PruneRedundant:     true,
		ResolveMultiParent: true,
	}
}

// StageError is a fatal failure of one stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Timing is the wall time of one stage.
type Timing struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Result holds the output of every stage.
type Result struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Tables    int       `json:"tables"`

	Partials    []relation.OneWayRelation `json:"partial_relations"`
	Merged      []relation.Relation       `json:"merged"`
	Filtered    []relation.Relation       `json:"filtered"`
	Normalized  []relation.Relation       `json:"normalized"`
	Confused    []relation.Relation       `json:"parent_child_confusion"`
	WeakReverse []relation.Relation       `json:"weak_reverse"`
	Reviewed    []relation.Relation       `json:"reviewed,omitempty"`
	Review      relation.ReviewOutcome    `json:"review"`

	Graph   *graph.SchemaGraph  `json:"graph,omitempty"`
	Pruned  *graph.SchemaGraph  `json:"pruned,omitempty"`
	Final   *graph.SchemaGraph  `json:"final,omitempty"`
	Prune   graph.PruneReport   `json:"prune"`
	Resolve graph.ResolveReport `json:"resolve"`

	Anomalies []graph.Anomaly `json:"anomalies,omitempty"`
	Timings   []Timing        `json:"timings"`
}

type runner struct {
	opts   Options
	logger *zap.Logger
	result *Result
}

func newRunner(tables map[string]*adapter.Table, opts Options) *runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &runner{
		opts:   opts,
		logger: logger.With(zap.String("run_id", id)),
		result: &Result{RunID: id, StartedAt: time.Now().UTC(), Tables: len(tables)},
	}
}

// timed runs fn and records its duration.
func (r *runner) timed(stage string, fn func() ([]zap.Field, error)) error {
	start := time.Now()
	fields, err := fn()
	elapsed := time.Since(start)
	r.result.Timings = append(r.result.Timings, Timing{Stage: stage, Duration: elapsed})
	if err != nil {
		r.logger.Error("stage failed", zap.String("stage", stage), zap.Error(err))
		return &StageError{Stage: stage, Err: err}
	}
	r.logger.Info("stage done", append([]zap.Field{zap.String("stage", stage), zap.Duration("elapsed", elapsed)}, fields...)...)
	return nil
}

// Discover runs mining through confusion and weak-reverse detection. The
// review command stops here.
func Discover(ctx context.Context, tables map[string]*adapter.Table, opts Options) (*Result, error) {
	r := newRunner(tables, opts)
	if err := r.discover(ctx, tables); err != nil {
		return nil, err
	}
	return r.result, nil
}

// Run executes every stage. Graph passes are skipped when disabled in opts;
// Final is then the last graph produced.
func Run(ctx context.Context, tables map[string]*adapter.Table, opts Options) (*Result, error) {
	r := newRunner(tables, opts)
	res := r.result

	if err := r.discover(ctx, tables); err != nil {
		return nil, err
	}

	if err := r.timed(StageReview, func() ([]zap.Field, error) {
		candidates := res.Normalized
		if opts.DiscardWeakReverse {
			candidates = relation.Without(candidates, res.WeakReverse)
		}
		res.Reviewed, res.Review = opts.Decisions.Apply(candidates)
		for _, d := range res.Review.Unmatched {
			r.logger.Warn("review decision matched no relation", zap.String("from", d.From), zap.String("to", d.To))
		}
		return []zap.Field{
			zap.Int("relations", len(res.Reviewed)),
			zap.Int("discarded", len(res.Review.Discarded)),
			zap.Int("inverted", len(res.Review.Inverted)),
		}, nil
	}); err != nil {
		return nil, err
	}

	if err := r.timed(StageBuild, func() ([]zap.Field, error) {
		res.Graph = Build(tables, res.Reviewed)
		return []zap.Field{zap.Int("edges", res.Graph.EdgeCount())}, nil
	}); err != nil {
		return nil, err
	}
	res.Pruned, res.Final = res.Graph, res.Graph

	if opts.PruneRedundant {
		if err := r.timed(StagePrune, func() ([]zap.Field, error) {
			res.Pruned, res.Prune = graph.PruneRedundant(res.Graph)
			res.Final = res.Pruned
			for _, c := range res.Prune.CyclicClosures {
				r.logger.Warn("closure contains a cycle, left unpruned",
					zap.String("table", c.Table), zap.String("column", c.Column), zap.Strings("cycle", c.Cycle))
			}
			return []zap.Field{zap.Int("passes", res.Prune.Passes), zap.Int("removed", len(res.Prune.Removed))}, nil
		}); err != nil {
			return nil, err
		}
	}

	if opts.ResolveMultiParent {
		if err := r.timed(StageResolve, func() ([]zap.Field, error) {
			res.Final, res.Resolve = graph.ResolveMultiParent(res.Pruned)
			for _, ep := range res.Resolve.Orphaned {
				r.logger.Warn("no shared ancestor survived, all parents removed", zap.Stringer("column", ep))
			}
			return []zap.Field{zap.Int("passes", res.Resolve.Passes), zap.Int("removed", len(res.Resolve.Removed))}, nil
		}); err != nil {
			return nil, err
		}
	}

	res.Anomalies = res.Final.Anomalies()
	r.logger.Info("run complete",
		zap.Int("final_edges", res.Final.EdgeCount()),
		zap.Int("anomalies", len(res.Anomalies)))
	return res, nil
}

func (r *runner) discover(ctx context.Context, tables map[string]*adapter.Table) error {
	res, opts := r.result, r.opts

	if err := r.timed(StageMine, func() ([]zap.Field, error) {
		miner := analyzer.NewMiner(
			analyzer.WithStrictness(opts.Strictness),
			analyzer.WithWorkers(opts.Workers),
			analyzer.WithLogger(r.logger),
		)
		var err error
		res.Partials, err = miner.Mine(ctx, tables)
		return []zap.Field{zap.Int("partial_relations", len(res.Partials))}, err
	}); err != nil {
		return err
	}

	if err := r.timed(StageMerge, func() ([]zap.Field, error) {
		var err error
		res.Merged, err = relation.Merge(res.Partials)
		return []zap.Field{zap.Int("relations", len(res.Merged))}, err
	}); err != nil {
		return err
	}

	if err := r.timed(StageFilter, func() ([]zap.Field, error) {
		res.Filtered = relation.Filter(res.Merged, opts.Tolerance)
		return []zap.Field{zap.Int("relations", len(res.Filtered)), zap.Float64("tolerance", opts.Tolerance)}, nil
	}); err != nil {
		return err
	}

	if err := r.timed(StageNormalize, func() ([]zap.Field, error) {
		res.Normalized = relation.Normalize(res.Filtered)
		return []zap.Field{zap.Int("relations", len(res.Normalized))}, nil
	}); err != nil {
		return err
	}

	return r.timed(StageDetect, func() ([]zap.Field, error) {
		res.Confused = relation.DetectParentChildConfusion(res.Normalized)
		res.WeakReverse = relation.WeakReverseCandidates(res.Normalized, opts.MinReverseStrength)
		for _, rel := range res.Confused {
			r.logger.Warn("relation direction is ambiguous", zap.Stringer("relation", rel))
		}
		return []zap.Field{zap.Int("confused", len(res.Confused)), zap.Int("weak_reverse", len(res.WeakReverse))}, nil
	})
}

// Build creates the schema graph of relations with a node for every table,
// including tables no relation touches.
func Build(tables map[string]*adapter.Table, relations []relation.Relation) *graph.SchemaGraph {
	g := graph.Build(relations)
	for name, t := range tables {
		cols := make([]graph.Column, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = graph.Column{Name: c.Name, DataType: c.DataType}
		}
		g.AddNode(graph.TableNode(name, t.RowCount(), cols))
	}
	return g
}
