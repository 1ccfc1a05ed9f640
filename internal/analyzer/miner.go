package analyzer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schema-miner/internal/adapter"
	"schema-miner/internal/relation"
)

// ErrAsymmetricOverlap means one direction of a column pair overlaps and the other does not.
// Shared values are symmetric, so this signals a broken overlap computation.
var ErrAsymmetricOverlap = errors.New("asymmetric column overlap")

// ErrTableName means a table is registered under a key other than its name.
var ErrTableName = errors.New("table map key does not match table name")

// Miner scans every table pair for overlapping columns.
type Miner struct {
	strictness adapter.Strictness
	workers    int
	logger     *zap.Logger
}

// Option configures a Miner.
type Option func(*Miner)

// WithStrictness sets which column pairs are compared.
func WithStrictness(s adapter.Strictness) Option {
	return func(m *Miner) { m.strictness = s }
}

// WithWorkers bounds the number of table pairs scanned concurrently.
func WithWorkers(n int) Option {
	return func(m *Miner) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Miner) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMiner creates a miner with exact type strictness and one worker per CPU.
func NewMiner(opts ...Option) *Miner {
	m := &Miner{
		strictness: adapter.StrictExact,
		workers:    runtime.GOMAXPROCS(0),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type tablePair struct {
	left, right *adapter.Table
}

// Mine compares every column of every unordered table pair in both directions.
//
// Tables are visited in name order and columns in table order. For each
// overlapping column pair the a→b observation is emitted before b→a. The result
// is the same for any number of workers.
func (m *Miner) Mine(ctx context.Context, tables map[string]*adapter.Table) ([]relation.OneWayRelation, error) {
	names := make([]string, 0, len(tables))
	for name, t := range tables {
		if t == nil || t.Name != name {
			return nil, fmt.Errorf("%w: key %q", ErrTableName, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make(map[*adapter.Column]*profile)
	for _, name := range names {
		for _, col := range tables[name].Columns {
			profiles[col] = newProfile(col)
		}
	}

	var pairs []tablePair
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			pairs = append(pairs, tablePair{left: tables[names[i]], right: tables[names[j]]})
		}
	}

	m.logger.Info("mining partial relations",
		zap.Int("tables", len(names)),
		zap.Int("table_pairs", len(pairs)),
		zap.String("type_strictness", string(m.strictness)),
		zap.Int("workers", m.workers))

	results := make([][]relation.OneWayRelation, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, pair := range pairs {
		g.Go(func() error {
			found, err := m.minePair(ctx, pair, profiles)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var partials []relation.OneWayRelation
	for _, found := range results {
		partials = append(partials, found...)
	}
	m.logger.Info("mined partial relations", zap.Int("partial_relations", len(partials)))
	return partials, nil
}

func (m *Miner) minePair(ctx context.Context, pair tablePair, profiles map[*adapter.Column]*profile) ([]relation.OneWayRelation, error) {
	var found []relation.OneWayRelation
	compared := 0
	for _, a := range pair.left.Columns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, b := range pair.right.Columns {
			if !adapter.Comparable(a, b, m.strictness) {
				continue
			}
			compared++

			pa, pb := profiles[a], profiles[b]
			forward, backward := overlap(pa, pb)
			if (forward.strength > 0) != (backward.strength > 0) {
				return nil, fmt.Errorf("%w: %s.%s -> %s.%s = %g, reverse = %g",
					ErrAsymmetricOverlap, pair.left.Name, a.Name, pair.right.Name, b.Name,
					forward.strength, backward.strength)
			}
			if forward.strength == 0 {
				continue
			}

			// An observation's LeftCardinality describes its target column,
			// which is the source side of the reverse direction.
			found = append(found,
				relation.OneWayRelation{
					FromTable:       pair.left.Name,
					FromColumn:      a.Name,
					ToTable:         pair.right.Name,
					ToColumn:        b.Name,
					Strength:        forward.strength,
					LeftCardinality: backward.partial,
				},
				relation.OneWayRelation{
					FromTable:       pair.right.Name,
					FromColumn:      b.Name,
					ToTable:         pair.left.Name,
					ToColumn:        a.Name,
					Strength:        backward.strength,
					LeftCardinality: forward.partial,
				},
			)
		}
	}

	m.logger.Debug("scanned table pair",
		zap.String("left", pair.left.Name),
		zap.String("right", pair.right.Name),
		zap.Int("column_pairs", compared),
		zap.Int("partial_relations", len(found)))
	return found, nil
}

// profile counts the non-null rows of each distinct value of a column.
type profile struct {
	counts map[any]int
	rows   int
}

func newProfile(col *adapter.Column) *profile {
	p := &profile{counts: make(map[any]int)}
	for _, v := range col.Values {
		// Columns built without NewColumn may hold raw driver values.
		v = adapter.Normalize(v)
		if v == nil {
			continue
		}
		p.counts[v]++
		p.rows++
	}
	return p
}

// direction is one side's view of an overlap.
type direction struct {
	strength float64
	partial  relation.PartialCardinality
}

// overlap measures both directions from a single pass over the smaller value set.
func overlap(a, b *profile) (forward, backward direction) {
	small, large := a, b
	if len(b.counts) < len(a.counts) {
		small, large = b, a
	}

	var aRows, bRows, distinct int
	for v, n := range small.counts {
		m, ok := large.counts[v]
		if !ok {
			continue
		}
		distinct++
		if small == a {
			aRows, bRows = aRows+n, bRows+m
		} else {
			aRows, bRows = aRows+m, bRows+n
		}
	}
	return measure(aRows, a.rows, distinct), measure(bRows, b.rows, distinct)
}

// measure derives strength and partial cardinality from the matched source rows.
func measure(matched, rows, distinct int) direction {
	if rows == 0 || matched == 0 {
		return direction{partial: relation.PartialNA}
	}
	return direction{
		strength: float64(matched) / float64(rows),
		partial:  relation.PartialFromFactor(float64(matched) / float64(distinct)),
	}
}

// DetectRelation measures how source's non-null values are found in target.
//
// Strength is the fraction of non-null source rows whose value occurs in
// target. The partial cardinality is One when every matched value occurs in a
// single source row and Many when some matched value is repeated in source.
func DetectRelation(source, target *adapter.Column) (float64, relation.PartialCardinality) {
	forward, _ := overlap(newProfile(source), newProfile(target))
	return forward.strength, forward.partial
}
