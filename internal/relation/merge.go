// Package relation holds the relation model and the stages that turn directional
// overlap observations into normalized child-to-parent relations.
package relation

import (
	"fmt"
)

// pairKey is an unordered column pair. a is always the lexically smaller endpoint.
type pairKey struct {
	a, b Endpoint
}

func newPairKey(x, y Endpoint) pairKey {
	if y.Table < x.Table || (y.Table == x.Table && y.Column < x.Column) {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// Merge pairs reciprocal one-way observations into bidirectional relations.
//
// Observations are paired by their unordered column pair, so the input order
// only decides the output order (first appearance of each pair) and the tie
// break between equally strong directions.
func Merge(partials []OneWayRelation) ([]Relation, error) {
	groups := make(map[pairKey][]OneWayRelation)
	var order []pairKey

	for _, p := range partials {
		key := newPairKey(p.From(), p.To())
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	relations := make([]Relation, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) != 2 {
			return nil, fmt.Errorf("%w: %s <-> %s has %d observations",
				ErrUnpairedObservation, key.a, key.b, len(group))
		}
		rel, err := mergePair(group[0], group[1])
		if err != nil {
			return nil, err
		}
		relations = append(relations, rel)
	}
	return relations, nil
}

// mergePair combines two observations of the same column pair. first wins ties.
func mergePair(first, second OneWayRelation) (Relation, error) {
	if !first.mirrors(second) {
		return Relation{}, fmt.Errorf("%w: %s -> %s does not mirror %s -> %s",
			ErrUnpairedObservation, first.From(), first.To(), second.From(), second.To())
	}

	from, to := first, second
	if second.Strength > first.Strength {
		from, to = second, first
	}

	// Each observation describes its target column, so the from column's
	// shape is carried by the reverse observation.
	cardinality, err := CardinalityFromPartials(to.LeftCardinality, from.LeftCardinality)
	if err != nil {
		return Relation{}, fmt.Errorf("merge %s -> %s: %w", from.From(), from.To(), err)
	}

	strength := from.Strength
	if cardinality == ManyToMany && to.Strength > strength {
		strength = to.Strength
	}

	return Relation{
		FromTable:    from.FromTable,
		FromColumn:   from.FromColumn,
		ToTable:      from.ToTable,
		ToColumn:     from.ToColumn,
		Cardinality:  cardinality,
		Strength:     strength,
		FromStrength: from.Strength,
		ToStrength:   to.Strength,
	}, nil
}
