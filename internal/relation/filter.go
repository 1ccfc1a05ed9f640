package relation

// DefaultTolerance is the leniency used when none is configured.
const DefaultTolerance = 0.01

// DefaultMinReverseStrength is the lower bound under which a relation's reverse
// overlap marks the child column as a spurious subset.
const DefaultMinReverseStrength = 0.2

// Filter keeps relations with Strength >= 1 - tolerance that are not self-identities.
func Filter(relations []Relation, tolerance float64) []Relation {
	filtered := make([]Relation, 0, len(relations))
	for _, rel := range relations {
		// A foreign key should find every one of its values in the parent column.
		if rel.Strength < 1-tolerance {
			continue
		}
		// Every column matches itself fully.
		if rel.IsSelfIdentity() {
			continue
		}
		filtered = append(filtered, rel)
	}
	return filtered
}

// Normalize points every OneToMany relation from child to parent.
func Normalize(relations []Relation) []Relation {
	normalized := make([]Relation, 0, len(relations))
	for _, rel := range relations {
		if rel.Cardinality == OneToMany {
			rel = rel.FlipDirection()
		}
		normalized = append(normalized, rel)
	}
	return normalized
}

// DetectParentChildConfusion returns relations whose direction cannot be decided
// from the data: both columns contain the same share of each other's values.
func DetectParentChildConfusion(relations []Relation) []Relation {
	var confused []Relation
	for _, rel := range relations {
		if rel.FromStrength == rel.ToStrength {
			confused = append(confused, rel)
		}
	}
	return confused
}

// WeakReverseCandidates returns relations whose parent column barely overlaps
// the child, e.g. a categorical [1, 2, 3] column inside a numeric id range.
func WeakReverseCandidates(relations []Relation, lowerBound float64) []Relation {
	var weak []Relation
	for _, rel := range relations {
		if rel.ToStrength < lowerBound {
			weak = append(weak, rel)
		}
	}
	return weak
}

// Without returns relations minus those whose key is in drop.
func Without(relations []Relation, drop []Relation) []Relation {
	if len(drop) == 0 {
		return append([]Relation(nil), relations...)
	}
	skip := make(map[Key]bool, len(drop))
	for _, rel := range drop {
		skip[rel.Key()] = true
	}
	kept := make([]Relation, 0, len(relations))
	for _, rel := range relations {
		if !skip[rel.Key()] {
			kept = append(kept, rel)
		}
	}
	return kept
}
