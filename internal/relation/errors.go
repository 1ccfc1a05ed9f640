package relation

import "errors"

// Contract failures. They indicate corrupted upstream computation, never bad data.
var (
	ErrUnpairedObservation = errors.New("one-way relations are not reciprocal pairs")
	ErrUnmappedCardinality = errors.New("unmapped cardinality combination")
)
