package relation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is a reviewer's verdict on a relation.
type Action string

const (
	ActionKeep    Action = "keep"
	ActionInvert  Action = "invert"
	ActionDiscard Action = "discard"
)

// Decision is one reviewed relation, addressed by "table.column" endpoints.
type Decision struct {
	From   string `yaml:"from" json:"from"`
	To     string `yaml:"to" json:"to"`
	Action Action `yaml:"action" json:"action"`

	// Hints for the reviewer; ignored when applying.
	Reason         string  `yaml:"reason,omitempty" json:"reason,omitempty"`
	Cardinality    string  `yaml:"cardinality,omitempty" json:"cardinality,omitempty"`
	FromStrength   float64 `yaml:"from_strength,omitempty" json:"from_strength,omitempty"`
	ToStrength     float64 `yaml:"to_strength,omitempty" json:"to_strength,omitempty"`
	NameSimilarity float64 `yaml:"name_similarity,omitempty" json:"name_similarity,omitempty"`
}

// Decisions is the review file.
type Decisions struct {
	Decisions []Decision `yaml:"decisions"`
}

// ReviewOutcome describes what applying decisions did.
type ReviewOutcome struct {
	Discarded []Relation `json:"discarded"`
	Inverted  []Relation `json:"inverted"`
	Unmatched []Decision `json:"unmatched"`
}

// LoadDecisions reads a review file.
func LoadDecisions(path string) (*Decisions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open decisions file: %w", err)
	}
	defer f.Close()
	return ParseDecisions(f)
}

// ParseDecisions decodes and validates review decisions.
func ParseDecisions(r io.Reader) (*Decisions, error) {
	var d Decisions
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode decisions: %w", err)
	}
	for i, decision := range d.Decisions {
		switch decision.Action {
		case ActionKeep, ActionInvert, ActionDiscard:
		default:
			return nil, fmt.Errorf("decision %d (%s -> %s): unknown action %q", i, decision.From, decision.To, decision.Action)
		}
		if _, err := parseEndpoint(decision.From); err != nil {
			return nil, fmt.Errorf("decision %d: %w", i, err)
		}
		if _, err := parseEndpoint(decision.To); err != nil {
			return nil, fmt.Errorf("decision %d: %w", i, err)
		}
	}
	return &d, nil
}

// Encode writes the decisions as YAML.
func (d *Decisions) Encode(w io.Writer) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode decisions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Apply discards or inverts the relations a decision names. Relations without a
// decision pass through unchanged.
func (d *Decisions) Apply(relations []Relation) ([]Relation, ReviewOutcome) {
	var outcome ReviewOutcome
	if d == nil || len(d.Decisions) == 0 {
		return append([]Relation(nil), relations...), outcome
	}

	byKey := make(map[Key]Decision, len(d.Decisions))
	for _, decision := range d.Decisions {
		// Endpoints were validated when parsing.
		from, _ := parseEndpoint(decision.From)
		to, _ := parseEndpoint(decision.To)
		byKey[Key{From: from, To: to}] = decision
	}

	matched := make(map[Key]bool)
	reviewed := make([]Relation, 0, len(relations))
	for _, rel := range relations {
		decision, ok := byKey[rel.Key()]
		if !ok {
			reviewed = append(reviewed, rel)
			continue
		}
		matched[rel.Key()] = true

		switch decision.Action {
		case ActionDiscard:
			outcome.Discarded = append(outcome.Discarded, rel)
		case ActionInvert:
			flipped := rel.FlipDirection()
			outcome.Inverted = append(outcome.Inverted, flipped)
			reviewed = append(reviewed, flipped)
		default:
			reviewed = append(reviewed, rel)
		}
	}

	for _, decision := range d.Decisions {
		from, _ := parseEndpoint(decision.From)
		to, _ := parseEndpoint(decision.To)
		if !matched[Key{From: from, To: to}] {
			outcome.Unmatched = append(outcome.Unmatched, decision)
		}
	}
	return reviewed, outcome
}

// Similarity scores how alike two column names are, in [0, 1].
type Similarity func(a, b string) float64

// DecisionTemplate lists the relations a reviewer should look at: direction
// ambiguous ones default to keep, spurious subsets default to discard.
func DecisionTemplate(confused, weak []Relation, similarity Similarity) *Decisions {
	d := &Decisions{}
	seen := make(map[Key]bool)

	add := func(rel Relation, action Action, reason string) {
		if seen[rel.Key()] {
			return
		}
		seen[rel.Key()] = true
		decision := Decision{
			From:         rel.From().String(),
			To:           rel.To().String(),
			Action:       action,
			Reason:       reason,
			Cardinality:  rel.Cardinality.String(),
			FromStrength: rel.FromStrength,
			ToStrength:   rel.ToStrength,
		}
		if similarity != nil {
			decision.NameSimilarity = similarity(rel.FromColumn, rel.ToColumn)
		}
		d.Decisions = append(d.Decisions, decision)
	}

	for _, rel := range confused {
		add(rel, ActionKeep, "direction ambiguous")
	}
	for _, rel := range weak {
		add(rel, ActionDiscard, "weak reverse overlap")
	}
	return d
}

// parseEndpoint splits "table.column". Table names may themselves contain dots
// (schema-qualified), so the column is everything after the last dot.
func parseEndpoint(s string) (Endpoint, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q, want table.column", s)
	}
	return Endpoint{Table: s[:i], Column: s[i+1:]}, nil
}
