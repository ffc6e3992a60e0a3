package overlap

import (
	"fmt"
	"strings"
)

// Strategy selects the comparison rules applied to each pair of rules.
type Strategy struct {
	// SourceMustMatch skips any existing rule whose normalized utm_source
	// differs from the candidate's; remaining comparisons look at the medium
	// only.
	SourceMustMatch bool
	// FuzzyScoring scores contains/contains overlaps and only escalates a
	// high score to a warning. Without it any substring relation between two
	// contains rules is a warning.
	FuzzyScoring bool
}

var (
	// Symmetric compares source and medium with the same rules and scores
	// contains/contains overlaps. Used for live form feedback.
	Symmetric = Strategy{SourceMustMatch: false, FuzzyScoring: true}

	// SourceGated requires an exact source match and then applies plain
	// substring rules to the medium. Used for authoritative validation.
	SourceGated = Strategy{SourceMustMatch: true, FuzzyScoring: false}
)

const (
	StrategySymmetric   = "symmetric"
	StrategySourceGated = "source_gated"
)

// ParseStrategy maps a configured strategy name to its Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategySymmetric:
		return Symmetric, nil
	case StrategySourceGated, "source-gated":
		return SourceGated, nil
	default:
		return Strategy{}, fmt.Errorf("unknown overlap strategy %q: %w", name, ErrInvalidArgument)
	}
}

// String returns the configured name of a preset, or a description of a
// custom combination.
func (s Strategy) String() string {
	switch s {
	case Symmetric:
		return StrategySymmetric
	case SourceGated:
		return StrategySourceGated
	}
	return fmt.Sprintf("custom(source_must_match=%t,fuzzy=%t)", s.SourceMustMatch, s.FuzzyScoring)
}
