package overlap

import (
	"fmt"
	"strings"

	"github.com/ignite/channel-attribution/internal/domain"
)

// NoConflictMessage is the verdict message when nothing overlaps.
const NoConflictMessage = "No conflicts detected"

// rule is a sub-channel's targeting after normalization.
type rule struct {
	source string
	medium string
	match  domain.MatchingType
}

func norm(v string) string { return domain.NormalizeUTM(v) }

func newRule(source, medium string, match domain.MatchingType) rule {
	return rule{source: norm(source), medium: norm(medium), match: match}
}

func (r rule) usable() bool {
	return r.source != "" && r.medium != "" && r.match.Valid()
}

// finding is one pairwise conflict.
type finding struct {
	severity domain.ConflictSeverity
	message  string
}

// entryKey identifies an existing entry for deduplication: by ID, or by
// position when the entry has no ID.
type entryKey struct {
	id  string
	pos int
}

func keyOf(sc domain.SubChannel, pos int) entryKey {
	if sc.ID != "" {
		return entryKey{id: sc.ID, pos: -1}
	}
	return entryKey{pos: pos}
}

// CheckCandidate verifies the candidate's input contract.
func CheckCandidate(c domain.CandidateSubChannel) error {
	if norm(c.UTMSource) == "" {
		return fmt.Errorf("utm_source is required: %w", ErrInvalidArgument)
	}
	if norm(c.UTMMedium) == "" {
		return fmt.Errorf("utm_medium is required: %w", ErrInvalidArgument)
	}
	if !c.MatchingType.Valid() {
		return fmt.Errorf("matching type %q must be %q or %q: %w",
			c.MatchingType, domain.MatchExact, domain.MatchContains, ErrInvalidArgument)
	}
	return nil
}

// Validate compares candidate with every entry of existing that shares its
// parent channel, skipping the entry whose ID equals excludeID (pass "" to
// exclude nothing). The verdict severity is the maximum pairwise severity;
// conflicting channels keep input order and appear at most once. Entries
// sharing an ID are one entry; entries without an ID are always distinct.
//
// Existing entries without a usable rule (empty source or medium, unknown
// matching type) cannot match traffic and are ignored.
func Validate(candidate domain.CandidateSubChannel, existing []domain.SubChannel, excludeID string, s Strategy) (domain.ValidationVerdict, error) {
	if err := CheckCandidate(candidate); err != nil {
		return domain.ValidationVerdict{}, err
	}

	cand := newRule(candidate.UTMSource, candidate.UTMMedium, candidate.MatchingType)
	verdict := domain.ValidationVerdict{
		Severity:            domain.SeverityNone,
		ConflictingChannels: []domain.SubChannel{},
	}
	seen := make(map[entryKey]bool)
	var lines []string

	for i, sc := range existing {
		if sc.ParentChannelID != candidate.ParentChannelID {
			continue
		}
		if excludeID != "" && sc.ID == excludeID {
			continue
		}
		other := newRule(sc.UTMSource, sc.UTMMedium, sc.MatchingType)
		if !other.usable() {
			continue
		}

		f, ok := s.compare(cand, other, label(sc))
		if !ok {
			continue
		}
		if f.severity > verdict.Severity {
			verdict.Severity = f.severity
		}
		lines = append(lines, f.message)
		if key := keyOf(sc, i); !seen[key] {
			seen[key] = true
			verdict.ConflictingChannels = append(verdict.ConflictingChannels, sc)
		}
	}

	if len(lines) == 0 {
		verdict.Message = NoConflictMessage
	} else {
		verdict.Message = strings.Join(lines, "\n")
	}
	return verdict, nil
}

// compare classifies one candidate/existing pair. ok is false when the pair
// does not conflict.
func (s Strategy) compare(cand, other rule, name string) (finding, bool) {
	if s.SourceMustMatch && cand.source != other.source {
		return finding{}, false
	}

	switch {
	case cand.match == domain.MatchExact && other.match == domain.MatchExact:
		if cand.source == other.source && cand.medium == other.medium {
			return finding{
				severity: domain.SeverityError,
				message: fmt.Sprintf("Exact conflict with %q: identical utm_source %q and utm_medium %q",
					name, other.source, other.medium),
			}, true
		}
		return finding{}, false

	case cand.match != other.match:
		exact, contains := cand, other
		if cand.match == domain.MatchContains {
			exact, contains = other, cand
		}
		hit := strings.Contains(contains.medium, exact.medium)
		if !s.SourceMustMatch {
			hit = hit || strings.Contains(contains.source, exact.source)
		}
		if !hit {
			return finding{}, false
		}
		return finding{
			severity: domain.SeverityWarning,
			message: fmt.Sprintf("Partial overlap with %q: contains rule %s also matches exact rule %s",
				name, describe(contains), describe(exact)),
		}, true

	default:
		related := containsEither(cand.medium, other.medium)
		if !s.SourceMustMatch {
			related = related || containsEither(cand.source, other.source)
		}
		if !related {
			return finding{}, false
		}
		if !s.FuzzyScoring {
			return finding{
				severity: domain.SeverityWarning,
				message: fmt.Sprintf("Overlap with %q: contains rules on utm_medium %q and %q match the same traffic",
					name, cand.medium, other.medium),
			}, true
		}
		score := fieldScore(cand.source, other.source) + fieldScore(cand.medium, other.medium)
		if Classify(score) != LevelHigh {
			return finding{}, false
		}
		return finding{
			severity: domain.SeverityWarning,
			message: fmt.Sprintf("High overlap with %q (score %d): contains rules %s and %s match the same traffic",
				name, score, describe(cand), describe(other)),
		}, true
	}
}

func describe(r rule) string {
	return fmt.Sprintf("(utm_source %q, utm_medium %q)", r.source, r.medium)
}

func label(sc domain.SubChannel) string {
	if strings.TrimSpace(sc.Name) != "" {
		return sc.Name
	}
	return sc.ID
}
