package overlap

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/channel-attribution/internal/domain"
)

const parentP = "channel-p"

func sub(id, name, source, medium string, m domain.MatchingType) domain.SubChannel {
	return domain.SubChannel{
		ID:              id,
		ParentChannelID: parentP,
		Name:            name,
		UTMSource:       source,
		UTMMedium:       medium,
		MatchingType:    m,
	}
}

func cand(source, medium string, m domain.MatchingType) domain.CandidateSubChannel {
	return domain.CandidateSubChannel{
		ParentChannelID: parentP,
		Name:            "candidate",
		UTMSource:       source,
		UTMMedium:       medium,
		MatchingType:    m,
	}
}

var strategies = map[string]Strategy{
	"symmetric":    Symmetric,
	"source_gated": SourceGated,
}

func TestValidate_SelfExclusion(t *testing.T) {
	a := sub("sc-1", "Facebook CPC", "facebook", "cpc", domain.MatchExact)

	for name, s := range strategies {
		t.Run(name, func(t *testing.T) {
			v, err := Validate(a.Candidate(), []domain.SubChannel{a}, a.ID, s)
			require.NoError(t, err)
			assert.Equal(t, domain.SeverityNone, v.Severity)
			assert.Empty(t, v.ConflictingChannels)
			assert.Equal(t, NoConflictMessage, v.Message)
			assert.False(t, v.HasConflicts())
		})
	}
}

func TestValidate_ExactExactIgnoresCaseAndWhitespace(t *testing.T) {
	existing := []domain.SubChannel{sub("sc-1", "Google CPC", "Google", "CPC ", domain.MatchExact)}

	for name, s := range strategies {
		t.Run(name, func(t *testing.T) {
			v, err := Validate(cand(" google ", "cpc", domain.MatchExact), existing, "", s)
			require.NoError(t, err)
			assert.Equal(t, domain.SeverityError, v.Severity)
			assert.True(t, v.Blocking())
			require.Len(t, v.ConflictingChannels, 1)
			assert.Equal(t, "sc-1", v.ConflictingChannels[0].ID)
		})
	}
}

func TestValidate_ParentScoping(t *testing.T) {
	other := sub("sc-9", "Other parent", "facebook", "cpc", domain.MatchExact)
	other.ParentChannelID = "channel-q"

	for name, s := range strategies {
		t.Run(name, func(t *testing.T) {
			v, err := Validate(cand("facebook", "cpc", domain.MatchExact), []domain.SubChannel{other}, "", s)
			require.NoError(t, err)
			assert.Equal(t, domain.SeverityNone, v.Severity)
			assert.Empty(t, v.ConflictingChannels)
		})
	}
}

func TestValidate_ErrorDominatesWarning(t *testing.T) {
	warn := sub("sc-warn", "Facebook retargeting", "facebook", "cpc_retargeting", domain.MatchContains)
	exact := sub("sc-err", "Facebook CPC", "facebook", "cpc", domain.MatchExact)

	for name, s := range strategies {
		t.Run(name, func(t *testing.T) {
			v, err := Validate(cand("facebook", "cpc", domain.MatchExact), []domain.SubChannel{warn, exact}, "", s)
			require.NoError(t, err)
			assert.Equal(t, domain.SeverityError, v.Severity)
			require.Len(t, v.ConflictingChannels, 2)
			assert.Equal(t, "sc-warn", v.ConflictingChannels[0].ID)
			assert.Equal(t, "sc-err", v.ConflictingChannels[1].ID)

			lines := strings.Split(v.Message, "\n")
			require.Len(t, lines, 2)
			assert.Contains(t, lines[0], "Partial overlap")
			assert.Contains(t, lines[1], "Exact conflict")
		})
	}
}

func TestValidate_SourceGateSkipsDifferentSources(t *testing.T) {
	existing := []domain.SubChannel{
		sub("sc-1", "Bing exact", "bing", "cpc", domain.MatchExact),
		sub("sc-2", "Bing contains", "bing", "cpc", domain.MatchContains),
	}

	for _, m := range []domain.MatchingType{domain.MatchExact, domain.MatchContains} {
		v, err := Validate(cand("google", "cpc", m), existing, "", SourceGated)
		require.NoError(t, err)
		assert.Equal(t, domain.SeverityNone, v.Severity, "matching type %s", m)
		assert.Empty(t, v.ConflictingChannels)
	}
}

func TestValidate_ScenarioExactDuplicate(t *testing.T) {
	existing := []domain.SubChannel{sub("sc-1", "Facebook CPC", "Facebook", "cpc", domain.MatchExact)}

	for name, s := range strategies {
		t.Run(name, func(t *testing.T) {
			v, err := Validate(cand("facebook", "cpc", domain.MatchExact), existing, "", s)
			require.NoError(t, err)
			assert.Equal(t, domain.SeverityError, v.Severity)
			assert.Contains(t, strings.ToLower(v.Message), "exact")
			assert.Len(t, v.ConflictingChannels, 1)
		})
	}
}

func TestValidate_ScenarioContainsSubstringIsHighOverlap(t *testing.T) {
	existing := []domain.SubChannel{sub("sc-1", "Facebook social", "facebook", "social", domain.MatchContains)}
	c := cand("facebook", "socialmedia", domain.MatchContains)

	assert.Equal(t, 80, Score(c.UTMSource, c.UTMMedium, "facebook", "social"))
	assert.Equal(t, LevelHigh, Classify(80))

	v, err := Validate(c, existing, "", Symmetric)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityWarning, v.Severity)
	assert.Contains(t, v.Message, "score 80")
	require.Len(t, v.ConflictingChannels, 1)

	v, err = Validate(c, existing, "", SourceGated)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityWarning, v.Severity)
}

func TestValidate_ContainsBelowHighIsInformational(t *testing.T) {
	// Identical source (50) plus a near-miss medium (20) scores 70: medium.
	existing := []domain.SubChannel{sub("sc-1", "Facebook social", "facebook", "social", domain.MatchContains)}
	c := cand("facebook", "socal", domain.MatchContains)

	assert.Equal(t, 70, Score(c.UTMSource, c.UTMMedium, "facebook", "social"))

	v, err := Validate(c, existing, "", Symmetric)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityNone, v.Severity)
	assert.Equal(t, NoConflictMessage, v.Message)
}

func TestValidate_MediumOnlyRelationDependsOnScoring(t *testing.T) {
	existing := []domain.SubChannel{sub("sc-1", "Instagram social", "instagram", "social", domain.MatchContains)}
	c := cand("facebook", "paid_social", domain.MatchContains)

	// Substring medium (30) with unrelated sources (0) is only a low overlap.
	v, err := Validate(c, existing, "", Symmetric)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityNone, v.Severity)

	v, err = Validate(c, existing, "", Strategy{SourceMustMatch: false, FuzzyScoring: false})
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityWarning, v.Severity)
}

func TestValidate_ExactVersusContainsDiverges(t *testing.T) {
	// The contains rule's source covers the exact rule's source, but the
	// mediums are unrelated.
	existing := []domain.SubChannel{sub("sc-1", "Google display", "google", "display", domain.MatchContains)}
	c := cand("google", "cpc", domain.MatchExact)

	v, err := Validate(c, existing, "", Symmetric)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityWarning, v.Severity)

	v, err = Validate(c, existing, "", SourceGated)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityNone, v.Severity)
}

func TestValidate_SourceGatedMediumRules(t *testing.T) {
	tests := []struct {
		name     string
		existing domain.SubChannel
		cand     domain.CandidateSubChannel
		want     domain.ConflictSeverity
	}{
		{
			name:     "exact vs exact different medium",
			existing: sub("a", "A", "google", "cpc", domain.MatchExact),
			cand:     cand("google", "cpm", domain.MatchExact),
			want:     domain.SeverityNone,
		},
		{
			name:     "contains candidate shorter than exact medium",
			existing: sub("a", "A", "google", "cpc", domain.MatchExact),
			cand:     cand("google", "cp", domain.MatchContains),
			want:     domain.SeverityNone,
		},
		{
			name:     "contains candidate equal to exact medium",
			existing: sub("a", "A", "google", "cpc", domain.MatchExact),
			cand:     cand("google", "cpc", domain.MatchContains),
			want:     domain.SeverityWarning,
		},
		{
			name:     "exact candidate inside contains medium",
			existing: sub("a", "A", "google", "cpc", domain.MatchContains),
			cand:     cand("google", "cpc", domain.MatchExact),
			want:     domain.SeverityWarning,
		},
		{
			name:     "contains vs contains reverse substring",
			existing: sub("a", "A", "google", "paid_cpc", domain.MatchContains),
			cand:     cand("google", "cpc", domain.MatchContains),
			want:     domain.SeverityWarning,
		},
		{
			name:     "contains vs contains unrelated",
			existing: sub("a", "A", "google", "display", domain.MatchContains),
			cand:     cand("google", "cpc", domain.MatchContains),
			want:     domain.SeverityNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Validate(tt.cand, []domain.SubChannel{tt.existing}, "", SourceGated)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Severity)
		})
	}
}

func TestValidate_DuplicateEntriesReportedOnce(t *testing.T) {
	a := sub("sc-1", "Facebook CPC", "facebook", "cpc", domain.MatchExact)

	v, err := Validate(cand("facebook", "cpc", domain.MatchExact), []domain.SubChannel{a, a}, "", Symmetric)
	require.NoError(t, err)
	assert.Len(t, v.ConflictingChannels, 1)
}

func TestValidate_EntriesWithoutIDStayDistinct(t *testing.T) {
	a := sub("", "Facebook CPC", "facebook", "cpc", domain.MatchExact)
	b := sub("", "Facebook CPC copy", "facebook", "cpc", domain.MatchExact)

	for name, s := range strategies {
		t.Run(name, func(t *testing.T) {
			v, err := Validate(cand("facebook", "cpc", domain.MatchExact), []domain.SubChannel{a, b}, "", s)
			require.NoError(t, err)
			require.Len(t, v.ConflictingChannels, 2)
			assert.Equal(t, "Facebook CPC", v.ConflictingChannels[0].Name)
			assert.Equal(t, "Facebook CPC copy", v.ConflictingChannels[1].Name)
		})
	}
}

func TestValidate_IgnoresUnusableExistingRules(t *testing.T) {
	existing := []domain.SubChannel{
		sub("sc-1", "blank medium", "facebook", "  ", domain.MatchContains),
		sub("sc-2", "bad type", "facebook", "cpc", domain.MatchingType("regex")),
	}

	v, err := Validate(cand("facebook", "cpc", domain.MatchExact), existing, "", Symmetric)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityNone, v.Severity)
}

func TestValidate_InvalidArgument(t *testing.T) {
	tests := []struct {
		name string
		cand domain.CandidateSubChannel
	}{
		{"empty source", cand("", "cpc", domain.MatchExact)},
		{"blank medium", cand("google", "   ", domain.MatchExact)},
		{"unknown matching type", cand("google", "cpc", domain.MatchingType("fuzzy"))},
		{"missing matching type", cand("google", "cpc", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.cand, nil, "", Symmetric)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestValidate_EmptyExisting(t *testing.T) {
	v, err := Validate(cand("google", "cpc", domain.MatchExact), nil, "", SourceGated)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityNone, v.Severity)
	assert.NotNil(t, v.ConflictingChannels)
}

func TestValidate_IdempotentAndPure(t *testing.T) {
	existing := []domain.SubChannel{
		sub("sc-1", "Facebook CPC", "Facebook", "CPC", domain.MatchExact),
		sub("sc-2", "Facebook social", "facebook", "social", domain.MatchContains),
	}
	before := make([]domain.SubChannel, len(existing))
	copy(before, existing)
	c := cand("facebook", "socialmedia", domain.MatchContains)

	v1, err := Validate(c, existing, "", Symmetric)
	require.NoError(t, err)
	v2, err := Validate(c, existing, "", Symmetric)
	require.NoError(t, err)

	b1, err := json.Marshal(v1)
	require.NoError(t, err)
	b2, err := json.Marshal(v2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, before, existing)
}

func TestScoreAndClassify(t *testing.T) {
	// facebok/facebook differ by one edit: similarity 0.875 earns 20.
	assert.Equal(t, 20, Score("facebok", "cpc", "facebook", "xyz"))
	assert.Equal(t, 100, Score("Facebook", "CPC", "facebook", " cpc"))
	assert.Equal(t, 60, Score("face", "cpc", "facebook", "paid_cpc"))

	assert.Equal(t, LevelHigh, Classify(100))
	assert.Equal(t, LevelMedium, Classify(79))
	assert.Equal(t, LevelMedium, Classify(50))
	assert.Equal(t, LevelLow, Classify(20))
	assert.Equal(t, LevelNone, Classify(19))
	assert.Equal(t, LevelNone, Classify(0))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("symmetric")
	require.NoError(t, err)
	assert.Equal(t, Symmetric, s)

	s, err = ParseStrategy(" Source_Gated ")
	require.NoError(t, err)
	assert.Equal(t, SourceGated, s)
	assert.Equal(t, "source_gated", s.String())

	_, err = ParseStrategy("fuzzy")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Contains(t, Strategy{SourceMustMatch: true, FuzzyScoring: true}.String(), "custom")
}
