package overlap

import (
	"strings"

	"github.com/ignite/channel-attribution/internal/pkg/strsim"
)

// Level buckets an overlap score.
type Level string

const (
	LevelNone   Level = "none"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

const (
	identicalPoints  = 50
	substringPoints  = 30
	similarityPoints = 20

	similarityThreshold = 0.70

	highScore   = 80
	mediumScore = 50
	lowScore    = 20
)

// fieldScore scores one normalized UTM field pair, 0 to 50.
func fieldScore(a, b string) int {
	switch {
	case a == b:
		return identicalPoints
	case containsEither(a, b):
		return substringPoints
	case strsim.Similarity(a, b) > similarityThreshold:
		return similarityPoints
	default:
		return 0
	}
}

// Score returns the 0-100 overlap score of two source/medium pairs. Inputs
// are normalized before scoring.
func Score(sourceA, mediumA, sourceB, mediumB string) int {
	return fieldScore(norm(sourceA), norm(sourceB)) + fieldScore(norm(mediumA), norm(mediumB))
}

// Classify maps a score to its level.
func Classify(score int) Level {
	switch {
	case score >= highScore:
		return LevelHigh
	case score >= mediumScore:
		return LevelMedium
	case score >= lowScore:
		return LevelLow
	default:
		return LevelNone
	}
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
