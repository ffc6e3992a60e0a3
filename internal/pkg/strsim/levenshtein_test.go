package strsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "cpc", 3},
		{"cpc", "", 3},
		{"facebok", "facebook", 1},
		{"facebook", "facebok", 1},
		{"kitten", "sitting", 3},
		{"social", "social", 0},
		{"flaw", "lawn", 2},
		{"café", "cafe", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b))
		})
	}
}

func TestLevenshteinSymmetric(t *testing.T) {
	pairs := [][2]string{{"google", "googel"}, {"email", "e-mail"}, {"cpc", "ppc"}}
	for _, p := range pairs {
		assert.Equal(t, Levenshtein(p[0], p[1]), Levenshtein(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 0.875, Similarity("facebok", "facebook"), 1e-9)
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("cpc", "cpc"))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.InDelta(t, 2.0/3.0, Similarity("cpc", "ppc"), 1e-9)
}
