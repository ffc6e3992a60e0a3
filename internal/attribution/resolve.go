// Package attribution assigns incoming UTM-tagged traffic to the
// sub-channel whose rule matches it.
package attribution

import (
	"strings"

	"github.com/ignite/channel-attribution/internal/domain"
)

// Match reports whether traffic with the given UTM values falls under sc.
// The source must be equal after normalization; the medium is compared
// according to the rule's matching type.
func Match(sc domain.SubChannel, utmSource, utmMedium string) bool {
	ruleSource := domain.NormalizeUTM(sc.UTMSource)
	ruleMedium := domain.NormalizeUTM(sc.UTMMedium)
	if ruleSource == "" || ruleMedium == "" {
		return false
	}
	if ruleSource != domain.NormalizeUTM(utmSource) {
		return false
	}

	medium := domain.NormalizeUTM(utmMedium)
	switch sc.MatchingType {
	case domain.MatchExact:
		return medium == ruleMedium
	case domain.MatchContains:
		return strings.Contains(medium, ruleMedium)
	default:
		return false
	}
}

// Resolve picks the sub-channel that should receive credit for the traffic.
// Exact rules win over contains rules; among contains rules the longest rule
// medium is the most specific. Ties keep input order.
func Resolve(subChannels []domain.SubChannel, utmSource, utmMedium string) (domain.SubChannel, bool) {
	var best domain.SubChannel
	bestRank, found := -1, false
	for _, sc := range subChannels {
		if !Match(sc, utmSource, utmMedium) {
			continue
		}
		if sc.MatchingType == domain.MatchExact {
			return sc, true
		}
		rank := len(domain.NormalizeUTM(sc.UTMMedium))
		if rank > bestRank {
			best, bestRank, found = sc, rank, true
		}
	}
	return best, found
}
