package domain

import (
	"strings"
	"time"
)

// MatchingType governs how a stored UTM value is compared with traffic.
type MatchingType string

const (
	// MatchExact requires the traffic value to equal the stored value.
	MatchExact MatchingType = "exact"
	// MatchContains requires the traffic value to contain the stored value.
	MatchContains MatchingType = "contains"
)

// Valid reports whether m is a known matching type.
func (m MatchingType) Valid() bool {
	return m == MatchExact || m == MatchContains
}

// SubChannel is a persisted UTM attribution rule nested under a channel.
type SubChannel struct {
	ID               string       `json:"id" db:"id"`
	ParentChannelID  string       `json:"parent_channel_id" db:"parent_channel_id"`
	Name             string       `json:"name" db:"name"`
	UTMSource        string       `json:"utm_source" db:"utm_source"`
	UTMMedium        string       `json:"utm_medium" db:"utm_medium"`
	MatchingType     MatchingType `json:"matching_type" db:"matching_type"`
	OverrideWarnings bool         `json:"override_warnings" db:"override_warnings"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// Candidate returns the rule portion of s as a candidate, e.g. when
// re-validating a stored row.
func (s SubChannel) Candidate() CandidateSubChannel {
	return CandidateSubChannel{
		ParentChannelID: s.ParentChannelID,
		Name:            s.Name,
		UTMSource:       s.UTMSource,
		UTMMedium:       s.UTMMedium,
		MatchingType:    s.MatchingType,
	}
}

// CandidateSubChannel is a proposed sub-channel that has not been persisted.
type CandidateSubChannel struct {
	ParentChannelID string       `json:"parent_channel_id"`
	Name            string       `json:"name"`
	UTMSource       string       `json:"utm_source"`
	UTMMedium       string       `json:"utm_medium"`
	MatchingType    MatchingType `json:"matching_type"`
}

// NormalizeUTM lower-cases and trims a UTM value for comparison.
func NormalizeUTM(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
