package domain

// OverlapRequest is the body of POST /api/validate-subchannel-overlap.
type OverlapRequest struct {
	UTMSource           string       `json:"utm_source"`
	UTMMedium           string       `json:"utm_medium"`
	MatchingType        MatchingType `json:"utm_medium_matching_type"`
	ParentChannelID     string       `json:"parent_channel_id"`
	ExcludeSubChannelID string       `json:"exclude_sub_channel_id,omitempty"`
}

// OverlapResponse is the remote rendering of a ValidationVerdict.
type OverlapResponse struct {
	HasConflicts        bool             `json:"hasConflicts"`
	ConflictType        ConflictSeverity `json:"conflictType"`
	Message             string           `json:"message"`
	ConflictingChannels []SubChannel     `json:"conflictingChannels"`
}

// NewOverlapResponse renders v for the wire.
func NewOverlapResponse(v ValidationVerdict) OverlapResponse {
	channels := v.ConflictingChannels
	if channels == nil {
		channels = []SubChannel{}
	}
	return OverlapResponse{
		HasConflicts:        v.HasConflicts(),
		ConflictType:        v.Severity,
		Message:             v.Message,
		ConflictingChannels: channels,
	}
}

// Verdict converts the wire form back into a ValidationVerdict.
func (r OverlapResponse) Verdict() ValidationVerdict {
	return ValidationVerdict{
		Severity:            r.ConflictType,
		Message:             r.Message,
		ConflictingChannels: r.ConflictingChannels,
	}
}
