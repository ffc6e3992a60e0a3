package domain

import "time"

// ChannelKind groups channels for dashboard reporting.
type ChannelKind string

const (
	ChannelPaidSocial ChannelKind = "paid_social"
	ChannelOrganic    ChannelKind = "organic"
	ChannelPaidSearch ChannelKind = "paid_search"
	ChannelEmail      ChannelKind = "email"
	ChannelAffiliate  ChannelKind = "affiliate"
	ChannelOther      ChannelKind = "other"
)

// Channel is a top-level marketing channel that owns sub-channels.
type Channel struct {
	ID        string      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Kind      ChannelKind `json:"kind" db:"kind"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
