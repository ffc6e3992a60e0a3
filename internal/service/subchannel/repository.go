package subchannel

import (
	"context"

	"github.com/ignite/channel-attribution/internal/domain"
)

// Repository defines the data access contract for sub-channels.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single sub-channel. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.SubChannel, error)

	// ListByParent returns the sub-channels of one channel ordered by
	// created_at, then id.
	ListByParent(ctx context.Context, parentChannelID string) ([]domain.SubChannel, error)

	// ListBySource returns the sub-channels whose normalized utm_source
	// equals source, in the same order as ListByParent. source must already
	// be normalized.
	ListBySource(ctx context.Context, source string) ([]domain.SubChannel, error)

	// Create inserts a new sub-channel.
	Create(ctx context.Context, sc *domain.SubChannel) error

	// Update replaces the mutable fields of a sub-channel. Returns
	// ErrNotFound if it doesn't exist.
	Update(ctx context.Context, sc *domain.SubChannel) error

	// Delete removes a sub-channel. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error
}

// ChannelRepository defines the data access contract for parent channels.
type ChannelRepository interface {
	// Get returns a single channel. Returns ErrChannelNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Channel, error)

	// List returns every channel ordered by name.
	List(ctx context.Context) ([]domain.Channel, error)

	// Upsert inserts a channel or updates its name and kind.
	Upsert(ctx context.Context, c *domain.Channel) error
}

// DirectoryCache caches the sub-channel directory of a parent channel.
// A miss is reported with ok == false and a nil error, along with the
// parent's current generation. Set stores a snapshot only while that
// generation is unchanged, and Invalidate advances it, so a snapshot read
// before a write is never cached after the write.
type DirectoryCache interface {
	Get(ctx context.Context, parentChannelID string) (subs []domain.SubChannel, gen int64, ok bool, err error)
	Set(ctx context.Context, parentChannelID string, gen int64, subs []domain.SubChannel) error
	Invalidate(ctx context.Context, parentChannelID string) error
}
