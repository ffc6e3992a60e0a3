package subchannel

import (
	"errors"
	"fmt"

	"github.com/ignite/channel-attribution/internal/domain"
)

// Sentinel errors for the sub-channel service layer.
var (
	ErrNotFound                = errors.New("sub-channel not found")
	ErrChannelNotFound         = errors.New("channel not found")
	ErrParentRequired          = errors.New("parent_channel_id is required")
	ErrInvalidInput            = errors.New("invalid sub-channel input")
	ErrBlockingConflict        = errors.New("sub-channel conflicts with an existing rule")
	ErrWarningsNotAcknowledged = errors.New("sub-channel overlaps existing rules; override_warnings required")
)

// ConflictError carries the verdict that refused a write. It unwraps to
// ErrBlockingConflict or ErrWarningsNotAcknowledged.
type ConflictError struct {
	Err     error
	Verdict domain.ValidationVerdict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Verdict.Message)
}

func (e *ConflictError) Unwrap() error { return e.Err }
