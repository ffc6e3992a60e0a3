package api

import (
	"errors"
	"net/http"

	"github.com/ignite/channel-attribution/internal/domain"
	"github.com/ignite/channel-attribution/internal/overlap"
	"github.com/ignite/channel-attribution/internal/pkg/distlock"
	"github.com/ignite/channel-attribution/internal/pkg/httputil"
	"github.com/ignite/channel-attribution/internal/service/subchannel"
)

// writeError maps service errors to HTTP responses. Anything unrecognized
// is logged and answered with a generic 500 so storage details never leak.
func writeError(w http.ResponseWriter, err error) {
	var conflict *subchannel.ConflictError
	switch {
	case errors.As(err, &conflict):
		code := "blocking_conflict"
		if errors.Is(err, subchannel.ErrWarningsNotAcknowledged) {
			code = "warnings_not_acknowledged"
		}
		httputil.Conflict(w, code, conflict.Err.Error(), domain.NewOverlapResponse(conflict.Verdict))
	case errors.Is(err, overlap.ErrInvalidArgument),
		errors.Is(err, subchannel.ErrParentRequired),
		errors.Is(err, subchannel.ErrInvalidInput):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, subchannel.ErrNotFound),
		errors.Is(err, subchannel.ErrChannelNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, distlock.ErrNotAcquired):
		w.Header().Set("Retry-After", "1")
		httputil.Error(w, http.StatusServiceUnavailable, "sub-channel directory is busy, retry shortly")
	default:
		httputil.InternalError(w, err)
	}
}
