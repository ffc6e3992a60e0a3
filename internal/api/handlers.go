package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/channel-attribution/internal/domain"
	"github.com/ignite/channel-attribution/internal/pkg/httputil"
	"github.com/ignite/channel-attribution/internal/service/subchannel"
)

// SubChannelService is the service surface the handlers use.
type SubChannelService interface {
	Validate(ctx context.Context, in subchannel.ValidateInput) (domain.ValidationVerdict, error)
	Check(ctx context.Context, in subchannel.ValidateInput) (domain.ValidationVerdict, error)
	Get(ctx context.Context, id string) (*domain.SubChannel, error)
	ListByParent(ctx context.Context, parentChannelID string) ([]domain.SubChannel, error)
	Create(ctx context.Context, in subchannel.CreateInput) (*domain.SubChannel, domain.ValidationVerdict, error)
	Update(ctx context.Context, id string, in subchannel.CreateInput) (*domain.SubChannel, domain.ValidationVerdict, error)
	Delete(ctx context.Context, id string) error
	Attribute(ctx context.Context, utmSource, utmMedium string) (domain.SubChannel, bool, error)
	Channel(ctx context.Context, id string) (*domain.Channel, error)
	Channels(ctx context.Context) ([]domain.Channel, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	svc SubChannelService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc SubChannelService) *Handlers {
	return &Handlers{svc: svc}
}

// ValidateOverlap is the authoritative overlap check.
//
//	POST /api/validate-subchannel-overlap
func (h *Handlers) ValidateOverlap(w http.ResponseWriter, r *http.Request) {
	var req domain.OverlapRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	verdict, err := h.svc.Validate(r.Context(), subchannel.ValidateInput{
		ParentChannelID:     req.ParentChannelID,
		UTMSource:           req.UTMSource,
		UTMMedium:           req.UTMMedium,
		MatchingType:        req.MatchingType,
		ExcludeSubChannelID: req.ExcludeSubChannelID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, domain.NewOverlapResponse(verdict))
}

// CheckOverlap is the live-feedback check used while a form is edited.
//
//	POST /api/sub-channels/check
func (h *Handlers) CheckOverlap(w http.ResponseWriter, r *http.Request) {
	var in subchannel.ValidateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	verdict, err := h.svc.Check(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, domain.NewOverlapResponse(verdict))
}

// SubChannelResult is the body returned by create and update.
type SubChannelResult struct {
	SubChannel *domain.SubChannel       `json:"sub_channel"`
	Verdict    domain.ValidationVerdict `json:"verdict"`
}

// ListSubChannels returns a channel's directory.
//
//	GET /api/channels/{channelID}/sub-channels
func (h *Handlers) ListSubChannels(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if _, err := h.svc.Channel(r.Context(), channelID); err != nil {
		writeError(w, err)
		return
	}
	subs, err := h.svc.ListByParent(r.Context(), channelID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"sub_channels": subs, "total": len(subs)})
}

// CreateSubChannel validates and stores a rule under a channel.
//
//	POST /api/channels/{channelID}/sub-channels
func (h *Handlers) CreateSubChannel(w http.ResponseWriter, r *http.Request) {
	var in subchannel.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	in.ParentChannelID = chi.URLParam(r, "channelID")

	sc, verdict, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, SubChannelResult{SubChannel: sc, Verdict: verdict})
}

// GetSubChannel returns one rule.
//
//	GET /api/sub-channels/{id}
func (h *Handlers) GetSubChannel(w http.ResponseWriter, r *http.Request) {
	sc, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, sc)
}

// UpdateSubChannel replaces a rule, re-validating it with itself excluded.
//
//	PUT /api/sub-channels/{id}
func (h *Handlers) UpdateSubChannel(w http.ResponseWriter, r *http.Request) {
	var in subchannel.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	sc, verdict, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, SubChannelResult{SubChannel: sc, Verdict: verdict})
}

// DeleteSubChannel removes a rule.
//
//	DELETE /api/sub-channels/{id}
func (h *Handlers) DeleteSubChannel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

// ListChannels returns the parent channels.
//
//	GET /api/channels
func (h *Handlers) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.svc.Channels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"channels": channels, "total": len(channels)})
}

// GetChannel returns one channel.
//
//	GET /api/channels/{channelID}
func (h *Handlers) GetChannel(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Channel(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, c)
}

// ResolveAttribution finds the sub-channel credited for a UTM pair.
//
//	GET /api/attribution/resolve?utm_source=...&utm_medium=...
func (h *Handlers) ResolveAttribution(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("utm_source")
	medium := r.URL.Query().Get("utm_medium")
	if source == "" || medium == "" {
		httputil.BadRequest(w, "utm_source and utm_medium are required")
		return
	}

	sc, ok, err := h.svc.Attribute(r.Context(), source, medium)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"matched": ok}
	if ok {
		resp["sub_channel"] = sc
	}
	httputil.OK(w, resp)
}
