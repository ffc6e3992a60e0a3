package subchannel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/channel-attribution/internal/attribution"
	"github.com/ignite/channel-attribution/internal/domain"
	"github.com/ignite/channel-attribution/internal/overlap"
	"github.com/ignite/channel-attribution/internal/pkg/distlock"
	"github.com/ignite/channel-attribution/internal/pkg/logger"
)

const lockPollInterval = 50 * time.Millisecond

// Options wires the optional collaborators of a Service.
type Options struct {
	// Channels validates parent ids on writes. Nil skips the check.
	Channels ChannelRepository
	// Cache serves directory reads for live checks. Nil reads the repository.
	Cache DirectoryCache
	// Locks serializes writes per parent channel. Nil runs unlocked, which
	// is only safe with a single writer process.
	Locks distlock.Factory
	// Live is the strategy for per-keystroke feedback.
	Live overlap.Strategy
	// Authoritative is the strategy applied before persistence.
	Authoritative overlap.Strategy
	// LockWait bounds how long a write waits for its parent lock.
	LockWait time.Duration
}

// Service implements sub-channel business logic. All public methods are
// safe for concurrent use if the underlying repository is.
type Service struct {
	repo Repository
	opts Options
	now  func() time.Time
}

// NewService creates a sub-channel service backed by the given repository.
func NewService(repo Repository, opts Options) *Service {
	if opts.LockWait <= 0 {
		opts.LockWait = 5 * time.Second
	}
	return &Service{repo: repo, opts: opts, now: time.Now}
}

// ValidateInput is a candidate rule plus the sub-channel to exclude when
// re-validating an edit.
type ValidateInput struct {
	ParentChannelID     string              `json:"parent_channel_id"`
	Name                string              `json:"name"`
	UTMSource           string              `json:"utm_source"`
	UTMMedium           string              `json:"utm_medium"`
	MatchingType        domain.MatchingType `json:"matching_type"`
	ExcludeSubChannelID string              `json:"exclude_sub_channel_id"`
}

func (in ValidateInput) candidate() domain.CandidateSubChannel {
	return domain.CandidateSubChannel{
		ParentChannelID: in.ParentChannelID,
		Name:            in.Name,
		UTMSource:       in.UTMSource,
		UTMMedium:       in.UTMMedium,
		MatchingType:    in.MatchingType,
	}
}

// CreateInput holds the fields for creating or replacing a sub-channel.
type CreateInput struct {
	ParentChannelID  string              `json:"parent_channel_id"`
	Name             string              `json:"name"`
	UTMSource        string              `json:"utm_source"`
	UTMMedium        string              `json:"utm_medium"`
	MatchingType     domain.MatchingType `json:"matching_type"`
	OverrideWarnings bool                `json:"override_warnings"`
}

// Validate runs the authoritative strategy against the stored directory.
// This is the check behind the remote validation endpoint.
func (s *Service) Validate(ctx context.Context, in ValidateInput) (domain.ValidationVerdict, error) {
	if strings.TrimSpace(in.ParentChannelID) == "" {
		return domain.ValidationVerdict{}, ErrParentRequired
	}
	if err := overlap.CheckCandidate(in.candidate()); err != nil {
		return domain.ValidationVerdict{}, err
	}
	existing, err := s.repo.ListByParent(ctx, in.ParentChannelID)
	if err != nil {
		return domain.ValidationVerdict{}, fmt.Errorf("load sub-channels: %w", err)
	}
	return overlap.Validate(in.candidate(), existing, in.ExcludeSubChannelID, s.opts.Authoritative)
}

// Check runs the live strategy against the (possibly cached) directory.
func (s *Service) Check(ctx context.Context, in ValidateInput) (domain.ValidationVerdict, error) {
	if strings.TrimSpace(in.ParentChannelID) == "" {
		return domain.ValidationVerdict{}, ErrParentRequired
	}
	if err := overlap.CheckCandidate(in.candidate()); err != nil {
		return domain.ValidationVerdict{}, err
	}
	existing, err := s.cachedDirectory(ctx, in.ParentChannelID)
	if err != nil {
		return domain.ValidationVerdict{}, fmt.Errorf("load sub-channels: %w", err)
	}
	return overlap.Validate(in.candidate(), existing, in.ExcludeSubChannelID, s.opts.Live)
}

// Get returns a single sub-channel.
func (s *Service) Get(ctx context.Context, id string) (*domain.SubChannel, error) {
	return s.repo.Get(ctx, id)
}

// ListByParent returns the directory of one channel.
func (s *Service) ListByParent(ctx context.Context, parentChannelID string) ([]domain.SubChannel, error) {
	if strings.TrimSpace(parentChannelID) == "" {
		return nil, ErrParentRequired
	}
	return s.cachedDirectory(ctx, parentChannelID)
}

// Create validates and persists a new sub-channel. The returned verdict is
// the one the write was accepted with (warnings only when overridden).
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.SubChannel, domain.ValidationVerdict, error) {
	if err := s.checkInput(ctx, in); err != nil {
		return nil, domain.ValidationVerdict{}, err
	}

	now := s.now().UTC()
	sc := &domain.SubChannel{
		ID:               uuid.New().String(),
		ParentChannelID:  in.ParentChannelID,
		Name:             strings.TrimSpace(in.Name),
		UTMSource:        strings.TrimSpace(in.UTMSource),
		UTMMedium:        strings.TrimSpace(in.UTMMedium),
		MatchingType:     in.MatchingType,
		OverrideWarnings: in.OverrideWarnings,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var verdict domain.ValidationVerdict
	err := s.serialize(ctx, sc.ParentChannelID, func(ctx context.Context) error {
		var err error
		verdict, err = s.gate(ctx, sc, "")
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, sc); err != nil {
			return fmt.Errorf("create sub-channel: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, verdict, err
	}

	s.invalidate(ctx, sc.ParentChannelID)
	logger.Info("sub-channel created",
		"id", sc.ID, "parent_channel_id", sc.ParentChannelID,
		"severity", verdict.Severity.String())
	return sc, verdict, nil
}

// Update replaces the rule of an existing sub-channel, re-validating it
// with itself excluded. A sub-channel cannot move between channels.
func (s *Service) Update(ctx context.Context, id string, in CreateInput) (*domain.SubChannel, domain.ValidationVerdict, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, domain.ValidationVerdict{}, err
	}
	if in.ParentChannelID == "" {
		in.ParentChannelID = current.ParentChannelID
	}
	if in.ParentChannelID != current.ParentChannelID {
		return nil, domain.ValidationVerdict{}, fmt.Errorf("%w: parent channel cannot change", ErrInvalidInput)
	}
	if err := s.checkInput(ctx, in); err != nil {
		return nil, domain.ValidationVerdict{}, err
	}

	next := *current
	next.Name = strings.TrimSpace(in.Name)
	next.UTMSource = strings.TrimSpace(in.UTMSource)
	next.UTMMedium = strings.TrimSpace(in.UTMMedium)
	next.MatchingType = in.MatchingType
	next.OverrideWarnings = in.OverrideWarnings
	next.UpdatedAt = s.now().UTC()

	var verdict domain.ValidationVerdict
	err = s.serialize(ctx, next.ParentChannelID, func(ctx context.Context) error {
		var err error
		verdict, err = s.gate(ctx, &next, next.ID)
		if err != nil {
			return err
		}
		return s.repo.Update(ctx, &next)
	})
	if err != nil {
		return nil, verdict, err
	}

	s.invalidate(ctx, next.ParentChannelID)
	logger.Info("sub-channel updated", "id", next.ID, "parent_channel_id", next.ParentChannelID)
	return &next, verdict, nil
}

// Delete removes a sub-channel.
func (s *Service) Delete(ctx context.Context, id string) error {
	sc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, sc.ParentChannelID)
	logger.Info("sub-channel deleted", "id", id, "parent_channel_id", sc.ParentChannelID)
	return nil
}

// Attribute resolves one visit's UTM pair to the sub-channel that owns it.
func (s *Service) Attribute(ctx context.Context, utmSource, utmMedium string) (domain.SubChannel, bool, error) {
	source := domain.NormalizeUTM(utmSource)
	if source == "" {
		return domain.SubChannel{}, false, nil
	}
	candidates, err := s.repo.ListBySource(ctx, source)
	if err != nil {
		return domain.SubChannel{}, false, fmt.Errorf("load sub-channels: %w", err)
	}
	sc, ok := attribution.Resolve(candidates, utmSource, utmMedium)
	return sc, ok, nil
}

// Channel returns one parent channel.
func (s *Service) Channel(ctx context.Context, id string) (*domain.Channel, error) {
	if s.opts.Channels == nil {
		return nil, ErrChannelNotFound
	}
	return s.opts.Channels.Get(ctx, id)
}

// Channels lists the parent channels.
func (s *Service) Channels(ctx context.Context) ([]domain.Channel, error) {
	if s.opts.Channels == nil {
		return []domain.Channel{}, nil
	}
	return s.opts.Channels.List(ctx)
}

func (s *Service) checkInput(ctx context.Context, in CreateInput) error {
	if strings.TrimSpace(in.ParentChannelID) == "" {
		return ErrParentRequired
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	cand := domain.CandidateSubChannel{
		ParentChannelID: in.ParentChannelID,
		UTMSource:       in.UTMSource,
		UTMMedium:       in.UTMMedium,
		MatchingType:    in.MatchingType,
	}
	if err := overlap.CheckCandidate(cand); err != nil {
		return err
	}
	if s.opts.Channels != nil {
		if _, err := s.opts.Channels.Get(ctx, in.ParentChannelID); err != nil {
			return err
		}
	}
	return nil
}

// gate validates sc against a fresh read of its directory and refuses the
// write on an error verdict, or on a warning verdict without an override.
func (s *Service) gate(ctx context.Context, sc *domain.SubChannel, excludeID string) (domain.ValidationVerdict, error) {
	existing, err := s.repo.ListByParent(ctx, sc.ParentChannelID)
	if err != nil {
		return domain.ValidationVerdict{}, fmt.Errorf("load sub-channels: %w", err)
	}
	verdict, err := overlap.Validate(sc.Candidate(), existing, excludeID, s.opts.Authoritative)
	if err != nil {
		return verdict, err
	}
	switch {
	case verdict.Blocking():
		return verdict, &ConflictError{Err: ErrBlockingConflict, Verdict: verdict}
	case verdict.HasConflicts() && !sc.OverrideWarnings:
		return verdict, &ConflictError{Err: ErrWarningsNotAcknowledged, Verdict: verdict}
	}
	return verdict, nil
}

func lockKey(parentChannelID string) string {
	return "subchannel:parent:" + parentChannelID
}

// serialize runs fn while holding the parent's lock. The wait for the lock
// is bounded by LockWait; fn itself runs under ctx.
func (s *Service) serialize(ctx context.Context, parentChannelID string, fn func(ctx context.Context) error) error {
	if s.opts.Locks == nil {
		return fn(ctx)
	}
	err := distlock.WithLock(ctx, s.opts.Locks(lockKey(parentChannelID)), s.opts.LockWait, lockPollInterval, fn)
	if errors.Is(err, distlock.ErrNotAcquired) {
		logger.Warn("parent channel lock busy", "parent_channel_id", parentChannelID)
	}
	return err
}

func (s *Service) cachedDirectory(ctx context.Context, parentChannelID string) ([]domain.SubChannel, error) {
	cacheable := false
	var gen int64
	if s.opts.Cache != nil {
		subs, g, ok, err := s.opts.Cache.Get(ctx, parentChannelID)
		switch {
		case err != nil:
			logger.Warn("directory cache read failed", "parent_channel_id", parentChannelID, "error", err.Error())
		case ok:
			return subs, nil
		default:
			cacheable, gen = true, g
		}
	}

	subs, err := s.repo.ListByParent(ctx, parentChannelID)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.opts.Cache.Set(ctx, parentChannelID, gen, subs); err != nil {
			logger.Warn("directory cache write failed", "parent_channel_id", parentChannelID, "error", err.Error())
		}
	}
	return subs, nil
}

func (s *Service) invalidate(ctx context.Context, parentChannelID string) {
	if s.opts.Cache == nil {
		return
	}
	if err := s.opts.Cache.Invalidate(ctx, parentChannelID); err != nil {
		logger.Warn("directory cache invalidation failed", "parent_channel_id", parentChannelID, "error", err.Error())
	}
}
