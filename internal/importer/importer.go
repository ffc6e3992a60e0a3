// Package importer loads a channel directory document and registers its
// sub-channels through the same overlap gate as interactive writes.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/channel-attribution/internal/domain"
	"github.com/ignite/channel-attribution/internal/overlap"
	"github.com/ignite/channel-attribution/internal/pkg/distlock"
	"github.com/ignite/channel-attribution/internal/pkg/logger"
	"github.com/ignite/channel-attribution/internal/service/subchannel"
)

const runLockKey = "import:directory"

// Source reads a document from a location.
type Source interface {
	Read(ctx context.Context, location string) ([]byte, error)
}

// Directory is the sub-channel directory the import writes into.
type Directory interface {
	ListByParent(ctx context.Context, parentChannelID string) ([]domain.SubChannel, error)
	Create(ctx context.Context, in subchannel.CreateInput) (*domain.SubChannel, domain.ValidationVerdict, error)
}

// Outcome is what happened to one document entry.
type Outcome string

const (
	OutcomeAccepted        Outcome = "accepted"
	OutcomeAcceptedWarning Outcome = "accepted_with_warnings"
	OutcomeRejected        Outcome = "rejected"
	OutcomeSkippedWarning  Outcome = "skipped_warning"
	OutcomeInvalid         Outcome = "invalid"
)

// Entry reports one sub-channel of the document.
type Entry struct {
	ChannelID    string              `json:"channel_id"`
	Name         string              `json:"name"`
	UTMSource    string              `json:"utm_source"`
	UTMMedium    string              `json:"utm_medium"`
	MatchingType domain.MatchingType `json:"matching_type"`
	Outcome      Outcome             `json:"outcome"`
	SubChannelID string              `json:"sub_channel_id,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// Report summarizes an import run.
type Report struct {
	Location   string    `json:"location"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Channels   int       `json:"channels"`
	Accepted   int       `json:"accepted"`
	Warned     int       `json:"warned"`
	Rejected   int       `json:"rejected"`
	Skipped    int       `json:"skipped"`
	Invalid    int       `json:"invalid"`
	Entries    []Entry   `json:"entries"`
}

func (r *Report) add(e Entry) {
	switch e.Outcome {
	case OutcomeAccepted:
		r.Accepted++
	case OutcomeAcceptedWarning:
		r.Accepted++
		r.Warned++
	case OutcomeRejected:
		r.Rejected++
	case OutcomeSkippedWarning:
		r.Skipped++
	case OutcomeInvalid:
		r.Invalid++
	}
	r.Entries = append(r.Entries, e)
}

// Options control one run.
type Options struct {
	// AllowWarnings stores rules with advisory overlaps as overridden.
	AllowWarnings bool
	// DryRun validates without writing.
	DryRun bool
}

// Importer runs directory imports.
type Importer struct {
	source    Source
	channels  subchannel.ChannelRepository
	directory Directory
	locks     distlock.Factory
	strategy  overlap.Strategy
	lockWait  time.Duration
}

// New creates an Importer. strategy is used for dry runs; real runs are
// validated by the directory's own gate. locks may be nil.
func New(source Source, channels subchannel.ChannelRepository, directory Directory, locks distlock.Factory, strategy overlap.Strategy) *Importer {
	return &Importer{
		source:    source,
		channels:  channels,
		directory: directory,
		locks:     locks,
		strategy:  strategy,
		lockWait:  10 * time.Second,
	}
}

// Run imports the document at location. Only one run executes at a time
// across processes.
func (im *Importer) Run(ctx context.Context, location string, opts Options) (*Report, error) {
	data, err := im.source.Read(ctx, location)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(location, data)
	if err != nil {
		return nil, err
	}

	report := &Report{Location: location, DryRun: opts.DryRun, StartedAt: time.Now().UTC(), Entries: []Entry{}}
	run := func(ctx context.Context) error {
		for _, ch := range doc.Channels {
			if err := im.importChannel(ctx, ch, opts, report); err != nil {
				return err
			}
			report.Channels++
		}
		return nil
	}

	if im.locks == nil || opts.DryRun {
		err = run(ctx)
	} else {
		err = im.withRunLock(ctx, run)
	}
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		return report, err
	}

	logger.Info("directory import finished",
		"location", location, "dry_run", opts.DryRun, "channels", report.Channels,
		"accepted", report.Accepted, "warned", report.Warned,
		"rejected", report.Rejected, "skipped", report.Skipped, "invalid", report.Invalid)
	return report, nil
}

func (im *Importer) withRunLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return distlock.WithLock(ctx, im.locks(runLockKey), im.lockWait, 250*time.Millisecond, fn)
}

func (im *Importer) importChannel(ctx context.Context, ch ChannelEntry, opts Options, report *Report) error {
	if !opts.DryRun {
		c := &domain.Channel{ID: ch.ID, Name: ch.Name, Kind: ch.Kind}
		if err := im.channels.Upsert(ctx, c); err != nil {
			return fmt.Errorf("import channel %s: %w", ch.ID, err)
		}
	}

	// Dry runs validate against the stored rows plus what this run would add.
	// Real runs are validated by the directory's own gate.
	var existing []domain.SubChannel
	if opts.DryRun {
		var err error
		existing, err = im.directory.ListByParent(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("load sub-channels of %s: %w", ch.ID, err)
		}
	}

	for i, sc := range ch.SubChannels {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := Entry{
			ChannelID:    ch.ID,
			Name:         sc.Name,
			UTMSource:    sc.UTMSource,
			UTMMedium:    sc.UTMMedium,
			MatchingType: sc.MatchingType,
		}
		if strings.TrimSpace(entry.Name) == "" {
			entry.Name = fmt.Sprintf("%s %s", sc.UTMSource, sc.UTMMedium)
		}

		if opts.DryRun {
			entry = im.dryRunEntry(entry, &existing, opts, i)
		} else {
			var err error
			entry, err = im.createEntry(ctx, entry, opts)
			if err != nil {
				return err
			}
		}
		report.add(entry)
	}
	return nil
}

func (im *Importer) createEntry(ctx context.Context, entry Entry, opts Options) (Entry, error) {
	sc, verdict, err := im.directory.Create(ctx, subchannel.CreateInput{
		ParentChannelID:  entry.ChannelID,
		Name:             entry.Name,
		UTMSource:        entry.UTMSource,
		UTMMedium:        entry.UTMMedium,
		MatchingType:     entry.MatchingType,
		OverrideWarnings: opts.AllowWarnings,
	})

	var conflict *subchannel.ConflictError
	switch {
	case err == nil:
		entry.SubChannelID = sc.ID
		entry.Outcome = OutcomeAccepted
		if verdict.HasConflicts() {
			entry.Outcome = OutcomeAcceptedWarning
			entry.Message = verdict.Message
		}
	case errors.As(err, &conflict):
		entry.Outcome = OutcomeRejected
		if errors.Is(err, subchannel.ErrWarningsNotAcknowledged) {
			entry.Outcome = OutcomeSkippedWarning
		}
		entry.Message = conflict.Verdict.Message
	case errors.Is(err, overlap.ErrInvalidArgument), errors.Is(err, subchannel.ErrInvalidInput):
		entry.Outcome = OutcomeInvalid
		entry.Message = err.Error()
	default:
		return entry, fmt.Errorf("import %s/%s: %w", entry.ChannelID, entry.Name, err)
	}
	return entry, nil
}

func (im *Importer) dryRunEntry(entry Entry, existing *[]domain.SubChannel, opts Options, i int) Entry {
	cand := domain.CandidateSubChannel{
		ParentChannelID: entry.ChannelID,
		Name:            entry.Name,
		UTMSource:       entry.UTMSource,
		UTMMedium:       entry.UTMMedium,
		MatchingType:    entry.MatchingType,
	}
	verdict, err := overlap.Validate(cand, *existing, "", im.strategy)
	if err != nil {
		entry.Outcome = OutcomeInvalid
		entry.Message = err.Error()
		return entry
	}

	switch {
	case verdict.Blocking():
		entry.Outcome = OutcomeRejected
		entry.Message = verdict.Message
		return entry
	case verdict.HasConflicts() && !opts.AllowWarnings:
		entry.Outcome = OutcomeSkippedWarning
		entry.Message = verdict.Message
		return entry
	case verdict.HasConflicts():
		entry.Outcome = OutcomeAcceptedWarning
		entry.Message = verdict.Message
	default:
		entry.Outcome = OutcomeAccepted
	}

	*existing = append(*existing, domain.SubChannel{
		ID:              fmt.Sprintf("dry-run:%s:%d", entry.ChannelID, i),
		ParentChannelID: entry.ChannelID,
		Name:            entry.Name,
		UTMSource:       entry.UTMSource,
		UTMMedium:       entry.UTMMedium,
		MatchingType:    entry.MatchingType,
	})
	return entry
}
