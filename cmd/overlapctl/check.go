package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ignite/channel-attribution/internal/client"
	"github.com/ignite/channel-attribution/internal/domain"
	"github.com/ignite/channel-attribution/internal/importer"
	"github.com/ignite/channel-attribution/internal/overlap"
	"github.com/ignite/channel-attribution/internal/pkg/httpretry"
)

// errBlocking makes the command exit non-zero on a blocking verdict.
var errBlocking = errors.New("blocking conflict")

type checkOptions struct {
	source   string
	medium   string
	match    string
	parent   string
	exclude  string
	local    string
	strategy string
	server   string
	asJSON   bool
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	o := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a candidate rule against a directory",
		Long: `Check a candidate sub-channel rule for overlaps.

With --local the rule is checked against a directory document (a path or an
s3:// URL). Otherwise the attribution API at --server runs the check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cand := domain.CandidateSubChannel{
				ParentChannelID: o.parent,
				UTMSource:       o.source,
				UTMMedium:       o.medium,
				MatchingType:    domain.MatchingType(strings.ToLower(o.match)),
			}

			var verdict domain.ValidationVerdict
			var err error
			if o.local != "" {
				verdict, err = o.checkLocal(cmd, root, cand)
			} else {
				verdict, err = o.checkRemote(cmd, cand)
			}
			if err != nil {
				return err
			}

			if err := printVerdict(cmd.OutOrStdout(), verdict, o.asJSON); err != nil {
				return err
			}
			if verdict.Blocking() {
				return errBlocking
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.source, "source", "", "utm_source of the candidate")
	f.StringVar(&o.medium, "medium", "", "utm_medium of the candidate")
	f.StringVar(&o.match, "match", string(domain.MatchExact), "matching type: exact or contains")
	f.StringVar(&o.parent, "parent", "", "parent channel id")
	f.StringVar(&o.exclude, "exclude", "", "sub-channel id to ignore, when editing")
	f.StringVar(&o.local, "local", "", "directory document to check against instead of the API")
	f.StringVar(&o.strategy, "strategy", "", "overlap strategy for --local (default validation.authoritative_strategy)")
	f.StringVar(&o.server, "server", os.Getenv("ATTRIBUTION_API_URL"), "attribution API base URL")
	f.BoolVar(&o.asJSON, "json", false, "print the verdict as JSON")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("medium")
	_ = cmd.MarkFlagRequired("parent")
	return cmd
}

func (o *checkOptions) checkLocal(cmd *cobra.Command, root *rootOptions, cand domain.CandidateSubChannel) (domain.ValidationVerdict, error) {
	name := o.strategy
	if name == "" {
		name = root.cfg.Validation.AuthoritativeStrategy
	}
	strategy, err := overlap.ParseStrategy(name)
	if err != nil {
		return domain.ValidationVerdict{}, err
	}

	store, err := newStorage(cmd.Context(), root.cfg.Import, o.local)
	if err != nil {
		return domain.ValidationVerdict{}, err
	}
	data, err := store.Read(cmd.Context(), o.local)
	if err != nil {
		return domain.ValidationVerdict{}, err
	}
	doc, err := importer.ParseDocument(o.local, data)
	if err != nil {
		return domain.ValidationVerdict{}, err
	}
	return overlap.Validate(cand, doc.SubChannels(), o.exclude, strategy)
}

func (o *checkOptions) checkRemote(cmd *cobra.Command, cand domain.CandidateSubChannel) (domain.ValidationVerdict, error) {
	if o.server == "" {
		return domain.ValidationVerdict{}, errors.New("--server or ATTRIBUTION_API_URL is required without --local")
	}
	c := client.New(o.server, nil, httpretry.Options{})
	return c.ValidateOverlap(cmd.Context(), domain.OverlapRequest{
		UTMSource:           cand.UTMSource,
		UTMMedium:           cand.UTMMedium,
		MatchingType:        cand.MatchingType,
		ParentChannelID:     cand.ParentChannelID,
		ExcludeSubChannelID: o.exclude,
	})
}

func printVerdict(w io.Writer, v domain.ValidationVerdict, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(domain.NewOverlapResponse(v))
	}

	fmt.Fprintf(w, "severity: %s\n", v.Severity)
	fmt.Fprintln(w, v.Message)
	for _, sc := range v.ConflictingChannels {
		fmt.Fprintf(w, "  - %s (%s): %s / %s [%s]\n",
			sc.Name, sc.ID, sc.UTMSource, sc.UTMMedium, sc.MatchingType)
	}
	return nil
}
