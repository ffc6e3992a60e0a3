package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignite/channel-attribution/internal/bootstrap"
	"github.com/ignite/channel-attribution/internal/database"
	"github.com/ignite/channel-attribution/internal/importer"
	"github.com/ignite/channel-attribution/internal/pkg/logger"
)

type importOptions struct {
	allowWarnings bool
	dryRun        bool
	report        string
}

func newImportCmd(root *rootOptions) *cobra.Command {
	o := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <location>",
		Short: "Import a channel directory document",
		Long: `Import channels and sub-channels from a YAML or JSON document at a local
path or s3:// URL. Every rule passes the same overlap gate as API writes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := root.cfg
			location := args[0]

			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			rdb := bootstrap.OpenRedis(ctx, cfg.Redis)
			if rdb != nil {
				defer rdb.Close()
			}

			svcs, err := bootstrap.NewServices(cfg, db, rdb)
			if err != nil {
				return err
			}
			_, authoritative, err := bootstrap.Strategies(cfg.Validation)
			if err != nil {
				return err
			}

			store, err := newStorage(ctx, cfg.Import, location, o.report)
			if err != nil {
				return err
			}

			im := importer.New(store, svcs.Channels, svcs.SubChannels, svcs.Locks, authoritative)
			report, err := im.Run(ctx, location, importer.Options{
				AllowWarnings: o.allowWarnings,
				DryRun:        o.dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "channels=%d accepted=%d warned=%d rejected=%d skipped=%d invalid=%d dry_run=%t\n",
				report.Channels, report.Accepted, report.Warned, report.Rejected,
				report.Skipped, report.Invalid, report.DryRun)
			for _, e := range report.Entries {
				if e.Outcome == importer.OutcomeAccepted {
					continue
				}
				fmt.Fprintf(out, "  %s/%s: %s\n", e.ChannelID, e.Name, e.Outcome)
			}

			if o.report != "" {
				if err := store.WriteJSON(ctx, o.report, report); err != nil {
					return err
				}
				logger.Info("import report written", "location", o.report)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.allowWarnings, "allow-warnings", false, "store rules with advisory overlaps as overridden")
	f.BoolVar(&o.dryRun, "dry-run", false, "validate the document without writing")
	f.StringVar(&o.report, "report", "", "write the JSON report to a path or s3:// URL")
	return cmd
}
