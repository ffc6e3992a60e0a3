package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ignite/channel-attribution/internal/bootstrap"
	"github.com/ignite/channel-attribution/internal/config"
	"github.com/ignite/channel-attribution/internal/storage"
)

type rootOptions struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "overlapctl",
		Short:         "Validate and import UTM sub-channel rules",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Logging.Level = opts.logLevel
			}
			bootstrap.SetupLogging(cfg.Logging)
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "config/config.yaml", "config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	return cmd
}

// newStorage returns a Storage that can reach S3 only when one of the
// locations needs it, so local runs never load AWS credentials.
func newStorage(ctx context.Context, cfg config.ImportConfig, locations ...string) (*storage.Storage, error) {
	for _, loc := range locations {
		if strings.HasPrefix(loc, "s3://") {
			s3, err := storage.NewS3Store(ctx, cfg.AWSRegion, cfg.GetAWSProfile())
			if err != nil {
				return nil, err
			}
			return storage.New(s3), nil
		}
	}
	return storage.New(nil), nil
}
