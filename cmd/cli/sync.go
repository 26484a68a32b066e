package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shll/contractsync/cmd/cliutil"
	"github.com/shll/contractsync/pkg/config"
	"github.com/shll/contractsync/pkg/syncer"
)

func newSyncCmd() *cobra.Command {
	var check, watch bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rewrite the registry document from the configured contracts",
		Long: `Rewrite the registry document so every configured contract entry carries
its configured address and the ABI read from its file. Entries that do not
exist yet are inserted after the fallback entry. Nothing is written if any
input is missing or any entry cannot be patched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if check && watch {
				return fmt.Errorf("--check and --watch cannot be combined")
			}

			s, err := newSyncer()
			if err != nil {
				return err
			}

			switch {
			case check:
				report, err := s.Check(cmd.Context())
				if report != nil {
					cliutil.PrintSyncResult(cmd.OutOrStdout(), report)
				}
				return err
			case watch:
				return runWatch(cmd, s)
			default:
				report, err := s.Sync(cmd.Context())
				if err != nil {
					return err
				}
				cliutil.PrintSyncResult(cmd.OutOrStdout(), report)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Exit non-zero when the document is out of date instead of writing it")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and sync again whenever an ABI file changes")

	return cmd
}

func runWatch(cmd *cobra.Command, s *syncer.Syncer) error {
	err := s.Watch(cmd.Context(), func(report *syncer.Report, err error) {
		if err != nil {
			cliutil.PrintSyncError(cmd.ErrOrStderr(), err)
			return
		}
		cliutil.PrintSyncResult(cmd.OutOrStdout(), report)
	})
	if errors.Is(err, context.Canceled) {
		log.Info("watch stopped")
		return nil
	}
	return err
}

func newSyncer() (*syncer.Syncer, error) {
	cfg, err := config.Load[config.Sync]()
	if err != nil {
		return nil, err
	}
	appCfg, err := cfg.ToAppConfig(cliutil.ConfigDir(viper.ConfigFileUsed()))
	if err != nil {
		return nil, err
	}
	log.Debugw("resolved configuration", "target", appCfg.Target.Path, "contracts", len(appCfg.Contracts))
	return syncer.New(appCfg), nil
}
