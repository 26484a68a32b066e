package cli

import (
	"github.com/spf13/cobra"

	"github.com/shll/contractsync/cmd/cliutil/format"
)

func newPlanCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a sync would change without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFmt, err := format.ParseOutputFormat(outputFormat)
			if err != nil {
				return err
			}

			s, err := newSyncer()
			if err != nil {
				return err
			}
			report, err := s.Plan(cmd.Context())
			if err != nil {
				return err
			}
			return format.NewFormatter(outFmt, cmd.OutOrStdout()).Format(report)
		},
	}

	cmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json or yaml")

	return cmd
}
