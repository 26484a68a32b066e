package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shll/contractsync/pkg/build"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of contractsync",
		Long:  `Print the version of contractsync including the git revision.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildVersion())
		},
	}
}

func buildVersion() string {
	return fmt.Sprintf(
		"version: %s\ncommit: %s\nbuilt at: %s\nbuilt by: %s",
		build.Version, build.Commit, build.Date, build.BuiltBy,
	)
}
