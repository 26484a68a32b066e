package cliutil

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/labstack/gommon/color"

	"github.com/shll/contractsync/pkg/syncer"
)

// PrintSyncResult writes the one-line outcome of a sync run.
func PrintSyncResult(w io.Writer, report *syncer.Report) {
	updated, inserted := report.Counts()
	switch {
	case report.Written:
		fmt.Fprintf(w, "%s updated %s (%d updated, %d inserted)\n",
			color.Green("✔"), report.Target, updated, inserted)
	case report.Changed:
		fmt.Fprintf(w, "%s %s is out of date (%d entries checked)\n",
			color.Yellow("!"), report.Target, len(report.Entries))
	default:
		fmt.Fprintf(w, "%s %s is up to date (%d entries checked)\n",
			color.Green("✔"), report.Target, len(report.Entries))
	}
}

// PrintSyncError writes a failed run in watch mode, where errors do not end
// the process.
func PrintSyncError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s sync failed: %v\n", color.Red("✘"), err)
}

// ConfigDir returns the directory relative input paths are resolved against:
// the directory of the config file in use, or "" when none was read.
func ConfigDir(configFileUsed string) string {
	if configFileUsed == "" {
		return ""
	}
	return filepath.Dir(configFileUsed)
}
