package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shll/contractsync/cmd/cliutil"
	"github.com/shll/contractsync/pkg/config"
	"github.com/shll/contractsync/pkg/presets"
)

const configHeader = `# contractsync configuration.
# Relative paths are resolved against the directory holding this file.

`

func newInitCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a starter configuration file listing the default contracts. An
existing file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := starterConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}

			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				if errors.Is(err, fs.ErrExist) {
					return fmt.Errorf("%s already exists, refusing to overwrite it", path)
				}
				return err
			}
			defer f.Close()

			if _, err := f.WriteString(configHeader); err != nil {
				return err
			}
			if _, err := f.Write(data); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			log.Infow("wrote configuration", "path", path, "contracts", len(cfg.Contracts))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d contracts\n", path, len(cfg.Contracts))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", cliutil.ConfigFileName, "Where to write the configuration file")
	cobra.CheckErr(cmd.MarkFlagFilename("path", "toml"))

	return cmd
}

// starterConfig seeds a configuration from the presets. --target and
// --fallback, when given, replace the preset values.
func starterConfig() config.Sync {
	return config.Sync{
		Target: config.Target{
			Path:           viper.GetString(string(config.TargetPath)),
			FallbackAnchor: viper.GetString(string(config.TargetFallbackAnchor)),
		},
		Anchors: config.Anchors{
			Address: viper.GetString(string(config.AnchorsAddress)),
			Payload: viper.GetString(string(config.AnchorsPayload)),
		},
		Contracts: lo.Map(presets.Contracts(), func(c presets.Contract, _ int) config.Contract {
			return config.Contract{
				Name:    c.Name,
				Address: c.Address,
				ABI:     c.ABIPath,
			}
		}),
		Watch: config.Watch{
			Debounce: presets.DefaultDebounce.String(),
		},
	}
}
