package cli

import (
	"context"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shll/contractsync/cmd/cli/flags"
	"github.com/shll/contractsync/cmd/cliutil"
	"github.com/shll/contractsync/pkg/config"
)

var log = logging.Logger("cmd")

const shortDescription = "Keep a contract registry in sync with deployed addresses and ABIs"

const longDescription = `
contractsync rewrites the entries of a hand-authored contract registry (for
example a TypeScript module exporting an object of addresses and ABIs) so that
each entry carries the configured address and the ABI read from its JSON file.
Everything outside the patched address literals and ABI arrays is left byte for
byte as it was. Missing entries are inserted after a configured fallback entry.
`

var (
	cfgFile  string
	logLevel string
)

func init() {
	cobra.OnInitialize(initLogging, initConfig)
}

// NewRootCmd builds the command tree. Flags are bound to the global viper
// instance, so only one tree should be executing at a time.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "contractsync",
		Short:        shortDescription,
		Long:         longDescription,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+cliutil.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "logging level")
	cobra.CheckErr(rootCmd.MarkPersistentFlagFilename("config", "toml", "yaml", "yml", "json"))
	cobra.CheckErr(flags.SetupTargetFlags(rootCmd.PersistentFlags()))

	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func initConfig() {
	viper.SetEnvPrefix(cliutil.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		cobra.CheckErr(viper.ReadInConfig())
		return
	}

	viper.SetConfigName(cliutil.ConfigName)
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	// Don't error if config file is not found
	if err := viper.ReadInConfig(); err == nil {
		log.Debugw("using config file", "path", viper.ConfigFileUsed())
	}
}

func initLogging() {
	if logLevel != "" {
		ll, err := logging.LevelFromString(logLevel)
		cobra.CheckErr(err)
		logging.SetAllLoggers(ll)
	} else {
		logging.SetLogLevel("cmd", "info")
		logging.SetLogLevel("syncer", "warn")
		logging.SetLogLevel("patcher", "warn")
		logging.SetLogLevel("abi", "error")
		logging.SetLogLevel("config", "error")
	}
}
