package flags

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shll/contractsync/pkg/config"
)

// FlagBinding ties a command-line flag to a config key.
type FlagBinding struct {
	FlagName string
	ViperKey config.Key
	// EnvVar is an extra variable read besides the prefixed one viper derives
	// from ViperKey.
	EnvVar string
}

func AddAndBindFlags(fs *pflag.FlagSet, bindings []FlagBinding) error {
	for _, b := range bindings {
		flag := fs.Lookup(b.FlagName)
		if flag == nil {
			return fmt.Errorf("binding %s: flag --%s is not defined", b.ViperKey, b.FlagName)
		}
		if err := viper.BindPFlag(string(b.ViperKey), flag); err != nil {
			return err
		}
		if b.EnvVar != "" {
			if err := viper.BindEnv(string(b.ViperKey), b.EnvVar); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetupTargetFlags registers the flags shared by every command that reads the
// registry document.
func SetupTargetFlags(fs *pflag.FlagSet) error {
	fs.String("target", "", "Path of the contract registry document to rewrite")
	fs.String("fallback", "", "Name of the entry new contracts are inserted after")

	return AddAndBindFlags(fs, []FlagBinding{
		{FlagName: "target", ViperKey: config.TargetPath},
		{FlagName: "fallback", ViperKey: config.TargetFallbackAnchor},
	})
}
