package cliutil

// ConfigFileName is the default config file name created by the init command
// and looked up in the working directory when --config is not given.
const ConfigFileName = "contractsync.toml"

// ConfigName is ConfigFileName without its extension, as viper expects it.
const ConfigName = "contractsync"

// EnvPrefix prefixes every environment variable bound to a config key.
const EnvPrefix = "CONTRACTSYNC"
