package config

import (
	"github.com/spf13/viper"

	"github.com/shll/contractsync/pkg/patcher"
	"github.com/shll/contractsync/pkg/presets"
)

// Key is a dotted viper key, matching the mapstructure path of a field in Sync.
type Key string

// Target document
const (
	TargetPath              Key = "target.path"
	TargetFallbackAnchor    Key = "target.fallback_anchor"
	TargetEntryTemplate     Key = "target.entry_template"
	TargetChecksumAddresses Key = "target.checksum_addresses"
)

// Anchors
const (
	AnchorsAddress      Key = "anchors.address"
	AnchorsPayload      Key = "anchors.payload"
	AnchorsWordBoundary Key = "anchors.word_boundary"
	AnchorsQuoteAware   Key = "anchors.quote_aware"
)

// Watch mode
const (
	WatchDebounce Key = "watch.debounce"
)

var defaultValues = map[Key]any{
	TargetPath:              presets.DefaultTargetPath,
	TargetFallbackAnchor:    presets.DefaultFallbackAnchor,
	TargetChecksumAddresses: false,

	AnchorsAddress:      patcher.DefaultAddressAnchor,
	AnchorsPayload:      patcher.DefaultPayloadAnchor,
	AnchorsWordBoundary: false,
	AnchorsQuoteAware:   false,

	WatchDebounce: presets.DefaultDebounce.String(),
}

// SetDefaults registers the defaults with the global viper instance. Values
// from flags, the environment and the config file take precedence.
func SetDefaults() {
	for k, v := range defaultValues {
		viper.SetDefault(string(k), v)
	}
}
