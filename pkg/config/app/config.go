package app

import (
	"text/template"
	"time"
)

// SyncConfig is the resolved configuration for a sync run.
type SyncConfig struct {
	// Target document and how entries are written into it
	Target TargetConfig

	// How entries are located and patched
	Patcher PatcherConfig

	// Contracts to synchronize, in configuration order
	Contracts []ContractConfig

	Watch WatchConfig
}

// TargetConfig describes the registry document being rewritten.
type TargetConfig struct {
	// Absolute or working-directory relative path
	Path string
	// Write addresses in EIP-55 checksum form
	ChecksumAddresses bool
}

// PatcherConfig carries the anchors and insert behaviour of the patcher.
type PatcherConfig struct {
	AddressAnchor  string
	PayloadAnchor  string
	FallbackAnchor string
	WordBoundary   bool
	QuoteAware     bool
	// nil selects the built-in entry template
	EntryTemplate *template.Template
}

// ContractConfig is a single registry entry and the ABI it is synced from.
type ContractConfig struct {
	Name    string
	Address string
	ABIPath string
}

type WatchConfig struct {
	Debounce time.Duration
}
