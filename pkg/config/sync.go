package config

import (
	"fmt"
	"path/filepath"
	"text/template"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/shll/contractsync/pkg/config/app"
	"github.com/shll/contractsync/pkg/patcher"
)

type Target struct {
	Path           string `mapstructure:"path" validate:"required" flag:"target" toml:"path"`
	FallbackAnchor string `mapstructure:"fallback_anchor" validate:"omitempty,ident" toml:"fallback_anchor,omitempty"`
	// EntryTemplate overrides the text/template used to render inserted entries.
	EntryTemplate     string `mapstructure:"entry_template" toml:"entry_template,omitempty"`
	ChecksumAddresses bool   `mapstructure:"checksum_addresses" toml:"checksum_addresses,omitempty"`
}

type Anchors struct {
	Address      string `mapstructure:"address" validate:"required" toml:"address"`
	Payload      string `mapstructure:"payload" validate:"required" toml:"payload"`
	WordBoundary bool   `mapstructure:"word_boundary" toml:"word_boundary,omitempty"`
	QuoteAware   bool   `mapstructure:"quote_aware" toml:"quote_aware,omitempty"`
}

type Contract struct {
	Name    string `mapstructure:"name" validate:"required,ident" toml:"name"`
	Address string `mapstructure:"address" validate:"required,hexaddr" toml:"address"`
	ABI     string `mapstructure:"abi" validate:"required" toml:"abi"`
}

type Watch struct {
	// Debounce accepts Go duration strings (e.g., "500ms", "2s").
	Debounce string `mapstructure:"debounce" toml:"debounce,omitempty"`
}

// Sync is the on-disk configuration of a sync run.
type Sync struct {
	Target    Target     `mapstructure:"target" toml:"target"`
	Anchors   Anchors    `mapstructure:"anchors" toml:"anchors"`
	Contracts []Contract `mapstructure:"contracts" validate:"required,min=1,dive" toml:"contracts"`
	Watch     Watch      `mapstructure:"watch" toml:"watch,omitempty"`
}

func (s Sync) Validate() error {
	if err := validateConfig(s); err != nil {
		return err
	}

	var merr *multierror.Error
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, c := range s.Contracts {
		if !seen.Add(c.Name) {
			merr = multierror.Append(merr, fmt.Errorf("duplicate contract name %q", c.Name))
		}
	}
	if s.Watch.Debounce != "" {
		if d, err := time.ParseDuration(s.Watch.Debounce); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("invalid watch.debounce %q: %w", s.Watch.Debounce, err))
		} else if d < 0 {
			merr = multierror.Append(merr, fmt.Errorf("watch.debounce must not be negative, got %s", d))
		}
	}
	return merr.ErrorOrNil()
}

// ToAppConfig resolves relative paths against baseDir, which is normally the
// directory holding the configuration file. An empty baseDir leaves paths
// relative to the working directory.
func (s Sync) ToAppConfig(baseDir string) (app.SyncConfig, error) {
	var tmpl *template.Template
	if s.Target.EntryTemplate != "" {
		t, err := patcher.ParseEntryTemplate(s.Target.EntryTemplate)
		if err != nil {
			return app.SyncConfig{}, fmt.Errorf("parsing target.entry_template: %w", err)
		}
		tmpl = t
	}

	var debounce time.Duration
	if s.Watch.Debounce != "" {
		d, err := time.ParseDuration(s.Watch.Debounce)
		if err != nil {
			return app.SyncConfig{}, fmt.Errorf("invalid watch.debounce %q: %w", s.Watch.Debounce, err)
		}
		debounce = d
	}

	contracts := lo.Map(s.Contracts, func(c Contract, _ int) app.ContractConfig {
		address := c.Address
		if s.Target.ChecksumAddresses {
			address = common.HexToAddress(c.Address).Hex()
		}
		return app.ContractConfig{
			Name:    c.Name,
			Address: address,
			ABIPath: resolve(baseDir, c.ABI),
		}
	})

	out := app.SyncConfig{
		Target: app.TargetConfig{
			Path:              resolve(baseDir, s.Target.Path),
			ChecksumAddresses: s.Target.ChecksumAddresses,
		},
		Patcher: app.PatcherConfig{
			AddressAnchor:  s.Anchors.Address,
			PayloadAnchor:  s.Anchors.Payload,
			FallbackAnchor: s.Target.FallbackAnchor,
			WordBoundary:   s.Anchors.WordBoundary,
			QuoteAware:     s.Anchors.QuoteAware,
			EntryTemplate:  tmpl,
		},
		Contracts: contracts,
		Watch: app.WatchConfig{
			Debounce: debounce,
		},
	}
	return out, nil
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
