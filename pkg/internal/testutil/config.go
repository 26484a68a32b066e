package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shll/contractsync/pkg/config/app"
	"github.com/shll/contractsync/pkg/patcher"
)

// Registry is a small TypeScript contract registry holding AgentNFA and
// ListingManager with placeholder addresses and empty ABIs.
const Registry = `import type { Address } from "viem";

export const CONTRACTS = {
  AgentNFA: {
    address: "0x0000000000000000000000000000000000000001" as Address,
    abi: [] as const,
  },
  ListingManager: {
    address: "0x0000000000000000000000000000000000000002" as Address,
    abi: [] as const,
  },
};
`

const TokenABI = `[{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},{"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true}],"anonymous":false}]`

// ListingArtifact is a compiler artifact rather than a bare ABI array.
const ListingArtifact = `{"contractName":"ListingManager","abi":[{"type":"function","name":"list","inputs":[{"name":"id","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}]}`

const GuardABI = `[{"type":"error","name":"Denied","inputs":[]}]`

// TestConfigOption is a function that modifies a test config
type TestConfigOption func(*testing.T, *app.SyncConfig)

// NewTestConfig writes Registry and one ABI file per contract into a fresh
// temporary directory and returns a config pointing at them. Without options
// it syncs AgentNFA and ListingManager, and inserts PolicyGuard after
// ListingManager.
func NewTestConfig(t *testing.T, opts ...TestConfigOption) app.SyncConfig {
	t.Helper()

	dir := t.TempDir()
	target := filepath.Join(dir, "contracts.ts")
	WriteFile(t, target, Registry)

	cfg := app.SyncConfig{
		Target: app.TargetConfig{Path: target},
		Patcher: app.PatcherConfig{
			AddressAnchor:  patcher.DefaultAddressAnchor,
			PayloadAnchor:  patcher.DefaultPayloadAnchor,
			FallbackAnchor: "ListingManager",
		},
		Watch: app.WatchConfig{Debounce: 50 * time.Millisecond},
	}

	defaults := []TestConfigOption{
		WithContract("AgentNFA", "0xb65ca34b1526c926c75129ef934c3ba9fe6f29f6", TokenABI),
		WithContract("ListingManager", "0x71597c159007E9FF35bcF47822913cA78B182156", ListingArtifact),
		WithContract("PolicyGuard", "0xf087B0e4e829109603533FA3c81BAe101e46934b", GuardABI),
	}
	for _, opt := range append(defaults, opts...) {
		opt(t, &cfg)
	}

	return cfg
}

// WithContract writes abiJSON to <dir>/abi/<name>.json and appends the
// contract to the config.
func WithContract(name, address, abiJSON string) TestConfigOption {
	return func(t *testing.T, cfg *app.SyncConfig) {
		path := filepath.Join(filepath.Dir(cfg.Target.Path), "abi", name+".json")
		WriteFile(t, path, abiJSON)
		cfg.Contracts = append(cfg.Contracts, app.ContractConfig{
			Name:    name,
			Address: address,
			ABIPath: path,
		})
	}
}

// WithRegistry replaces the target document content.
func WithRegistry(content string) TestConfigOption {
	return func(t *testing.T, cfg *app.SyncConfig) {
		WriteFile(t, cfg.Target.Path, content)
	}
}

// WithFallbackAnchor sets the entry new contracts are inserted after.
func WithFallbackAnchor(name string) TestConfigOption {
	return func(_ *testing.T, cfg *app.SyncConfig) {
		cfg.Patcher.FallbackAnchor = name
	}
}

func WithDebounce(d time.Duration) TestConfigOption {
	return func(_ *testing.T, cfg *app.SyncConfig) {
		cfg.Watch.Debounce = d
	}
}

// WriteFile creates path, and any missing parent directories, with content.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ReadFile returns the content of path.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
