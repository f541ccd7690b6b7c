// Package secrets holds runtime credentials that can be rotated without a
// restart. The MCP bearer key lives here so an operator can change it in
// missioncontrol.yaml or the environment and send SIGHUP.
package secrets

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Strob0t/MissionControl/internal/config"
)

// MCPAPIKey is the vault key of the MCP transport bearer key.
const MCPAPIKey = "mcp_api_key"

// Loader retrieves the current set of secrets.
type Loader func() (map[string]string, error)

// Vault holds secret values in memory and swaps them atomically on reload.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{values: vals, loader: loader}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Getter returns a func reading key on every call, for consumers that must
// observe rotations.
func (v *Vault) Getter(key string) func() string {
	return func() string { return v.Get(key) }
}

// Reload calls the loader and swaps in the new values. On error the
// existing values are kept.
func (v *Vault) Reload() error {
	newVals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = newVals
	v.mu.Unlock()
	slog.Info("secrets reloaded", "keys", len(newVals))
	return nil
}

// ConfigLoader returns a Loader that re-reads the configuration from path
// (YAML then environment) and extracts the secret fields.
func ConfigLoader(path string) Loader {
	return func() (map[string]string, error) {
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return nil, err
		}
		vals := make(map[string]string, 1)
		if cfg.MCP.APIKey != "" {
			vals[MCPAPIKey] = cfg.MCP.APIKey
		}
		return vals, nil
	}
}
