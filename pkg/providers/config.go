package providers

import (
	"errors"
	"fmt"
)

// ErrConfigNotFound is returned by a ConfigStore when a key has no value.
var ErrConfigNotFound = errors.New("config value not found")

// ConfigStore is the configuration and secret source adapters are built from.
// It is passed explicitly into every constructor; there is no global instance.
type ConfigStore interface {
	// Get returns a plain configuration value.
	Get(key string) (string, error)

	// GetSecret returns a secret value such as an API key.
	GetSecret(key string) (string, error)
}

// MapConfig is an in-memory ConfigStore. Secrets and plain values share one map.
type MapConfig map[string]string

// Get implements ConfigStore.
func (m MapConfig) Get(key string) (string, error) {
	if v, ok := m[key]; ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrConfigNotFound, key)
}

// GetSecret implements ConfigStore.
func (m MapConfig) GetSecret(key string) (string, error) {
	return m.Get(key)
}

// GetOrDefault reads key from store, falling back to def when it is absent.
func GetOrDefault(store ConfigStore, key, def string) string {
	if store == nil {
		return def
	}
	v, err := store.Get(key)
	if err != nil || v == "" {
		return def
	}
	return v
}
