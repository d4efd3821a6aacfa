package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/security/secrets"
)

// SecretSource is the part of secrets.Manager the Store needs.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
	ResolveReferences(ctx context.Context, input string) (string, error)
}

// Store adapts a Config and a secret source to providers.ConfigStore.
//
// Get reads the process environment first and then the providers sections of
// the file. GetSecret asks the secret source first and then falls back to
// Get, so a key may also be given inline or as a ${secret:NAME} reference.
type Store struct {
	cfg       *Config
	secrets   SecretSource
	lookupEnv func(string) (string, bool)
}

var _ providers.ConfigStore = (*Store)(nil)

// NewStore creates a Store. source may be nil, in which case secrets are read
// like plain values.
func NewStore(cfg *Config, source SecretSource) *Store {
	if cfg == nil {
		cfg = NewDefault()
	}
	return &Store{
		cfg:       cfg,
		secrets:   source,
		lookupEnv: os.LookupEnv,
	}
}

// Get implements providers.ConfigStore.
func (s *Store) Get(key string) (string, error) {
	if v, ok := s.lookupEnv(key); ok && v != "" {
		return v, nil
	}

	raw, ok := s.sectionValue(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", providers.ErrConfigNotFound, key)
	}

	if s.secrets == nil {
		return raw, nil
	}
	resolved, err := s.secrets.ResolveReferences(context.Background(), raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", providers.ErrConfigNotFound, key, err)
	}
	return resolved, nil
}

// GetSecret implements providers.ConfigStore.
func (s *Store) GetSecret(key string) (string, error) {
	if s.secrets != nil {
		v, err := s.secrets.GetSecret(context.Background(), key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, secrets.ErrNotFound) {
			return "", err
		}
	}
	return s.Get(key)
}

// sectionValue finds key in the providers sections, visiting them in name
// order so a key repeated across sections resolves deterministically.
func (s *Store) sectionValue(key string) (string, bool) {
	names := make([]string, 0, len(s.cfg.Providers))
	for name := range s.cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if v, ok := s.cfg.Providers[name][key]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// NewSecretManager builds the secret manager described by cfg: the
// environment first, then the secrets directory when one is configured.
// Callers must Close the manager to stop file watching.
func NewSecretManager(cfg SecretsConfig) (*secrets.Manager, error) {
	chain := []secrets.SecretProvider{secrets.NewEnvProvider(cfg.EnvPrefix)}

	if cfg.FilePath != "" {
		files, err := secrets.NewFileProvider(cfg.FilePath, cfg.Watch)
		if err != nil {
			return nil, fmt.Errorf("failed to open secrets directory: %w", err)
		}
		chain = append(chain, files)
	}

	return secrets.NewManager(chain, secrets.CacheConfig{
		Enabled: !cfg.Cache.Disabled,
		TTL:     cfg.Cache.TTL,
		MaxSize: cfg.Cache.MaxSize,
	}), nil
}
