package secrets

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// secretSuffixes select variables listed by an unprefixed EnvProvider.
var secretSuffixes = []string{"_API_KEY", "_TOKEN", "_SECRET"}

// EnvProvider reads secrets from environment variables.
//
// Without a prefix the secret name is the variable name, so GOOGLE_API_KEY is
// read from $GOOGLE_API_KEY. With prefix "RELAY_SECRET_" it is read from
// $RELAY_SECRET_GOOGLE_API_KEY. Names are upper-cased and hyphens become
// underscores, so "google-api-key" resolves the same way.
type EnvProvider struct {
	Prefix string

	lookup  func(string) (string, bool)
	environ func() []string
}

// NewEnvProvider creates an environment secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{
		Prefix:  prefix,
		lookup:  os.LookupEnv,
		environ: os.Environ,
	}
}

// GetSecret reads the variable mapped from name. Empty values count as missing.
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	envVar := p.envVar(name)

	value, ok := p.lookup(envVar)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s (env var: %s)", ErrNotFound, name, envVar)
	}
	return value, nil
}

// ListSecrets returns variable names carrying the prefix, with the prefix
// removed. Without a prefix only names ending in a credential suffix are
// listed.
func (p *EnvProvider) ListSecrets(ctx context.Context) ([]string, error) {
	var names []string
	for _, kv := range p.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}

		if p.Prefix != "" {
			if strings.HasPrefix(key, p.Prefix) && len(key) > len(p.Prefix) {
				names = append(names, strings.TrimPrefix(key, p.Prefix))
			}
			continue
		}

		for _, suffix := range secretSuffixes {
			if strings.HasSuffix(key, suffix) {
				names = append(names, key)
				break
			}
		}
	}
	sort.Strings(names)

	return names, nil
}

// Provider returns "env".
func (p *EnvProvider) Provider() string {
	return "env"
}

// Supports accepts any non-empty name.
func (p *EnvProvider) Supports(name string) bool {
	return name != ""
}

func (p *EnvProvider) envVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
