package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is wrapped by every lookup that finds no value.
var ErrNotFound = errors.New("secret not found")

// SecretProvider retrieves secrets from one backend.
type SecretProvider interface {
	// GetSecret returns the value stored under name.
	// A missing secret yields an error matching ErrNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// ListSecrets returns the secret names the backend can serve, never values.
	ListSecrets(ctx context.Context) ([]string, error)

	// Provider returns the backend name (env, file).
	Provider() string

	// Supports reports whether the backend may hold name.
	Supports(name string) bool
}

// RefreshableProvider can drop what it has loaded and read it again.
type RefreshableProvider interface {
	SecretProvider

	// Refresh forgets loaded values so the next lookup re-reads them.
	Refresh(ctx context.Context) error
}
