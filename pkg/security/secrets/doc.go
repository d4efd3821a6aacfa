/*
Package secrets loads API keys and other credentials for provider adapters.

# Providers

A SecretProvider serves values from one backend:

  - EnvProvider reads environment variables. Without a prefix the secret
    name is the variable name (GOOGLE_API_KEY).
  - FileProvider reads one file per secret from a directory, the layout of a
    Kubernetes secret mount. Files must be mode 0600 or 0400. With watching
    enabled, fsnotify events evict the changed secret.

# Manager

Manager chains providers in order and caches the first value found for the
configured TTL:

	files, err := secrets.NewFileProvider("/var/run/secrets/relay", true)
	if err != nil {
	    return err
	}
	manager := secrets.NewManager(
	    []secrets.SecretProvider{secrets.NewEnvProvider(""), files},
	    secrets.CacheConfig{Enabled: true, TTL: 5 * time.Minute, MaxSize: 100},
	)
	defer manager.Close()

	key, err := manager.GetSecret(ctx, "GOOGLE_API_KEY")

Lookups that find nothing return an error matching ErrNotFound. Configuration
values may embed ${secret:NAME} references, expanded by ResolveReferences.

Secret values are never logged, and names appear in logs shortened.
*/
package secrets
