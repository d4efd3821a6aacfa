/*
Package security groups credential handling for relay.

# Secret Management

The secrets subpackage resolves API keys from the environment and from a
directory of secret files, with caching and file watching:

	manager := secrets.NewManager([]secrets.SecretProvider{
		secrets.NewEnvProvider(""),
		files,
	}, secrets.CacheConfig{Enabled: true, TTL: 5 * time.Minute})

	apiKey, err := manager.GetSecret(ctx, "ANTHROPIC_API_KEY")

Configuration values may reference secrets as ${secret:NAME}; config.Store
resolves them through the manager.

Secret values must never reach logs. The telemetry/logging handler masks
known key formats and credential-named attributes.
*/
package security
