// Package config loads relay's configuration.
//
// Configuration comes from a YAML file with environment variable overrides:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("relay.yaml")
//
// Overrides follow RELAY_SECTION_FIELD, for example RELAY_LOGGING_LEVEL,
// RELAY_LOGGING_FORMAT, RELAY_METRICS_ENABLED and RELAY_SECRETS_FILE_PATH.
// Values are applied in order: defaults, file, environment, then validation.
//
// A file looks like:
//
//	logging:
//	  level: debug
//	  format: json
//	metrics:
//	  enabled: true
//	secrets:
//	  file_path: /var/run/secrets/relay
//	  watch: true
//	providers:
//	  google:
//	    GOOGLE_HOST: https://generativelanguage.googleapis.com
//	  python:
//	    PYTHON_PROVIDER_TIMEOUT: 2m
//
// Provider adapters do not read Config directly. Store adapts it, together
// with a secrets.Manager, to providers.ConfigStore:
//
//	manager, err := config.NewSecretManager(cfg.Secrets)
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//	store := config.NewStore(cfg, manager)
//	p, err := providerfactory.Create("google", model, store)
//
// There is no global configuration instance; pass the Store explicitly.
package config
