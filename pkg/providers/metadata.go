package providers

// ConfigKey describes a configuration value a provider reads at construction
// or execution time. It is declarative only.
type ConfigKey struct {
	// Name is the configuration key (e.g., "GOOGLE_API_KEY")
	Name string `json:"name"`

	// Required marks keys without which the provider cannot be built
	Required bool `json:"required"`

	// Secret marks keys that are read from the secret store and must never be logged
	Secret bool `json:"secret"`

	// Default is the value used when the key is absent (empty if none)
	Default string `json:"default,omitempty"`
}

// NewConfigKey builds a ConfigKey.
func NewConfigKey(name string, required, secret bool, def string) ConfigKey {
	return ConfigKey{Name: name, Required: required, Secret: secret, Default: def}
}

// ProviderMetadata is the static descriptor of a backend.
// It never depends on credentials or a live connection.
type ProviderMetadata struct {
	// Name is the identifier the factory accepts (e.g., "google")
	Name string `json:"name"`

	// DisplayName is a human-friendly name
	DisplayName string `json:"display_name"`

	// Description summarizes the backend
	Description string `json:"description"`

	// DefaultModel is used when the caller does not pick a model
	DefaultModel string `json:"default_model"`

	// KnownModels lists models the backend is known to serve
	KnownModels []string `json:"known_models"`

	// ModelDocLink points at the backend's model documentation
	ModelDocLink string `json:"model_doc_link"`

	// ConfigKeys lists every configuration value the backend reads
	ConfigKeys []ConfigKey `json:"config_keys"`
}

// RequiredKeys returns the names of the required config keys.
func (m ProviderMetadata) RequiredKeys() []string {
	var keys []string
	for _, k := range m.ConfigKeys {
		if k.Required {
			keys = append(keys, k.Name)
		}
	}
	return keys
}

// SecretKeys returns the names of config keys that hold secrets.
func (m ProviderMetadata) SecretKeys() []string {
	var keys []string
	for _, k := range m.ConfigKeys {
		if k.Secret {
			keys = append(keys, k.Name)
		}
	}
	return keys
}
