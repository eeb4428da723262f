package driven

// ConfigStore provides access to persisted configuration.
// Keys use dot notation ("embedding.model"); values keep the type they were
// stored with. Typed access and defaults live with the settings loader.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// Set stores a configuration value and persists it immediately.
	Set(key string, value any) error

	// Unset removes a key and persists the change. Missing keys are ignored.
	Unset(key string) error

	// Keys returns every stored key in sorted order.
	Keys() []string

	// Load reads configuration from storage, replacing in-memory values.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
