package driven

// ConfigStore persists user settings. Nested tables are exposed as
// dot-notation keys such as "llm.model".
type ConfigStore interface {
	// Get retrieves a value by key and reports whether it exists.
	Get(key string) (any, bool)

	// Keys returns every stored key, sorted.
	Keys() []string

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Delete removes a key and persists. Missing keys are ignored.
	Delete(key string) error

	// Save persists the current configuration.
	Save() error

	// Load rereads the configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
