package memory

// Config holds prompt store parameters.
type Config struct {
	// Path is the FileStore root directory; empty disables the store.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Prefix restricts composition to keys under a subdirectory, such as
	// one persona out of several ("personas/lincoln/").
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// DefaultConfig returns the default configuration (disabled).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Prefix != "" {
		c.Prefix = source.Prefix
	}
}

// NewStore creates a Store from configuration. Returns a nil Store when Path
// is empty.
func NewStore(cfg *Config) (Store, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	return NewFileStore(cfg.Path, cfg.Prefix), nil
}
