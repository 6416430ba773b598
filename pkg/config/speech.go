package config

// SpeechConfig is the config block for the speech engine and sessions.
type SpeechConfig struct {
	// Provider selects the engine: "azure" or "openai".
	Provider    string                 `yaml:"provider"`
	Credentials CredentialsConfig      `yaml:"credentials"`
	Model       string                 `yaml:"model"`
	Options     map[string]interface{} `yaml:"options"` // Generic options, e.g. endpoint

	DefaultLocale         string `yaml:"default_locale"`
	IncludePartialResults *bool  `yaml:"include_partial_results"`
	// StreamBufferSize is the per subscriber buffer of session streams.
	StreamBufferSize int `yaml:"stream_buffer_size"`
	// ShutdownWorkers limits how many recognizers are cancelled in parallel on shutdown.
	ShutdownWorkers int `yaml:"shutdown_workers"`
}

// CredentialsConfig contains the most common credential fields.
// can use the Options field if needed extra data
type CredentialsConfig struct {
	APIKey string `yaml:"api_key"`
	Region string `yaml:"region"`
}

// OptionString returns a string option or def when missing.
func (s *SpeechConfig) OptionString(key, def string) string {
	if v, ok := s.Options[key].(string); ok && v != "" {
		return v
	}
	return def
}
