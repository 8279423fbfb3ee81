package config

import "time"

// Config represents the main application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Model   ModelConfig   `yaml:"model"`
	Server  ServerConfig  `yaml:"server"`
	Agent   AgentConfig   `yaml:"agent"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds Gemini API settings.
type APIConfig struct {
	GeminiKey string      `yaml:"gemini_key,omitempty"`
	Retry     RetryConfig `yaml:"retry"`
}

// RetryConfig controls transport-level retries for API calls.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// ModelConfig holds model parameters.
type ModelConfig struct {
	Name            string  `yaml:"name"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// ServerConfig points at the auth server used for device-flow login.
type ServerConfig struct {
	URL string `yaml:"url"`
}

// AgentConfig holds agent-mode settings.
type AgentConfig struct {
	// MaxAttempts bounds structured-generation retries per request.
	MaxAttempts int `yaml:"max_attempts"`
}

// StorageConfig holds conversation storage settings.
type StorageConfig struct {
	// DBPath overrides the default database location when set.
	DBPath string `yaml:"db_path,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Retry: RetryConfig{
				MaxRetries: 3,
				RetryDelay: 1 * time.Second,
				MaxDelay:   30 * time.Second,
			},
		},
		Model: ModelConfig{
			Name:            "gemini-2.5-flash",
			Temperature:     0.7,
			MaxOutputTokens: 65536,
		},
		Server: ServerConfig{
			URL: "http://localhost:3005",
		},
		Agent: AgentConfig{
			MaxAttempts: 2,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.API.GeminiKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ConfigError is a configuration validation error.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrMissingAPIKey ConfigError = "missing Gemini API key: set GEMINI_API_KEY or add api.gemini_key to the config file"
)
