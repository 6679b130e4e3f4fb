package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	MinWorkers = 1
	MaxWorkers = 16

	DefaultWorkers = 3
	DefaultRetries = 3
)

// Config holds one batch run's settings. Flags override file values; the
// API key comes from the environment (or .env), never from the file.
type Config struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	Workers        int    `yaml:"workers"`
	Retries        int    `yaml:"retries"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	InputDir       string `yaml:"input_dir"`
	OutputDir      string `yaml:"output_dir"`
	OutputFile     string `yaml:"output_file"`

	APIKey string `yaml:"-"`
}

// models each provider is allowed to run with
var allowedModels = map[string][]string{
	"gemini":    {"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"},
	"openai":    {"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini"},
	"anthropic": {"claude-haiku-4-5", "claude-sonnet-4-5"},
}

// environment variable carrying the credential, per provider
var keyEnvVars = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

func Default() *Config {
	return &Config{
		Provider:   "gemini",
		Workers:    DefaultWorkers,
		Retries:    DefaultRetries,
		OutputDir:  "subtitle_output",
		OutputFile: "output.srt",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate applies defaults and rejects configurations that can only fail
// at runtime. Worker counts outside [1,16] are clamped here so the
// dispatcher never sees them.
func (c *Config) Validate() error {
	if c.Provider == "" {
		c.Provider = "gemini"
	}
	models, ok := allowedModels[c.Provider]
	if !ok {
		return fmt.Errorf(
			"unsupported provider %q: use gemini, openai or anthropic",
			c.Provider,
		)
	}

	if c.Model == "" {
		c.Model = models[0]
	}
	if !contains(models, c.Model) {
		return fmt.Errorf(
			"model %q is not supported for provider %s (supported: %s)",
			c.Model,
			c.Provider,
			strings.Join(models, ", "),
		)
	}

	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Workers < MinWorkers {
		c.Workers = MinWorkers
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}

	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}

	if c.OutputDir == "" {
		c.OutputDir = "subtitle_output"
	}
	if c.OutputFile == "" {
		c.OutputFile = "output.srt"
	}
	if !strings.HasSuffix(strings.ToLower(c.OutputFile), ".srt") &&
		!strings.HasSuffix(strings.ToLower(c.OutputFile), ".vtt") {
		c.OutputFile += ".srt"
	}

	return nil
}

// ResolveAPIKey fills APIKey from the provider's environment variable,
// loading a .env file first when one is present. An already-set key (from
// a flag) wins.
func (c *Config) ResolveAPIKey() error {
	if c.APIKey != "" {
		return nil
	}

	envVar := keyEnvVars[c.Provider]
	if envVar == "" {
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}

	if _, err := os.Stat(".env"); err == nil {
		godotenv.Load(".env")
	}

	c.APIKey = os.Getenv(envVar)
	if c.APIKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key or set %s",
			envVar,
		)
	}

	return nil
}

// OutputPath joins the configured output directory and file name.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputFile)
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
