// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Backend environment tags. The tag governs whether the in-process mock
// substitutes for the real backend.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
	BackendMock   = "mock"
)

type BackendConfig struct {
	// Environment is one of local, remote, or mock.
	Environment string `yaml:"environment"`
	BaseURL     string `yaml:"base_url"`
}

// Mock reports whether the in-process backend substitute should be used.
func (b BackendConfig) Mock() bool {
	return b.Environment == BackendMock
}

type EmailConfig struct {
	Enabled bool   `yaml:"enabled"`
	Region  string `yaml:"region"`
	Sender  string `yaml:"sender"`
	// Credentials are loaded from the environment, never from yaml.
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type JobsConfig struct {
	// ToastSweep is a cron expression for pruning expired notifications.
	ToastSweep string `yaml:"toast_sweep"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Backend BackendConfig `yaml:"backend"`
	Email   EmailConfig   `yaml:"email"`
	Jobs    JobsConfig    `yaml:"jobs"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	if cfg.Jobs.ToastSweep == "" {
		cfg.Jobs.ToastSweep = "* * * * *"
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.App.SecretKey == "" {
		return fmt.Errorf("app secret key is required")
	}

	switch c.Backend.Environment {
	case BackendLocal, BackendRemote:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend base URL is required for %s environment", c.Backend.Environment)
		}
	case BackendMock:
		// No base URL needed; the mock runs in-process.
	default:
		return fmt.Errorf("unsupported backend environment: %s", c.Backend.Environment)
	}

	if c.Email.Enabled {
		if c.Email.Region == "" || c.Email.Sender == "" {
			return fmt.Errorf("email region and sender are required when email is enabled")
		}
		if c.Email.AccessKeyID == "" || c.Email.SecretAccessKey == "" {
			return fmt.Errorf("email credentials are required when email is enabled")
		}
	}

	if _, err := cron.ParseStandard(c.Jobs.ToastSweep); err != nil {
		return fmt.Errorf("invalid toast sweep schedule %q: %w", c.Jobs.ToastSweep, err)
	}

	return nil
}
