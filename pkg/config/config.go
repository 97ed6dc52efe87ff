package config

import (
	"fmt"
	"os"
	"path/filepath"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the teamops configuration
type Config struct {
	GitHub   GitHubConfig `koanf:"github" yaml:"github"`
	TeamsDir string       `koanf:"teams_dir" yaml:"teams_dir"`
}

// GitHubConfig represents GitHub-specific configuration
type GitHubConfig struct {
	Token        string `koanf:"token" yaml:"token,omitempty"`
	Organization string `koanf:"organization" yaml:"organization"`
}

// DefaultTeamsDir is the teams directory used when none is configured
const DefaultTeamsDir = "teams"

// Environment variables override values from the config file
var envKeys = map[string]string{
	"TEAMOPS_GITHUB_TOKEN": "github.token",
	"TEAMOPS_GITHUB_ORG":   "github.organization",
	"TEAMOPS_TEAMS_DIR":    "teams_dir",
}

// LoadConfig loads configuration from the default location with environment
// overrides applied
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadConfigFromPath(configPath)
}

// LoadConfigFromPath loads configuration from a specific path. A missing
// file is not an error; environment variables alone can carry the config.
func LoadConfigFromPath(path string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("TEAMOPS_", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Workflow environments set GITHUB_ORG without the TEAMOPS_ prefix
	if config.GitHub.Organization == "" {
		config.GitHub.Organization = os.Getenv("GITHUB_ORG")
	}

	if config.TeamsDir == "" {
		config.TeamsDir = DefaultTeamsDir
	}

	return &config, nil
}

// SaveConfig saves configuration to the default location
func (c *Config) SaveConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveConfigToPath(configPath)
}

// SaveConfigToPath saves configuration to a specific path
func (c *Config) SaveConfigToPath(path string) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".teamops", "config.yaml"), nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GitHub.Organization == "" {
		return fmt.Errorf("GitHub organization is required: set github.organization or TEAMOPS_GITHUB_ORG")
	}

	return nil
}
