// SPDX-License-Identifier: Apache-2.0

// Package config handles application configuration: reading and writing the
// YAML configuration file, environment variable overrides, and path helpers
// shared by the Canvas, Google and AWS integrations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCanvasEndpoint is used when neither the config file nor the
// CANVAS_ENDPOINT environment variable provide one.
const DefaultCanvasEndpoint = "https://boisestatecanvas.instructure.com"

// CanvasConfig holds credentials and endpoint for the Canvas LMS REST API.
type CanvasConfig struct {
	// Token is the Canvas API bearer token
	Token string `yaml:"token,omitempty"`

	// Endpoint is the Canvas instance base URL (no trailing slash)
	Endpoint string `yaml:"endpoint,omitempty"`
}

// GoogleConfig holds paths for Google Workspace credentials and token caches.
type GoogleConfig struct {
	// Credentials is the path to a service account or OAuth client JSON file
	Credentials string `yaml:"credentials,omitempty"`

	// TokensDir is the directory for cached OAuth tokens (defaults to the config dir)
	TokensDir string `yaml:"tokens_dir,omitempty"`

	// SenderName is used in the signature of credential emails
	SenderName string `yaml:"sender_name,omitempty"`
}

// AWSConfig holds settings for student environment provisioning.
type AWSConfig struct {
	// Region is the AWS region for IAM/EC2 operations
	Region string `yaml:"region,omitempty"`

	// LaunchTemplate is the EC2 Launch Template name or ID for student VMs
	LaunchTemplate string `yaml:"launch_template,omitempty"`

	// InstructorKey is the path to the instructor PEM private key used to
	// bootstrap SSH access on freshly launched instances
	InstructorKey string `yaml:"instructor_key,omitempty"`
}

// Config represents the top-level application configuration
type Config struct {
	Canvas CanvasConfig `yaml:"canvas"`
	Google GoogleConfig `yaml:"google"`
	AWS    AWSConfig    `yaml:"aws"`
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "edutools", "config.yaml"), nil
}

// ConfigDir returns the edutools configuration directory.
func ConfigDir() (string, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// LoadConfig reads the config file and applies environment overrides.
// A missing file is not an error; env vars alone are a valid configuration.
func LoadConfig() (Config, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return cfg, nil
}

// LoadFile reads the config file as written, without environment overrides
// or defaults. Used when editing the file so the current environment doesn't
// get baked into it.
func LoadFile() (Config, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables take precedence over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CANVAS_TOKEN"); v != "" {
		cfg.Canvas.Token = v
	}
	if v := os.Getenv("CANVAS_ENDPOINT"); v != "" {
		cfg.Canvas.Endpoint = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS"); v != "" {
		cfg.Google.Credentials = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	} else if v := os.Getenv("AWS_DEFAULT_REGION"); v != "" && cfg.AWS.Region == "" {
		cfg.AWS.Region = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Canvas.Endpoint == "" {
		cfg.Canvas.Endpoint = DefaultCanvasEndpoint
	}
	cfg.Canvas.Endpoint = strings.TrimRight(cfg.Canvas.Endpoint, "/")

	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-west-2"
	}

	if cfg.Google.TokensDir == "" {
		if dir, err := ConfigDir(); err == nil {
			cfg.Google.TokensDir = dir
		}
	}
	if cfg.Google.Credentials == "" {
		if dir, err := ConfigDir(); err == nil {
			candidate := filepath.Join(dir, "credentials.json")
			if _, err := os.Stat(candidate); err == nil {
				cfg.Google.Credentials = candidate
			}
		}
	}
}

func EnsureConfigDir() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.MkdirAll(configDir, 0750) // rwxr-x---
	if err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

func SaveConfig(cfg Config) error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}

	err = EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Write with permissions rw-r----- (0640); the file holds API tokens.
	err = os.WriteFile(configPath, data, 0640)
	if err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}

	return nil
}

func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("could not get user home directory to resolve path '%s': %w", path, err)
	}

	return filepath.Join(homeDir, path[2:]), nil
}
