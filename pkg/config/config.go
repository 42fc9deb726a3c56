// Package config provides simple configuration loading for the bridge tool
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToolConfig configures the arrowbridge command-line tool.
type ToolConfig struct {
	// Logging controls the structured logger.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	// Demo controls the round-trip demonstration.
	Demo DemoConfig `yaml:"demo" json:"demo"`
}

// LoggingConfig mirrors the logger package configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Encoding string `yaml:"encoding" json:"encoding"`
}

// DemoConfig controls the sample data used by the round-trip command.
type DemoConfig struct {
	Rows int `yaml:"rows" json:"rows"`
}

// Default returns the tool defaults.
func Default() *ToolConfig {
	return &ToolConfig{
		Logging: LoggingConfig{Level: "info", Encoding: "console"},
		Demo:    DemoConfig{Rows: 8},
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *ToolConfig) Validate() error {
	if c.Demo.Rows < 0 {
		return fmt.Errorf("demo.rows must be non-negative, got %d", c.Demo.Rows)
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.encoding must be json or console, got %q", c.Logging.Encoding)
	}
	return nil
}

// Load loads a configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	content := string(data)
	content = substituteEnvVars(content)

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
