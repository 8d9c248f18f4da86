// Package config provides YAML-based configuration loading for Upkeep.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Upkeep configuration, loaded from upkeep.yaml.
type Config struct {
	Database DatabaseConfig  `yaml:"database"`
	Server   ServerConfig    `yaml:"server"`
	AI       AIConfig        `yaml:"ai"`
	Monitor  MonitorConfig   `yaml:"monitor"`
	Notify   NotifyConfig    `yaml:"notify"`
	SlaSeeds []SlaSeedConfig `yaml:"sla_policies"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// ServerConfig holds settings for the REST API server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// AIConfig controls the AI assist adapter. The API key may also be
// supplied via OPENAI_API_KEY, which takes precedence over the file.
type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// MonitorConfig controls the SLA monitoring sweep.
type MonitorConfig struct {
	Schedule              string  `yaml:"schedule"`               // 5-field cron expression
	EscalationProbability float64 `yaml:"escalation_probability"` // HIGH-risk escalation threshold
}

// NotifyConfig holds chat delivery settings. Tokens may also be
// supplied via SLACK_BOT_TOKEN / DISCORD_BOT_TOKEN.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// SlaSeedConfig defines one SLA policy row seeded at migration time.
type SlaSeedConfig struct {
	PropertyID            *uint  `yaml:"property_id"` // nil = global default
	Priority              string `yaml:"priority"`
	ResponseTimeMinutes   *int   `yaml:"response_time_minutes"`
	ResolutionTimeMinutes int    `yaml:"resolution_time_minutes"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Database == "" {
		c.Database.Database = "upkeep"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.Monitor.Schedule == "" {
		c.Monitor.Schedule = "0 * * * *"
	}
	if c.Monitor.EscalationProbability == 0 {
		c.Monitor.EscalationProbability = 0.8
	}
}

// applyEnv lets environment variables override file-based secrets.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Notify.SlackToken = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		c.Notify.DiscordToken = v
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Monitor.EscalationProbability < 0 || c.Monitor.EscalationProbability > 1 {
		errs = append(errs, "monitor.escalation_probability must be in [0,1]")
	}
	for i, s := range c.SlaSeeds {
		if s.Priority == "" {
			errs = append(errs, fmt.Sprintf("sla_policies[%d].priority is required", i))
		}
		if s.ResolutionTimeMinutes <= 0 {
			errs = append(errs, fmt.Sprintf("sla_policies[%d].resolution_time_minutes must be positive", i))
		}
	}
	if c.Notify.SlackToken != "" && c.Notify.SlackChannel == "" {
		errs = append(errs, "notify.slack_channel is required when slack_token is set")
	}
	if c.Notify.DiscordToken != "" && c.Notify.DiscordChannel == "" {
		errs = append(errs, "notify.discord_channel is required when discord_token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
