// Package config provides YAML-based configuration loading for Towncrier.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Towncrier configuration, loaded from
// towncrier.yaml.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Janitor   JanitorConfig   `yaml:"janitor"`
}

// DiscordConfig holds the bot connection settings.
type DiscordConfig struct {
	Token  string `yaml:"token"`
	Prefix string `yaml:"prefix"`
}

// StorageConfig selects the settings database backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
	Path   string `yaml:"path"`   // sqlite file path
	DSN    string `yaml:"dsn"`    // mysql DSN
}

// DSNString returns the backend-appropriate connection string.
func (c StorageConfig) DSNString() string {
	if c.Driver == "mysql" {
		return c.DSN
	}
	return c.Path
}

// DashboardConfig controls the read-only HTTP dashboard.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// JanitorConfig controls cleanup of replies and idle towns.
type JanitorConfig struct {
	DeleteDelaySec int    `yaml:"delete_delay_sec"` // reply/command deletion delay
	SweepSchedule  string `yaml:"sweep_schedule"`   // 5-field cron expression
	IdleTTLMin     int    `yaml:"idle_ttl_min"`     // idle minutes before a town is swept
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
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values. The token can also come
// from the DISCORD_TOKEN environment variable so it can stay out of the file.
func (c *Config) applyDefaults() {
	if c.Discord.Token == "" {
		c.Discord.Token = os.Getenv("DISCORD_TOKEN")
	}
	if c.Discord.Prefix == "" {
		c.Discord.Prefix = "."
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.Path == "" {
		c.Storage.Path = "towncrier.db"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Janitor.DeleteDelaySec == 0 {
		c.Janitor.DeleteDelaySec = 60
	}
	if c.Janitor.SweepSchedule == "" {
		c.Janitor.SweepSchedule = "0 * * * *"
	}
	if c.Janitor.IdleTTLMin == 0 {
		c.Janitor.IdleTTLMin = 12 * 60
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Discord.Token == "" {
		errs = append(errs, "discord.token is required (or set DISCORD_TOKEN)")
	}
	switch c.Storage.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q must be sqlite or mysql", c.Storage.Driver))
	}
	if c.Storage.Driver == "mysql" && c.Storage.DSN == "" {
		errs = append(errs, "storage.dsn is required for the mysql driver")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
