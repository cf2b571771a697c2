package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the task-tracker API server.
type ServerConfig struct {
	// BaseURL is the root URL of the API server.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Username identifies the current user; resolved to a user ID
	// against the server's user list at startup.
	Username string `mapstructure:"username" yaml:"username"`
}

// CacheConfig holds settings for the local working cache.
type CacheConfig struct {
	// Path is the SQLite database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// SyncConfig holds settings for the background what's-new poller.
type SyncConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// MailboxConfig holds IMAP settings used to resolve emailed subtask
// attachments. Left empty when email resolution is not configured.
type MailboxConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// AttachmentConfig holds settings for subtask file-reference resolution.
type AttachmentConfig struct {
	// Dir is the root directory for on-disk file references.
	Dir string `mapstructure:"dir" yaml:"dir"`

	Mailbox MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server      ServerConfig     `mapstructure:"server" yaml:"server"`
	Cache       CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Sync        SyncConfig       `mapstructure:"sync" yaml:"sync"`
	Attachments AttachmentConfig `mapstructure:"attachments" yaml:"attachments"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskdeck/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskdeck", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	return &AppConfig{
		Cache: CacheConfig{
			Path: filepath.Join(home, ".config", "taskdeck", "cache.db"),
		},
		Sync: SyncConfig{
			PollIntervalSec: 120,
		},
		Attachments: AttachmentConfig{
			Dir: filepath.Join(home, ".config", "taskdeck", "attachments"),
			Mailbox: MailboxConfig{
				Port:    "993",
				Mailbox: "INBOX",
				TLS:     true,
			},
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	defaults := defaultAppConfig()
	v.SetDefault("cache.path", defaults.Cache.Path)
	v.SetDefault("sync.poll_interval_sec", defaults.Sync.PollIntervalSec)
	v.SetDefault("attachments.dir", defaults.Attachments.Dir)
	v.SetDefault("attachments.mailbox.port", defaults.Attachments.Mailbox.Port)
	v.SetDefault("attachments.mailbox.mailbox", defaults.Attachments.Mailbox.Mailbox)
	v.SetDefault("attachments.mailbox.tls", defaults.Attachments.Mailbox.TLS)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("cache", cfg.Cache)
	v.Set("sync", cfg.Sync)
	v.Set("attachments", cfg.Attachments)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
