// Package config loads the daemon configuration from an optional
// .autonotes.yaml file, AUTONOTES_* environment variables and compiled-in
// defaults, in that order of precedence reversed.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"autonotes/internal/domain"
)

const DefaultVaultPath = "~/Documents/Vault"

// VaultPath returns the vault path from AUTONOTES_VAULT env var,
// falling back to DefaultVaultPath.
func VaultPath() string {
	if env := os.Getenv("AUTONOTES_VAULT"); env != "" {
		return env
	}
	return DefaultVaultPath
}

// NoteConfig is where notes of one periodicity live in the vault
type NoteConfig struct {
	Folder   string `mapstructure:"folder" yaml:"folder"`
	Format   string `mapstructure:"format" yaml:"format,omitempty"`
	Template string `mapstructure:"template" yaml:"template,omitempty"`
}

// Config is the resolved configuration
type Config struct {
	Vault          string                `mapstructure:"vault" yaml:"vault"`
	DataDir        string                `mapstructure:"data_dir" yaml:"data_dir"`
	SettingsDir    string                `mapstructure:"settings_dir" yaml:"settings_dir"`
	DeviceID       string                `mapstructure:"device_id" yaml:"device_id,omitempty"`
	LogLevel       string                `mapstructure:"log_level" yaml:"log_level"`
	LogFile        string                `mapstructure:"log_file" yaml:"log_file,omitempty"`
	SettlingDelay  time.Duration         `mapstructure:"settling_delay" yaml:"settling_delay"`
	DriftTolerance time.Duration         `mapstructure:"drift_tolerance" yaml:"drift_tolerance"`
	WakeInterval   time.Duration         `mapstructure:"wake_interval" yaml:"wake_interval"`
	WorkspaceFile  string                `mapstructure:"workspace_file" yaml:"workspace_file"`
	Notes          map[string]NoteConfig `mapstructure:"notes" yaml:"notes"`
}

// Load reads the configuration. A missing config file is not an error.
func Load() (*Config, error) {
	return LoadForVault("")
}

// LoadForVault reads the configuration with vault taking precedence over
// every other source. An empty vault behaves like Load.
func LoadForVault(vault string) (*Config, error) {
	v := viper.New()
	v.SetDefault("vault", VaultPath())
	v.SetDefault("data_dir", "")
	v.SetDefault("settings_dir", "")
	v.SetDefault("device_id", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("settling_delay", time.Second)
	v.SetDefault("drift_tolerance", 5*time.Minute)
	v.SetDefault("wake_interval", 30*time.Second)
	v.SetDefault("workspace_file", "")
	v.SetDefault("notes.daily.folder", "Daily")

	v.SetConfigName(".autonotes") // .yaml is implicit
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AUTONOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("AUTONOTES_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if vault != "" {
		v.Set("vault", vault)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve expands ~ and fills the paths derived from other keys
func (c *Config) resolve() error {
	var err error
	if c.Vault, err = homedir.Expand(c.Vault); err != nil {
		return fmt.Errorf("invalid vault path: %w", err)
	}

	if c.DataDir == "" {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, err := homedir.Dir()
			if err != nil {
				return fmt.Errorf("cannot locate home directory: %w", err)
			}
			dataHome = filepath.Join(home, ".local", "share")
		}
		c.DataDir = filepath.Join(dataHome, "autonotes")
	}
	if c.DataDir, err = homedir.Expand(c.DataDir); err != nil {
		return fmt.Errorf("invalid data dir: %w", err)
	}

	// settings travel with the vault so every device sees the same blob
	if c.SettingsDir == "" {
		c.SettingsDir = filepath.Join(c.Vault, ".autonotes")
	}
	if c.SettingsDir, err = homedir.Expand(c.SettingsDir); err != nil {
		return fmt.Errorf("invalid settings dir: %w", err)
	}

	if c.WorkspaceFile == "" {
		c.WorkspaceFile = filepath.Join(c.DataDir, "workspace.json")
	}
	if c.WorkspaceFile, err = homedir.Expand(c.WorkspaceFile); err != nil {
		return fmt.Errorf("invalid workspace file: %w", err)
	}
	return nil
}

// NoteConfigs returns the configured periodicities. Unknown names are
// reported as an error.
func (c *Config) NoteConfigs() (map[domain.Periodicity]NoteConfig, error) {
	out := make(map[domain.Periodicity]NoteConfig, len(c.Notes))
	var unknown []string
	for name, nc := range c.Notes {
		p, err := domain.ParsePeriodicity(name)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		out[p] = nc
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return out, fmt.Errorf("unknown periodicities in notes: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
