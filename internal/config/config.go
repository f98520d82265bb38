package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/lazypower/notekeeper/internal/merge"
	"gopkg.in/yaml.v3"
)

// Config holds all notekeeper configuration.
type Config struct {
	Vault     VaultConfig     `yaml:"vault"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Merge     MergeConfig     `yaml:"merge"`
	Snapshots SnapshotsConfig `yaml:"snapshots"`
	Watch     WatchConfig     `yaml:"watch"`
}

type VaultConfig struct {
	Root              string `yaml:"root"`
	AttachmentsFolder string `yaml:"attachments_folder"` // generator-owned attachment folder
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// MergeConfig extends the built-in merge policy lists.
type MergeConfig struct {
	SystemKeys   []string `yaml:"system_keys"`
	Placeholders []string `yaml:"placeholders"`
}

type SnapshotsConfig struct {
	Retain   int  `yaml:"retain"` // snapshots kept per note
	Compress bool `yaml:"compress"`
}

type WatchConfig struct {
	RenderDir  string `yaml:"render_dir"`
	DebounceMS int    `yaml:"debounce_ms"`
	Workers    int    `yaml:"workers"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Vault: VaultConfig{
			AttachmentsFolder: "Attachments",
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Snapshots: SnapshotsConfig{
			Retain:   20,
			Compress: true,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
			Workers:    4,
		},
	}
}

// DefaultPath returns the config file location: $NOTEKEEPER_CONFIG or
// ~/.notekeeper/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv("NOTEKEEPER_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".notekeeper", "config.yaml"), nil
}

// Load builds a Config from defaults, an optional YAML file, a .env file in
// the working directory and NOTEKEEPER_* environment variables, in that
// order of increasing precedence. An empty path means DefaultPath. A missing
// file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("NOTEKEEPER_VAULT"); v != "" {
		c.Vault.Root = v
	}
	if v := os.Getenv("NOTEKEEPER_ATTACHMENTS"); v != "" {
		c.Vault.AttachmentsFolder = v
	}
	if v := os.Getenv("NOTEKEEPER_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("NOTEKEEPER_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("NOTEKEEPER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse NOTEKEEPER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("NOTEKEEPER_RENDER_DIR"); v != "" {
		c.Watch.RenderDir = v
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime.
// requireVault is set by commands that read or write notes.
func (c *Config) Validate(requireVault bool) error {
	if requireVault && c.Vault.Root == "" {
		return errors.New("vault root is not set (vault.root or NOTEKEEPER_VAULT)")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Snapshots.Retain < 0 {
		return fmt.Errorf("snapshots.retain must not be negative, got %d", c.Snapshots.Retain)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// MergeOptions returns the default merge policy extended with the configured
// system keys and placeholders.
func (c *Config) MergeOptions() merge.Options {
	return merge.DefaultOptions().With(c.Merge.SystemKeys, c.Merge.Placeholders)
}
