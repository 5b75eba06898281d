// Package file loads the service configuration from a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full service configuration.
type Config struct {
	// DataDir holds the SQLite database. Empty means ~/.jane/data.
	DataDir string `toml:"data_dir"`

	// ArtifactDir holds finished job artifacts. Empty means
	// ~/.jane/artifacts.
	ArtifactDir string `toml:"artifact_dir"`

	// WatchDirs maps document type names to drop directories monitored
	// for new files.
	WatchDirs map[string]string `toml:"watch_dirs"`

	Jobs JobsConfig `toml:"jobs"`
	FDSN FDSNConfig `toml:"fdsn"`
	Log  LogConfig  `toml:"log"`
}

// JobsConfig bounds background query execution.
type JobsConfig struct {
	Workers     int           `toml:"workers"`
	PollTimeout time.Duration `toml:"poll_timeout"`
}

// FDSNConfig fills the header of generated station documents.
type FDSNConfig struct {
	Source    string `toml:"source"`
	Sender    string `toml:"sender"`
	ModuleURI string `toml:"module_uri"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Jobs: JobsConfig{
			Workers:     4,
			PollTimeout: 10 * time.Second,
		},
		FDSN: FDSNConfig{
			Source: "jane",
			Sender: "jane",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.jane/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".jane", "config.toml"), nil
}

// Load reads the configuration at path, applying defaults for anything
// the file leaves out. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Jobs.Workers < 1 {
		cfg.Jobs.Workers = 1
	}
	if cfg.Jobs.PollTimeout <= 0 {
		cfg.Jobs.PollTimeout = 10 * time.Second
	}

	return cfg, nil
}

// Save writes the configuration to path with restricted permissions.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
