// Package config loads and saves sim6502 settings stored as TOML.
package config

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the settings for running programs and for the monitor.
type Config struct {
	Run     RunConfig     `toml:"run"`
	Log     LogConfig     `toml:"log"`
	Monitor MonitorConfig `toml:"monitor"`
}

type RunConfig struct {
	// MaxSteps bounds the number of instructions a program may execute.
	// Zero means no bound.
	MaxSteps int `toml:"max_steps"`
}

type LogConfig struct {
	Level   string `toml:"level"`
	Modules string `toml:"modules"`
}

type MonitorConfig struct {
	MemDumpBytes int  `toml:"mem_dump_bytes"`
	MaxRunSteps  int  `toml:"max_run_steps"`
	Color        bool `toml:"color"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Run: RunConfig{
			MaxSteps: 1_000_000,
		},
		Log: LogConfig{
			Level: "warning",
		},
		Monitor: MonitorConfig{
			MemDumpBytes: 64,
			MaxRunSteps:  1_000_000,
			Color:        true,
		},
	}
}

// Decode reads a configuration from r. Settings absent from the input keep
// their default values.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration file at path. A missing file is not an error
// and yields the default configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration to path.
func Save(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
