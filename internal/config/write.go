package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/weibo-autopilot/internal/adapters/weibo"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	FileName = configName + "." + configType

	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".config-*.toml.tmp"
)

var ErrConfigExists = errors.New("config file already exists")

type fileSchema struct {
	Browser   browserSchema   `toml:"browser"`
	Site      Site            `toml:"site"`
	Autopilot Autopilot       `toml:"autopilot"`
	Data      Data            `toml:"data,omitempty"`
	Log       Log             `toml:"log"`
	Metrics   Metrics         `toml:"metrics"`
	Selectors weibo.Selectors `toml:"selectors"`
}

type browserSchema struct {
	ChromePath     string `toml:"chrome_path,omitempty"`
	ProfileDir     string `toml:"profile_dir,omitempty"`
	LaunchTimeout  string `toml:"launch_timeout"`
	CommandTimeout string `toml:"command_timeout"`
	PollInterval   string `toml:"poll_interval"`
}

// Write encodes cfg as TOML at path. An existing file is only replaced when
// overwrite is set.
func Write(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use --force to replace it)", ErrConfigExists, path)
		}
	}

	data, err := toml.Marshal(toSchema(cfg))
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(cfg Config) fileSchema {
	return fileSchema{
		Browser: browserSchema{
			ChromePath:     cfg.Browser.ChromePath,
			ProfileDir:     cfg.Browser.ProfileDir,
			LaunchTimeout:  cfg.Browser.LaunchTimeout.String(),
			CommandTimeout: cfg.Browser.CommandTimeout.String(),
			PollInterval:   cfg.Browser.PollInterval.String(),
		},
		Site:      cfg.Site,
		Autopilot: cfg.Autopilot,
		Data:      cfg.Data,
		Log:       cfg.Log,
		Metrics:   cfg.Metrics,
		Selectors: cfg.Selectors.WithDefaults(),
	}
}
