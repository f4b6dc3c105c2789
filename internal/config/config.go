package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/weibo-autopilot/internal/adapters/weibo"
	"github.com/spf13/viper"
)

const (
	appName     = "weibo-autopilot"
	configName  = "config"
	configType  = "toml"
	profileName = "weibo-autopilot-profile"

	DefaultSignature = " ⸢ᴬᴵ ᵖᵒˢᵗᵉᵈ⸥"
)

// Environment overrides.
const (
	EnvChromePath = "WEIBO_BROWSER_CHROME_PATH"
	EnvProfileDir = "WEIBO_AUTOPILOT_PROFILE_DIR"
	EnvDataDir    = "WEIBO_AUTOPILOT_DATA_DIR"
	EnvLogLevel   = "WEIBO_AUTOPILOT_LOG_LEVEL"
)

type Config struct {
	Browser   Browser         `mapstructure:"browser"`
	Site      Site            `mapstructure:"site"`
	Autopilot Autopilot       `mapstructure:"autopilot"`
	Data      Data            `mapstructure:"data"`
	Log       Log             `mapstructure:"log"`
	Metrics   Metrics         `mapstructure:"metrics"`
	Selectors weibo.Selectors `mapstructure:"selectors"`

	// File is the config file that was read, empty when none exists.
	File string `mapstructure:"-"`
}

type Browser struct {
	ChromePath     string        `mapstructure:"chrome_path"`
	ProfileDir     string        `mapstructure:"profile_dir"`
	LaunchTimeout  time.Duration `mapstructure:"launch_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type Site struct {
	BaseURL string `mapstructure:"base_url" toml:"base_url"`
	UserID  string `mapstructure:"user_id" toml:"user_id"`
}

type Autopilot struct {
	// Interval is the pause between cycles, in minutes.
	Interval         int    `mapstructure:"interval" toml:"interval"`
	Group            string `mapstructure:"group" toml:"group"`
	Signature        string `mapstructure:"signature" toml:"signature"`
	SignatureEnabled bool   `mapstructure:"signature_enabled" toml:"signature_enabled"`
}

type Data struct {
	Dir string `mapstructure:"dir" toml:"dir,omitempty"`
}

type Log struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

type Metrics struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

// IntervalDuration converts the configured minutes.
func (a Autopilot) IntervalDuration() time.Duration {
	return time.Duration(a.Interval) * time.Minute
}

// CommentSignature is the suffix appended to repost comments.
func (a Autopilot) CommentSignature() string {
	if !a.SignatureEnabled {
		return ""
	}
	return a.Signature
}

// Load reads config.toml from dir, layering defaults and environment
// overrides. A missing file is not an error. An empty dir uses Dir().
func Load(v *viper.Viper, dir string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return Config{}, err
		}
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	if err := setDefaults(v); err != nil {
		return Config{}, err
	}
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Selectors = cfg.Selectors.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Autopilot.Interval <= 0 {
		return fmt.Errorf("autopilot.interval must be positive, got %d", c.Autopilot.Interval)
	}
	if strings.TrimSpace(c.Site.BaseURL) == "" {
		return errors.New("site.base_url is empty")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func setDefaults(v *viper.Viper) error {
	profileDir, err := dataHome()
	if err != nil {
		return err
	}

	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.profile_dir", filepath.Join(profileDir, profileName))
	v.SetDefault("browser.launch_timeout", 30*time.Second)
	v.SetDefault("browser.command_timeout", 15*time.Second)
	v.SetDefault("browser.poll_interval", 200*time.Millisecond)
	v.SetDefault("site.base_url", weibo.DefaultBaseURL)
	v.SetDefault("site.user_id", "")
	v.SetDefault("autopilot.interval", 10)
	v.SetDefault("autopilot.group", "")
	v.SetDefault("autopilot.signature", DefaultSignature)
	v.SetDefault("autopilot.signature_enabled", true)
	v.SetDefault("data.dir", filepath.Join(profileDir, appName))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.addr", "")
	return nil
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"browser.chrome_path": EnvChromePath,
		"browser.profile_dir": EnvProfileDir,
		"data.dir":            EnvDataDir,
		"log.level":           EnvLogLevel,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// Dir is $XDG_CONFIG_HOME/weibo-autopilot, falling back to ~/.config.
func Dir() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

func dataHome() (string, error) {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return base, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share"), nil
}
