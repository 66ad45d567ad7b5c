// Package settings resolves client-side settings for the mrpconf binaries.
//
// Precedence is flag > environment (MRPCONF_*) > config file > defaults.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rmax-ai/mrpconf/pkg/client"
)

// EnvPrefix is prepended to every environment variable, e.g. MRPCONF_SOURCE_URL.
const EnvPrefix = "MRPCONF"

// Settings is the resolved configuration of a client binary.
type Settings struct {
	SourceURL   string
	Timeout     time.Duration
	Retries     int
	LogLevel    string
	LogFormat   string
	LogFile     string
	MetricsAddr string

	// ConfigFile is the file that was read, if any.
	ConfigFile string
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		SourceURL: client.DefaultEndpoint,
		Timeout:   10 * time.Second,
		Retries:   2,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// keys maps viper keys to flag names.
var keys = map[string]string{
	"source_url":   "source-url",
	"timeout":      "timeout",
	"retries":      "retries",
	"log_level":    "log-level",
	"log_format":   "log-format",
	"log_file":     "log-file",
	"metrics_addr": "metrics-addr",
}

// RegisterFlags adds the settings flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("config", "", "config file (toml, yaml or json)")
	fs.String("source-url", d.SourceURL, "base URL of the config source")
	fs.Duration("timeout", d.Timeout, "per-request timeout")
	fs.Int("retries", d.Retries, "read retries after the first attempt")
	fs.String("log-level", d.LogLevel, "log level: debug|info|warn|error")
	fs.String("log-format", d.LogFormat, "log format: text|json|logfmt")
	fs.String("log-file", d.LogFile, "log file path")
	fs.String("metrics-addr", d.MetricsAddr, "serve prometheus metrics on this address")
}

// Load resolves settings. fs may be nil; flags it holds that were registered
// with RegisterFlags take precedence over every other source.
func Load(fs *pflag.FlagSet) (Settings, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("source_url", d.SourceURL)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("retries", d.Retries)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("metrics_addr", d.MetricsAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var explicit string
	if fs != nil {
		for key, name := range keys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	if explicit == "" {
		explicit = os.Getenv(EnvPrefix + "_CONFIG")
	}

	path, err := configFile(explicit)
	if err != nil {
		return Settings{}, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	s := Settings{
		SourceURL:   strings.TrimSpace(v.GetString("source_url")),
		Timeout:     v.GetDuration("timeout"),
		Retries:     v.GetInt("retries"),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		LogFile:     v.GetString("log_file"),
		MetricsAddr: v.GetString("metrics_addr"),
		ConfigFile:  path,
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the values that cannot be used as given.
func (s Settings) Validate() error {
	u, err := url.Parse(s.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source_url %q must be an absolute http(s) URL", s.SourceURL)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if s.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", s.Retries)
	}
	return nil
}

// NewClient builds a config source client from the settings.
func (s Settings) NewClient(logger *log.Logger) *client.Client {
	return client.NewClient(s.SourceURL,
		client.WithTimeout(s.Timeout),
		client.WithRetries(s.Retries, client.DefaultReadBackoff()),
		client.WithLogger(logger),
	)
}

var extensions = []string{"toml", "yaml", "yml", "json"}

// configFile returns explicit if set, otherwise the first existing candidate:
// $XDG_CONFIG_HOME/mrpconf/config.* then ./mrpconf.*.
func configFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	var candidates []string
	if dir, err := configDir(); err == nil {
		for _, ext := range extensions {
			candidates = append(candidates, filepath.Join(dir, "config."+ext))
		}
	}
	for _, ext := range extensions {
		candidates = append(candidates, "mrpconf."+ext)
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat config %s: %w", c, err)
		}
	}
	return "", nil
}

func configDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "mrpconf"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mrpconf"), nil
}
