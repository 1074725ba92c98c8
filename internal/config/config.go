package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/codefionn/bbqterm/internal/consts"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BBQTERM_SERVER_URL.
const EnvPrefix = "BBQTERM"

// Config represents application configuration
type Config struct {
	ServerURL      string        `mapstructure:"server_url" json:"server_url"`
	CredentialPath string        `mapstructure:"credential_path" json:"credential_path"`
	QueueCapacity  int           `mapstructure:"queue_capacity" json:"queue_capacity"`
	LogLevel       string        `mapstructure:"log_level" json:"log_level"` // debug, info, warn, error, none
	LogPath        string        `mapstructure:"log_path" json:"log_path"`   // "-" for stderr
	ThemePath      string        `mapstructure:"theme_path" json:"theme_path"`
	DebugAddr      string        `mapstructure:"debug_addr" json:"debug_addr"` // empty disables the debug server
	Markdown       bool          `mapstructure:"markdown" json:"markdown"`
	Notify         bool          `mapstructure:"notify" json:"notify"`
	Plain          bool          `mapstructure:"plain" json:"plain"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"url":             "server_url",
	"credentials":     "credential_path",
	"queue-capacity":  "queue_capacity",
	"log-level":       "log_level",
	"log-path":        "log_path",
	"theme":           "theme_path",
	"debug-addr":      "debug_addr",
	"markdown":        "markdown",
	"notify":          "notify",
	"plain":           "plain",
	"connect-timeout": "connect_timeout",
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, "bbqterm")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "bbqterm")
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, "bbqterm")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", "bbqterm")
	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "bbqterm")
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "linux":
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, "bbqterm")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", "bbqterm")
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, "bbqterm")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", "bbqterm")
	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "bbqterm")
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      "ws://localhost:8000",
		CredentialPath: "./firebase-token.json",
		QueueCapacity:  consts.DefaultQueueCapacity,
		LogLevel:       "info",
		LogPath:        filepath.Join(defaultStateDir(), "bbqterm.log"),
		ThemePath:      filepath.Join(defaultConfigDir(), "theme.yaml"),
		Notify:         true,
		ConnectTimeout: consts.Timeout10Seconds,
	}
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

// RegisterFlags defines the command line flags Load understands.
func RegisterFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()
	flags.String("config", "", "path to config file (default "+GetConfigPath()+")")
	flags.StringP("url", "u", d.ServerURL, "server base URL (ws:// or wss://)")
	flags.StringP("credentials", "c", d.CredentialPath, "path to the credential file")
	flags.Int("queue-capacity", d.QueueCapacity, "messages buffered between receiver and renderer")
	flags.String("log-level", d.LogLevel, "log level: debug, info, warn, error, none")
	flags.String("log-path", d.LogPath, `log file path, "-" for stderr`)
	flags.String("theme", d.ThemePath, "theme file (YAML)")
	flags.String("debug-addr", d.DebugAddr, "serve metrics and pprof on this address, e.g. 127.0.0.1:6060")
	flags.Bool("markdown", d.Markdown, "render questions as markdown")
	flags.Bool("notify", d.Notify, "desktop notification on new questions")
	flags.Bool("plain", d.Plain, "print updates as plain text instead of the full screen UI")
	flags.Duration("connect-timeout", d.ConnectTimeout, "timeout for the WebSocket handshake")
}

// Load layers defaults, the JSON config file, BBQTERM_* environment variables
// and flags, in increasing order of precedence. flags may be nil.
// A missing config file is ignored unless it was named explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("server_url", d.ServerURL)
	v.SetDefault("credential_path", d.CredentialPath)
	v.SetDefault("queue_capacity", d.QueueCapacity)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_path", d.LogPath)
	v.SetDefault("theme_path", d.ThemePath)
	v.SetDefault("debug_addr", d.DebugAddr)
	v.SetDefault("markdown", d.Markdown)
	v.SetDefault("notify", d.Notify)
	v.SetDefault("plain", d.Plain)
	v.SetDefault("connect_timeout", d.ConnectTimeout)

	path, explicit := configPath(flags)
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if _, err := os.Stat(path); err == nil || explicit {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func configPath(flags *pflag.FlagSet) (string, bool) {
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed && f.Value.String() != "" {
			return f.Value.String(), true
		}
	}
	if p := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG")); p != "" {
		return p, true
	}
	return GetConfigPath(), false
}

// Validate checks values that would only fail later, after connecting.
func (c *Config) Validate() error {
	if c.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be at least 1, got %d", c.QueueCapacity)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout must not be negative, got %s", c.ConnectTimeout)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server_url must use ws:// or wss://, got %q", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server_url %q has no host", c.ServerURL)
	}
	if strings.TrimSpace(c.CredentialPath) == "" {
		return errors.New("credential_path must not be empty")
	}
	return nil
}
