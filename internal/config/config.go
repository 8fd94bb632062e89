package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files, environment variables and flags.
type Config struct {
	AppName   string `mapstructure:"app_name"`
	Env       string `mapstructure:"app_env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	SourcesFile    string `mapstructure:"sources_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	OutputDir    string `mapstructure:"output_dir"`
	ReportPrefix string `mapstructure:"report_prefix"`
	OpenBrowser  bool   `mapstructure:"open_browser"`

	ItemLimit           int           `mapstructure:"item_limit"`
	FetchTimeoutSeconds int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout        time.Duration `mapstructure:"-"`
	ConcurrentFetch     bool          `mapstructure:"concurrent_fetch"`
	UserAgent           string        `mapstructure:"user_agent"`

	Timezone        string         `mapstructure:"timezone"`
	Location        *time.Location `mapstructure:"-"`
	ReportAuthor    string         `mapstructure:"report_author"`
	ReportAuthorURL string         `mapstructure:"report_author_url"`

	NVDAPIKey string `mapstructure:"nvd_api_key"`

	StorageType            string        `mapstructure:"storage_type"`
	HistoryPath            string        `mapstructure:"history_path"`
	HistoryTTLSeconds      int64         `mapstructure:"history_ttl_seconds"`
	HistoryCleanupSeconds  int64         `mapstructure:"history_cleanup_interval_seconds"`
	HistoryTTL             time.Duration `mapstructure:"-"`
	HistoryCleanupInterval time.Duration `mapstructure:"-"`
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"output-dir": "output_dir",
	"sources":    "sources_file",
	"log-level":  "log_level",
	"limit":      "item_limit",
	"concurrent": "concurrent_fetch",
}

// Load reads configuration from the .env file, environment variables and, when
// non-nil, the given command-line flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "veille-cyber")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("sources_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("output_dir", ".")
	v.SetDefault("report_prefix", "veille_cyber")
	v.SetDefault("open_browser", true)
	v.SetDefault("item_limit", 5)
	v.SetDefault("fetch_timeout_seconds", 15)
	v.SetDefault("concurrent_fetch", false)
	v.SetDefault("user_agent", "veille-cyber/1.0")
	v.SetDefault("timezone", "Europe/Paris")
	v.SetDefault("report_author", "Valérie Ename")
	v.SetDefault("report_author_url", "https://github.com/VAL-cyber-pentester")
	v.SetDefault("nvd_api_key", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("history_path", "./data/history.db")
	v.SetDefault("history_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("history_cleanup_interval_seconds", int64((24*time.Hour)/time.Second))

	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	// --no-browser is the negation of open_browser, so it only overrides when set.
	if f := flags.Lookup("no-browser"); f != nil && f.Changed {
		v.Set("open_browser", f.Value.String() != "true")
	}
	return nil
}

func finalize(cfg *Config) error {
	if cfg.ItemLimit <= 0 {
		return fmt.Errorf("invalid item_limit (must be positive)")
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second

	if cfg.HistoryTTLSeconds <= 0 {
		return fmt.Errorf("invalid history_ttl_seconds (must be positive seconds)")
	}
	if cfg.HistoryCleanupSeconds <= 0 {
		return fmt.Errorf("invalid history_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.HistoryTTL = time.Duration(cfg.HistoryTTLSeconds) * time.Second
	cfg.HistoryCleanupInterval = time.Duration(cfg.HistoryCleanupSeconds) * time.Second

	cfg.ReportPrefix = strings.TrimSpace(cfg.ReportPrefix)
	if cfg.ReportPrefix == "" {
		return fmt.Errorf("report_prefix must not be empty")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = "."
	}

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return nil
}
