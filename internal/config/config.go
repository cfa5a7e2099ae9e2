package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// DefaultHTTPPort is the default HTTP port for stockroomd.
	DefaultHTTPPort = 8470
)

// EnvPrefix prefixes environment overrides, e.g. STOCKROOM_SERVER_HTTP_ADDRESS.
const EnvPrefix = "STOCKROOM"

type TLS struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	CertFile string `mapstructure:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" yaml:"key_file"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_address" yaml:"http_address"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	TLS             TLS           `mapstructure:"tls" yaml:"tls"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

type Auth struct {
	// APIKeys is a comma separated list of accepted bearer keys.
	APIKeys string `mapstructure:"api_keys" yaml:"api_keys"`
}

type Store struct {
	// InMemory skips the data directory entirely.
	InMemory       bool    `mapstructure:"in_memory" yaml:"in_memory"`
	KeepHistory    bool    `mapstructure:"keep_history" yaml:"keep_history"`
	GCSchedule     string  `mapstructure:"gc_schedule" yaml:"gc_schedule"`
	GCDiscardRatio float64 `mapstructure:"gc_discard_ratio" yaml:"gc_discard_ratio"`
}

// Bootstrap lists catalog files applied when the server starts.
type Bootstrap struct {
	CatalogFiles []string `mapstructure:"catalog_files" yaml:"catalog_files"`
}

type Config struct {
	Server    Server    `mapstructure:"server" yaml:"server"`
	DataDir   string    `mapstructure:"data_dir" yaml:"data_dir"`
	Auth      Auth      `mapstructure:"auth" yaml:"auth"`
	Log       Log       `mapstructure:"log" yaml:"log"`
	Store     Store     `mapstructure:"store" yaml:"store"`
	Bootstrap Bootstrap `mapstructure:"bootstrap" yaml:"bootstrap"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			HTTPAddr:        fmt.Sprintf(":%d", DefaultHTTPPort),
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		DataDir: defaultDataDir(),
		Log:     Log{Level: "info", Format: "text", Output: "stderr"},
		Store: Store{
			KeepHistory:    true,
			GCSchedule:     "@every 10m",
			GCDiscardRatio: 0.5,
		},
	}
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return "./data"
	}
	return filepath.Join(home, ".stockroom")
}

// APIKeyList splits Auth.APIKeys, dropping blanks.
func (c *Config) APIKeyList() []string {
	var keys []string
	for _, k := range strings.Split(c.Auth.APIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate checks the settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return errors.New("server.http_address is required")
	}
	if !c.Store.InMemory && c.DataDir == "" {
		return errors.New("data_dir is required unless store.in_memory is set")
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return errors.New("server.tls requires cert_file and key_file")
	}
	if r := c.Store.GCDiscardRatio; r < 0 || r >= 1 {
		return fmt.Errorf("store.gc_discard_ratio must be in [0,1), got %v", r)
	}
	return nil
}

// Load reads the config file at path, or searches the default locations when
// path is empty. A missing file yields defaults; environment variables
// prefixed with STOCKROOM_ override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stockroom")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")                // Local development override
		v.AddConfigPath("$HOME/.stockroom") // Per-user config
		v.AddConfigPath("/etc/stockroom/")  // System-wide production config
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.http_address", cfg.Server.HTTPAddr)
	v.SetDefault("server.request_timeout", cfg.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.tls.enabled", cfg.Server.TLS.Enabled)
	v.SetDefault("server.tls.cert_file", cfg.Server.TLS.CertFile)
	v.SetDefault("server.tls.key_file", cfg.Server.TLS.KeyFile)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("auth.api_keys", cfg.Auth.APIKeys)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("store.in_memory", cfg.Store.InMemory)
	v.SetDefault("store.keep_history", cfg.Store.KeepHistory)
	v.SetDefault("store.gc_schedule", cfg.Store.GCSchedule)
	v.SetDefault("store.gc_discard_ratio", cfg.Store.GCDiscardRatio)
}
