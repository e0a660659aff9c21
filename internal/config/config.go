// Package config loads the service configuration from an optional YAML file
// and KEYU_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "KEYU"
	configFileEnvName = "KEYU_CONFIG_FILE"
)

var ErrInvalid = errors.New("invalid config")

type HTTP struct {
	Addr          string `mapstructure:"addr"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type Database struct {
	DSN             string        `mapstructure:"dsn"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type Catalog struct {
	PageSize        int           `mapstructure:"page_size"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type Admin struct {
	PasswordHash string        `mapstructure:"password_hash"`
	TokenSecret  string        `mapstructure:"token_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type Flash struct {
	HashKey  string `mapstructure:"hash_key"`
	BlockKey string `mapstructure:"block_key"`
}

type S3 struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Prefix        string `mapstructure:"prefix"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type Storage struct {
	Driver    string `mapstructure:"driver"`
	LocalDir  string `mapstructure:"local_dir"`
	URLPrefix string `mapstructure:"url_prefix"`
	S3        S3     `mapstructure:"s3"`
}

type Kafka struct {
	SeedBrokers []string `mapstructure:"seed_brokers"`
	ClicksTopic string   `mapstructure:"clicks_topic"`
}

type AI struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
}

type Content struct {
	TermsFile string `mapstructure:"terms_file"`
}

type Config struct {
	LogLevel string   `mapstructure:"log_level"`
	HTTP     HTTP     `mapstructure:"http"`
	Database Database `mapstructure:"database"`
	Catalog  Catalog  `mapstructure:"catalog"`
	Admin    Admin    `mapstructure:"admin"`
	Flash    Flash    `mapstructure:"flash"`
	Storage  Storage  `mapstructure:"storage"`
	Kafka    Kafka    `mapstructure:"kafka"`
	AI       AI       `mapstructure:"ai"`
	Content  Content  `mapstructure:"content"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origin", "http://localhost:5173")
	v.SetDefault("http.public_base_url", "http://localhost:3000")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.name", "keyu")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("catalog.page_size", 12)
	v.SetDefault("catalog.refresh_interval", 5*time.Minute)

	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.token_secret", "")
	v.SetDefault("admin.token_ttl", 12*time.Hour)
	v.SetDefault("admin.cookie_secure", false)

	v.SetDefault("flash.hash_key", "")
	v.SetDefault("flash.block_key", "")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.url_prefix", "/uploads")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "products")
	v.SetDefault("storage.s3.public_base_url", "")

	v.SetDefault("kafka.seed_brokers", []string{})
	v.SetDefault("kafka.clicks_topic", "affiliate-clicks")

	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.model", "gemini-1.5-flash")

	v.SetDefault("content.terms_file", "")
}

// Load reads the config file named by --config or KEYU_CONFIG_FILE, if any,
// then applies KEYU_* overrides. args excludes the program name.
func Load(args []string) (Config, error) {
	cfg, err := read(args)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database section and skips the checks that
// concern the HTTP service.
func LoadDatabase(args []string) (Database, error) {
	cfg, err := read(args)
	if err != nil {
		return Database{}, err
	}
	return cfg.Database, nil
}

func read(args []string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := configFilePath(args)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

func configFilePath(args []string) (string, error) {
	fs := pflag.NewFlagSet("keyu", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	arg := fs.String("config", "", "config file (yaml)")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("config: flags: %w", err)
	}
	if env, ok := os.LookupEnv(configFileEnvName); ok && env != "" {
		return env, nil
	}
	return *arg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Catalog.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("catalog.page_size must be positive, got %d", c.Catalog.PageSize))
	}
	if c.Admin.PasswordHash == "" {
		errs = append(errs, errors.New("admin.password_hash is required"))
	}
	if len(c.Admin.TokenSecret) < 32 {
		errs = append(errs, errors.New("admin.token_secret must be at least 32 bytes"))
	}
	if c.Admin.TokenTTL <= 0 {
		errs = append(errs, errors.New("admin.token_ttl must be positive"))
	}
	if len(c.Flash.HashKey) < 32 {
		errs = append(errs, errors.New("flash.hash_key must be at least 32 bytes"))
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be local or s3, got %q", c.Storage.Driver))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// KafkaEnabled reports whether click events should be produced.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.SeedBrokers) > 0
}

// AIEnabled reports whether description drafting is configured.
func (c Config) AIEnabled() bool {
	return c.AI.GeminiAPIKey != ""
}
