// Package config loads server configuration from YAML, .env files and
// MANGAREADER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "MANGAREADER"

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	GRPC        GRPCConfig      `mapstructure:"grpc"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	CDN         CDNConfig       `mapstructure:"cdn"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	RateLimit   RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	Database         string        `mapstructure:"database"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	Timeout          time.Duration `mapstructure:"timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	PopularKey string `mapstructure:"popular_key"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type CDNConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	CloudName    string        `mapstructure:"cloud_name"`
	UploadPreset string        `mapstructure:"upload_preset"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxFileBytes int64         `mapstructure:"max_file_bytes"`
}

type CatalogConfig struct {
	RelatedDefault     int `mapstructure:"related_default"`
	RelatedMax         int `mapstructure:"related_max"`
	PopularDefaultSize int `mapstructure:"popular_default_size"`
}

type RateLimitConfig struct {
	AuthPerMinute   int `mapstructure:"auth_per_minute"`
	UnlockPerSecond int `mapstructure:"unlock_per_second"`
}

// Addr returns host:port for the HTTP listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Addr returns host:port for the gRPC listener
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || strings.EqualFold(c.Environment, "development")
}

// Load reads the YAML file at path (optional) and applies .env and
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("read config %s: %w", path, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 9092)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mangareader")
	v.SetDefault("database.password", "mangareader")
	v.SetDefault("database.database", "mangareader")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 10*time.Minute)
	v.SetDefault("database.timeout", 5*time.Second)
	v.SetDefault("database.statement_timeout", 3*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.popular_key", "mangareader:popular")

	v.SetDefault("jwt.issuer", "mangareader")
	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("cdn.base_url", "https://api.cloudinary.com")
	v.SetDefault("cdn.timeout", 30*time.Second)
	v.SetDefault("cdn.max_file_bytes", 10<<20)

	v.SetDefault("catalog.related_default", 8)
	v.SetDefault("catalog.related_max", 50)
	v.SetDefault("catalog.popular_default_size", 10)

	v.SetDefault("ratelimit.auth_per_minute", 5)
	v.SetDefault("ratelimit.unlock_per_second", 10)
}

// Validate checks values that have no safe default
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.GRPC.Enabled && (c.GRPC.Port <= 0 || c.GRPC.Port > 65535) {
		return fmt.Errorf("invalid grpc.port %d", c.GRPC.Port)
	}
	if c.JWT.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("jwt.secret is required outside development")
		}
		c.JWT.Secret = "dev-secret-change-me"
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("invalid jwt.expiration %s", c.JWT.Expiration)
	}
	if c.Catalog.RelatedDefault <= 0 || c.Catalog.RelatedMax < c.Catalog.RelatedDefault {
		return fmt.Errorf("invalid catalog related bounds %d/%d", c.Catalog.RelatedDefault, c.Catalog.RelatedMax)
	}
	if c.CDN.MaxFileBytes <= 0 {
		return fmt.Errorf("invalid cdn.max_file_bytes %d", c.CDN.MaxFileBytes)
	}
	return nil
}
