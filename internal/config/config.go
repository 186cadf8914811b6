package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	JWT         JWTConfig         `yaml:"jwt"`
	Security    SecurityConfig    `yaml:"security"`
	Redis       RedisConfig       `yaml:"redis"`
	Events      EventsConfig      `yaml:"events"`
	DefaultUser DefaultUserConfig `yaml:"default_user"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Mode     string `yaml:"mode"`
	BasePath string `yaml:"base_path"`
}

type DatabaseConfig struct {
	Type   string       `yaml:"type"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Charset  string `yaml:"charset"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn string `yaml:"expires_in"`
	Issuer    string `yaml:"issuer"`
}

type SecurityConfig struct {
	BcryptCost int             `yaml:"bcrypt_cost"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	// AllowPublicAdminSignup lets /addAdmin run without a token even after
	// the first admin exists.
	AllowPublicAdminSignup bool `yaml:"allow_public_admin_signup"`
}

type RateLimitConfig struct {
	Enabled     bool   `yaml:"enabled"`
	LoginMax    int    `yaml:"login_max"`
	LoginWindow string `yaml:"login_window"`
	Prefix      string `yaml:"prefix"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EventsConfig struct {
	AMQPURL string `yaml:"amqp_url"`
	Queue   string `yaml:"queue"`
}

type DefaultUserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Position string `yaml:"position"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     3000,
			Mode:     "release",
			BasePath: "/trolley",
		},
		Database: DatabaseConfig{
			Type:   "sqlite",
			SQLite: SQLiteConfig{Path: "data/trolley.db"},
			MySQL:  MySQLConfig{Host: "127.0.0.1", Port: 3306, Charset: "utf8mb4"},
		},
		JWT: JWTConfig{
			ExpiresIn: "12h",
			Issuer:    "trolley-tracker",
		},
		Security: SecurityConfig{
			BcryptCost: 10,
			RateLimit: RateLimitConfig{
				Enabled:     true,
				LoginMax:    12,
				LoginWindow: "15m",
				Prefix:      "rl:login",
			},
		},
		Events: EventsConfig{Queue: "trolley.events"},
		DefaultUser: DefaultUserConfig{
			Position: "Administrator",
		},
	}
}

// Load reads the configuration file and environment variables
func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure data directory exists for SQLite
	if cfg.Database.Type == "sqlite" {
		dataDir := filepath.Dir(cfg.Database.SQLite.Path)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TROLLEY_JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	// JWT_SECRET and JWT_EXPIRE_TIME are accepted as aliases.
	if v := os.Getenv("JWT_SECRET"); v != "" && cfg.JWT.Secret == "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRE_TIME"); v != "" {
		cfg.JWT.ExpiresIn = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TROLLEY_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("TROLLEY_DB_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("TROLLEY_DB_PATH"); v != "" {
		cfg.Database.SQLite.Path = v
	}
	if v := os.Getenv("TROLLEY_MYSQL_HOST"); v != "" {
		cfg.Database.MySQL.Host = v
	}
	if v := os.Getenv("TROLLEY_MYSQL_USER"); v != "" {
		cfg.Database.MySQL.Username = v
	}
	if v := os.Getenv("TROLLEY_MYSQL_PASSWORD"); v != "" {
		cfg.Database.MySQL.Password = v
	}
	if v := os.Getenv("TROLLEY_MYSQL_DATABASE"); v != "" {
		cfg.Database.MySQL.Database = v
	}
	if v := os.Getenv("TROLLEY_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TROLLEY_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TROLLEY_AMQP_URL"); v != "" {
		cfg.Events.AMQPURL = v
	}
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if _, err := time.ParseDuration(c.JWT.ExpiresIn); err != nil {
		return fmt.Errorf("invalid jwt.expires_in %q: %w", c.JWT.ExpiresIn, err)
	}
	if _, err := time.ParseDuration(c.Security.RateLimit.LoginWindow); err != nil {
		return fmt.Errorf("invalid security.rate_limit.login_window %q: %w", c.Security.RateLimit.LoginWindow, err)
	}
	if c.Security.RateLimit.LoginMax < 1 {
		return fmt.Errorf("security.rate_limit.login_max must be positive")
	}

	switch c.Database.Type {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("SQLite path is required")
		}
	case "mysql":
		if c.Database.MySQL.Username == "" {
			return fmt.Errorf("MySQL username is required")
		}
		if c.Database.MySQL.Database == "" {
			return fmt.Errorf("MySQL database name is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	return nil
}

// TokenTTL returns the parsed JWT lifetime, falling back to 12 hours.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWT.ExpiresIn)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// LoginWindow returns the parsed login rate limit window.
func (c *Config) LoginWindow() time.Duration {
	d, err := time.ParseDuration(c.Security.RateLimit.LoginWindow)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}
