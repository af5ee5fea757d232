package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"

	AuthModeJWT  = "jwt"
	AuthModeDev  = "dev"
	AuthModeNone = "none"
)

type ServerConfig struct {
	Port              string        `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// RedisConfig configures the submission guard. An empty Addr selects the
// in-process guard.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	GuardTTL time.Duration `yaml:"guard_ttl"`
}

type AuthConfig struct {
	Mode          string   `yaml:"mode"`
	DevSubject    string   `yaml:"dev_subject"`
	AdminSubjects []string `yaml:"admin_subjects"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:              "3000",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:    BackendMemory,
			SQLitePath: "newsletter.db",
		},
		Redis: RedisConfig{
			GuardTTL: 10 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeJWT,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the runtime configuration: defaults, then the YAML file named
// by CONFIG_FILE (if set), then environment variables.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := overrideFromEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config, getenv func(string) string) error {
	setString := func(env string, dst *string) {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			*dst = v
		}
	}

	setString("PORT", &cfg.Server.Port)
	setString("STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("DATABASE_URL", &cfg.Storage.DatabaseURL)
	setString("SQLITE_PATH", &cfg.Storage.SQLitePath)
	setString("REDIS_ADDR", &cfg.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)
	setString("AUTH_MODE", &cfg.Auth.Mode)
	setString("DEV_SUBJECT", &cfg.Auth.DevSubject)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	if v := getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB must be an integer: %w", err)
		}
		cfg.Redis.DB = n
	}
	if v := getenv("SUBMIT_GUARD_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SUBMIT_GUARD_TTL must be a duration (e.g. 10s): %w", err)
		}
		cfg.Redis.GuardTTL = d
	}
	if v := getenv("ADMIN_SUBJECTS"); v != "" {
		cfg.Auth.AdminSubjects = splitList(v)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q (want memory, postgres or sqlite)", c.Storage.Backend))
	}
	switch c.Auth.Mode {
	case AuthModeJWT, AuthModeDev, AuthModeNone:
	default:
		errs = append(errs, fmt.Errorf("unknown auth mode %q (want jwt, dev or none)", c.Auth.Mode))
	}
	if c.Redis.GuardTTL < 0 {
		errs = append(errs, errors.New("submit guard ttl must not be negative"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (want json or console)", c.Log.Format))
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
