package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Import    ImportConfig    `yaml:"import"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig selects and locates the store. Path applies to sqlite;
// the host fields apply to postgres.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// TailscaleConfig serves the API on the tailnet instead of a local port.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type ImportConfig struct {
	// WeightUnit is the unit imported weights are stored in: "lbs" or "kg".
	WeightUnit string `yaml:"weight_unit"`
}

// Drivers accepted in database.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

func defaults() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0"},
		Database:  DatabaseConfig{Driver: DriverSQLite, Path: "data/gainz.db"},
		Tailscale: TailscaleConfig{Hostname: "gainz", StateDir: "data/tsnet"},
		Import:    ImportConfig{WeightUnit: "lbs"},
	}
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverPostgres:
		sslmode := d.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:     "/" + d.Name,
			RawQuery: "sslmode=" + url.QueryEscape(sslmode),
		}
		return u.String()
	case DriverSQLite:
		return d.Path + "?" + sqlitePragmas
	default:
		return ""
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix GAINZ_ and underscore-separated paths:
//
//	GAINZ_SERVER_HOST, GAINZ_SERVER_PORT,
//	GAINZ_DB_DRIVER, GAINZ_DB_PATH,
//	GAINZ_DB_HOST, GAINZ_DB_PORT, GAINZ_DB_NAME,
//	GAINZ_DB_USER, GAINZ_DB_PASSWORD, GAINZ_DB_SSLMODE,
//	GAINZ_TAILSCALE_ENABLED, GAINZ_TAILSCALE_HOSTNAME, GAINZ_TAILSCALE_STATE_DIR,
//	GAINZ_IMPORT_WEIGHT_UNIT
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("GAINZ_SERVER_HOST", &cfg.Server.Host)
	setInt("GAINZ_SERVER_PORT", &cfg.Server.Port)

	setString("GAINZ_DB_DRIVER", &cfg.Database.Driver)
	setString("GAINZ_DB_PATH", &cfg.Database.Path)
	setString("GAINZ_DB_HOST", &cfg.Database.Host)
	setInt("GAINZ_DB_PORT", &cfg.Database.Port)
	setString("GAINZ_DB_NAME", &cfg.Database.Name)
	setString("GAINZ_DB_USER", &cfg.Database.User)
	setString("GAINZ_DB_PASSWORD", &cfg.Database.Password)
	setString("GAINZ_DB_SSLMODE", &cfg.Database.SSLMode)

	if v := os.Getenv("GAINZ_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString("GAINZ_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	setString("GAINZ_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	setString("GAINZ_IMPORT_WEIGHT_UNIT", &cfg.Import.WeightUnit)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver %q is not one of sqlite, postgres, memory", c.Database.Driver)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Import.WeightUnit {
	case "lbs", "kg":
	default:
		return fmt.Errorf("import.weight_unit must be lbs or kg, got %q", c.Import.WeightUnit)
	}
	return nil
}
