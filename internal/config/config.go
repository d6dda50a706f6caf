// Package config loads runtime settings from an optional YAML file and the
// environment.
//
// Every key can be set through the environment by upper-casing it and
// replacing dots with underscores: database.url -> DATABASE_URL.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Database struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWT struct {
	Secret string
	TTL    time.Duration
}

type HTTP struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	Port           int
	Database       Database
	JWT            JWT
	BcryptCost     int
	HTTP           HTTP
	Log            Log
	AllowedOrigins string
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("port", 3000)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("jwt.ttl", time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cors.allowed_origins", "*")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads configuration from path (optional) and the environment.
// It fails if a required setting is absent: there are no built-in secrets.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: v.GetInt("port"),
		Database: Database{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			URL:             v.GetString("database.url"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		JWT: JWT{
			Secret: v.GetString("jwt.secret"),
			TTL:    v.GetDuration("jwt.ttl"),
		},
		BcryptCost: v.GetInt("auth.bcrypt_cost"),
		HTTP: HTTP{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		AllowedOrigins: v.GetString("cors.allowed_origins"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database section. Tools that never issue
// tokens use it so they do not need a signing secret.
func LoadDatabase(path string) (*Database, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	db := &Database{
		Driver:          strings.ToLower(v.GetString("database.driver")),
		URL:             v.GetString("database.url"),
		MaxOpenConns:    v.GetInt("database.max_open_conns"),
		MaxIdleConns:    v.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
	}
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return db, nil
}

// Validate reports every problem with the database settings.
func (d *Database) Validate() error {
	var errs []error
	switch d.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of sqlite, mysql, postgres", d.Driver))
	}
	if d.URL == "" {
		errs = append(errs, errors.New("database.url (DATABASE_URL) is required"))
	}
	return errors.Join(errs...)
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	errs := []error{c.Database.Validate()}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret (JWT_SECRET) is required"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, fmt.Errorf("jwt.ttl must be positive, got %s", c.JWT.TTL))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", c.Port))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost %d is outside 4..31", c.BcryptCost))
	}
	return errors.Join(errs...)
}
