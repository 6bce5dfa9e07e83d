package config

import (
	"fmt"
	"net/url"
	"time"
)

// DatabaseConfig selects and configures the gorm driver.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	Path   string `mapstructure:"path"`   // sqlite file, ":memory:" for tests

	// URL is a full postgres connection string; it wins over the discrete fields.
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver != "postgres" {
		if c.Path == "" {
			return "file::memory:?cache=shared"
		}
		return c.Path
	}
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Validate checks the driver-specific required fields.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "", "sqlite":
		return nil
	case "postgres":
		if c.URL == "" && (c.Host == "" || c.DBName == "") {
			return fmt.Errorf("database: postgres requires url or host and dbname")
		}
		return nil
	default:
		return fmt.Errorf("database: unknown driver %q", c.Driver)
	}
}
