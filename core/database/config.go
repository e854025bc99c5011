package database

import (
	"fmt"
	"net/url"
)

// Config holds the connection used by the database history backend.
type Config struct {
	// Driver is mysql or sqlite.
	Driver   string `mapstructure:"driver" default:"mysql"`
	Host     string `mapstructure:"host" default:"localhost"`
	Port     int    `mapstructure:"port" default:"3306"`
	User     string `mapstructure:"user" default:"root"`
	Password string `mapstructure:"password" default:""`
	// Name is the schema name, or the file path (or :memory:) for sqlite.
	Name string `mapstructure:"name" default:"module_loader"`
	// TimeoutSeconds bounds connection setup and each read/write.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// DSN renders the driver specific data source name.
func (c Config) DSN() string {
	if c.Driver == "sqlite" {
		return c.Name
	}
	timeout := c.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	// Special characters in the password must be URL encoded.
	userInfo := url.UserPassword(c.User, c.Password).String()
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		userInfo, c.Host, c.Port, c.Name, timeout, timeout, timeout)
}
