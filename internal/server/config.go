package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address            string   `hcl:"address,optional"`
	Port               int      `hcl:"port,optional"`
	LogLevel           string   `hcl:"log_level,optional"`
	DBPath             string   `hcl:"db_path,optional"`
	AllowedOrigins     []string `hcl:"allowed_origins,optional"`
	DisconnectGraceSec int      `hcl:"disconnect_grace_sec,optional"`
	ReapIntervalSec    int      `hcl:"reap_interval_sec,optional"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:            "localhost",
			Port:               8080,
			LogLevel:           "info",
			DBPath:             "bura.db",
			DisconnectGraceSec: 30,
			ReapIntervalSec:    5,
		},
	}
}

// LoadConfig loads server configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.DBPath == "" {
		config.Server.DBPath = defaults.Server.DBPath
	}
	if config.Server.DisconnectGraceSec == 0 {
		config.Server.DisconnectGraceSec = defaults.Server.DisconnectGraceSec
	}
	if config.Server.ReapIntervalSec == 0 {
		config.Server.ReapIntervalSec = defaults.Server.ReapIntervalSec
	}

	return &config, nil
}

// Validate validates the server configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.DisconnectGraceSec < 1 {
		return fmt.Errorf("disconnect grace must be positive, got %d", c.Server.DisconnectGraceSec)
	}
	if c.Server.ReapIntervalSec < 1 {
		return fmt.Errorf("reap interval must be positive, got %d", c.Server.ReapIntervalSec)
	}
	return nil
}

// ListenAddress returns the full listen address.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
