package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config covers both binaries: the vault server reads Server/Database/Auth/
// Tailscale, the sync client reads Sync/Auth.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Sync      SyncConfig      `yaml:"sync"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// SyncConfig configures the sync client.
type SyncConfig struct {
	VaultURL    string `yaml:"vault_url"`
	BridgeHost  string `yaml:"bridge_host"`
	BridgePort  int    `yaml:"bridge_port"`
	StateDir    string `yaml:"state_dir"`    // sqlite sync-state location
	SessionFile string `yaml:"session_file"` // wallet session path
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix VITALVAULT_ and underscore-separated
// paths:
//
//	VITALVAULT_SERVER_HOST, VITALVAULT_SERVER_PORT,
//	VITALVAULT_DB_HOST, VITALVAULT_DB_PORT, VITALVAULT_DB_NAME,
//	VITALVAULT_DB_USER, VITALVAULT_DB_PASSWORD, VITALVAULT_DB_SSLMODE,
//	VITALVAULT_AUTH_API_KEY,
//	VITALVAULT_SYNC_VAULT_URL, VITALVAULT_SYNC_BRIDGE_HOST,
//	VITALVAULT_SYNC_BRIDGE_PORT, VITALVAULT_SYNC_STATE_DIR,
//	VITALVAULT_SYNC_SESSION_FILE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	setInt := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setStr("VITALVAULT_SERVER_HOST", &cfg.Server.Host)
	setInt("VITALVAULT_SERVER_PORT", &cfg.Server.Port)
	setStr("VITALVAULT_DB_HOST", &cfg.Database.Host)
	setInt("VITALVAULT_DB_PORT", &cfg.Database.Port)
	setStr("VITALVAULT_DB_NAME", &cfg.Database.Name)
	setStr("VITALVAULT_DB_USER", &cfg.Database.User)
	setStr("VITALVAULT_DB_PASSWORD", &cfg.Database.Password)
	setStr("VITALVAULT_DB_SSLMODE", &cfg.Database.SSLMode)
	setStr("VITALVAULT_AUTH_API_KEY", &cfg.Auth.APIKey)
	setStr("VITALVAULT_SYNC_VAULT_URL", &cfg.Sync.VaultURL)
	setStr("VITALVAULT_SYNC_BRIDGE_HOST", &cfg.Sync.BridgeHost)
	setInt("VITALVAULT_SYNC_BRIDGE_PORT", &cfg.Sync.BridgePort)
	setStr("VITALVAULT_SYNC_STATE_DIR", &cfg.Sync.StateDir)
	setStr("VITALVAULT_SYNC_SESSION_FILE", &cfg.Sync.SessionFile)
}

// ValidateServer checks the fields the vault server needs.
func (c *Config) ValidateServer() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
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
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	return nil
}

// ValidateSync checks the fields the sync client needs.
func (c *Config) ValidateSync() error {
	if c.Sync.VaultURL == "" {
		return fmt.Errorf("sync.vault_url is required")
	}
	if c.Sync.BridgeHost == "" {
		return fmt.Errorf("sync.bridge_host is required")
	}
	if c.Sync.BridgePort == 0 {
		return fmt.Errorf("sync.bridge_port is required")
	}
	if c.Sync.SessionFile == "" {
		return fmt.Errorf("sync.session_file is required")
	}
	return nil
}
