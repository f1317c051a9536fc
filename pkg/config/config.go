// Package config loads server configuration from file, environment, and
// defaults, in that order of increasing precedence for the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds all registry server settings.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen"`

	DatabaseType string `mapstructure:"db_type"`
	DatabaseDSN  string `mapstructure:"db_dsn"`

	// AuthMode selects the identity extractor: "header" (development) or
	// "jwt".
	AuthMode         string `mapstructure:"auth_mode"`
	JWTSubjectClaim  string `mapstructure:"jwt_subject_claim"`
	JWTRoleClaim     string `mapstructure:"jwt_role_claim"`
	JWTPublicKeyPath string `mapstructure:"jwt_public_key_path"`
	JWTIssuer        string `mapstructure:"jwt_issuer"`
	JWTAudience      string `mapstructure:"jwt_audience"`

	// RolePolicyPath points to the optional YAML file with approval role
	// aliases.
	RolePolicyPath string `mapstructure:"role_policy_path"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Load reads configuration from the given file (optional) and REGISTRY_*
// environment variables.
func Load(path string) (*ServerConfig, error) {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_dsn", "registry.db")
	v.SetDefault("auth_mode", "header")
	v.SetDefault("jwt_subject_claim", "sub")
	v.SetDefault("jwt_role_claim", "role")
	v.SetDefault("role_policy_path", "")
	v.SetDefault("cors_allowed_origins", []string{"*"})

	v.SetEnvPrefix("REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration consistency.
func (c *ServerConfig) Validate() error {
	switch c.DatabaseType {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unknown db_type %q (expected sqlite, postgres, or mysql)", c.DatabaseType)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("db_dsn is required")
	}
	switch c.AuthMode {
	case "header", "jwt":
	default:
		return fmt.Errorf("unknown auth_mode %q (expected header or jwt)", c.AuthMode)
	}
	return nil
}
