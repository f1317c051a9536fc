package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8080")
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.DatabaseDSN != "registry.db" {
		t.Errorf("DatabaseDSN = %q, want registry.db", cfg.DatabaseDSN)
	}
	if cfg.AuthMode != "header" {
		t.Errorf("AuthMode = %q, want header", cfg.AuthMode)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `listen: ":9090"
db_type: postgres
db_dsn: "host=db user=registry dbname=registry"
auth_mode: jwt
jwt_issuer: "https://auth.example.com"
cors_allowed_origins:
  - "https://app.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.ListenAddr)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %q, want postgres", cfg.DatabaseType)
	}
	if cfg.AuthMode != "jwt" {
		t.Errorf("AuthMode = %q, want jwt", cfg.AuthMode)
	}
	if cfg.JWTIssuer != "https://auth.example.com" {
		t.Errorf("JWTIssuer = %q", cfg.JWTIssuer)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("REGISTRY_LISTEN", ":7070")
	t.Setenv("REGISTRY_DB_TYPE", "mysql")
	t.Setenv("REGISTRY_DB_DSN", "registry:pw@tcp(db:3306)/registry")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q, want :7070", cfg.ListenAddr)
	}
	if cfg.DatabaseType != "mysql" {
		t.Errorf("DatabaseType = %q, want mysql", cfg.DatabaseType)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServerConfig
		wantErr bool
	}{
		{
			name: "valid sqlite",
			cfg:  ServerConfig{DatabaseType: "sqlite", DatabaseDSN: "registry.db", AuthMode: "header"},
		},
		{
			name:    "unknown db type",
			cfg:     ServerConfig{DatabaseType: "oracle", DatabaseDSN: "x", AuthMode: "header"},
			wantErr: true,
		},
		{
			name:    "missing dsn",
			cfg:     ServerConfig{DatabaseType: "postgres", AuthMode: "header"},
			wantErr: true,
		},
		{
			name:    "unknown auth mode",
			cfg:     ServerConfig{DatabaseType: "sqlite", DatabaseDSN: "x", AuthMode: "basic"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
