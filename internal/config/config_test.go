package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.Env != "development" || !cfg.IsDev() {
		t.Fatalf("env = %q", cfg.Env)
	}
	if cfg.DispatchTimeout != defaultDispatchTimeout {
		t.Fatalf("dispatch timeout = %v", cfg.DispatchTimeout)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
port: 8080
dsn: "user:pw@tcp(db:3306)/flowhook?parseTime=True"
redis_url: "redis://cache:6379/1"
env: production
allowed_origins:
  - app.example.com
  - "*.example.dev"
jwt_secret: s3cret
dispatch_timeout: 2s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.IsDev() {
		t.Fatalf("production config reported as dev")
	}
	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("jwt secret = %q", cfg.JWTSecret)
	}
	if cfg.DispatchTimeout != 2*time.Second {
		t.Fatalf("dispatch timeout = %v", cfg.DispatchTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("origins = %#v", cfg.AllowedOrigins)
	}
}

func TestLoadLegacyKeys(t *testing.T) {
	path := writeConfig(t, `
database_url: "legacy:pw@tcp(db:3306)/flowhook"
jwtsecret: legacy-secret
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DSN != "legacy:pw@tcp(db:3306)/flowhook" {
		t.Fatalf("dsn = %q", cfg.DSN)
	}
	if cfg.JWTSecret != "legacy-secret" {
		t.Fatalf("jwt secret = %q", cfg.JWTSecret)
	}
}

func TestLoadBadDispatchTimeout(t *testing.T) {
	path := writeConfig(t, "dispatch_timeout: soon\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error for bad dispatch_timeout")
	}
}
