package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort            = 2333
	defaultEnv             = "development"
	defaultDSN             = "root:password@tcp(127.0.0.1:3306)/flowhook?charset=utf8mb4&parseTime=True&loc=Local"
	defaultRedisURL        = "redis://localhost:6379/0"
	defaultDispatchTimeout = 5 * time.Second
)

// Load reads and normalizes the YAML config file. A missing file is not
// an error; defaults apply so the server can boot in development.
func Load(path string) (*AppConfig, error) {
	var raw rawAppConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &AppConfig{
		Port:           raw.Port,
		DSN:            raw.DSN,
		RedisURL:       raw.RedisURL,
		Env:            raw.Env,
		AllowedOrigins: raw.AllowedOrigins,
		JWTSecret:      raw.JWTSecret,
	}
	if cfg.DSN == "" {
		cfg.DSN = raw.DatabaseURL
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = raw.JWTSecretLegacy
	}
	if raw.DispatchTimeout != "" {
		d, err := time.ParseDuration(raw.DispatchTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse dispatch_timeout: %w", err)
		}
		cfg.DispatchTimeout = d
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DSN == "" {
		cfg.DSN = defaultDSN
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = defaultRedisURL
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = defaultDispatchTimeout
	}
}
