package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int      `yaml:"port"`
	DSN            string   `yaml:"dsn"` // MySQL DSN
	RedisURL       string   `yaml:"redis_url"`
	Env            string   `yaml:"env"` // "development" | "production"
	AllowedOrigins []string `yaml:"allowed_origins"`
	JWTSecret      string   `yaml:"jwt_secret"`

	// DispatchTimeout bounds the synchronous hand-off to the downstream
	// worker queue before the gateway replies to the sender.
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

type rawAppConfig struct {
	Port            int      `yaml:"port"`
	DSN             string   `yaml:"dsn"`
	DatabaseURL     string   `yaml:"database_url"`
	RedisURL        string   `yaml:"redis_url"`
	Env             string   `yaml:"env"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	JWTSecret       string   `yaml:"jwt_secret"`
	JWTSecretLegacy string   `yaml:"jwtsecret"`
	DispatchTimeout string   `yaml:"dispatch_timeout"`
}
