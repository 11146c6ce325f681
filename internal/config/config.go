package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	AuthModeDev    = "dev"
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	DBDSN string `mapstructure:"DB_DSN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	AppName   string `mapstructure:"APP_NAME"`

	AuthMode         string `mapstructure:"AUTH_MODE"`
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	JWTIssuer        string `mapstructure:"JWT_ISSUER"`
	AuthRemoteURL    string `mapstructure:"AUTH_REMOTE_URL"`
	AuthRemoteAPIKey string `mapstructure:"AUTH_REMOTE_API_KEY"`

	// Umbrales del motor de adherencia.
	GraceMinutes      int `mapstructure:"GRACE_MINUTES"`
	MissedCutoffHours int `mapstructure:"MISSED_CUTOFF_HOURS"`

	ConflictRetries int    `mapstructure:"CONFLICT_RETRIES"`
	SweepSchedule   string `mapstructure:"SWEEP_SCHEDULE"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"PORT", "ENV", "DB_DSN",
	"LOG_LEVEL", "LOG_FORMAT", "APP_NAME",
	"AUTH_MODE", "JWT_SECRET", "JWT_ISSUER", "AUTH_REMOTE_URL", "AUTH_REMOTE_API_KEY",
	"GRACE_MINUTES", "MISSED_CUTOFF_HOURS", "CONFLICT_RETRIES", "SWEEP_SCHEDULE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// Load lee env vars (y un .env opcional en configFile).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("env")
	}
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_NAME", "medicare-adherence")
	v.SetDefault("AUTH_MODE", AuthModeDev)
	v.SetDefault("GRACE_MINUTES", 30)
	v.SetDefault("MISSED_CUTOFF_HOURS", 24)
	v.SetDefault("CONFLICT_RETRIES", 3)
	v.SetDefault("SWEEP_SCHEDULE", "@every 5m")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if configFile != "" {
		// .env es opcional
		_ = v.ReadInConfig()
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.AuthMode {
	case AuthModeDev:
		if c.IsProduction() {
			errs = append(errs, errors.New("AUTH_MODE=dev is not allowed in production"))
		}
	case AuthModeJWT:
		if strings.TrimSpace(c.JWTSecret) == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=jwt"))
		}
	case AuthModeRemote:
		if strings.TrimSpace(c.AuthRemoteURL) == "" || strings.TrimSpace(c.AuthRemoteAPIKey) == "" {
			errs = append(errs, errors.New("AUTH_REMOTE_URL and AUTH_REMOTE_API_KEY are required when AUTH_MODE=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode))
	}

	if c.GraceMinutes < 0 {
		errs = append(errs, errors.New("GRACE_MINUTES must be >= 0"))
	}
	if c.MissedCutoffHours <= 0 {
		errs = append(errs, errors.New("MISSED_CUTOFF_HOURS must be > 0"))
	}
	if c.ConflictRetries <= 0 {
		errs = append(errs, errors.New("CONFLICT_RETRIES must be > 0"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
