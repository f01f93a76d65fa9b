package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the Consulink backend.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Verification VerificationConfig `mapstructure:"verification"`
	Email        EmailConfig        `mapstructure:"email"`
	SMS          SMSConfig          `mapstructure:"sms"`
	Maintenance  MaintenanceConfig  `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port      int               `mapstructure:"port"`
	LogLevel  string            `mapstructure:"log_level"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

// RateLimitSettings controls the per-IP request limiter.
type RateLimitSettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// VerificationConfig tunes the code verification flows.
type VerificationConfig struct {
	LoginTTL    time.Duration     `mapstructure:"login_ttl"`
	SignupTTL   time.Duration     `mapstructure:"signup_ttl"`
	MaxAttempts int               `mapstructure:"max_attempts"`
	EmailCode   EmailCodeSettings `mapstructure:"email_code"`
	SendLimit   SendLimitSettings `mapstructure:"send_limit"`
}

// EmailCodeSettings tunes locally generated email codes.
type EmailCodeSettings struct {
	Digits int           `mapstructure:"digits"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// SendLimitSettings caps code dispatches per identifier.
type SendLimitSettings struct {
	Enabled bool          `mapstructure:"enabled"`
	Max     int           `mapstructure:"max"`
	Window  time.Duration `mapstructure:"window"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SMSConfig defines the SMS verify provider credentials.
type SMSConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	AccountSID       string `mapstructure:"account_sid"`
	AuthToken        string `mapstructure:"auth_token"`
	VerifyServiceSID string `mapstructure:"verify_service_sid"`
}

// MaintenanceConfig schedules background cleanup.
type MaintenanceConfig struct {
	Cleanup CleanupSettings `mapstructure:"cleanup"`
}

// CleanupSettings controls the expired-record sweeper.
type CleanupSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("CONSULINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.max_requests", 100)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/consulink.sqlite")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("auth.jwt.issuer", "consulink")
	v.SetDefault("auth.jwt.access_token_ttl", "24h")

	v.SetDefault("verification.login_ttl", "10m")
	v.SetDefault("verification.signup_ttl", "15m")
	v.SetDefault("verification.max_attempts", 3)
	v.SetDefault("verification.email_code.digits", 6)
	v.SetDefault("verification.email_code.ttl", "15m")
	v.SetDefault("verification.send_limit.enabled", true)
	v.SetDefault("verification.send_limit.max", 5)
	v.SetDefault("verification.send_limit.window", "1h")

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("sms.enabled", false)

	v.SetDefault("maintenance.cleanup.enabled", true)
	v.SetDefault("maintenance.cleanup.schedule", "@every 10m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
