package app

import (
	"github.com/walidkhelifa/consulink/internal/database"
	"github.com/walidkhelifa/consulink/internal/verification"
)

// SMSChannelConfig converts SMSConfig into the verification package representation.
func (c SMSConfig) SMSChannelConfig() verification.SMSConfig {
	return verification.SMSConfig{
		AccountSID:       c.AccountSID,
		AuthToken:        c.AuthToken,
		VerifyServiceSID: c.VerifyServiceSID,
	}
}

// EmailChannelOptions builds the option list for the email channel.
func (c VerificationConfig) EmailChannelOptions() []verification.EmailOption {
	opts := make([]verification.EmailOption, 0, 2)
	if c.EmailCode.Digits > 0 {
		opts = append(opts, verification.WithEmailCodeDigits(c.EmailCode.Digits))
	}
	if c.EmailCode.TTL > 0 {
		opts = append(opts, verification.WithEmailCodeTTL(c.EmailCode.TTL))
	}
	return opts
}

// DatabaseConfig converts the application database section into connection options.
func (c DatabaseConfig) DatabaseConfig() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch {
	case c.Postgres.Enabled:
		cfg.Driver = "postgres"
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.User = c.Postgres.Username
		cfg.Password = c.Postgres.Password
		cfg.Name = c.Postgres.Database
	case c.MySQL.Enabled:
		cfg.Driver = "mysql"
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.User = c.MySQL.Username
		cfg.Password = c.MySQL.Password
		cfg.Name = c.MySQL.Database
	}

	return cfg
}
