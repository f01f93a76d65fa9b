package app

import (
	"github.com/walidkhelifa/consulink/internal/auth"
	"github.com/walidkhelifa/consulink/internal/auth/providers"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// LoginProviderConfig converts VerificationConfig into login provider parameters.
func (c VerificationConfig) LoginProviderConfig() providers.LoginConfig {
	ttl := c.LoginTTL
	if ttl <= 0 {
		ttl = providers.DefaultLoginCodeTTL
	}
	return providers.LoginConfig{CodeTTL: ttl}
}

// SignupProviderConfig converts VerificationConfig into signup provider parameters.
func (c VerificationConfig) SignupProviderConfig() providers.SignupConfig {
	ttl := c.SignupTTL
	if ttl <= 0 {
		ttl = providers.DefaultSignupCodeTTL
	}
	return providers.SignupConfig{CodeTTL: ttl}
}
