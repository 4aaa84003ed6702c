package main

import (
	"fmt"

	"github.com/spf13/viper"
)

// AppConfig is the environment backed service configuration
type AppConfig struct {
	Port                 string
	DatabaseDSN          string
	SigningKey           string
	TokenExpirationHours int
	Issuer               string
	CookieName           string
	ContextKey           string
	SeedAdminEmail       string
}

func loadConfig() (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("COACH")
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("DATABASE_DSN", "file:coach.db?cache=shared&mode=rwc")
	v.SetDefault("TOKEN_EXPIRATION_HOURS", 24*7)
	v.SetDefault("ISSUER", "coach-auth")
	v.SetDefault("COOKIE_NAME", "token")
	v.SetDefault("CONTEXT_KEY", "user")

	cfg := &AppConfig{
		Port:                 v.GetString("PORT"),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		SigningKey:           v.GetString("JWT_SECRET"),
		TokenExpirationHours: v.GetInt("TOKEN_EXPIRATION_HOURS"),
		Issuer:               v.GetString("ISSUER"),
		CookieName:           v.GetString("COOKIE_NAME"),
		ContextKey:           v.GetString("CONTEXT_KEY"),
		SeedAdminEmail:       v.GetString("SEED_ADMIN_EMAIL"),
	}

	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("COACH_JWT_SECRET is required")
	}

	return cfg, nil
}

func (c *AppConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *AppConfig) GetTokenExpiration() int {
	return c.TokenExpirationHours
}

func (c *AppConfig) GetIssuer() string {
	return c.Issuer
}

func (c *AppConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *AppConfig) GetCookieName() string {
	return c.CookieName
}
