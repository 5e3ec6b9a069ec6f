package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envPrefix namespaces every variable read by parseEnv.
const envPrefix = "DEVHABIT_"

// EnvConfig mirrors Config for environment parsing. Pointer fields stay nil
// when the variable is unset, so only variables that are present override.
type EnvConfig struct {
	EndpointAddrHTTP             *string        `env:"HTTP_ADDRESS"`
	DatabaseDSN                  *string        `env:"DATABASE_DSN"`
	SecretKey                    *string        `env:"JWT_SECRET_KEY"`
	Issuer                       *string        `env:"JWT_ISSUER"`
	Audience                     *string        `env:"JWT_AUDIENCE"`
	AccessTokenValidityDuration  *time.Duration `env:"ACCESS_TOKEN_VALIDITY"`
	RefreshTokenValidityDuration *time.Duration `env:"REFRESH_TOKEN_VALIDITY"`
	UserCacheDuration            *time.Duration `env:"USER_CACHE_DURATION"`
	RedisAddr                    *string        `env:"REDIS_ADDR"`
	RedisPassword                *string        `env:"REDIS_PASSWORD"`
	RunMigrations                *bool          `env:"RUN_MIGRATIONS"`
}

// parseEnv overlays DEVHABIT_* environment variables onto config.
func parseEnv(config *Config) error {
	var e EnvConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	apply(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	apply(&config.DatabaseDSN, e.DatabaseDSN)
	apply(&config.SecretKey, e.SecretKey)
	apply(&config.Issuer, e.Issuer)
	apply(&config.Audience, e.Audience)
	apply(&config.AccessTokenValidityDuration, e.AccessTokenValidityDuration)
	apply(&config.RefreshTokenValidityDuration, e.RefreshTokenValidityDuration)
	apply(&config.UserCacheDuration, e.UserCacheDuration)
	apply(&config.RedisAddr, e.RedisAddr)
	apply(&config.RedisPassword, e.RedisPassword)
	apply(&config.RunMigrations, e.RunMigrations)

	return nil
}

func apply[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
