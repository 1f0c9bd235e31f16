package config

import (
	"os"
	"time"

	pkgcfg "github.com/Skotchmaster/ref_site/pkg/config"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	PaymentsURL string
	FeedURL     string
	SafeOrigin  string

	// RedisURL empty keeps visitor state in process memory.
	RedisURL    string
	RedisPrefix string
	LocalTTL    time.Duration
	SessionTTL  time.Duration
	// GuardTTL bounds how long a crashed request can block checkout or
	// posting for its session.
	GuardTTL time.Duration

	CookieSecure bool
	TimeZone     string
}

func Load() *Config {
	return &Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  pkgcfg.EnvIntDefault("SERVER_PORT", 8084),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		PaymentsURL: pkgcfg.EnvDefault("PAYMENTS_URL", "http://localhost:8082/api/v1/payments"),
		FeedURL:     pkgcfg.EnvDefault("FEED_URL", "http://localhost:8083/"),
		SafeOrigin:  os.Getenv("SAFE_ORIGIN"),

		RedisURL:    os.Getenv("REDIS_URL"),
		RedisPrefix: pkgcfg.EnvDefault("REDIS_PREFIX", "ref"),
		LocalTTL:    pkgcfg.EnvDurationDefault("LOCAL_STATE_TTL", 180*24*time.Hour),
		SessionTTL:  pkgcfg.EnvDurationDefault("SESSION_STATE_TTL", 30*time.Minute),
		GuardTTL:    pkgcfg.EnvDurationDefault("GUARD_TTL", 30*time.Second),

		CookieSecure: os.Getenv("COOKIE_SECURE") == "true",
		TimeZone:     pkgcfg.EnvDefault("FEED_TIMEZONE", "Local"),
	}
}
