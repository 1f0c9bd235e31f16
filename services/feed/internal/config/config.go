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
	DatabaseURL string

	OwnerPassphraseHash string
	TokenSecret         []byte
	TokenTTL            time.Duration

	KafkaBrokers []string
}

func Load() *Config {
	return &Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "feed"),
		ServerPort:  pkgcfg.EnvIntDefault("SERVER_PORT", 8083),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		DatabaseURL: pkgcfg.EnvDefault("DATABASE_URL", "sqlite:feed.db"),

		OwnerPassphraseHash: os.Getenv("OWNER_PASSPHRASE_HASH"),
		TokenSecret:         []byte(pkgcfg.MustNonEmpty(os.Getenv("OWNER_TOKEN_SECRET"), "OWNER_TOKEN_SECRET")),
		TokenTTL:            pkgcfg.EnvDurationDefault("OWNER_TOKEN_TTL", 30*time.Minute),

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
	}
}
