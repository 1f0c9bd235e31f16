package config

import (
	"os"

	pkgcfg "github.com/Skotchmaster/ref_site/pkg/config"
)

// Missing SAFE_ORIGIN, SHIPPING_RATE_ID or STRIPE_SECRET_KEY does not stop the
// process: every session request answers 500 until they are set.
type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	SafeOrigin       string
	ShippingRateID   string
	StripeSecretKey  string
	AllowedCountries []string

	KafkaBrokers []string
}

func Load() Config {
	countries := pkgcfg.CSV(os.Getenv("ALLOWED_COUNTRIES"))
	if len(countries) == 0 {
		countries = []string{"US"}
	}
	return Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "payments"),
		ServerPort:  pkgcfg.EnvIntDefault("SERVER_PORT", 8082),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		SafeOrigin:       os.Getenv("SAFE_ORIGIN"),
		ShippingRateID:   os.Getenv("SHIPPING_RATE_ID"),
		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		AllowedCountries: countries,

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
	}
}
