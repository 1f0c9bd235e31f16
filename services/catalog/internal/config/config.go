package config

import (
	"os"

	pkgcfg "github.com/Skotchmaster/ref_site/pkg/config"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string
	DatabaseURL string

	// CSVSource is a file path or an http(s) URL of the product sheet.
	CSVSource string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	KafkaBrokers []string
}

func Load() *Config {
	return &Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "catalog"),
		ServerPort:  pkgcfg.EnvIntDefault("SERVER_PORT", 8081),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		DatabaseURL: pkgcfg.EnvDefault("DATABASE_URL", "sqlite:catalog.db"),

		CSVSource: pkgcfg.EnvDefault("CATALOG_CSV", "assets/productdescriptions/REFsiteproductdescriptions.csv"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    pkgcfg.EnvDefault("ES_INDEX", "products"),

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
	}
}
