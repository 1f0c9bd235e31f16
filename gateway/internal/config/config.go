package config

import (
	"os"

	pkgcfg "github.com/Skotchmaster/ref_site/pkg/config"
)

type Config struct {
	ServerPort int
	LogLevel   string

	CatalogURL    string
	PaymentsURL   string
	FeedURL       string
	StorefrontURL string

	// StaticDir, when set, serves the site's pages from the same origin.
	StaticDir    string
	CookieSecure bool
}

func Load() *Config {
	return &Config{
		ServerPort: pkgcfg.EnvIntDefault("GATEWAY_PORT", 8080),
		LogLevel:   os.Getenv("LOG_LEVEL"),

		CatalogURL:    pkgcfg.MustNonEmpty(os.Getenv("CATALOG_URL"), "CATALOG_URL"),
		PaymentsURL:   pkgcfg.MustNonEmpty(os.Getenv("PAYMENTS_URL"), "PAYMENTS_URL"),
		FeedURL:       pkgcfg.MustNonEmpty(os.Getenv("FEED_URL"), "FEED_URL"),
		StorefrontURL: pkgcfg.MustNonEmpty(os.Getenv("STOREFRONT_URL"), "STOREFRONT_URL"),

		StaticDir:    os.Getenv("STATIC_DIR"),
		CookieSecure: os.Getenv("COOKIE_SECURE") == "true",
	}
}
