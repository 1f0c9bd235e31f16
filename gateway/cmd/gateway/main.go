package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ref_site/gateway/internal/config"
	"github.com/Skotchmaster/ref_site/gateway/internal/httpserver"
	pkgcfg "github.com/Skotchmaster/ref_site/pkg/config"
	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/pkg/middleware/csrf"
)

func main() {
	pkgcfg.LoadDotenv()
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", "gateway")

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure

	if err := httpserver.Register(e, &httpserver.Deps{
		CatalogURL:    cfg.CatalogURL,
		PaymentsURL:   cfg.PaymentsURL,
		FeedURL:       cfg.FeedURL,
		StorefrontURL: cfg.StorefrontURL,
		StaticDir:     cfg.StaticDir,
		CSRFConfig:    csrfCfg,
		Logger:        logger,
	}); err != nil {
		log.Fatal(err)
	}

	addr := pkgcfg.ListenAddr(cfg.ServerPort)
	go func() {
		logger.Info("starting gateway", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
