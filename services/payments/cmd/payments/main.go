package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgcfg "github.com/Skotchmaster/ref_site/pkg/config"
	"github.com/Skotchmaster/ref_site/pkg/events"
	"github.com/Skotchmaster/ref_site/pkg/logging"
	loggingmw "github.com/Skotchmaster/ref_site/pkg/middleware/logging"
	"github.com/Skotchmaster/ref_site/services/payments/internal/config"
	"github.com/Skotchmaster/ref_site/services/payments/internal/httpserver"
	"github.com/Skotchmaster/ref_site/services/payments/internal/provider"
	"github.com/Skotchmaster/ref_site/services/payments/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	pkgcfg.LoadDotenv()
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	var creator provider.SessionCreator
	if cfg.StripeSecretKey != "" {
		creator = provider.NewStripe(cfg.StripeSecretKey)
	} else {
		logger.Warn("stripe_not_configured", "env", "STRIPE_SECRET_KEY")
	}
	if cfg.SafeOrigin == "" || cfg.ShippingRateID == "" {
		logger.Warn("payments_misconfigured", "safe_origin_set", cfg.SafeOrigin != "", "shipping_rate_set", cfg.ShippingRateID != "")
	}

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	paymentsService := &service.PaymentsService{
		Provider:         creator,
		Events:           publisher,
		SafeOrigin:       cfg.SafeOrigin,
		ShippingRateID:   cfg.ShippingRateID,
		AllowedCountries: cfg.AllowedCountries,
	}

	httpserver.Register(e, &httpserver.Deps{
		PaymentsHandler: &httpserver.PaymentsHTTP{Svc: paymentsService},
	})

	addr := pkgcfg.ListenAddr(cfg.ServerPort)
	go func() {
		logger.Info("starting payments service", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	logger.Info("server stopped")
}
