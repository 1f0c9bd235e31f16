package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	pkgcfg "github.com/Skotchmaster/ref_site/pkg/config"
	"github.com/Skotchmaster/ref_site/pkg/logging"
	loggingmw "github.com/Skotchmaster/ref_site/pkg/middleware/logging"
	"github.com/Skotchmaster/ref_site/pkg/notify"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/config"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/feedclient"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/guard"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/httpserver"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/paymentclient"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/session"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
)

func main() {
	pkgcfg.LoadDotenv()
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	if cfg.SafeOrigin == "" {
		logger.Warn("safe_origin_not_set", "env", "SAFE_ORIGIN")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Fatalf("load timezone %q: %v", cfg.TimeZone, err)
	}

	var (
		factory        storage.Factory
		rdb            *redis.Client
		checkoutGuards = guard.NewSet()
		feedGuards     = guard.NewSet()
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url: %v", err)
		}
		rdb = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		factory = &storage.RedisFactory{
			Client:     rdb,
			Prefix:     cfg.RedisPrefix,
			LocalTTL:   cfg.LocalTTL,
			SessionTTL: cfg.SessionTTL,
		}
		checkoutGuards = guard.NewRedisSet(rdb, cfg.RedisPrefix+":guard:checkout", cfg.GuardTTL)
		feedGuards = guard.NewRedisSet(rdb, cfg.RedisPrefix+":guard:feed", cfg.GuardTTL)
	} else {
		logger.Warn("redis_not_configured", "storage", "memory")
		factory = storage.NewMemoryFactory()
	}

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	// no write timeout: /api/v1/bag/events is a long-lived stream
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	e.Server.BaseContext = func(net.Listener) context.Context { return baseCtx }
	e.Server.RegisterOnShutdown(cancelStreams)

	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))

	feedClient := feedclient.NewClient(cfg.FeedURL)
	sessionCfg := session.DefaultConfig()
	sessionCfg.Secure = cfg.CookieSecure

	httpserver.Register(e, &httpserver.Deps{
		StorefrontHandler: &httpserver.StorefrontHTTP{
			Storage:        factory,
			Bus:            notify.NewHub(),
			Payments:       paymentclient.NewClient(cfg.PaymentsURL),
			Feed:           feedClient,
			Verifier:       feedClient,
			CheckoutGuards: checkoutGuards,
			FeedGuards:     feedGuards,
			SafeOrigin:     cfg.SafeOrigin,
			Location:       loc,
		},
		Session: sessionCfg,
	})

	addr := pkgcfg.ListenAddr(cfg.ServerPort)
	go func() {
		logger.Info("starting storefront service", "addr", addr)
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
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close", "error", err)
		}
	}
	logger.Info("server stopped")
}
