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
	"github.com/Skotchmaster/ref_site/pkg/db"
	"github.com/Skotchmaster/ref_site/pkg/events"
	"github.com/Skotchmaster/ref_site/pkg/logging"
	loggingmw "github.com/Skotchmaster/ref_site/pkg/middleware/logging"
	"github.com/Skotchmaster/ref_site/services/feed/internal/config"
	"github.com/Skotchmaster/ref_site/services/feed/internal/httpserver"
	"github.com/Skotchmaster/ref_site/services/feed/internal/models"
	"github.com/Skotchmaster/ref_site/services/feed/internal/repo"
	"github.com/Skotchmaster/ref_site/services/feed/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	pkgcfg.LoadDotenv()
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	if cfg.OwnerPassphraseHash == "" {
		logger.Warn("owner_passphrase_not_set", "env", "OWNER_PASSPHRASE_HASH")
	}

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("64K"))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL, &models.Post{})
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	feedService := &service.FeedService{
		Repo:        &repo.GormRepo{DB: gdb},
		Events:      publisher,
		OwnerHash:   cfg.OwnerPassphraseHash,
		TokenSecret: cfg.TokenSecret,
		TokenTTL:    cfg.TokenTTL,
	}

	httpserver.Register(e, &httpserver.Deps{
		FeedHandler: &httpserver.FeedHTTP{Svc: feedService},
	})

	addr := pkgcfg.ListenAddr(cfg.ServerPort)
	go func() {
		logger.Info("starting feed service", "addr", addr)
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
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}
	logger.Info("server stopped")
}
