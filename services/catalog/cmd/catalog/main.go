package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	pkgcfg "github.com/Skotchmaster/ref_site/pkg/config"
	pkgdb "github.com/Skotchmaster/ref_site/pkg/db"
	"github.com/Skotchmaster/ref_site/pkg/events"
	"github.com/Skotchmaster/ref_site/pkg/logging"
	loggingmw "github.com/Skotchmaster/ref_site/pkg/middleware/logging"

	catalogcfg "github.com/Skotchmaster/ref_site/services/catalog/internal/config"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/httpserver"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/models"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/repo"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/search"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/seed"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/service"
)

func main() {
	pkgcfg.LoadDotenv("services/catalog/.env", ".env")

	cfg := catalogcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL, &models.Product{})
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	svc := &service.CatalogService{Repo: &repo.GormRepo{DB: db}, Events: publisher}

	if cfg.ESURL != "" {
		idx, err := search.NewIndex(search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = idx.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("elasticsearch_unavailable", "error", err)
		} else {
			svc.Searcher = idx
		}
	}

	seedCtx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 30*time.Second)
	products, err := seed.Load(seedCtx, cfg.CSVSource)
	if err != nil {
		logger.Warn("catalog_seed_skipped", "source", cfg.CSVSource, "error", err)
	} else if n, err := svc.Seed(seedCtx, products); err != nil {
		logger.Error("catalog_seed_failed", "error", err)
	} else {
		logger.Info("catalog_seeded", "count", n)
	}
	cancel()

	handler := &httpserver.CatalogHTTP{Svc: svc}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{CatalogHandler: handler})

	srv := &http.Server{
		Addr:              pkgcfg.ListenAddr(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("catalog listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db close", "error", err)
	}
	logger.Info("catalog stopped")
}
