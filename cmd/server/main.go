package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/config"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/database"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/logging"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/scheduler"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	//nolint:errcheck // stderr sync fails on some terminals
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open database connection
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	schema, err := database.Migrate(ctx, cfg.Database.Driver, db)
	if err != nil {
		return err
	}
	logger.Info("connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.Int64("schemaVersion", schema),
		zap.String("appVersion", version.Version))

	store := repository.NewStore(db, cfg.Database.Driver, logger)
	svcs := service.NewServices(store, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(svcs, logger, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Scheduler.Enabled {
		jobs := scheduler.New(logger.Named("scheduler"))
		if err := jobs.AddLimitReset(cfg.Scheduler.LimitResetSpec, svcs.LimitReset); err != nil {
			return err
		}
		g.Go(func() error {
			return jobs.Run(gctx)
		})
	}

	return g.Wait()
}
