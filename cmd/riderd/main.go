package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/example/swiftride/internal/app"
	"github.com/example/swiftride/internal/backend"
	"github.com/example/swiftride/internal/config"
	httpapi "github.com/example/swiftride/internal/http"
	"github.com/example/swiftride/internal/ingest"
	"github.com/example/swiftride/internal/logging"
	"github.com/example/swiftride/internal/storage"
)

const journalMaxEntries = 1000

func main() {
	cfg, err := config.LoadClientConfig()
	logger := logging.NewLogger("riderd", cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts := app.Options{Pickup: cfg.DefaultPickup, Dropoff: cfg.DefaultDropoff}
	if j := openJournal(cfg, logger); j != nil {
		opts.Journal = j
		defer j.Close()
	}
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		opts.Publisher = kp
		defer kp.Close()
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	rider := app.New(client, logger, opts)
	defer rider.Close()
	rider.Start()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(rider, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("riderd listening", "addr", cfg.HTTPAddr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	// close the app first so websocket views get their close frame
	rider.Close()
	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
}

// openJournal prefers Postgres, then Redis. Both are optional; a sink that
// cannot be reached is logged and skipped.
func openJournal(cfg config.ClientConfig, logger *slog.Logger) storage.Journal {
	if cfg.PGDSN != "" {
		pj, err := storage.NewPostgresJournal(cfg.PGDSN)
		if err != nil {
			logger.Warn("postgres journal unavailable", "error", err)
		} else {
			if cfg.RunMigrations {
				migrate(pj, logger)
			}
			return pj
		}
	}
	if cfg.RedisAddr != "" {
		return storage.NewRedisJournal(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisJournalKey, journalMaxEntries)
	}
	return nil
}

func migrate(pj *storage.PostgresJournal, logger *slog.Logger) {
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_ride_journal.sql"))
	if err != nil {
		logger.Warn("migration read error", "error", err)
		return
	}
	if _, err := pj.DB().Exec(string(b)); err != nil {
		logger.Warn("migration exec error", "error", err)
		return
	}
	logger.Info("migration applied", "file", "001_create_ride_journal.sql")
}
