package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"geolake/internal/app"
	"geolake/internal/config"
	internaldb "geolake/internal/db"
	"geolake/internal/engine"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	configFile := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	store, err := internaldb.OpenMetastore(cfg.MetaDBPath, cfg.MetaReadPool)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("running metastore migrations")
	if err := internaldb.RunMigrations(store.Write); err != nil {
		return err
	}

	data, err := engine.Open(ctx, cfg.DataDBPath)
	if err != nil {
		return err
	}
	defer data.Close()

	application := app.New(app.Deps{
		Cfg:     cfg,
		WriteDB: store.Write,
		ReadDB:  store.Read,
		Data:    data,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           application.Router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := cron.New()
	if cfg.SizeLogSchedule != "" {
		_, err := scheduler.AddFunc(cfg.SizeLogSchedule, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := application.Usage.LogSizes(jobCtx); err != nil {
				logger.Warn("size log snapshot failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start()
		<-gCtx.Done()
		<-scheduler.Stop().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
