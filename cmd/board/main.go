package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"board/internal/config"
	"board/internal/server"
	"board/internal/storage"
	"board/internal/storage/jsonfile"
	"board/internal/storage/relational"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	envFile := os.Getenv("BOARD_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		logger.Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	addrFlag := flag.String("addr", cfg.Addr, "HTTP listen address")
	dataFlag := flag.String("data", cfg.DataFile, "Path to the local JSON data file")
	staticFlag := flag.String("static", cfg.StaticDir, "Directory with the board frontend")
	flag.Parse()

	store, err := openStore(cfg, *dataFlag, logger)
	if err != nil {
		logger.Error("unable to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("storage ready", slog.String("provider", store.Provider()))

	srv := server.New(store, logger, *staticFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// openStore picks the provider once: remote when the feature flag and both
// credentials are present, the local JSON file otherwise. A selected but
// unreachable remote is a startup failure, never a silent fallback.
func openStore(cfg *config.Config, dataFile string, logger *slog.Logger) (storage.Store, error) {
	if cfg.Remote.Active() {
		dsn, err := cfg.Remote.DSN()
		if err != nil {
			return nil, err
		}
		return relational.Open(context.Background(), cfg.Remote.Driver, dsn, logger)
	}
	return jsonfile.Open(dataFile, logger)
}
