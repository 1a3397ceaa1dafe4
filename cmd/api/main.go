package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"prosumer-sim/internal/api"
	"prosumer-sim/internal/api/handlers"
	"prosumer-sim/internal/config"
	"prosumer-sim/internal/logging"
	"prosumer-sim/internal/scenario"
	"prosumer-sim/internal/simulation"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	settings, err := config.LoadServerSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	logger, err := logging.New(settings.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	sc, err := scenario.Load(settings.ConfigPath)
	if err != nil {
		return fmt.Errorf("load scenario %s: %w", settings.ConfigPath, err)
	}
	logger.Info("scenario loaded",
		zap.String("config", settings.ConfigPath),
		zap.Time("start", sc.Config.Simulation.Start),
		zap.Time("end", sc.Config.Simulation.End),
		zap.Int("price_rows", len(sc.Datasets.Prices)),
	)

	var store *simulation.Store
	if settings.DatabasePath != "" {
		store, err = simulation.OpenStore(settings.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("run store enabled", zap.String("path", settings.DatabasePath))
	}

	if settings.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessions := handlers.NewSessionStore(settings.SessionTTL, settings.MaxSessions)
	go sessions.Run(ctx, time.Minute, func(removed, remaining int) {
		if removed > 0 {
			logger.Info("expired sessions removed", zap.Int("removed", removed), zap.Int("remaining", remaining))
		}
	})

	router := api.NewRouter(api.Deps{
		Scenario:       sc,
		Sessions:       sessions,
		Store:          store,
		BatteriesDir:   settings.BatteriesDir,
		AllowedOrigins: settings.AllowedOrigins,
		Registry:       reg,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
