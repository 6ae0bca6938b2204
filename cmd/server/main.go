package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gustavagren2/Outbreak/internal/config"
	"github.com/gustavagren2/Outbreak/internal/game"
	"github.com/gustavagren2/Outbreak/internal/room"
	"github.com/gustavagren2/Outbreak/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	settings, err := config.LoadSettings(cfg.TuningPath)
	if err != nil {
		logger.Error("load game tuning", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rooms := room.NewManager(rand.New(rand.NewSource(time.Now().UnixNano())))
	metrics := server.NewMetrics()

	// Wire engine and hub (circular dependency resolved via SetHub)
	engine := game.NewEngine(rooms, nil, settings, metrics, logger)
	hub := server.NewHub(cfg.Env == "development", cfg.WSReadLimit, cfg.WSPingInterval, engine, metrics, logger)
	engine.SetHub(hub)
	engine.Start(ctx)

	srv := server.New(cfg, rooms, hub, metrics, logger)

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
