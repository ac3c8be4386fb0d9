package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/api"
	"github.com/wedding-planner/backend/internal/assets"
	"github.com/wedding-planner/backend/internal/autosave"
	"github.com/wedding-planner/backend/internal/catalog"
	"github.com/wedding-planner/backend/internal/config"
	"github.com/wedding-planner/backend/internal/session"
	"github.com/wedding-planner/backend/internal/storage"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "floor planner: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Config lives next to the executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	configPath := filepath.Join(filepath.Dir(exePath), "FloorPlanner.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	assetStore, err := storage.NewLocalStore(cfg.Storage.AssetsDirectory)
	if err != nil {
		return fmt.Errorf("failed to initialize asset storage: %w", err)
	}

	var sceneStore storage.SceneStore
	if cfg.Storage.EnablePersistence {
		sceneStore, err = storage.NewDuckSceneStore(cfg.Storage.DatabasePath, storage.DuckOptions{
			Threads:     cfg.Advanced.DuckDBThreads,
			MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to open scene database: %w", err)
		}
	} else {
		logger.Warn("persistence disabled, scenes are kept in memory only")
		sceneStore = storage.NewMemorySceneStore()
	}
	defer sceneStore.Close()

	cat, err := catalog.Load(cfg.Storage.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load furniture catalog: %w", err)
	}

	prober := assets.NewProber(assetStore,
		assets.WithMaxBytes(int64(cfg.Processing.MaxImageBytes)),
		assets.WithRemoteImages(cfg.Security.AllowRemoteImages),
		assets.WithLogger(logger),
	)

	engineCfg := cfg.EngineConfig()
	saver := autosave.New(sceneStore, cfg.AutosaveDelay(), logger)
	sessions := session.NewManager(sceneStore, saver, session.Options{
		Engine:      engineCfg,
		MaxSessions: cfg.Processing.MaxOpenProjects,
		Prober:      prober,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background cleanup of idle projects
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.CleanupOldSessions(cfg.SessionTimeout()); n > 0 {
					logger.Info("idle projects closed", "count", n, "open", sessions.Count())
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, api.MiddlewareOptions{
		Logger:           logger,
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		EnableCORS:       cfg.Server.EnableCORS,
		AllowOrigins:     cfg.Server.AllowOrigins,
		BodyLimit:        cfg.Server.BodyLimit,
		Compression:      cfg.Processing.EnableCompression,
		CompressionLevel: cfg.Processing.CompressionLevel,
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Sessions:             sessions,
		Assets:               assetStore,
		Catalog:              cat,
		Logger:               logger,
		Version:              Version,
		AllowedImageTypes:    cfg.Security.AllowedImageTypes,
		AllowProjectDeletion: cfg.Security.AllowProjectDeletion,
		AllowAssetDeletion:   cfg.Security.AllowAssetDeletion,
		PlaceTimeout:         engineCfg.ImageTimeout + 5*time.Second,
		WebSocketMaxKB:       cfg.Advanced.WebSocketMaxMessageSize,
	}))

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	logger.Info("floor planner server starting",
		"version", Version,
		"buildTime", BuildTime,
		"config", configPath,
		"listen", cfg.GetServerAddr(),
		"dataDir", cfg.Storage.DataDirectory,
		"persistence", cfg.Storage.EnablePersistence,
		"catalogItems", len(cat.Items),
	)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.StartServer(s)
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if err := sessions.Shutdown(); err != nil {
		return fmt.Errorf("flushing open projects: %w", err)
	}
	return nil
}
