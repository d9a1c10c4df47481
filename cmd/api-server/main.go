package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"mangashelf/internal/feed"
	"mangashelf/internal/manga"
	"mangashelf/internal/middleware"
	"mangashelf/pkg/logging"
	"mangashelf/pkg/storage"
	"mangashelf/pkg/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("MANGASHELF_CONFIG"), "path to TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "api-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := utils.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := storage.Open(cfg.Store, cfg.DataPath, logger.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	hub := feed.NewHub(logger.Logger)
	router := newRouter(cfg, store, hub, logger.Logger)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var feedSrv *feed.Server
	if cfg.FeedAddr != "" {
		feedSrv = feed.NewServer(cfg.FeedAddr, hub, logger.Logger)
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if feedSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := feedSrv.Run(); err != nil {
				errCh <- fmt.Errorf("tcp feed: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Msg("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server error")
	}

	logger.Info().Msg("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	if feedSrv != nil {
		if err := feedSrv.Close(); err != nil {
			logger.Error().Err(err).Msg("tcp feed shutdown error")
		}
	}
	hub.CloseAll()

	wg.Wait()
	logger.Info().Msg("servers stopped")
	return runErr
}

// newRouter wires the collection routes and the health endpoints.
func newRouter(cfg utils.Config, store storage.Store, hub *feed.Hub, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	router.GET("/ws", feed.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.Store, "data": cfg.DataPath})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if _, err := store.LoadAll(ctx); err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"store":       "storage failure",
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"store":       "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	mangaRepo := manga.NewRepo(store)
	mangaHandler := manga.NewHandler(mangaRepo, hub)
	mangaHandler.RegisterRoutes(router.Group("/mangas"))
	return router
}
