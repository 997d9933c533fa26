package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mbeaudoin/rates-relay/internal/config"
	"github.com/mbeaudoin/rates-relay/internal/history"
	"github.com/mbeaudoin/rates-relay/internal/rates"
	"github.com/mbeaudoin/rates-relay/internal/server"
	"github.com/mbeaudoin/rates-relay/internal/upstream"
	"github.com/mbeaudoin/rates-relay/internal/version"
)

func main() {
	// Local development keeps secrets in .env; missing file is fine.
	godotenv.Load()

	configPath := flag.String("config", "configs/relay.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting rates relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"upstream_url", cfg.Upstream.URL,
		"storage_backend", cfg.Storage.Backend,
		"supported_symbols", len(cfg.SupportedSymbols()),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open the price history store
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open price history store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	logger.Info("price history store ready", "backend", cfg.Storage.Backend)

	// Upstream client, shared by all sessions
	feed := upstream.NewClient(
		cfg.Upstream.URL,
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithLogger(logger),
	)

	aggregator := rates.New(feed, store, cfg.SupportedSymbols(), logger)

	// WebSocket server
	wsServer := server.New(server.Config{
		WriteTimeout: cfg.Server.WriteTimeout,
		PingInterval: cfg.Server.PingInterval,
		PongWait:     cfg.Server.PongWait,
		Interval:     cfg.Stream.Interval,
	}, aggregator, logger)

	if err := wsServer.Start(ctx); err != nil {
		logger.Error("failed to start websocket server", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, wsServer)
	mux.Handle("/health", healthHandler(store, wsServer))

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "path", cfg.Server.Path)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("relay running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost%s/health", cfg.Server.Addr),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	httpServer.Shutdown(shutdownCtx)
	if err := wsServer.Stop(shutdownCtx); err != nil {
		logger.Warn("websocket server stop timed out", "error", err)
	}

	logger.Info("relay stopped")
}

// openStore constructs the configured price history backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (history.Store, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return history.NewPostgres(ctx, cfg.Storage.Postgres, logger)
	case "redis":
		return history.NewRedis(ctx, cfg.Storage.Redis, logger)
	case "memory":
		logger.Warn("using in-memory price history; data is lost on restart")
		return history.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// healthHandler reports store reachability and connected clients.
func healthHandler(store history.Store, ws *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if err := store.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["store"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["store"] = "connected"
		}

		health.Components["sessions"] = ws.ActiveSessions()

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}
