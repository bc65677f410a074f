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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/dijonPSU/LiveDocs/api"
	"github.com/dijonPSU/LiveDocs/auth"
	"github.com/dijonPSU/LiveDocs/config"
	"github.com/dijonPSU/LiveDocs/domain"
	"github.com/dijonPSU/LiveDocs/hub"
	"github.com/dijonPSU/LiveDocs/protocol"
	"github.com/dijonPSU/LiveDocs/version"
	ws "github.com/dijonPSU/LiveDocs/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	cfg := config.Load()
	setupLogger(cfg.LogLevel)

	store, cleanup, err := openStore(cfg)
	if err != nil {
		slog.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	broadcaster := hub.New()
	svc := version.NewService(store, cfg.SnapshotInterval)
	handler := protocol.NewHandler(broadcaster, auth.NewVerifier(cfg.AuthSecret))

	r := gin.Default()
	r.Use(corsMiddleware(cfg.FrontendURL))

	r.GET("/ws", wsHandler(cfg, broadcaster, handler))
	r.GET("/health", healthHandler)

	api.SetupRoutes(r.Group("/api"), store, svc, broadcaster)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(level string) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

// openStore picks Postgres when configured, otherwise the in-memory
// store.
func openStore(cfg *config.Config) (domain.VersionStore, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("no DATABASE_URL set, using in-memory store")
		return version.NewMemoryStore(), func() {}, nil
	}
	store, err := version.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func wsHandler(cfg *config.Config, broadcaster domain.Broadcaster, handler domain.MessageHandler) gin.HandlerFunc {
	upgrader := &ws.Upgrader{}

	return func(c *gin.Context) {
		raw, err := upgrader.Upgrade(c.Writer, c.Request)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		var limiter *rate.Limiter
		if cfg.RateLimitPerSecond > 0 {
			limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)
		}

		conn := ws.NewConn(uuid.New().String(), raw, broadcaster, handler, limiter)
		conn.Start()
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func corsMiddleware(frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", frontendURL)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
