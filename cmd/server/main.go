package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telnet-console/server/api/handlers"
	"github.com/telnet-console/server/internal/command"
	"github.com/telnet-console/server/internal/config"
	"github.com/telnet-console/server/internal/db"
	"github.com/telnet-console/server/internal/logging"
	"github.com/telnet-console/server/internal/registry"
	"github.com/telnet-console/server/internal/repository"
	"github.com/telnet-console/server/internal/session"
	"github.com/telnet-console/server/internal/telnetd"
	"github.com/telnet-console/server/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Healthcheck client mode, for container health probes.
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		wait := len(os.Args) > 2 && os.Args[2] == "--wait"
		if err := telnetd.Healthcheck(healthcheckAddr(cfg.TelnetAddr), cfg.Prompt, wait); err != nil {
			log.Fatalf("Healthcheck failed: %v", err)
		}
		return
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDev})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Ensure data directories exist.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Fatal("failed to create database directory", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		logger.Fatal("failed to create transcript directory", zap.Error(err))
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	repo := repository.NewConnectionRepository(database)
	tracker := registry.New()

	sessions := session.NewHandler(tracker, repo, command.NewTable(), logger, session.Config{
		LogDir:    cfg.LogDir,
		Prompt:    cfg.Prompt,
		MaxLine:   cfg.MaxLine,
		CacheSize: cfg.CacheSize,
	})

	telnetSrv := &telnetd.Server{
		Addr:       cfg.TelnetAddr,
		Handler:    sessions,
		Log:        logger,
		MaxClients: cfg.MaxClients,
	}

	go func() {
		if err := telnetSrv.ListenAndServe(); err != nil {
			logger.Fatal("telnet server failed", zap.Error(err))
		}
	}()

	// Admin API and WebSocket console.
	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "live": sessions.LiveCount()})
	})

	api := r.Group("/api")
	{
		handlers.NewConnectionHandler(repo, sessions).RegisterRoutes(api)
		handlers.NewWebSocketHandler(ws.NewHandler(sessions, logger)).RegisterRoutes(api)
	}

	// Graceful shutdown: stop accepting, then force-close every registered
	// handle so blocked session reads turn into ordinary ends of input.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")

		telnetSrv.Close()
		closed := tracker.CloseAll()
		logger.Info("closed live sessions", zap.Int("count", closed))

		// Let session goroutines run their teardown bookkeeping.
		time.Sleep(500 * time.Millisecond)

		database.Close()
		logger.Sync()
		os.Exit(0)
	}()

	logger.Info("admin server listening", zap.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("admin server failed", zap.Error(err))
	}
}

// healthcheckAddr turns a listen address like ":2323" into a dialable one.
func healthcheckAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}
