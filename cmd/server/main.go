package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/channel-attribution/internal/api"
	"github.com/ignite/channel-attribution/internal/bootstrap"
	"github.com/ignite/channel-attribution/internal/config"
	"github.com/ignite/channel-attribution/internal/database"
	"github.com/ignite/channel-attribution/internal/pkg/logger"
)

// checkPortAvailable fails fast when a stale process already holds the port.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	return ln.Close()
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	bootstrap.SetupLogging(cfg.Logging)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("database connected", "dsn", logger.RedactDSN(cfg.Database.URL))

	if os.Getenv("AUTO_MIGRATE") == "true" {
		mg, err := database.NewMigrator(db)
		if err != nil {
			log.Fatalf("Failed to prepare migrations: %v", err)
		}
		changed, err := mg.Up()
		if err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("migrations checked", "applied", changed)
	}

	rdb := bootstrap.OpenRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	svcs, err := bootstrap.NewServices(cfg, db, rdb)
	if err != nil {
		log.Fatalf("Invalid validation config: %v", err)
	}

	handlers := api.NewHandlers(svcs.SubChannels)
	health := api.NewHealthChecker(db, rdb)
	server := api.NewServer(cfg.Server, cfg.CORS, handlers, health)

	if err := checkPortAvailable(cfg.Server.Addr()); err != nil {
		log.Fatalf("Cannot start server: %v", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err.Error())
	}
	logger.Info("server stopped")
}
