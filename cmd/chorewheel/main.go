package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/dukerupert/chorewheel/internal/backup"
	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/logging"
	"github.com/dukerupert/chorewheel/internal/schedule"
	"github.com/dukerupert/chorewheel/internal/server"
	ws "github.com/dukerupert/chorewheel/internal/websocket"
)

func main() {
	logger := logging.Setup(os.Stderr, os.Getenv("CHOREWHEEL_LOG_LEVEL"), os.Getenv("CHOREWHEEL_LOG_FORMAT"))

	port := os.Getenv("CHOREWHEEL_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CHOREWHEEL_DB_PATH")
	if dbPath == "" {
		dbPath = "chorewheel.db"
	}

	rollover := time.Hour
	if v := os.Getenv("CHOREWHEEL_ROLLOVER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logger.Error("invalid CHOREWHEEL_ROLLOVER_INTERVAL", "value", v)
			os.Exit(1)
		}
		rollover = d
	}

	backupCfg := backup.Config{
		Dir:        os.Getenv("CHOREWHEEL_BACKUP_DIR"),
		Passphrase: os.Getenv("CHOREWHEEL_BACKUP_PASSPHRASE"),
	}
	if v := os.Getenv("CHOREWHEEL_BACKUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logger.Error("invalid CHOREWHEEL_BACKUP_INTERVAL", "value", v)
			os.Exit(1)
		}
		backupCfg.Interval = d
	}
	if v := os.Getenv("CHOREWHEEL_BACKUP_KEEP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			logger.Error("invalid CHOREWHEEL_BACKUP_KEEP", "value", v)
			os.Exit(1)
		}
		backupCfg.Keep = n
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, logger)

	hub := srv.Hub()
	scheduler := schedule.NewScheduler(srv.Service(), rollover, func(r schedule.MaterializeResult) {
		hub.Broadcast(ws.NewMessage(r.Code, "schedule", "materialized", 0, map[string]any{
			"week_key": r.WeekKey,
			"created":  r.Created,
		}))
	}, logger.With("component", "rollover"))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	scheduler.Start(ctx)

	backups := backup.NewManager(backupCfg, db, logger.With("component", "backup"))
	backups.Start(ctx)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					logger.Debug("rate limiter cleanup", "removed", n)
				}
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("chorewheel listening", "addr", "http://localhost:"+port, "db", dbPath,
			"rollover", rollover, "backups", backups.Status().State)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	scheduler.Stop()
	backups.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
