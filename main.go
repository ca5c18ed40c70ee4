package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"HibernateBot/bot"
	"HibernateBot/command"
	"HibernateBot/config"
	"HibernateBot/database"
	"HibernateBot/ledger"
	"HibernateBot/logger"
	"HibernateBot/metrics"
	"HibernateBot/services"
	"HibernateBot/webserver"

	"github.com/joho/godotenv"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("Recovered from panic: %v\n%s", r, debug.Stack())
		}
	}()

	logger.Log.Info("Bot starting...")
	if err := run(); err != nil {
		logger.Log.WithError(err).Error("Bot encountered an error and is shutting down")
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found, relying on process environment")
	}

	if err := config.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	settings := config.Get()

	runtime, err := config.LoadRuntime(settings.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load runtime settings: %w", err)
	}

	if err := database.Connect(settings.DBPath); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	logger.Log.Info("Database initialized successfully")

	store := ledger.NewStore(database.GetDB())
	m := metrics.New()

	b, err := bot.New(settings)
	if err != nil {
		return fmt.Errorf("failed to create Discord bot: %w", err)
	}

	reconciler := services.NewReconciler(store, b.Platform, b.Platform, runtime, m)
	reporter := services.NewReporter(store)
	cleanup := services.NewCleanupScheduler(b.Platform, runtime, settings.DeleteDelay)

	deps := &command.Deps{
		Reconciler: reconciler,
		Reporter:   reporter,
		Cleanup:    cleanup,
		Runtime:    runtime,
	}

	if err := b.Start(deps); err != nil {
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}
	logger.Log.Info("Discord bot started successfully")

	passScheduler := services.NewPassScheduler(reconciler, settings.PassSchedule)
	if err := passScheduler.Start(); err != nil {
		return fmt.Errorf("failed to start pass scheduler: %w", err)
	}

	healthServer := webserver.Start(settings.HealthPort, m)

	logger.Log.Info("Bot is running")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.Log.Info("Shutting down...")
	passScheduler.Stop()
	cleanup.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Error shutting down health server")
	}

	if err := b.Stop(); err != nil {
		logger.Log.WithError(err).Error("Error closing Discord session")
	}

	return nil
}
