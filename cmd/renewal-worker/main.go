package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"centavo/internal/config"
	"centavo/internal/database"
	"centavo/internal/events"
	"centavo/internal/logger"
	"centavo/internal/mailer"
	"centavo/internal/services"
)

// The worker runs the renewal batch on a fixed interval and a housekeeping
// pass once per day. Both also run once at startup so a restarted worker
// catches up immediately.
const housekeepingInterval = 24 * time.Hour

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	db := dbManager.DB()
	bus := events.NewBus()
	smtpMailer := mailer.NewSMTPMailer(appConfig)
	services.NewNotificationService(db, smtpMailer, bus)

	renewalService := services.NewRenewalService(db, bus)
	housekeepingService := services.NewHousekeepingService(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("renewal worker configured", "interval", appConfig.RenewalInterval)

	runRenewal := func(now time.Time) {
		result, err := renewalService.RunBatch(ctx, now)
		if err != nil {
			log.Errorw("renewal batch failed", "error", err)
			return
		}
		log.Infow("renewal batch complete",
			"renewed", result.Renewed,
			"errored", result.Errored,
		)
	}

	runHousekeeping := func(now time.Time) {
		if _, err := housekeepingService.ExpireEndedBudgets(now); err != nil {
			log.Errorw("budget expiry pass failed", "error", err)
		}
		if _, err := housekeepingService.PurgeStaleBudgets(now); err != nil {
			log.Errorw("stale budget purge failed", "error", err)
		}
		if _, err := housekeepingService.PruneHistory(now); err != nil {
			log.Errorw("history prune failed", "error", err)
		}
	}

	runRenewal(time.Now())
	runHousekeeping(time.Now())

	renewalTicker := time.NewTicker(appConfig.RenewalInterval)
	defer renewalTicker.Stop()
	housekeepingTicker := time.NewTicker(housekeepingInterval)
	defer housekeepingTicker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-renewalTicker.C:
				runRenewal(now)
			case now := <-housekeepingTicker.C:
				runHousekeeping(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infow("shutdown signal received", "signal", sig.String())
	cancel()

	return nil
}
