package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/api"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/config"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/db"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/enrich"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/heartbeat"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/ingest"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/kafka"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/metrics"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/notify"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/scheduler"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/store"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// User table backing login; auth is disabled without a DSN.
	var users api.UserStore
	if cfg.Auth.Enabled {
		dbConn, err := db.New(cfg.DB.DSN)
		if err != nil {
			logger.Errorf("DB connect failed: %v", err)
			log.Fatalf("Database connection failed: %v", err)
		}
		defer dbConn.Close()
		users = dbConn
	}

	st := store.New(cfg.Store.MaxAlerts, cfg.Store.MaxRawLog, m)
	debugLog := store.NewDebugLog(cfg.Store.DebugLogDir, logger)
	normalizer := webhook.NewNormalizer(logger)

	notifier, err := notify.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		cfg.Notify.QueueSize, cfg.Notify.MaxWorkers, logger)
	if err != nil {
		log.Fatalf("Telegram notifier init failed: %v", err)
	}
	notifier.Start(&wg)

	ing := ingest.New(normalizer, st, debugLog, notifier, m, logger)

	sched := scheduler.New(st, logger, cfg.Retention.ResetHour,
		time.Duration(cfg.Retention.PruneEveryHours)*time.Hour,
		time.Duration(cfg.Retention.StaleAfterHours)*time.Hour)
	sched.Start(&wg)

	var consumer *kafka.Consumer
	if cfg.Kafka.Broker != "" {
		consumer = kafka.NewConsumer([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic, cfg.Kafka.GroupID, ing, logger)
		consumer.Start(ctx, &wg)
	}

	hbClient := heartbeat.NewClient(cfg.Heartbeat.URL, cfg.Heartbeat.Trigger,
		time.Duration(cfg.Heartbeat.TimeoutSeconds)*time.Second, logger)

	enrichTimeout := time.Duration(cfg.Enrich.TimeoutSeconds) * time.Second
	var resolver enrich.Resolver
	if cfg.Enrich.URL != "" {
		resolver = enrich.NewHTTPResolver(cfg.Enrich.URL, enrichTimeout)
	}
	enricher := enrich.New(resolver, logger, cfg.Enrich.ChunkSize, enrichTimeout)

	sessions := api.NewSessions()
	handler := api.NewHandler(ing, st, hbClient, enricher, users, sessions, m, logger)
	router := api.NewRouter(handler, logger, cfg, registry)

	go func() {
		logger.Infof("API server listening on :%s", cfg.API.Port)
		if err := router.Run(":" + cfg.API.Port); err != nil {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()
	sched.Stop()
	notifier.Stop()
	if consumer != nil {
		consumer.Close()
	}
	wg.Wait()
	logger.Infof("Service stopped")
}
