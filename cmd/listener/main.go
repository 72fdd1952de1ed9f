package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"warehouse-ledger/internal/app"
	"warehouse-ledger/internal/config"
	"warehouse-ledger/internal/database"
	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/handlers"
	"warehouse-ledger/internal/kafka"
	"warehouse-ledger/internal/ledger"
	"warehouse-ledger/internal/receiving"
	"warehouse-ledger/pkg/logger"
	"warehouse-ledger/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	appLogger := logger.New("warehouse-ledger-listener", cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("Starting warehouse ledger listener",
		zap.String("environment", cfg.Environment),
		zap.String("sqlite_path", cfg.SQLitePath),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.String("kafka_group_id", cfg.KafkaGroupID),
		zap.String("topic_stock", cfg.KafkaTopicStock),
		zap.String("topic_receipts", cfg.KafkaTopicReceipts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processed, err := database.NewSingleWriterDB(cfg.SQLitePath, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open processed events database", zap.Error(err))
	}
	defer processed.Close()

	store, err := app.OpenStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	redisClient, err := app.OpenRedis(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	allocator, err := app.NewAllocator(cfg, store, redisClient, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to configure sequence allocator", zap.Error(err))
	}
	locker := app.NewLocker(redisClient, appLogger)

	// Consumed stock events only feed the ledger writer and are not republished.
	ledgerDispatcher := events.NewDispatcher(nil, appLogger)
	ledger.NewWriter(store, allocator, appLogger).Register(ledgerDispatcher)

	publisher := app.NewPublisher(ctx, cfg, appLogger)
	defer publisher.Close()
	receiptDispatcher := events.NewDispatcher(publisher, appLogger)

	tracker := receiving.NewPurchaseOrderFulfillmentTracker(store, appLogger)
	processor := receiving.NewProcessor(store, allocator, tracker, receiptDispatcher, locker, receiving.ProcessorConfig{
		Policy:     domain.ParseOverReceiptPolicy(cfg.OverReceiptPolicy),
		MaxRetries: cfg.StockMaxRetries,
	}, appLogger)

	consumer, err := kafka.NewConsumer(cfg, ledgerDispatcher, processor, processed, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		ledger.NewReconciler(store, appLogger).Run(ctx, cfg.ReconcileInterval)
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(middleware.ErrorHandler(appLogger))
	handlers.NewMonitoringHandler("warehouse-ledger-listener", map[string]handlers.Pinger{
		"store":            store,
		"processed_events": processed,
	}, processed, appLogger).Register(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Monitoring server failed", zap.Error(err))
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- consumer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			appLogger.Error("Consumer error", zap.Error(err))
		}
		stop()
	case <-ctx.Done():
		appLogger.Info("Shutting down listener")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Monitoring server forced to shutdown", zap.Error(err))
	}
	workers.Wait()

	appLogger.Info("Listener exited")
}
