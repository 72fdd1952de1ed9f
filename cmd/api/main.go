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
	"warehouse-ledger/internal/auth"
	"warehouse-ledger/internal/config"
	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/handlers"
	"warehouse-ledger/internal/inventory"
	"warehouse-ledger/internal/ledger"
	"warehouse-ledger/internal/receiving"
	"warehouse-ledger/pkg/logger"
	"warehouse-ledger/pkg/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "warehouse-ledger/docs"
)

const idempotencyTTL = 10 * time.Minute

// @title           Warehouse Ledger API
// @version         1.0
// @description     Stock levels, reservations, goods receipts and the append-only inventory ledger.

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token from /auth/token.
func main() {
	cfg := config.Load()

	appLogger := logger.New("warehouse-ledger-api", cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("Starting warehouse ledger API",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("event_broker", cfg.EventBroker),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	publisher := app.NewPublisher(ctx, cfg, appLogger)
	defer publisher.Close()

	dispatcher := events.NewDispatcher(publisher, appLogger)
	ledger.NewWriter(store, allocator, appLogger).Register(dispatcher)

	stock := inventory.NewStockService(store, dispatcher, locker, cfg.StockMaxRetries, appLogger)
	reservations := inventory.NewReservationManager(stock, allocator, cfg.ReservationDefaultTTL, appLogger)
	tracker := receiving.NewPurchaseOrderFulfillmentTracker(store, appLogger)
	processor := receiving.NewProcessor(store, allocator, tracker, dispatcher, locker, receiving.ProcessorConfig{
		Policy:     domain.ParseOverReceiptPolicy(cfg.OverReceiptPolicy),
		MaxRetries: cfg.StockMaxRetries,
	}, appLogger)
	reconciler := ledger.NewReconciler(store, appLogger)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		reservations.Run(ctx, cfg.ReservationSweepInterval)
	}()
	go func() {
		defer workers.Done()
		reconciler.Run(ctx, cfg.ReconcileInterval)
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rateLimit, err := middleware.RateLimit(cfg.RateLimit, redisClient, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to configure rate limiting", zap.Error(err))
	}

	var responses middleware.ResponseStore
	if redisClient != nil {
		responses = middleware.NewRedisResponseStore(redisClient)
	} else {
		memoryResponses := middleware.NewInMemoryResponseStore()
		go memoryResponses.Cleanup(ctx, time.Minute)
		responses = memoryResponses
	}

	router := gin.New()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(rateLimit)
	router.Use(middleware.ErrorHandler(appLogger))
	router.Use(middleware.IdempotencyMiddleware(responses, appLogger, idempotencyTTL))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	checks := map[string]handlers.Pinger{"store": store}
	if redisClient != nil {
		checks["redis"] = app.RedisPinger{Client: redisClient}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 0, appLogger)
	authHandler := auth.NewAuthHandler(jwtManager, cfg.AuthUsers, appLogger)
	inventoryHandler := handlers.NewInventoryHandler(stock, reservations, store, reconciler, appLogger)
	receiptHandler := handlers.NewReceiptHandler(processor, tracker, appLogger)

	v1 := router.Group("/api/v1")
	handlers.NewMonitoringHandler("warehouse-ledger-api", checks, nil, appLogger).Register(v1)
	authHandler.Register(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(jwtManager, appLogger))
	inventoryHandler.RegisterCommands(protected)
	inventoryHandler.RegisterQueries(protected)
	receiptHandler.RegisterCommands(protected)
	receiptHandler.RegisterQueries(protected)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("HTTP server listening",
			zap.String("port", cfg.Port),
			zap.String("swagger_url", "http://localhost:"+cfg.Port+"/swagger/index.html"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	workers.Wait()

	appLogger.Info("Server exited")
}
