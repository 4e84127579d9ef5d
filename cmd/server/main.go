package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tenzinsgym/pos/internal/api"
	"tenzinsgym/pos/internal/config"
	"tenzinsgym/pos/internal/logging"
	"tenzinsgym/pos/internal/repository/mongo"
	"tenzinsgym/pos/internal/service"
	"tenzinsgym/pos/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Tenzin's Gym POS API
// @version 1.0
// @description Front desk and back office API: members, catalog, point of sale, sales ledger, expenses and reports.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	// --- Logging ---
	logger, err := logging.Init(cfg.Logger)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.S().Info("Starting Tenzin's Gym POS server...")

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	loc := cfg.POS.Location()
	clock := service.Clock(func() time.Time { return time.Now().In(loc) })

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		zap.S().Fatalf("Could not connect to MongoDB: %v", err)
	}
	defer func() {
		zap.S().Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			zap.S().Errorw("Failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	zap.S().Infow("Database connection established", "database", cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB)
		zap.S().Info("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	fileStorage := storage.NewDisabledStorage()
	if cfg.S3.BucketName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3)
		cancel()
		if err != nil {
			zap.S().Fatalf("Failed to initialize S3 storage: %v", err)
		}
	} else {
		zap.S().Warn("No S3 bucket configured, archiving and product images are disabled")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoSystemUserRepository(appDB)
	memberRepo := mongo.NewMongoMemberRepository(appDB)
	trainerRepo := mongo.NewMongoTrainerRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	productRepo := mongo.NewMongoProductRepository(appDB)
	foodRepo := mongo.NewMongoFoodRepository(appDB)
	expenseRepo := mongo.NewMongoExpenseRepository(appDB)
	saleRepo := mongo.NewMongoSaleRepository(appDB)
	counterRepo := mongo.NewMongoCounterRepository(appDB)

	// --- Initialize Services ---
	invoiceIDs, err := service.NewSnowflakeInvoiceIDs(cfg.POS.NodeID)
	if err != nil {
		zap.S().Fatalf("Failed to initialize invoice ids: %v", err)
	}
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, clock)
	memberService := service.NewMemberService(memberRepo, trainerRepo, counterRepo, cfg.POS.ExpiringWindowDays, clock)
	catalogService := service.NewCatalogService(trainerRepo, planRepo, productRepo, foodRepo, counterRepo, fileStorage)
	expenseService := service.NewExpenseService(expenseRepo, clock)
	posService := service.NewPOSService(memberRepo, trainerRepo, planRepo, productRepo, foodRepo, saleRepo, counterRepo, invoiceIDs,
		service.POSSettings{
			JoiningFee:          cfg.POS.JoiningFee,
			TrainerAssignMonths: cfg.POS.TrainerAssignMonths,
			ExpiringWindowDays:  cfg.POS.ExpiringWindowDays,
		}, clock)
	salesService := service.NewSalesService(saleRepo, fileStorage, loc, clock)
	reportService := service.NewReportService(saleRepo, expenseRepo, memberRepo, fileStorage, loc, cfg.POS.ExpiringWindowDays, clock)

	// --- Bootstrap Admin ---
	if cfg.Auth.BootstrapEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword); err != nil {
			zap.S().Errorw("Failed to create bootstrap admin", "error", err)
		}
		cancel()
	}

	// --- Status Reconciler ---
	reconciler, err := service.NewReconciler(memberService, cfg.Lifecycle.ReconcileSchedule, loc)
	if err != nil {
		zap.S().Fatalf("Failed to schedule reconciler: %v", err)
	}
	if cfg.Lifecycle.ReconcileOnStart {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := reconciler.RunOnce(ctx); err != nil {
				zap.S().Errorw("Startup reconcile failed", "error", err)
			}
		}()
	}
	reconciler.Start()

	// --- Initialize Gin Engine ---
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	// --- Setup Routes ---
	api.SetupRoutes(router, api.Services{
		Auth:     authService,
		Members:  memberService,
		Catalog:  catalogService,
		Expenses: expenseService,
		POS:      posService,
		Sales:    salesService,
		Reports:  reportService,
		Location: loc,
		Clock:    clock,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	zap.S().Infow("Server starting", "address", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalf("ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	reconciler.Stop(ctxShutdown)
	if err := server.Shutdown(ctxShutdown); err != nil {
		zap.S().Errorw("Server forced to shutdown", "error", err)
	}

	zap.S().Info("Server exiting.")
}
