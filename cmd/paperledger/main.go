package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"paperledger/internal/api"
	"paperledger/internal/api/handlers"
	"paperledger/internal/repository"
	"paperledger/internal/service"
	"paperledger/pkg/auth"
	"paperledger/pkg/config"
	"paperledger/pkg/logger"
	"paperledger/pkg/postgres"
	"paperledger/pkg/storage"

	"go.uber.org/zap"
)

// @title PaperLedger API
// @version 1.0
// @description Document ingest service: upload invoices and receipts, extract fields via OCR, review and convert them into bills, receipts and payments.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting PaperLedger service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, appLogger); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	fileRepo := repository.NewIncomingFileRepository(db, appLogger)
	billRepo := repository.NewBillRepository(db, appLogger)
	receiptRepo := repository.NewReceiptRepository(db, appLogger)
	paymentRepo := repository.NewPaymentRepository(db, appLogger)
	conversionRepo := repository.NewConversionRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	fileStore, err := storage.NewLocalStorage(cfg.Upload.Dir)
	if err != nil {
		appLogger.Fatal("Failed to initialize file storage", zap.Error(err))
	}
	ocrGateway := service.NewTesseractOCR(cfg.OCR, appLogger)

	conversionService := service.NewConversionService(conversionRepo, appLogger)
	inboxService := service.NewInboxService(fileRepo, fileStore, ocrGateway, conversionService, cfg.Upload, appLogger)
	billService := service.NewBillService(billRepo, paymentRepo, conversionService, fileStore, appLogger)
	receiptService := service.NewReceiptService(receiptRepo, billRepo, paymentRepo, conversionService, fileStore, appLogger)
	paymentService := service.NewPaymentService(paymentRepo, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	inboxHandler := handlers.NewInboxHandler(inboxService, appLogger)
	billHandler := handlers.NewBillHandler(billService, appLogger)
	receiptHandler := handlers.NewReceiptHandler(receiptService, appLogger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, inboxHandler, billHandler, receiptHandler, paymentHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
