package main

import (
	"context"

	"business-directory-backend/audit"
	"business-directory-backend/config"
	"business-directory-backend/middleware"
	"business-directory-backend/token"
	"business-directory-backend/utils"

	// Repositories
	businesses_repositories "business-directory-backend/businesses/repositories"
	duplicates_repositories "business-directory-backend/duplicates/repositories"
	imports_repositories "business-directory-backend/imports/repositories"

	// Services
	duplicates_services "business-directory-backend/duplicates/services"
	imports_services "business-directory-backend/imports/services"

	// Routes
	business_routes "business-directory-backend/businesses/routes"
	duplicate_routes "business-directory-backend/duplicates/routes"
	import_routes "business-directory-backend/imports/routes"

	// Bleve
	bleveRepositories "business-directory-backend/bleve/repositories"
	bleveServices "business-directory-backend/bleve/services"

	// WebSocket
	"business-directory-backend/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Initialize Zap logger
	config.InitLogger()

	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		config.Logger.Warn("No .env file found, relying on process environment", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // bulk uploads
	})

	// Apply CORS middleware from middleware package
	middleware.InitCors(app)

	// Initialize database and configs
	db := config.ConfigureDatabase()
	port := config.GetEnvOr("PORT", "8080")
	ctx := context.Background()

	redisClient := config.InitRedisServer(ctx)

	tokenKey := config.GetEnv("TOKEN_SYMMETRIC_KEY")
	tokenMaker, err := token.NewPasetoMaker(tokenKey)
	if err != nil {
		config.Logger.Fatal("Cannot create token maker", zap.Error(err))
	}

	indexPath := config.GetEnvOr("BLEVE_INDEX_PATH", "./bleve_data")

	// Initialize the mailer
	utils.InitializeMailer()

	// WebSocket hub for live import progress
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Serve generated error reports
	app.Static("/public", "./public")

	// Repositories
	bleveIndexingService := bleveServices.NewIndexingService(config.Logger, indexPath)
	searchRepo := bleveRepositories.NewBusinessSearchRepository(bleveIndexingService)
	businessRepo := businesses_repositories.NewBusinessRepository(db)
	importJobRepo := imports_repositories.NewImportJobRepository(db)
	cancelStore := imports_repositories.NewRedisCancellationStore(redisClient)
	mergeStore := duplicates_repositories.NewMergeRepository(db)

	// Services
	auditSink := audit.NewDBSink(db, config.Logger)
	reporter := imports_services.NewEmailReportSender(importJobRepo, config.Logger)
	orchestrator := imports_services.NewImportOrchestrator(importJobRepo, businessRepo, cancelStore, config.Logger).
		WithBroadcaster(wsHub).
		WithIndexer(searchRepo).
		WithReporter(reporter).
		WithAuditSink(auditSink)

	groupBuilder := duplicates_services.NewGroupBuilder(businessRepo)
	mergeEngine := duplicates_services.NewMergeEngine(mergeStore, auditSink, config.Logger)

	// Routes
	appCtx := &middleware.AppContext{
		PasetoMaker: tokenMaker,
		Ctx:         ctx,
		RedisClient: redisClient,
	}
	import_routes.ImportInitRoutes(app, orchestrator, importJobRepo, appCtx)
	business_routes.BusinessInitRoutes(app, businessRepo, searchRepo, appCtx)
	duplicate_routes.DuplicateInitRoutes(app, groupBuilder, mergeEngine, redisClient, appCtx)

	// WebSocket route for live job progress
	wsHandler := websocket.NewWsHandler(wsHub, tokenMaker)
	app.Get("/ws/imports", wsHandler.HandleImportProgress)

	// Nightly duplicate scan
	scheduler := duplicates_services.NewScanScheduler(groupBuilder, redisClient, config.Logger)
	if err := scheduler.Start(config.GetEnv("DUPLICATE_SCAN_CRON")); err != nil {
		config.Logger.Fatal("Failed to start duplicate scan scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// Start the application
	config.Logger.Info("Server starting", zap.String("port", port))
	config.Logger.Fatal("Server failed", zap.String("port", port), zap.Error(app.Listen(":"+port)))
}
