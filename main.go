package main

import (
	"context"
	"log"

	api "github.com/containersuper/bct-crm/cmd/api"
	analysisDelivery "github.com/containersuper/bct-crm/internal/analysis/delivery"
	analysisdomain "github.com/containersuper/bct-crm/internal/analysis/domain"
	analysisRepo "github.com/containersuper/bct-crm/internal/analysis/repository"
	analysisUsecase "github.com/containersuper/bct-crm/internal/analysis/usecase"
	authdomain "github.com/containersuper/bct-crm/internal/auth/domain"
	authRepo "github.com/containersuper/bct-crm/internal/auth/repository"
	authUsecase "github.com/containersuper/bct-crm/internal/auth/usecase"
	connDelivery "github.com/containersuper/bct-crm/internal/connection/delivery"
	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
	connRepo "github.com/containersuper/bct-crm/internal/connection/repository"
	connUsecase "github.com/containersuper/bct-crm/internal/connection/usecase"
	crmDelivery "github.com/containersuper/bct-crm/internal/crm/delivery"
	crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"
	crmRepo "github.com/containersuper/bct-crm/internal/crm/repository"
	crmUsecase "github.com/containersuper/bct-crm/internal/crm/usecase"
	emaildomain "github.com/containersuper/bct-crm/internal/email/domain"
	emailRepo "github.com/containersuper/bct-crm/internal/email/repository"
	emailUsecase "github.com/containersuper/bct-crm/internal/email/usecase"
	syncDelivery "github.com/containersuper/bct-crm/internal/syncer/delivery"
	syncerdomain "github.com/containersuper/bct-crm/internal/syncer/domain"
	syncerRepo "github.com/containersuper/bct-crm/internal/syncer/repository"
	"github.com/containersuper/bct-crm/internal/syncer/scheduler"
	syncerUsecase "github.com/containersuper/bct-crm/internal/syncer/usecase"
	"github.com/containersuper/bct-crm/pkg/brand"
	"github.com/containersuper/bct-crm/pkg/config"
	"github.com/containersuper/bct-crm/pkg/database"
	"github.com/containersuper/bct-crm/pkg/gmailapi"
	"github.com/containersuper/bct-crm/pkg/llm"
	"github.com/containersuper/bct-crm/pkg/mailer"
	"github.com/containersuper/bct-crm/pkg/quota"
	"github.com/containersuper/bct-crm/pkg/teamleader"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{}, &authdomain.RefreshToken{},
		&conndomain.Connection{},
		&crmdomain.Customer{}, &crmdomain.Company{}, &crmdomain.Deal{},
		&crmdomain.Invoice{}, &crmdomain.Quote{}, &crmdomain.Project{},
		&emaildomain.EmailHistory{},
		&syncerdomain.ImportProgress{},
		&analysisdomain.EmailAnalytics{}, &analysisdomain.CustomerIntelligence{},
		&analysisdomain.PriceEstimate{}, &analysisdomain.SalesPrediction{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepository := authRepo.NewUserRepository(db)
	connRepository := connRepo.NewConnectionRepository(db)
	mirrorRepository := crmRepo.NewMirrorRepository(db)
	emailRepository := emailRepo.NewEmailRepository(db)
	progressRepository := syncerRepo.NewProgressRepository(db)
	analyticsRepository := analysisRepo.NewAnalyticsRepository(db)

	// Provider clients
	gmailService := gmailapi.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	teamleaderClient := teamleader.NewClient(cfg.TeamleaderBaseURL, cfg.TeamleaderAuthURL, cfg.TeamleaderClientID, cfg.TeamleaderClientSecret)
	llmClient := llm.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)

	// Brand detection table
	brands, err := brand.NewTable(brand.DefaultPatterns())
	if err != nil {
		log.Fatal("Failed to compile brand patterns:", err)
	}

	// Redis-backed sync lock, with a no-op fallback when redis is not configured
	locker := syncerUsecase.NewNoopLocker()
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL:", err)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: redis unreachable, sync locks disabled: %v", err)
		} else {
			locker = syncerUsecase.NewRedisLocker(redisClient)
			log.Println("Redis sync locks enabled")
		}
	}

	// Sync layer
	refresher := connUsecase.NewTokenRefresher(connRepository, gmailService, teamleaderClient, cfg.SyncErrorLimit)
	fetcher := crmUsecase.NewFetcher(teamleaderClient, mirrorRepository)
	limiter := quota.NewLimiter(cfg.RatePerSecond, cfg.SyncPageSize)
	gmailSyncer := emailUsecase.NewGmailSyncer(gmailService, emailRepository, connRepository, brands, limiter, int64(cfg.SyncPageSize))
	orchestrator := syncerUsecase.NewOrchestrator(connRepository, refresher, fetcher, gmailSyncer, progressRepository, locker, syncerUsecase.Options{
		PageSize:       cfg.SyncPageSize,
		MaxBatches:     cfg.SyncMaxBatches,
		ErrorThreshold: cfg.SyncErrorLimit,
		QuotaLimit:     cfg.QuotaLimit,
	})

	// Background incremental sync
	syncScheduler := scheduler.NewSyncScheduler(orchestrator, cfg.SyncInterval)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	// Analysis layer
	dispatcher := analysisUsecase.NewDispatcher(analyticsRepository, emailRepository, mirrorRepository, llmClient)
	classificationWorker := analysisUsecase.NewClassificationWorker(dispatcher, 3)
	classificationWorker.Start()
	defer classificationWorker.Stop()

	// Outbound mail: connected Gmail account first, SMTP relay as fallback
	emailSender := mailer.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	quoteMailer := emailUsecase.NewQuoteMailer(gmailService, emailSender, connRepository, quota.NewMeter(cfg.QuotaLimit))

	// Usecases and HTTP handlers
	authUc := authUsecase.NewAuthUsecase(userRepository, cfg)
	connHandler := connDelivery.NewConnectionHandler(connRepository, gmailService, teamleaderClient)
	syncHandler := syncDelivery.NewSyncHandler(orchestrator, progressRepository)
	crmHandler := crmDelivery.NewCRMHandler(mirrorRepository, quoteMailer, brand.DefaultBrand)
	analysisHandler := analysisDelivery.NewAnalysisHandler(dispatcher, classificationWorker, analyticsRepository)

	handler := api.NewHandler(cfg, authUc, connHandler, syncHandler, crmHandler, analysisHandler)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
