package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gracepoint-chapel/church-backend/api/routes"
	"github.com/gracepoint-chapel/church-backend/internal/config"
	"github.com/gracepoint-chapel/church-backend/internal/handlers"
	"github.com/gracepoint-chapel/church-backend/internal/services"
	mongorepo "github.com/gracepoint-chapel/church-backend/internal/repositories/mongodb"
	"github.com/gracepoint-chapel/church-backend/pkg/mongodb"
	"github.com/gracepoint-chapel/church-backend/pkg/smsgateway"
	"github.com/gracepoint-chapel/church-backend/pkg/socialgateway"
)

func main() {
	// A missing .env is fine in production; variables come from the host
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	campaignRepo := mongorepo.NewCampaignRepository(db)
	recipientRepo := mongorepo.NewRecipientRepository(db)
	accountRepo := mongorepo.NewSocialAccountRepository(db)
	postRepo := mongorepo.NewSocialPostRepository(db)
	settingsRepo := mongorepo.NewSettingsRepository(db)
	audienceRepo := mongorepo.NewAudienceRepository(db)
	ministryRepo := mongorepo.NewMinistryRepository(db)
	eventRepo := mongorepo.NewEventRepository(db)
	userRepo := mongorepo.NewUserRepository(db)

	// Provider adapters
	smsRegistry := smsgateway.NewDefaultRegistry()
	socialRegistry := socialgateway.NewDefaultRegistry()

	// Services
	smsDispatch := services.NewSMSDispatchService(
		campaignRepo, recipientRepo, audienceRepo, settingsRepo,
		smsRegistry, cfg.Dispatch.BatchSize, cfg.Dispatch.SMSRatePerSecond,
	)
	socialDispatch := services.NewSocialDispatchService(
		postRepo, accountRepo, settingsRepo, socialRegistry,
		time.Duration(cfg.Dispatch.TokenRefreshHours)*time.Hour,
	)
	campaignService := services.NewCampaignService(
		campaignRepo, recipientRepo, audienceRepo, ministryRepo, eventRepo, smsDispatch,
	)
	socialService := services.NewSocialService(
		postRepo, accountRepo, settingsRepo, socialRegistry,
		cfg.Server.APIBaseURL, cfg.Server.ClientBaseURL,
	)
	authService := services.NewAuthService(
		userRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second,
	)

	// Handlers
	handlerDeps := routes.HandlerDependencies{
		Auth:     handlers.NewAuthHandler(authService),
		Campaign: handlers.NewCampaignHandler(campaignService),
		Social:   handlers.NewSocialHandler(socialService),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	// Dispatch loops run for the life of the process
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	go smsDispatch.Start(dispatchCtx, time.Duration(cfg.Dispatch.SMSIntervalSeconds)*time.Second)
	go socialDispatch.Start(dispatchCtx, time.Duration(cfg.Dispatch.SocialIntervalSeconds)*time.Second)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopDispatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
