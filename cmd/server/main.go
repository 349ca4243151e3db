package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"teamsync/internal/api"
	"teamsync/internal/api/handlers"
	"teamsync/internal/api/middleware"
	"teamsync/internal/engine/activity"
	"teamsync/internal/engine/webhooks"
	"teamsync/internal/pkg/logger"
	"teamsync/internal/platform/auth"
	"teamsync/internal/platform/config"
	"teamsync/internal/platform/database"
	"teamsync/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		stdlog.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	teamRepo := repositories.NewTeamRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	transport := webhooks.NewHTTPTransport(cfg.Webhooks.DeliveryTimeout, cfg.Webhooks.SignPayloads)
	dispatcher := webhooks.NewDispatcher(webhookRepo, transport)
	recorder := activity.NewRecorder(activityRepo)

	// Handlers
	orgHandler := handlers.NewOrgHandler(orgRepo, memberRepo, dispatcher, recorder)
	memberHandler := handlers.NewMemberHandler(orgRepo, memberRepo, dispatcher, recorder)
	teamHandler := handlers.NewTeamHandler(orgRepo, teamRepo, memberRepo, dispatcher, recorder)
	webhookHandler := handlers.NewWebhookHandler(webhookRepo, transport, recorder)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyRepo)
	activityHandler := handlers.NewActivityHandler(activityRepo)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, apiKeyRepo)
	orgMiddleware := middleware.NewOrgMiddleware(orgRepo, memberRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	router := api.NewRouter(&api.Dependencies{
		OrgHandler:      orgHandler,
		MemberHandler:   memberHandler,
		TeamHandler:     teamHandler,
		WebhookHandler:  webhookHandler,
		APIKeyHandler:   apiKeyHandler,
		ActivityHandler: activityHandler,
		HealthHandler:   healthHandler,
		AuthMiddleware:  authMiddleware,
		OrgMiddleware:   orgMiddleware,
		RateLimiter:     rateLimiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			stdlog.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	server.Shutdown(ctx)

	// Let in-flight webhook deliveries and activity writes finish.
	dispatcher.Wait()
	recorder.Wait()
}
