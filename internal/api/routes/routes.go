package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Wikid82/ballot/backend/internal/api/handlers"
	"github.com/Wikid82/ballot/backend/internal/api/middleware"
	"github.com/Wikid82/ballot/backend/internal/config"
	"github.com/Wikid82/ballot/backend/internal/credentials"
	"github.com/Wikid82/ballot/backend/internal/live"
	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/services"
	"github.com/Wikid82/ballot/backend/internal/store"
)

// Deps are the long-lived collaborators owned by the caller.
type Deps struct {
	// Hub receives tally updates; nil disables the live results route.
	Hub    *live.Hub
	Notify *services.NotificationService
}

// Register builds the services on db and wires up the /api routes.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) {
	st := store.New(db, models.TableAuditLogs)
	provider := credentials.NewLocalProvider(db)

	tokens := services.NewTokenService(cfg.JWTSecret)
	authService := services.NewAuthService(provider, tokens)
	electionService := services.NewElectionService(st, deps.Notify)
	votingService := services.NewVotingService(st)
	resultsService := services.NewResultsService(st)
	profileService := services.NewProfileService(st, authService)

	var checker middleware.AdminChecker
	if cfg.AdminRecheck {
		checker = authService
	}
	var publisher handlers.Publisher
	if deps.Hub != nil {
		publisher = deps.Hub
	}

	authHandler := handlers.NewAuthHandler(authService)
	electionHandler := handlers.NewElectionHandler(electionService, resultsService, deps.Hub)
	voteHandler := handlers.NewVoteHandler(votingService, resultsService, publisher)
	userHandler := handlers.NewUserHandler(profileService)
	adminHandler := handlers.NewAdminHandler(electionService, resultsService)

	authMiddleware := middleware.AuthMiddleware(tokens)
	adminMiddleware := middleware.AdminMiddleware(tokens, checker)

	api := router.Group("/api")
	api.GET("/health", handlers.HealthHandler)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	api.GET("/elections", electionHandler.ListActive)
	api.GET("/elections/:id/candidates", electionHandler.ListCandidates)
	api.GET("/elections/:id/results", electionHandler.Results)
	if deps.Hub != nil {
		api.GET("/elections/:id/results/live", electionHandler.LiveResults)
	}

	protected := api.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/elections/:id/vote", voteHandler.CastVote)
		protected.GET("/elections/:id/has-voted", voteHandler.HasVoted)
		protected.GET("/user/profile", userHandler.Profile)
		protected.GET("/user/is-admin", userHandler.IsAdmin)
	}

	admin := api.Group("/admin")
	admin.Use(adminMiddleware)
	{
		admin.GET("/elections/all", adminHandler.ListElections)
		admin.POST("/elections", adminHandler.CreateElection)
		admin.PUT("/elections/:id", adminHandler.UpdateElection)
		admin.DELETE("/elections/:id", adminHandler.DeleteElection)
		admin.GET("/elections/:id/export", adminHandler.ExportResults)
		admin.POST("/candidates", adminHandler.CreateCandidate)
		admin.PUT("/candidates/:id", adminHandler.UpdateCandidate)
		admin.DELETE("/candidates/:id", adminHandler.DeleteCandidate)
		admin.GET("/stats", adminHandler.Stats)
	}
}
