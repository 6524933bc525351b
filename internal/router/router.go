package router

import (
	"github.com/anonto42/microsocial/backend/internal/handlers"
	"github.com/anonto42/microsocial/backend/internal/middleware"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/internal/services"
	"github.com/anonto42/microsocial/backend/internal/validators"
	"github.com/anonto42/microsocial/backend/pkg/config"
	"github.com/anonto42/microsocial/backend/pkg/firebase"
	"github.com/anonto42/microsocial/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SetupRoutes migrates the schema, wires repositories, services and
// handlers, and registers every route on e
func SetupRoutes(e *echo.Echo, db *config.DB, cfg *config.Config, firebaseApp *firebase.App) error {
	log := logger.WithComponent("router")

	if err := config.AutoMigrate(db.Postgres); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	log.Info("PostgreSQL auto-migrations completed")

	e.Validator = validators.NewValidator()
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(db.Postgres)
	postRepo := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))

	// --- Services ---
	var publisher services.Publisher
	if db.Redis != nil {
		publisher = services.NewRedisPublisher(db.Redis)
		log.WithField("channel", cfg.NotificationChannel).Info("Publishing notifications to Redis")
	}
	notifier := services.NewNotifier(notificationRepo, publisher, cfg.NotificationChannel)
	followService := services.NewFollowService(userRepo, followRepo, notifier)

	// --- Unprotected routes for authentication ---
	var verifier middleware.IDTokenVerifier
	if firebaseApp != nil {
		verifier = firebaseApp.AuthClient
	}
	authHandler := handlers.NewAuthHandler(userRepo, verifier, cfg.JWTSecret, cfg.JWTTTL)
	authHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"))

	// --- Protected routes ---
	api := e.Group("/api/v1")
	switch cfg.AuthProvider {
	case config.AuthProviderFirebase:
		if verifier == nil {
			return errors.New("firebase auth selected but Firebase is not initialized")
		}
		api.Use(middleware.FirebaseAuthMiddleware(verifier, userRepo))
	default:
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	}
	log.WithField("provider", cfg.AuthProvider).Info("Authentication middleware applied to /api/v1")

	handlers.NewUserHandler(userRepo, followService).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(followService, userRepo).RegisterFollowRoutes(api)

	postHandler := handlers.NewPostHandler(postRepo, commentRepo, userRepo, followService)
	postHandler.RegisterPostRoutes(api)
	handlers.NewCommentHandler(commentRepo, postHandler, userRepo, notifier).RegisterCommentRoutes(api)
	handlers.NewFeedHandler(postRepo, userRepo, followService).RegisterFeedRoutes(api)
	handlers.NewNotificationHandler(notificationRepo, userRepo).RegisterNotificationRoutes(api)

	log.Info("All routes configured")
	return nil
}
