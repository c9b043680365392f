package router

import (
	"context"
	"log"
	"log/slog"

	"firebase.google.com/go/v4/auth"
	"github.com/koinonia-app/backend/internal/fanout"
	"github.com/koinonia-app/backend/internal/handlers"
	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/middleware"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/push"
	"github.com/koinonia-app/backend/internal/repositories"
	"github.com/koinonia-app/backend/internal/trigger"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// Pipeline holds the background components; the caller owns their lifecycle.
type Pipeline struct {
	Engine *trigger.Engine
	Fanout *fanout.Service
}

// SetupRoutes wires repositories, the sync pipeline, and all application
// routes. The returned pipeline must be started before the server accepts
// traffic.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mongoDB *mongo.Database, firebaseAuthClient *auth.Client, baseLedger ledger.Ledger, gateway push.Gateway, logger *slog.Logger) (*Pipeline, error) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.Notification{},
		&models.DeliveryPreference{},
		&models.DeviceToken{},
	)
	if err != nil {
		return nil, err
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	preferenceRepo := repositories.NewPostgresPreferenceRepository(pgdb)
	deviceTokenRepo := repositories.NewPostgresDeviceTokenRepository(pgdb)

	// --- Sync trigger engine: one handler per (entity kind, metric) ---
	engine := trigger.New(logger)
	for _, kind := range []models.InteractionKind{
		models.KindAmen, models.KindLightbulb, models.KindComment, models.KindRepost,
	} {
		kind := kind
		engine.Handle(models.EntityPost, kind, func(ctx context.Context, postID string, value int64) error {
			return postRepo.SetCounter(ctx, postID, kind, value)
		})
	}
	engine.Handle(models.EntityUser, models.KindFollow, userRepo.SetFollowerCount)
	engine.Handle(models.EntityUser, models.KindFollowing, userRepo.SetFollowingCount)

	// --- Notification fan-out ---
	fan := fanout.New(fanout.Config{
		Logger:  logger,
		Posts:   postRepo,
		Users:   userRepo,
		Prefs:   preferenceRepo,
		Records: notificationRepo,
		Tokens:  deviceTokenRepo,
		Gateway: gateway,
	})

	// Every ledger mutation fires the engine and the fan-out, the way the
	// backing store's trigger platform would.
	led := &ledger.Emitting{
		Ledger:       baseLedger,
		Counters:     []ledger.CounterSink{engine},
		Interactions: []ledger.InteractionSink{fan},
	}

	// --- Protected routes ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(firebaseAuthClient))
	log.Println("Firebase authentication middleware applied to /api/v1 group.")

	userHandler := handlers.NewUserHandler(userRepo, deviceTokenRepo)
	userHandler.RegisterProfileRoutes(api)

	postHandler := handlers.NewPostHandler(led, postRepo, commentRepo, notificationRepo)
	postHandler.RegisterPostRoutes(api)

	interactionHandler := handlers.NewInteractionHandler(led, postRepo)
	interactionHandler.RegisterInteractionRoutes(api)

	commentHandler := handlers.NewCommentHandler(led, commentRepo, postRepo, userRepo, fan)
	commentHandler.RegisterCommentRoutes(api)

	followHandler := handlers.NewFollowHandler(led, userRepo)
	followHandler.RegisterFollowRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	preferenceHandler := handlers.NewPreferenceHandler(preferenceRepo)
	preferenceHandler.RegisterPreferenceRoutes(api)

	log.Println("All routes configured.")
	return &Pipeline{Engine: engine, Fanout: fan}, nil
}
