package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/metrics"
	"github.com/koinonia-app/backend/internal/push"
	"github.com/koinonia-app/backend/internal/router"
	"github.com/koinonia-app/backend/pkg/config"
	"github.com/koinonia-app/backend/pkg/firebase"
	"github.com/koinonia-app/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Databases: PostgreSQL for users, comments, and the notification inbox;
	// MongoDB for post documents.
	dbConn, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer dbConn.CloseDB()

	// Firebase: auth for the identity boundary, messaging for push, and the
	// Realtime Database when it backs the ledger.
	fbApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseDatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	baseLedger, gateway, err := buildLedger(ctx, cfg, fbApp, logger)
	if err != nil {
		log.Fatalf("Failed to initialize ledger backend: %v", err)
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e)

	pipeline, err := router.SetupRoutes(e, dbConn.Postgres, dbConn.Mongo.Database(cfg.MongoDBName), fbApp.AuthClient, baseLedger, gateway, logger)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	pipeline.Engine.Start(ctx, 4)
	pipeline.Fanout.Start(ctx, 4)
	metrics.Listen(cfg.MetricsPort)

	logger.Info("server starting",
		"port", cfg.Port, "env", cfg.Env, "ledger", cfg.LedgerBackend)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// buildLedger selects the fast ledger backend and the matching push gateway.
// The memory backend logs pushes instead of delivering them, which keeps
// local development free of FCM credentials.
func buildLedger(ctx context.Context, cfg *config.Config, fbApp *firebase.App, logger *slog.Logger) (ledger.Ledger, push.Gateway, error) {
	switch cfg.LedgerBackend {
	case "redis":
		led, err := ledger.NewRedis(ctx, cfg.RedisAddr, logger)
		if err != nil {
			return nil, nil, err
		}
		return led, push.NewFCM(fbApp.Messaging), nil
	case "memory":
		return ledger.NewMemory(), &push.Log{Logger: logger}, nil
	default:
		dbClient, err := fbApp.Database(ctx)
		if err != nil {
			return nil, nil, err
		}
		return ledger.NewFirebase(dbClient, logger), push.NewFCM(fbApp.Messaging), nil
	}
}
