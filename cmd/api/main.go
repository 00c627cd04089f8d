package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lifevault/docs"
	"lifevault/internal/config"
	"lifevault/internal/database"
	"lifevault/internal/database/migration"
	handlers "lifevault/internal/http/handler"
	"lifevault/internal/http/middleware"
	"lifevault/internal/otel"
	"lifevault/internal/repository/postgres"
	"lifevault/internal/service"
	"lifevault/internal/storage"
)

// @title LifeVault API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC
	ctx := context.Background()

	// Tracing first so the DB driver wrapper picks up the provider
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Select the document storage backend; business logic only ever sees
	// the interface.
	var store storage.Backend
	switch cfg.Storage.Driver {
	case "minio":
		store, err = storage.NewMinIO(cfg.Storage.MinIO)
	default:
		store, err = storage.NewLocal(cfg.Storage.LocalRoot, cfg.BaseURL)
	}
	if err != nil {
		log.Fatalf("failed to initialize storage backend %q: %v", cfg.Storage.Driver, err)
	}

	// Initialize repositories and services
	recordRepo := postgres.NewRecordPostgres(db)
	categoryRepo := postgres.NewCategoryPostgres(db)
	shareRepo := postgres.NewSharePostgres(db)

	svcs := handlers.Services{
		Records:   service.NewRecordService(recordRepo, categoryRepo),
		Documents: service.NewDocumentService(store, recordRepo, sugar),
		Shares:    service.NewShareService(shareRepo, categoryRepo, recordRepo),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    64 * 1024 * 1024, // attach batches carry up to 10 files
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Local driver serves the stored files itself; MinIO URLs point at the
	// object store directly.
	if cfg.Storage.Driver != "minio" {
		app.Static("/uploads", cfg.Storage.LocalRoot)
	}

	handlers.RegisterRoutes(app, db, svcs, cfg.Auth.JWTSecret, handlers.ShareLinkOptions{
		BaseURL:    cfg.BaseURL,
		DefaultTTL: time.Duration(cfg.Share.DefaultTTLHours) * time.Hour,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
