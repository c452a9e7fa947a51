package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"digisewa/internal/access"
	"digisewa/internal/config"
	"digisewa/internal/database"
	"digisewa/internal/database/migration"
	handlers "digisewa/internal/http/handler"
	"digisewa/internal/http/middleware"
	"digisewa/internal/ledger"
	"digisewa/internal/metrics"
	"digisewa/internal/otel"
	"digisewa/internal/repository/postgres"
	"digisewa/internal/service"
	"digisewa/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Tracing is optional and degrades to noop when the collector is absent
	shutdownTracing, err := otel.Init(context.Background(), time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migration.EnsureMigrated(migrateCtx, db, time.UTC, cfg.Database.Host); err != nil {
		cancel()
		log.Fatalf("failed to migrate database: %v", err)
	}
	cancel()

	// Ciphertext blobs go to a pinning service by default; self-hosted
	// deployments can point at an S3-compatible store instead.
	var blobStore storage.Storage
	switch cfg.StorageBackend {
	case "minio":
		blobStore, err = storage.NewMinIO(cfg.MinIO, cfg.Pinning.RetryAttempts, cfg.Pinning.RetryDelay)
	default:
		blobStore, err = storage.NewPinning(cfg.Pinning)
	}
	if err != nil {
		log.Fatalf("failed to initialize blob storage: %v", err)
	}

	// Anchoring is best effort; a missing anchorer and a failing one behave
	// the same way at ingest time.
	var anchorer ledger.Anchorer
	if cfg.Ledger.Enabled {
		client, err := ledger.New(cfg.Ledger)
		if err != nil {
			log.Fatalf("failed to initialize ledger client: %v", err)
		}
		anchorer = client
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	custodyMetrics, err := metrics.NewCustody(reg)
	if err != nil {
		log.Fatalf("failed to register custody metrics: %v", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)
	gate := access.NewGate(auditRepo, logger)
	custodySvc := service.NewCustodyService(blobStore, docRepo, gate, anchorer, custodyMetrics, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    64 << 20,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// Requester middleware parses the gateway-set identity headers
	app.Use(middleware.Requester())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, custodySvc, auditRepo, db)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
