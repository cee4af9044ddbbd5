package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AIrWong777/my--literature-app/docs"
	"github.com/AIrWong777/my--literature-app/internal/config"
	handlers "github.com/AIrWong777/my--literature-app/internal/http/handler"
	"github.com/AIrWong777/my--literature-app/internal/http/middleware"
	"github.com/AIrWong777/my--literature-app/internal/otel"
	"github.com/AIrWong777/my--literature-app/internal/service"
	"github.com/AIrWong777/my--literature-app/internal/storage"
)

// @title Literature File API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Initialize OTLP tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.Local)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	// Initialize the local file store under the configured upload root
	store, err := storage.NewLocal(cfg.Upload.Root, logger)
	if err != nil {
		log.Fatalf("failed to initialize file store: %v", err)
	}

	// Optional S3-compatible archive mirror (MinIO-supported)
	var archive storage.Archiver
	if cfg.Archive.Enabled {
		a, err := storage.NewMinIOArchive(cfg.Archive)
		if err != nil {
			log.Fatalf("failed to initialize archive storage: %v", err)
		}
		archive = a
	}

	fileSvc := service.NewFileService(store, archive, cfg.Upload.MaxFileSizeBytes(), logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Headroom above the per-file limit so multipart framing does not
		// trip the body limit before the handler can answer 413 itself.
		BodyLimit: int(cfg.Upload.MaxFileSizeBytes()) + (1 << 20),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	// Trace every request through the global tracer provider
	app.Use(otelfiber.Middleware())

	// Prometheus request metrics with a dedicated registry
	reg := prometheus.NewRegistry()
	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, store, fileSvc)

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
