package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/lousa-digital/chamada/internal/api/docs"
	"github.com/lousa-digital/chamada/internal/api/handler"
	"github.com/lousa-digital/chamada/internal/api/middleware"
	"github.com/lousa-digital/chamada/internal/config"
	"github.com/lousa-digital/chamada/internal/engine"
	"github.com/lousa-digital/chamada/internal/face"
	"github.com/lousa-digital/chamada/internal/imaging"
	"github.com/lousa-digital/chamada/internal/repository"
	"github.com/lousa-digital/chamada/internal/signature"
	"github.com/lousa-digital/chamada/internal/webhook"
)

type Dependencies struct {
	SignatureRepo *repository.SignatureRepository
	RosterRepo    *repository.RosterRepository
	AuditRepo     *repository.RecognitionAuditRepository
	Faces         *face.Pair
	DB            *pgxpool.Pool
	Config        *config.Config
}

type Router struct {
	app           *fiber.App
	logger        *slog.Logger
	deps          *Dependencies
	rateLimiter   *middleware.RateLimiter
	webhookWorker *webhook.Worker
	cancelWorker  context.CancelFunc
}

// defaultBodyLimit matches the default image bounds (ten 10MB images
// plus multipart framing headroom) for routers built without config.
const defaultBodyLimit = 11 * 10 * 1024 * 1024

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	bodyLimit := defaultBodyLimit
	if deps != nil && deps.Config != nil {
		bodyLimit = deps.Config.BodyLimit()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Chamada Engine",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	var pinger handler.Pinger
	if r.deps != nil && r.deps.DB != nil {
		pinger = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(pinger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group with authentication
	v1 := r.app.Group("/v1")

	// Only configure authenticated routes if dependencies were provided
	if r.deps != nil {
		cfg := r.deps.Config

		// Webhook service and delivery worker
		webhookService := webhook.NewService(r.deps.DB)
		r.webhookWorker = webhook.NewWorker(r.deps.DB, webhookService, r.logger,
			time.Duration(cfg.WebhookWorkerIntervalSeconds)*time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		r.cancelWorker = cancel
		go r.webhookWorker.Run(ctx)

		// Auth middleware
		auth := middleware.NewServiceKeyAuth(cfg.ServiceKeyList())
		v1.Use(auth.Handler())

		// Rate limiting (per service key) - must come after auth to
		// have the caller key in context
		limiterConfig := middleware.DefaultRateLimiterConfig()
		limiterConfig.Max = cfg.RateLimitPerMinute
		r.rateLimiter = middleware.NewRateLimiter(limiterConfig)
		v1.Use(r.rateLimiter.Handler())

		// Image pipeline shared by enrollment and recognition
		decoder := imaging.NewDecoder(imaging.Limits{MaxBytes: cfg.MaxImageBytes})
		aggregator := signature.NewAggregator(cfg.ConsistencyFloor)
		notifier := webhook.NewEmitter(webhookService, r.logger)

		lifecycle := engine.NewLifecycle(r.deps.RosterRepo, r.deps.SignatureRepo).
			WithNotifier(notifier)

		trainer := engine.NewTrainer(
			r.deps.Faces.Detector,
			r.deps.Faces.Encoder,
			decoder,
			aggregator,
			r.deps.SignatureRepo,
			r.deps.RosterRepo,
		).
			WithImageBounds(cfg.MinImages, cfg.MaxImages).
			WithWorkers(cfg.BulkWorkers).
			WithNotifier(notifier).
			WithLogger(r.logger)

		recognizer := engine.NewRecognizer(
			r.deps.Faces.Detector,
			r.deps.Faces.Encoder,
			decoder,
			lifecycle,
			r.deps.RosterRepo,
			r.deps.AuditRepo,
		).WithThresholds(cfg.HighThreshold, cfg.LowThreshold)

		// Enrollment routes
		enrollHandler := handler.NewEnrollHandler(trainer, r.logger)
		v1.Post("/enroll", enrollHandler.Enroll)
		v1.Post("/enroll/bulk", enrollHandler.EnrollBulk)
		v1.Delete("/enroll/:student_id", enrollHandler.Unenroll)

		// Recognition routes
		recognizeHandler := handler.NewRecognizeHandler(recognizer, r.logger)
		v1.Post("/recognize", recognizeHandler.Recognize)

		// Model lifecycle routes
		modelHandler := handler.NewModelHandler(lifecycle, r.logger)
		v1.Post("/model/train", modelHandler.Train)
		v1.Get("/model/status/:section_id", modelHandler.Status)
		v1.Delete("/model/:section_id", modelHandler.Drop)

		// Webhook management routes
		webhooksHandler := handler.NewWebhooksHandler(webhookService, r.logger)
		v1.Get("/webhooks", webhooksHandler.List)
		v1.Post("/webhooks", webhooksHandler.Create)
		v1.Delete("/webhooks/:id", webhooksHandler.Delete)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop webhook delivery worker
	if r.cancelWorker != nil {
		r.cancelWorker()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
