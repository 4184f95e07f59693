package app

import (
	"tradenet-backend/internal/admin"
	"tradenet-backend/internal/allocator"
	"tradenet-backend/internal/billing"
	"tradenet-backend/internal/config"
	"tradenet-backend/internal/database"
	"tradenet-backend/internal/health"
	"tradenet-backend/internal/jobs"
	"tradenet-backend/internal/ledger"
	"tradenet-backend/internal/matching"
	"tradenet-backend/internal/metrics"
	"tradenet-backend/internal/middleware"
	"tradenet-backend/internal/notify"
	"tradenet-backend/internal/trades"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration. db and rdb are returned for startup checks; either may be
// nil when the corresponding URL is not configured (e.g. tests).
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
	}

	collector := metrics.NewCollector()

	var ledgerService *ledger.Service
	if db != nil {
		ledgerService = &ledger.Service{DB: db}
	}

	// Stripe webhook — mounted before the request marker so the raw body
	// stays untouched.
	stripeWebhook := &billing.WebhookHandler{Ledger: ledgerService, WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", stripeWebhook.HandleWebhook)

	if rdb != nil {
		app.Use(middleware.RequestMarker(rdb))
	}
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	// Health + metrics (no auth)
	var pinger health.DBPinger
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			pinger = sqlDB
		}
	}
	healthHandlers := &health.Handlers{Rdb: rdb, DB: pinger, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/reset", healthHandlers.Reset)
	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	if db != nil {
		// Notifier: Redis queue + persisted rows when Redis is up, log-only
		// otherwise.
		var notifier notify.Notifier = notify.LogNotifier{}
		if rdb != nil {
			notifier = notify.Fanout{
				&notify.RedisNotifier{Rdb: rdb, Queue: cfg.NotifyQueueKey},
				&notify.StoreNotifier{DB: db},
			}
		}

		allocService := &allocator.Service{
			DB:             db,
			Ledger:         ledgerService,
			Billing:        billing.CreditGateway{},
			Notifier:       notifier,
			Metrics:        collector,
			LeadFee:        cfg.LeadFeeCredits,
			QCPercent:      cfg.QCPercent,
			BonusThreshold: cfg.BonusThreshold,
		}
		matcher := matching.NewMatcher(&trades.GormCandidateSource{DB: db}, cfg.MatchTopN)

		// Jobs module
		jobService := &jobs.Service{DB: db, Matcher: matcher, Allocator: allocService}
		jobHandlers := &jobs.Handlers{Service: jobService}
		jobGroup := app.Group("/api/v1/jobs")
		jobGroup.Post("/create-job", jobHandlers.CreateJob)
		jobGroup.Get("/view-job/:job_id", jobHandlers.GetJob)
		jobGroup.Post("/close-job", jobHandlers.CloseJob)

		// Trades module
		tradeService := &trades.Service{DB: db, Ledger: ledgerService}
		tradeHandlers := &trades.Handlers{Service: tradeService, Allocator: allocService}
		tradeGroup := app.Group("/api/v1/trades")
		tradeGroup.Post("/register-trade", tradeHandlers.RegisterTrade)
		tradeGroup.Get("/pending-matches/:trade_id", tradeHandlers.GetPendingMatches)
		tradeGroup.Post("/respond-match", tradeHandlers.RespondMatch)
		tradeGroup.Post("/complete-match", tradeHandlers.CompleteMatch)

		// Ledger module
		ledgerHandlers := &ledger.Handlers{Service: ledgerService}
		ledgerGroup := app.Group("/api/v1/ledger")
		ledgerGroup.Get("/balance/:account_id", ledgerHandlers.GetBalance)
		ledgerGroup.Get("/history/:account_id", ledgerHandlers.GetHistory)

		// Billing module
		billingHandlers := &billing.Handlers{
			StripeCreator: &billing.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
		}
		app.Post("/api/v1/billing/buy-credits", billingHandlers.BuyCredits)

		// Admin module
		adminService := &admin.Service{DB: db}
		adminHandlers := &admin.Handlers{Service: adminService}
		app.Get("/api/v1/admin/stats", adminHandlers.GetStats)
	}

	return app, db, rdb, nil
}
