package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/api"
	"github.com/reachcraft/messaging/internal/circuitbreaker"
	"github.com/reachcraft/messaging/internal/config"
	"github.com/reachcraft/messaging/internal/db"
	"github.com/reachcraft/messaging/internal/delivery"
	"github.com/reachcraft/messaging/internal/metrics"
	"github.com/reachcraft/messaging/internal/observ"
	"github.com/reachcraft/messaging/internal/provider"
	"github.com/reachcraft/messaging/internal/redis"
	"github.com/reachcraft/messaging/internal/secrets"
	"github.com/reachcraft/messaging/internal/settings"
	"github.com/reachcraft/messaging/internal/template"
	"github.com/reachcraft/messaging/internal/tenant"
	"github.com/reachcraft/messaging/internal/webhookcfg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting messaging engine",
		zap.String("env", cfg.Env),
		zap.Int("port", cfg.Port),
	)

	// Initialize database connection
	ctx := context.Background()
	dbConfig := db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}

	database, err := db.New(ctx, dbConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	logger.Info("database connection established",
		zap.String("host", cfg.DBHost),
		zap.Int("port", cfg.DBPort),
		zap.String("database", cfg.DBName),
	)

	// Initialize repository
	repo := db.NewRepository(database, logger)

	// Initialize Redis for idempotency and rate limiting
	redisConfig := redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	redisClient, err := redis.New(ctx, redisConfig, logger)
	if err != nil {
		logger.Warn("redis unavailable, idempotency disabled",
			zap.Error(err),
			zap.String("host", cfg.RedisHost),
		)
	}

	var idempotencyService *redis.IdempotencyService
	var rateLimiter *redis.RateLimiter
	var callbackLimiter *redis.RateLimiter
	if redisClient != nil {
		idempotencyService = redis.NewIdempotencyService(redisClient, logger)
		rateLimiter = redis.NewRateLimiter(redisClient, logger, redis.RateLimitConfig{
			Limit:  100,             // 100 requests
			Window: 1 * time.Minute, // per minute per client
		})
		// Carrier callbacks have no client identity; throttle by source IP
		// with enough headroom for legitimate status-callback bursts.
		callbackLimiter = redis.NewRateLimiter(redisClient, logger, redis.RateLimitConfig{
			Limit:  600,
			Window: 1 * time.Minute,
		})
		defer redisClient.Close()
	}

	// Build the carrier registry. Each sender is wrapped in its own circuit
	// breaker so a flapping carrier API sheds load fast instead of eating
	// the request timeout on every send.
	creds := provider.Credentials{
		TwilioAccountSID:   cfg.TwilioAccountSID,
		TwilioAuthToken:    cfg.TwilioAuthToken,
		TwilioFromNumber:   cfg.TwilioFromNumber,
		TextGridAPIKey:     cfg.TextGridAPIKey,
		TextGridFromNumber: cfg.TextGridFromNumber,
		SNSRegion:          cfg.SNSRegion,
	}

	registry := provider.NewRegistry()
	var protected []*circuitbreaker.ProtectedSender
	registerSender := func(s provider.Sender) {
		breaker := circuitbreaker.New(circuitbreaker.Config{Name: s.Name()}, logger)
		ps := circuitbreaker.NewProtectedSender(s, breaker, logger)
		registry.Register(ps)
		protected = append(protected, ps)
	}

	registerSender(provider.NewTwilioSender(provider.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioFromNumber,
		BaseURL:    cfg.TwilioBaseURL,
	}, logger))

	registerSender(provider.NewTextGridSender(provider.TextGridConfig{
		APIKey:     cfg.TextGridAPIKey,
		FromNumber: cfg.TextGridFromNumber,
		BaseURL:    cfg.TextGridBaseURL,
	}, logger))

	if cfg.SNSRegion != "" {
		snsSender, err := provider.NewSNSSender(ctx, provider.SNSConfig{
			Region: cfg.SNSRegion,
		}, logger)
		if err != nil {
			logger.Warn("SNS sender unavailable, carrier disabled",
				zap.Error(err),
			)
		} else {
			registerSender(snsSender)
		}
	}

	logger.Info("carrier registry built",
		zap.Strings("carriers", registry.Names()),
		zap.Bool("twilio_available", creds.Available(provider.Twilio)),
		zap.Bool("textgrid_available", creds.Available(provider.TextGrid)),
		zap.Bool("sns_available", creds.Available(provider.SNS)),
	)

	// Delivery-policy cache over the settings row
	settingsCache := settings.NewCache(repo, logger, settings.WithTTL(cfg.SettingsTTL))

	orchestrator := delivery.NewOrchestrator(settingsCache, registry, creds, logger)

	resolver := template.NewResolver(repo, logger)

	tenants := tenant.NewService(repo, logger)

	box, err := secrets.New(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize credential encryption: %w", err)
	}

	provisioner := webhookcfg.NewProvisioner(tenants, box,
		func(c provider.TwilioConfig) webhookcfg.NumberConfigurer {
			return provider.NewTwilioSender(c, logger)
		},
		cfg.PublicBaseURL, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// Custom logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration_ms", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	})

	// API routes
	handler := api.NewHandler(logger, repo, resolver, orchestrator, settingsCache, tenants, provisioner, box, idempotencyService)

	r.Route("/v1", func(r chi.Router) {
		// Apply rate limiting to API routes
		r.Use(api.RateLimitMiddleware(rateLimiter, logger, api.ClientKeyFunc))

		r.Post("/messages", handler.SendMessage)

		// Tenant-scoped routes need a caller identity. Reads are in here
		// too: delivery bodies and routing policy are tenant data.
		r.Group(func(r chi.Router) {
			r.Use(api.RequireUser)

			r.Get("/messages", handler.ListDeliveries)
			r.Get("/messages/{id}", handler.GetDelivery)

			r.Get("/settings", handler.GetSettings)
			r.Put("/settings", handler.UpdateSettings)
			r.Get("/sms-config/{level}", handler.GetSMSConfig)
			r.Put("/sms-config/{level}", handler.UpdateSMSConfig)
			r.Post("/webhooks/configure", handler.ConfigureWebhooks)
		})
	})

	// Carrier-facing callbacks, unauthenticated by design of the carrier
	// APIs, so they get IP-keyed throttling instead.
	r.Group(func(r chi.Router) {
		r.Use(api.RateLimitMiddleware(callbackLimiter, logger, api.IPKeyFunc))

		r.Post(webhookcfg.InboundSMSPath, handler.InboundSMS)
		r.Post(webhookcfg.InboundVoicePath, handler.InboundVoice)
		r.Post(webhookcfg.SMSStatusPath, handler.DeliveryStatus)
	})

	// Health check with per-carrier circuit state
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		carriers := make(map[string]string, len(protected))
		for _, ps := range protected {
			carriers[ps.Name()] = ps.Breaker().GetState().String()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"carriers": carriers,
		})
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", metrics.Handler())

	// Setup HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 10 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}
