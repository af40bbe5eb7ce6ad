package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/01moynul/projectforge-golang/internal/auth"
	"github.com/01moynul/projectforge-golang/internal/billing"
	"github.com/01moynul/projectforge-golang/internal/config"
	"github.com/01moynul/projectforge-golang/internal/database"
	"github.com/01moynul/projectforge-golang/internal/handlers"
	"github.com/01moynul/projectforge-golang/internal/payments"
	"github.com/01moynul/projectforge-golang/internal/plans"
	"github.com/01moynul/projectforge-golang/internal/quota"
	"github.com/01moynul/projectforge-golang/internal/research"
	"github.com/01moynul/projectforge-golang/internal/resources"
	"github.com/01moynul/projectforge-golang/internal/routes"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/01moynul/projectforge-golang/internal/webhooks"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. --- Main Database Connection ---
	db, dialect, err := database.OpenDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	st := store.New(db, dialect)

	// 2. --- Plan Catalog ---
	catalog := plans.Default()
	if cfg.Plans.File != "" {
		if catalog, err = plans.LoadFile(cfg.Plans.File); err != nil {
			return fmt.Errorf("load plans: %w", err)
		}
	}

	// 3. --- Webhook Delivery Ledger ---
	var ledger webhooks.Ledger = webhooks.NewMemoryLedger(cfg.Redis.LedgerTTL)
	if cfg.Redis.Enabled {
		client, err := initRedis(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		ledger = webhooks.NewRedisLedger(client, cfg.Redis.LedgerTTL)
		log.Info().Str("addr", cfg.Redis.Addr()).Msg("Webhook ledger backed by Redis")
	}

	// 4. --- Research Service ---
	var researcher research.Researcher = research.Disabled{}
	if cfg.Gemini.APIKey != "" {
		gemini, err := research.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("init research service: %w", err)
		}
		defer gemini.Close()
		researcher = gemini
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, research endpoints are disabled")
	}

	// 5. --- Services ---
	gateway := payments.NewRazorpay(cfg.Razorpay)
	manager := billing.NewManager(st, catalog, gateway, billing.Options{
		Currency:   cfg.Razorpay.Currency,
		StartDelay: cfg.Razorpay.StartDelay,
	})
	gate := quota.NewGate(st, catalog)

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		// Development only; Validate rejects this in production.
		jwtSecret = uuid.NewString()
		log.Warn().Msg("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	app := &handlers.Handlers{
		Store:     st,
		Catalog:   catalog,
		Billing:   manager,
		Webhooks:  webhooks.NewDispatcher(cfg.Razorpay.WebhookSecret, gateway, manager, catalog, ledger),
		Resources: resources.NewService(st, gate, researcher),
		Tokens:    auth.NewTokenService(jwtSecret, cfg.JWT.Expiry),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      routes.SetupRouter(app, cfg.Server.AllowedOrigin),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. --- Run server and workers until a signal arrives ---
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("Starting ProjectForge API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		quota.NewResetWorker(st, cfg.Quota.ResetInterval).Run(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

// initRedis initializes the Redis client and verifies the connection.
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
