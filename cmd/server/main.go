package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/httpserver"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/mailer"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/payments"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/postgres"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/redis"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/websocket"
	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/config"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/crypto"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/logging"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout      = 10 * time.Second
	updateExpiryInterval = time.Hour
)

type appMetrics struct {
	http      *metrics.HTTPMetrics
	websocket *metrics.WebSocketMetrics
	payments  *metrics.PaymentMetrics
	ledger    *metrics.LedgerMetrics
	db        *metrics.DBMetrics
	redis     *metrics.RedisMetrics
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, tracer *postgres.MetricsTracer) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupCipher(cfg *config.Config) crypto.Cipher {
	if cfg.FieldEncryptionKey == "" {
		slog.Warn("FIELD_ENCRYPTION_KEY not set, delivery addresses are stored in plaintext")
		return crypto.Noop{}
	}
	cipher, err := crypto.NewAESGCM(cfg.FieldEncryptionKey)
	if err != nil {
		slog.Error("Failed to create field cipher", "error", err)
		os.Exit(1)
	}
	return cipher
}

func setupMailer(cfg *config.Config) domain.Mailer {
	if !cfg.SMTPEnabled() {
		slog.Warn("SMTP_HOST not set, outgoing mail is logged instead of sent")
		return mailer.LogMailer{}
	}
	return mailer.NewSMTP(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

// setupProviders returns the payment providers whose credentials are set.
func setupProviders(cfg *config.Config, clock clockwork.Clock, m *metrics.PaymentMetrics) []domain.PaymentProvider {
	var providers []domain.PaymentProvider
	if cfg.PaystackEnabled() {
		providers = append(providers, payments.NewPaystack(cfg.PaystackSecretKey, nil, m))
	}
	if cfg.StripeEnabled() {
		providers = append(providers, payments.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil, clock, m))
	}
	if cfg.VivaEnabled() {
		// validate has already parsed the CIDR list.
		prefixes, _ := cfg.VivaWebhookPrefixes()
		endpoints := payments.VivaProduction
		if cfg.VivaDemo {
			endpoints = payments.VivaDemo
		}
		providers = append(providers, payments.NewViva(payments.VivaConfig{
			ClientID:     cfg.VivaClientID,
			ClientSecret: cfg.VivaClientSecret,
			MerchantID:   cfg.VivaMerchantID,
			APIKey:       cfg.VivaAPIKey,
			SourceCode:   cfg.VivaSourceCode,
			AllowedCIDRs: prefixes,
			Endpoints:    endpoints,
		}, nil, clock, m))
	}

	names := make([]domain.Provider, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	if len(names) == 0 {
		slog.Warn("No payment provider configured, checkout is disabled")
	} else {
		slog.Info("Payment providers enabled", "providers", names)
	}
	return providers
}

func healthChecks(pool *pgxpool.Pool, rdb *goredis.Client) []httpserver.HealthCheck {
	return []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
}

func runGracefulShutdown(srv *httpserver.Server, stopBackground context.CancelFunc, tickers []*app.Ticker, hub *websocket.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		for _, t := range tickers {
			t.Stop()
		}
		stopBackground()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	registry := metrics.NewRegistry()
	m := appMetrics{
		http:      metrics.NewHTTPMetrics(registry),
		websocket: metrics.NewWebSocketMetrics(registry),
		payments:  metrics.NewPaymentMetrics(registry),
		ledger:    metrics.NewLedgerMetrics(registry),
		db:        metrics.NewDBMetrics(registry),
		redis:     metrics.NewRedisMetrics(registry),
	}

	pool := setupDB(cfg, postgres.NewMetricsTracer(m.db, clock))
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg, m.redis)
	defer func() { _ = redisClient.Close() }()

	// Repositories
	userRepo := postgres.NewUserRepo(pool)
	profileRepo := postgres.NewProfileRepo(pool)
	discoveryRepo := postgres.NewDiscoveryRepo(pool)
	ledgerRepo := postgres.NewLedgerRepo(pool)
	notificationRepo := postgres.NewNotificationRepo(pool)
	paymentRepo := postgres.NewPaymentRepo(pool)
	quizRepo := postgres.NewQuizRepo(pool)
	referralRepo := postgres.NewReferralRepo(pool)
	rewardRepo := postgres.NewRewardRepo(pool, setupCipher(cfg))
	socialRepo := postgres.NewSocialRepo(pool)
	updateRepo := postgres.NewUpdateRepo(pool)
	chatRepo := postgres.NewChatRepo(pool)
	adRepo := postgres.NewAdvertisementRepo(pool)
	statsRepo := postgres.NewStatsRepo(pool)

	// Redis-backed coordination
	bus := redis.NewNotificationBus(redisClient)
	debouncer := redis.NewDebouncer(redisClient)
	resetTokens := redis.NewResetTokenStore(redisClient)
	actionLimiter := redis.NewActionRateLimiter(redisClient, clock, cfg.ActionRateCapacity, cfg.ActionRatePerMinute)

	// Services
	guard := app.NewActionGuard(actionLimiter, m.ledger)
	notificationSvc := app.NewNotificationService(notificationRepo, bus)
	referralSvc := app.NewReferralService(referralRepo, userRepo, cfg.ReferralPoints, cfg.AppURL)
	paymentSvc := app.NewPaymentService(paymentRepo, userRepo, notificationSvc, m.payments, clock,
		app.PaymentConfig{AppURL: cfg.AppURL, PendingTTL: cfg.PendingPurchaseTTL},
		setupProviders(cfg, clock, m.payments)...)
	updateSvc := app.NewUpdateService(updateRepo, clock)

	services := httpserver.Services{
		Accounts:       app.NewAccountService(userRepo, resetTokens, setupMailer(cfg), clock, cfg.ResetTokenSecret, cfg.AppURL),
		Profiles:       app.NewProfileService(profileRepo, userRepo, referralSvc, clock),
		Discovery:      app.NewDiscoveryService(discoveryRepo, profileRepo, clock, cfg.DiscoveryPageSize),
		Ledger:         app.NewLedgerService(ledgerRepo, notificationRepo, notificationSvc, debouncer, guard, m.ledger),
		Payments:       paymentSvc,
		Notifications:  notificationSvc,
		Quiz:           app.NewQuizService(quizRepo, clock, cfg.QuizLocation()),
		Referrals:      referralSvc,
		Rewards:        app.NewRewardService(rewardRepo, userRepo, clock),
		Social:         app.NewSocialService(socialRepo, guard),
		Updates:        updateSvc,
		Chat:           app.NewChatService(chatRepo, notificationSvc, guard),
		Advertisements: app.NewAdvertisementService(adRepo),
		Admin:          app.NewAdminService(statsRepo),
	}

	// Every instance delivers bus events to its own sockets.
	hub := websocket.NewHub(notificationSvc, m.websocket)
	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	go bus.Run(backgroundCtx, hub.Deliver)

	instanceID := uuid.NewString()
	tickers := []*app.Ticker{
		app.NewTicker("payment-reconciler", cfg.ReconcileInterval, clock,
			redis.NewLeaderLock(redisClient, "leader:payment-reconciler", instanceID, 2*cfg.ReconcileInterval),
			func(ctx context.Context) error {
				_, err := paymentSvc.Reconcile(ctx)
				return err
			}),
		app.NewTicker("update-expiry", updateExpiryInterval, clock,
			redis.NewLeaderLock(redisClient, "leader:update-expiry", instanceID, 2*updateExpiryInterval),
			updateSvc.ExpireOld),
	}
	for _, t := range tickers {
		go t.Run(backgroundCtx)
	}

	srv := httpserver.NewServer(cfg, services,
		httpserver.WithMetrics(registry, m.http),
		httpserver.WithNotificationSocket(hub, websocket.NewConnectionLimiter(cfg.MaxWebSocketConnections), m.websocket),
		httpserver.WithHealthChecks(healthChecks(pool, redisClient)...),
	)

	done := runGracefulShutdown(srv, stopBackground, tickers, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
