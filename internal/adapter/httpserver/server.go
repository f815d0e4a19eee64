package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/websocket"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/config"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Services bundles the application services the handlers call. A nil
// service leaves its routes unregistered.
type Services struct {
	Accounts       accountService
	Profiles       profileService
	Discovery      discoveryService
	Ledger         ledgerService
	Payments       paymentService
	Notifications  notificationService
	Quiz           quizService
	Referrals      referralService
	Rewards        rewardService
	Social         socialService
	Updates        updateService
	Chat           chatService
	Advertisements advertisementService
	Admin          adminService
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	svc Services

	socket      *notificationSocket
	registry    *prometheus.Registry
	httpMetrics *metrics.HTTPMetrics

	sessionStore *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

type Option func(*Server)

// WithNotificationSocket serves hub on /ws/notifications. limiter caps the
// connections of this instance.
func WithNotificationSocket(hub socketHub, limiter *websocket.ConnectionLimiter, m *metrics.WebSocketMetrics) Option {
	return func(s *Server) {
		s.socket = &notificationSocket{hub: hub, limiter: limiter, metrics: m}
	}
}

// WithMetrics serves reg on /metrics and records request metrics.
func WithMetrics(reg *prometheus.Registry, m *metrics.HTTPMetrics) Option {
	return func(s *Server) {
		s.registry = reg
		s.httpMetrics = m
	}
}

func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) { s.healthChecks = checks }
}

func NewServer(cfg *config.Config, svc Services, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(cfg)

	srv := &Server{
		echo:         e,
		config:       cfg,
		svc:          svc,
		sessionStore: setupSessionStore(cfg),
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()
	return srv
}

// ipExtractor decides what c.RealIP reports. Forwarding headers are honoured
// only when the TCP peer is one of the configured proxies; otherwise the peer
// address is the client.
func ipExtractor(cfg *config.Config) echo.IPExtractor {
	// validate has already parsed the list.
	prefixes, _ := cfg.TrustedProxyPrefixes()
	if len(prefixes) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, p := range prefixes {
		_, ipNet, err := net.ParseCIDR(p.Masked().String())
		if err != nil {
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

const (
	sessionName      = "mooibanana-session"
	sessionKeyUserID = "user_id"
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
