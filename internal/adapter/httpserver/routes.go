package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/correlation"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	authRatePerSecond    = 10.0 / 60
	authBurst            = 5
	webhookRatePerSecond = 20
	webhookBurst         = 40
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware())
	}
	s.echo.Use(ErrorHandlingMiddleware(s.httpMetrics))
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000, // 2 years; only sent over HTTPS
		HSTSPreloadEnabled:    true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	authLimiter := newRateLimiter(authRatePerSecond, authBurst)
	webhookLimiter := newRateLimiter(webhookRatePerSecond, webhookBurst)

	s.registerHealthRoutes()
	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	}

	api := s.echo.Group("/api", s.setupCSRFMiddleware())
	api.GET("/csrf", s.handleCSRFToken)

	authed := api.Group("", s.requireAuth)
	admin := authed.Group("/admin", s.requireAdmin)

	s.registerAuthRoutes(api, authed, authLimiter)
	s.registerProfileRoutes(authed)
	s.registerLedgerRoutes(authed)
	s.registerPaymentRoutes(api, authed, webhookLimiter)
	s.registerNotificationRoutes(authed)
	s.registerQuizRoutes(authed, admin)
	s.registerRewardRoutes(api, authed, admin)
	s.registerSocialRoutes(authed)
	s.registerUpdateRoutes(authed)
	s.registerChatRoutes(authed)
	s.registerAdminRoutes(api, admin)

	if s.socket != nil {
		s.socket.upgrader = newUpgrader(s.config)
		s.echo.GET("/ws/notifications", s.handleNotificationSocket, s.requireAuth)
	}
}

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.NewID()
		c.SetRequest(c.Request().WithContext(correlation.WithID(c.Request().Context(), id)))
		c.Response().Header().Set(correlation.Header, id)
		return next(c)
	}
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

func (s *Server) setupCSRFMiddleware() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token",
		CookieName:     "csrf_token",
		CookiePath:     "/",
		CookieMaxAge:   int(s.config.SessionMaxAge.Seconds()),
		CookieHTTPOnly: true,
		CookieSecure:   s.config.IsProduction(),
		CookieSameSite: http.SameSiteStrictMode,
	})
}

// handleCSRFToken hands the frontend the token it must echo in X-CSRF-Token.
func (s *Server) handleCSRFToken(c echo.Context) error {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return sendJSON(c, http.StatusOK, map[string]string{"csrf_token": token})
}
