package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/websocket"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/config"
	apperrors "github.com/kennedy-ak/mooibanana-project/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

const (
	defaultUnreadLimit = 10
	maxUnreadLimit     = 50
)

func (s *Server) registerNotificationRoutes(authed *echo.Group) {
	if s.svc.Notifications == nil {
		return
	}
	authed.GET("/notifications", s.handleListNotifications)
	authed.GET("/notifications/unread", s.handleUnreadNotifications)
	authed.GET("/notifications/count", s.handleUnreadCount)
	authed.POST("/notifications/:id/read", s.handleMarkRead)
	authed.POST("/notifications/read-all", s.handleMarkAllRead)
}

func (s *Server) handleListNotifications(c echo.Context) error {
	list, err := s.svc.Notifications.List(c.Request().Context(), currentUserID(c), pageParam(c))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, list)
}

func (s *Server) handleUnreadNotifications(c echo.Context) error {
	limit := defaultUnreadLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperrors.ValidationError("limit must be a positive number").WithField("limit", raw)
		}
		limit = min(n, maxUnreadLimit)
	}

	list, err := s.svc.Notifications.Unread(c.Request().Context(), currentUserID(c), limit)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, list)
}

func (s *Server) handleUnreadCount(c echo.Context) error {
	n, err := s.svc.Notifications.UnreadCount(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleMarkRead(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.Notifications.MarkRead(c.Request().Context(), currentUserID(c), id); err != nil {
		return err
	}
	return sendOK(c)
}

func (s *Server) handleMarkAllRead(c echo.Context) error {
	n, err := s.svc.Notifications.MarkAllRead(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]int{"marked": n})
}

// socketHub runs one upgraded notification connection.
type socketHub interface {
	Serve(ctx context.Context, conn *gorillaws.Conn, userID uuid.UUID) error
}

type notificationSocket struct {
	hub      socketHub
	limiter  *websocket.ConnectionLimiter
	metrics  *metrics.WebSocketMetrics
	upgrader gorillaws.Upgrader
}

func newUpgrader(cfg *config.Config) gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     websocket.OriginChecker(cfg.AppURL, !cfg.IsProduction()),
	}
}

func (s *Server) handleNotificationSocket(c echo.Context) error {
	sock := s.socket
	if sock.limiter != nil {
		if !sock.limiter.Acquire() {
			if sock.metrics != nil {
				sock.metrics.ConnectionsRejected.WithLabelValues("global_limit").Inc()
			}
			slog.WarnContext(c.Request().Context(), "WebSocket connection rejected, instance full",
				"current", sock.limiter.Current())
			return sendJSON(c, http.StatusServiceUnavailable,
				apperrors.RateLimitedError("too many connections").ToResponse())
		}
		defer sock.limiter.Release()
	}

	userID := currentUserID(c)
	conn, err := sock.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.DebugContext(c.Request().Context(), "WebSocket upgrade failed", "user_id", userID, "error", err)
		return nil
	}

	if err := sock.hub.Serve(c.Request().Context(), conn, userID); err != nil {
		slog.DebugContext(c.Request().Context(), "WebSocket session ended", "user_id", userID, "error", err)
	}
	return nil
}
