package httpserver

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	apperrors "github.com/kennedy-ak/mooibanana-project/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

const (
	ctxKeyUserID = "userID"
	ctxKeyUser   = "user"
)

// requireAuth resolves the session user. Sessions pointing at deleted users
// are cleared.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("authentication required")
		}

		raw, ok := session.Values[sessionKeyUserID].(string)
		if !ok {
			return apperrors.UnauthorizedError("authentication required")
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.UnauthorizedError("authentication required")
		}

		user, err := s.svc.Accounts.Me(c.Request().Context(), userID)
		if errors.Is(err, domain.ErrUserNotFound) {
			slog.WarnContext(c.Request().Context(), "Session references unknown user, invalidating", "user_id", userID)
			session.Options.MaxAge = -1
			_ = session.Save(c.Request(), c.Response().Writer)
			return apperrors.UnauthorizedError("authentication required")
		}
		if err != nil {
			return apperrors.InternalError("failed to load session user", err)
		}

		c.Set(ctxKeyUserID, user.ID)
		c.Set(ctxKeyUser, user)
		return next(c)
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if user := currentUser(c); user == nil || !user.IsAdmin {
			return domain.ErrNotAdmin
		}
		return next(c)
	}
}

func currentUserID(c echo.Context) uuid.UUID {
	id, _ := c.Get(ctxKeyUserID).(uuid.UUID)
	return id
}

func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get(ctxKeyUser).(*domain.User)
	return user
}

// startSession drops any pre-login session and stores userID in a fresh one
// so a fixated session id never becomes authenticated.
func (s *Server) startSession(c echo.Context, userID uuid.UUID) error {
	old, err := s.sessionStore.Get(c.Request(), sessionName)
	if err == nil && !old.IsNew {
		old.Options.MaxAge = -1
		if err := old.Save(c.Request(), c.Response().Writer); err != nil {
			return apperrors.InternalError("failed to invalidate old session", err)
		}
	}

	session, err := s.sessionStore.New(c.Request(), sessionName)
	if err != nil && session == nil {
		return apperrors.InternalError("failed to create session", err)
	}
	session.Values[sessionKeyUserID] = userID.String()
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}
	return nil
}

func (s *Server) endSession(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "Failed to get session during logout", "error", err)
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil && session == nil {
			return apperrors.InternalError("failed to create session during logout", err)
		}
	}
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save logout session", err)
	}
	return nil
}
