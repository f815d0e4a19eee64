package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) registerAuthRoutes(api, authed *echo.Group, limiter echo.MiddlewareFunc) {
	if s.svc.Accounts == nil {
		return
	}
	api.POST("/auth/register", s.handleRegister, limiter)
	api.POST("/auth/login", s.handleLogin, limiter)
	api.POST("/auth/password-reset", s.handlePasswordReset, limiter)
	api.POST("/auth/password-reset/confirm", s.handlePasswordResetConfirm, limiter)

	authed.POST("/auth/logout", s.handleLogout)
	authed.GET("/me", s.handleMe)
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := s.svc.Accounts.Register(c.Request().Context(), app.RegisterRequest{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return err
	}

	if err := s.startSession(c, user.ID); err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := s.svc.Accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	if err := s.startSession(c, user.ID); err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleLogout(c echo.Context) error {
	if err := s.endSession(c); err != nil {
		return err
	}
	return sendOK(c)
}

func (s *Server) handleMe(c echo.Context) error {
	return sendJSON(c, http.StatusOK, toUserResponse(currentUser(c)))
}

// handlePasswordReset always answers 202 so the endpoint does not reveal
// which emails are registered.
func (s *Server) handlePasswordReset(c echo.Context) error {
	var req resetRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return &domain.ValidationError{Field: "email", Message: "email is required"}
	}

	if err := s.svc.Accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		slog.ErrorContext(c.Request().Context(), "Password reset request failed", "error", err)
	}
	return sendJSON(c, http.StatusAccepted, map[string]string{
		"status": "if the email is registered, a reset link is on its way",
	})
}

func (s *Server) handlePasswordResetConfirm(c echo.Context) error {
	var req resetConfirmRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := s.svc.Accounts.ConfirmPasswordReset(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return sendOK(c)
}
