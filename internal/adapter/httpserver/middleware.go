package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	apperrors "github.com/kennedy-ak/mooibanana-project/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

// ErrorHandlingMiddleware renders handler errors as JSON. Domain sentinels are
// translated first; *echo.HTTPError passes through to echo's own handler.
func ErrorHandlingMiddleware(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			structuredErr := toStructured(err)
			logError(c, structuredErr)
			if m != nil {
				m.ErrorsTotal.WithLabelValues(string(structuredErr.Type)).Inc()
			}

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

var sentinelTypes = []struct {
	err error
	typ apperrors.ErrorType
}{
	{domain.ErrInvalidCredentials, apperrors.TypeUnauthorized},
	{domain.ErrInsufficientBalance, apperrors.TypePaymentRequired},
	{domain.ErrPaymentNotVerified, apperrors.TypePaymentRequired},
	{domain.ErrRateLimited, apperrors.TypeRateLimited},

	{domain.ErrSelfAction, apperrors.TypeValidation},
	{domain.ErrProviderDisabled, apperrors.TypeValidation},
	{domain.ErrInvalidReferralCode, apperrors.TypeValidation},
	{domain.ErrInvalidResetToken, apperrors.TypeValidation},
	{domain.ErrNotFollowing, apperrors.TypeValidation},
	{domain.ErrChoiceNotFound, apperrors.TypeValidation},
	{domain.ErrInvalidSignature, apperrors.TypeValidation},
	{domain.ErrAmountMismatch, apperrors.TypeValidation},

	{domain.ErrNotEnoughLikes, apperrors.TypeForbidden},
	{domain.ErrNotAuthor, apperrors.TypeForbidden},
	{domain.ErrCommentsDisabled, apperrors.TypeForbidden},
	{domain.ErrNotAdmin, apperrors.TypeForbidden},
	{domain.ErrUnknownWebhookIP, apperrors.TypeForbidden},

	{domain.ErrEmailTaken, apperrors.TypeConflict},
	{domain.ErrUsernameTaken, apperrors.TypeConflict},
	{domain.ErrReferralCodeTaken, apperrors.TypeConflict},
	{domain.ErrAlreadyUnliked, apperrors.TypeConflict},
	{domain.ErrMatchRequestExists, apperrors.TypeConflict},
	{domain.ErrAlreadyResponded, apperrors.TypeConflict},
	{domain.ErrAlreadyAnswered, apperrors.TypeConflict},
	{domain.ErrOutOfStock, apperrors.TypeConflict},
	{domain.ErrAlreadyFollowing, apperrors.TypeConflict},
	{domain.ErrInvalidTransition, apperrors.TypeConflict},

	{domain.ErrUserNotFound, apperrors.TypeNotFound},
	{domain.ErrProfileNotFound, apperrors.TypeNotFound},
	{domain.ErrPackageNotFound, apperrors.TypeNotFound},
	{domain.ErrPurchaseNotFound, apperrors.TypeNotFound},
	{domain.ErrNotificationNotFound, apperrors.TypeNotFound},
	{domain.ErrQuestionNotFound, apperrors.TypeNotFound},
	{domain.ErrNoActiveQuestions, apperrors.TypeNotFound},
	{domain.ErrDailyQuizNotFound, apperrors.TypeNotFound},
	{domain.ErrResponseNotFound, apperrors.TypeNotFound},
	{domain.ErrRewardNotFound, apperrors.TypeNotFound},
	{domain.ErrClaimNotFound, apperrors.TypeNotFound},
	{domain.ErrReferralNotFound, apperrors.TypeNotFound},
	{domain.ErrPostNotFound, apperrors.TypeNotFound},
	{domain.ErrCommentNotFound, apperrors.TypeNotFound},
	{domain.ErrUpdateNotFound, apperrors.TypeNotFound},
	{domain.ErrRoomNotFound, apperrors.TypeNotFound},
}

// domainError translates validation errors and domain sentinels. It returns
// nil for anything else.
func domainError(err error) *apperrors.Error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		e := apperrors.ValidationError(verr.Message)
		if verr.Field != "" {
			e = e.WithField("field", verr.Field)
		}
		return e
	}
	if errors.Is(err, domain.ErrProviderUnavailable) {
		return apperrors.ExternalError(domain.ErrProviderUnavailable.Error(), err)
	}
	for _, st := range sentinelTypes {
		if errors.Is(err, st.err) {
			return &apperrors.Error{Type: st.typ, Message: st.err.Error(), Context: make(map[string]any)}
		}
	}
	return nil
}

func toStructured(err error) *apperrors.Error {
	var structuredErr *apperrors.Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}
	if e := domainError(err); e != nil {
		return e
	}
	return apperrors.InternalError("internal server error", err)
}

func logError(c echo.Context, err *apperrors.Error) {
	ctx := c.Request().Context()
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if userID := c.Get(ctxKeyUserID); userID != nil {
		attrs = append(attrs, "user_id", userID)
	}

	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeNotFound, apperrors.TypeUnauthorized, apperrors.TypePaymentRequired:
		slog.InfoContext(ctx, "Request rejected", attrs...)
	case apperrors.TypeConflict, apperrors.TypeForbidden, apperrors.TypeRateLimited:
		slog.WarnContext(ctx, "Request refused", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Internal error", attrs...)
	case apperrors.TypeExternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "External service error", attrs...)
	default:
		slog.ErrorContext(ctx, "Unknown error type", attrs...)
	}
}

func sendJSON(c echo.Context, status int, v any) error {
	if err := c.JSON(status, v); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func sendOK(c echo.Context) error {
	return sendJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}
