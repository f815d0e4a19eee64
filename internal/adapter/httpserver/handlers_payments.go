package httpserver

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	apperrors "github.com/kennedy-ak/mooibanana-project/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

// Webhook bodies above this size are rejected before signature checks.
const maxWebhookBody = 1 << 20

type checkoutRequest struct {
	PackageID   string          `json:"package_id"`
	Provider    domain.Provider `json:"provider"`
	RecipientID *string         `json:"recipient_id"`
}

func (s *Server) registerPaymentRoutes(api, authed *echo.Group, webhookLimiter echo.MiddlewareFunc) {
	if s.svc.Payments == nil {
		return
	}
	api.GET("/packages", s.handleListPackages)
	api.GET("/payments/providers", s.handleProviders)
	authed.POST("/checkout", s.handleCheckout)
	authed.GET("/purchases", s.handleMyPurchases)

	// Provider redirects and webhooks arrive without a CSRF token.
	s.echo.GET("/payments/:provider/callback", s.handlePaymentCallback)
	s.echo.POST("/webhooks/:provider", s.handleWebhook, webhookLimiter)
	s.echo.GET("/webhooks/:provider", s.handleWebhookKey, webhookLimiter)
}

func (s *Server) handleListPackages(c echo.Context) error {
	pkgs, err := s.svc.Payments.ListPackages(c.Request().Context(), domain.PackageKind(c.QueryParam("kind")))
	if err != nil {
		return err
	}
	out := make([]packageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, toPackageResponse(p))
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleProviders(c echo.Context) error {
	return sendJSON(c, http.StatusOK, map[string]any{"providers": s.svc.Payments.Providers()})
}

func (s *Server) handleCheckout(c echo.Context) error {
	var req checkoutRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	pkgID, err := parseUUID("package_id", req.PackageID)
	if err != nil {
		return err
	}
	recipient, err := optionalUUID("recipient_id", req.RecipientID)
	if err != nil {
		return err
	}

	res, err := s.svc.Payments.Checkout(c.Request().Context(), app.CheckoutInput{
		BuyerID:     currentUserID(c),
		PackageID:   pkgID,
		Provider:    req.Provider,
		RecipientID: recipient,
	})
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, map[string]any{
		"purchase":     toPurchaseResponse(res.Purchase),
		"redirect_url": res.RedirectURL,
	})
}

func (s *Server) handleMyPurchases(c echo.Context) error {
	purchases, err := s.svc.Payments.MyPurchases(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	out := make([]purchaseResponse, 0, len(purchases))
	for i := range purchases {
		out = append(out, toPurchaseResponse(&purchases[i]))
	}
	return sendJSON(c, http.StatusOK, out)
}

// handlePaymentCallback maps each provider's return parameters. Paystack
// sends reference, Stripe session_id and Viva s (order code) plus t
// (transaction id).
func (s *Server) handlePaymentCallback(c echo.Context) error {
	provider := domain.Provider(c.Param("provider"))
	params := app.CallbackParams{
		Reference:     c.QueryParam("reference"),
		SessionID:     c.QueryParam("session_id"),
		TransactionID: c.QueryParam("t"),
	}
	if provider == domain.ProviderViva {
		params.SessionID = c.QueryParam("s")
	}
	if params.Reference == "" && params.SessionID == "" {
		return apperrors.ValidationError("missing payment reference").WithField("provider", string(provider))
	}

	res, err := s.svc.Payments.Callback(c.Request().Context(), provider, params)
	if err != nil {
		return err
	}

	credits := make([]creditResponse, 0, len(res.Credits))
	for _, cr := range res.Credits {
		credits = append(credits, creditResponse{
			UserID: cr.UserID, Likes: cr.Likes, SuperLikes: cr.SuperLikes, Boosters: cr.Boosters, Unlikes: cr.Unlikes,
		})
	}
	return sendJSON(c, http.StatusOK, map[string]any{
		"purchase": toPurchaseResponse(res.Purchase),
		"status":   res.Purchase.Status,
		"credited": res.Credited,
		"credits":  credits,
	})
}

func (s *Server) handleWebhook(c echo.Context) error {
	provider := domain.Provider(c.Param("provider"))
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return apperrors.ValidationError("failed to read webhook body")
	}
	if len(body) > maxWebhookBody {
		return apperrors.ValidationError("webhook body too large")
	}

	event, err := s.svc.Payments.Webhook(c.Request().Context(), provider, domain.WebhookRequest{
		Header:   c.Request().Header,
		Body:     body,
		RemoteIP: c.RealIP(),
	})
	if err != nil {
		return err
	}

	slog.DebugContext(c.Request().Context(), "Webhook processed",
		"provider", provider, "event_id", event.ID, "type", event.Type, "outcome", event.Outcome)
	return sendJSON(c, http.StatusOK, map[string]string{"status": "received"})
}

// handleWebhookKey answers Viva's URL verification handshake.
func (s *Server) handleWebhookKey(c echo.Context) error {
	key, err := s.svc.Payments.WebhookKey(c.Request().Context(), domain.Provider(c.Param("provider")))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]string{"Key": key})
}
