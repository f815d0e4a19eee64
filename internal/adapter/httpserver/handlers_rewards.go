package httpserver

import (
	"net/http"

	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/labstack/echo/v4"
)

type claimRequest struct {
	DeliveryAddress string `json:"delivery_address"`
}

type claimStatusRequest struct {
	Status domain.ClaimStatus `json:"status"`
}

func (s *Server) registerRewardRoutes(api, authed, admin *echo.Group) {
	if s.svc.Rewards != nil {
		api.GET("/prizes", s.handlePrizes)
		authed.GET("/rewards", s.handleListRewards)
		authed.POST("/rewards/:id/claim", s.handleClaimReward)
		authed.GET("/rewards/claims", s.handleMyClaims)
		admin.PUT("/claims/:id/status", s.handleUpdateClaimStatus)
	}
	if s.svc.Referrals != nil {
		authed.GET("/referrals", s.handleReferrals)
	}
}

func (s *Server) handleListRewards(c echo.Context) error {
	rewards, err := s.svc.Rewards.ListRewards(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]rewardResponse, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, rewardResponse{
			ID: r.ID, Name: r.Name, Description: r.Description, PointsCost: r.PointsCost,
			Type: r.Type, ImageURL: r.ImageURL, Stock: r.Stock, LikesRequired: r.LikesRequired,
		})
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleClaimReward(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req claimRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	claim, err := s.svc.Rewards.ClaimReward(c.Request().Context(), currentUserID(c), id, req.DeliveryAddress)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, toClaimResponse(claim))
}

func (s *Server) handleMyClaims(c echo.Context) error {
	claims, err := s.svc.Rewards.MyClaims(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	out := make([]claimResponse, 0, len(claims))
	for i := range claims {
		out = append(out, toClaimResponse(&claims[i]))
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleUpdateClaimStatus(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req claimStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	claim, err := s.svc.Rewards.UpdateClaimStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, toClaimResponse(claim))
}

func (s *Server) handlePrizes(c echo.Context) error {
	prizes, err := s.svc.Rewards.ActivePrizes(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]prizeResponse, 0, len(prizes))
	for _, p := range prizes {
		out = append(out, prizeResponse{
			ID: p.ID, Title: p.Title, Description: p.Description, PrizeValue: p.PrizeValue,
			Position: p.Position, Icon: p.Icon, BackgroundColor: p.BackgroundColor,
			StartsAt: p.StartsAt, EndsAt: p.EndsAt,
		})
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleReferrals(c echo.Context) error {
	d, err := s.svc.Referrals.Dashboard(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	referrals := make([]referralResponse, 0, len(d.Referrals))
	for _, r := range d.Referrals {
		referrals = append(referrals, referralResponse{
			ReferredUsername: r.ReferredUsername, Status: r.Status, PointsAwarded: r.PointsAwarded,
			CreatedAt: r.CreatedAt, CompletedAt: r.CompletedAt,
		})
	}
	return sendJSON(c, http.StatusOK, map[string]any{
		"referral_code":   d.Code,
		"share_url":       d.ShareURL,
		"points_earned":   d.PointsEarned,
		"completed_count": d.Completed,
		"pending_count":   d.PendingCount,
		"referrals":       referrals,
	})
}
