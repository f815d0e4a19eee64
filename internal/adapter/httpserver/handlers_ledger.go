package httpserver

import (
	"net/http"

	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/labstack/echo/v4"
)

type likeRequest struct {
	UserID string          `json:"user_id"`
	Type   domain.LikeType `json:"type"`
}

type targetRequest struct {
	UserID string `json:"user_id"`
}

type respondRequest struct {
	Action string `json:"action"`
}

type likeOutcomeResponse struct {
	Like          likeResponse   `json:"like"`
	Mutual        bool           `json:"mutual"`
	Match         *matchResponse `json:"match,omitempty"`
	LikesBalance  int            `json:"likes_balance"`
	PointsBalance int            `json:"points_balance"`
}

type givenLikeResponse struct {
	likeResponse
	Target domain.UserSummary `json:"target"`
}

func (s *Server) registerLedgerRoutes(authed *echo.Group) {
	if s.svc.Ledger == nil {
		return
	}
	authed.POST("/likes", s.handleGiveLike)
	authed.GET("/likes", s.handleMyLikes)
	authed.POST("/unlikes", s.handleGiveUnlike)
	authed.GET("/matches", s.handleMatches)
	authed.POST("/match-requests", s.handleSendMatchRequest)
	authed.POST("/match-requests/:id/respond", s.handleRespondMatchRequest)
}

func (s *Server) handleGiveLike(c echo.Context) error {
	var req likeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	to, err := parseUUID("user_id", req.UserID)
	if err != nil {
		return err
	}
	if req.Type == "" {
		req.Type = domain.LikeRegular
	}

	out, err := s.svc.Ledger.GiveLike(c.Request().Context(), currentUserID(c), to, req.Type)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, likeOutcomeResponse{
		Like:          toLikeResponse(out.Like),
		Mutual:        out.Mutual,
		Match:         toMatchResponse(out.Match),
		LikesBalance:  out.SenderBalance,
		PointsBalance: out.SenderPoints,
	})
}

func (s *Server) handleMyLikes(c echo.Context) error {
	likes, err := s.svc.Ledger.MyLikes(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	out := make([]givenLikeResponse, 0, len(likes))
	for _, l := range likes {
		out = append(out, givenLikeResponse{likeResponse: toLikeResponse(l.Like), Target: l.Target})
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleGiveUnlike(c echo.Context) error {
	var req targetRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	to, err := parseUUID("user_id", req.UserID)
	if err != nil {
		return err
	}

	res, err := s.svc.Ledger.GiveUnlike(c.Request().Context(), currentUserID(c), to)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, map[string]any{
		"id":              res.Unlike.ID,
		"to_user":         res.Unlike.ToUser,
		"created_at":      res.Unlike.CreatedAt,
		"unlikes_balance": res.Balance,
	})
}

func (s *Server) handleMatches(c echo.Context) error {
	matches, err := s.svc.Ledger.Matches(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	out := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		other := m.Other
		out = append(out, matchResponse{ID: m.ID, RoomID: m.RoomID, Other: &other, CreatedAt: m.CreatedAt})
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleSendMatchRequest(c echo.Context) error {
	var req targetRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	to, err := parseUUID("user_id", req.UserID)
	if err != nil {
		return err
	}

	n, err := s.svc.Ledger.SendMatchRequest(c.Request().Context(), currentUserID(c), to)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, n)
}

func (s *Server) handleRespondMatchRequest(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req respondRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	var accept bool
	switch req.Action {
	case "accept":
		accept = true
	case "decline":
	default:
		return domain.Invalid("action", "must be accept or decline")
	}

	res, err := s.svc.Ledger.RespondMatchRequest(c.Request().Context(), currentUserID(c), id, accept)
	if err != nil {
		return err
	}

	return sendJSON(c, http.StatusOK, map[string]any{
		"notification": res.Notification,
		"match":        toMatchResponse(res.Match),
	})
}
