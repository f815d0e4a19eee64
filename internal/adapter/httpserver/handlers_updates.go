package httpserver

import (
	"net/http"

	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/labstack/echo/v4"
)

type updateRequest struct {
	Content         string `json:"content"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
}

func (s *Server) registerUpdateRoutes(authed *echo.Group) {
	if s.svc.Updates == nil {
		return
	}
	authed.GET("/updates", s.handleUpdatesFeed)
	authed.GET("/updates/mine", s.handleMyUpdates)
	authed.POST("/updates", s.handlePostUpdate)
	authed.DELETE("/updates/:id", s.handleDeleteUpdate)
}

func (s *Server) handleUpdatesFeed(c echo.Context) error {
	views, err := s.svc.Updates.Feed(c.Request().Context())
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, toUpdateList(views))
}

func (s *Server) handleMyUpdates(c echo.Context) error {
	views, err := s.svc.Updates.MyUpdates(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, toUpdateList(views))
}

func (s *Server) handlePostUpdate(c echo.Context) error {
	var req updateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	view, err := s.svc.Updates.PostUpdate(c.Request().Context(), currentUserID(c), app.UpdateInput{
		Content:         req.Content,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
	})
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, toUpdateResponse(*view))
}

func (s *Server) handleDeleteUpdate(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.Updates.DeleteUpdate(c.Request().Context(), currentUserID(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
