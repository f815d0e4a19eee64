package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type messageRequest struct {
	Content string `json:"content"`
}

func (s *Server) registerChatRoutes(authed *echo.Group) {
	if s.svc.Chat == nil {
		return
	}
	authed.GET("/chat/rooms", s.handleListRooms)
	authed.GET("/chat/rooms/:id", s.handleGetRoom)
	authed.POST("/chat/rooms/:id/messages", s.handleSendMessage)
}

func (s *Server) handleListRooms(c echo.Context) error {
	rooms, err := s.svc.Chat.ListRooms(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	out := make([]roomSummaryResponse, 0, len(rooms))
	for _, r := range rooms {
		item := roomSummaryResponse{ID: r.Room.ID, MatchID: r.Room.MatchID, Other: r.Other, Unread: r.Unread}
		if r.LastMessage != nil {
			last := toMessageResponse(r.LastMessage)
			item.LastMessage = &last
		}
		out = append(out, item)
	}
	return sendJSON(c, http.StatusOK, out)
}

// handleGetRoom returns the room's messages oldest first and marks the
// other participant's messages read.
func (s *Server) handleGetRoom(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	userID := currentUserID(c)
	view, err := s.svc.Chat.GetRoom(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}

	messages := make([]messageResponse, 0, len(view.Messages))
	for i := range view.Messages {
		messages = append(messages, toMessageResponse(&view.Messages[i]))
	}
	return sendJSON(c, http.StatusOK, map[string]any{
		"id":       view.Room.ID,
		"match_id": view.Room.MatchID,
		"other_id": view.Room.Other(userID),
		"messages": messages,
	})
}

func (s *Server) handleSendMessage(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req messageRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	msg, err := s.svc.Chat.SendMessage(c.Request().Context(), currentUserID(c), id, req.Content)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, toMessageResponse(msg))
}
