package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/labstack/echo/v4"
)

type postRequest struct {
	Content       string `json:"content"`
	ImageURL      string `json:"image_url"`
	AllowComments *bool  `json:"allow_comments"`
}

type commentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id"`
}

type spendRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) registerSocialRoutes(authed *echo.Group) {
	if s.svc.Social == nil {
		return
	}
	authed.POST("/users/:id/follow", s.handleFollow)
	authed.DELETE("/users/:id/follow", s.handleUnfollow)
	authed.GET("/users/:id/followers", s.handleFollowers)
	authed.GET("/users/:id/following", s.handleFollowing)

	authed.GET("/feed", s.handleFeed)
	authed.POST("/posts", s.handleCreatePost)
	authed.GET("/posts/:id", s.handleGetPost)
	authed.DELETE("/posts/:id", s.handleDeletePost)
	authed.POST("/posts/:id/comments", s.handleAddComment)
	authed.POST("/posts/:id/likes", s.handleLikePost)
	authed.DELETE("/comments/:id", s.handleDeleteComment)
	authed.POST("/comments/:id/likes", s.handleLikeComment)
}

func (s *Server) handleFollow(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.Social.Follow(c.Request().Context(), currentUserID(c), id); err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, map[string]bool{"following": true})
}

func (s *Server) handleUnfollow(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.Social.Unfollow(c.Request().Context(), currentUserID(c), id); err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]bool{"following": false})
}

func (s *Server) handleFollowers(c echo.Context) error {
	return s.followList(c, s.svc.Social.Followers)
}

func (s *Server) handleFollowing(c echo.Context) error {
	return s.followList(c, s.svc.Social.Following)
}

func (s *Server) followList(c echo.Context, list func(ctx context.Context, id uuid.UUID, page int) ([]domain.FollowEntry, error)) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := list(c.Request().Context(), id, pageParam(c))
	if err != nil {
		return err
	}
	out := make([]followResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, followResponse{User: e.User, FollowedAt: e.FollowedAt})
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleFeed(c echo.Context) error {
	posts, err := s.svc.Social.Feed(c.Request().Context(), currentUserID(c), pageParam(c))
	if err != nil {
		return err
	}
	out := make([]postResponse, 0, len(posts))
	for i := range posts {
		out = append(out, toPostResponse(&posts[i]))
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var req postRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	post, err := s.svc.Social.CreatePost(c.Request().Context(), currentUserID(c), app.PostInput{
		Content:       req.Content,
		ImageURL:      req.ImageURL,
		AllowComments: req.AllowComments,
	})
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, toPostResponse(post))
}

func (s *Server) handleGetPost(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	view, err := s.svc.Social.GetPost(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return err
	}
	comments := make([]commentResponse, 0, len(view.Comments))
	for _, cm := range view.Comments {
		comments = append(comments, toCommentResponse(cm))
	}
	return sendJSON(c, http.StatusOK, map[string]any{
		"post":         toPostResponse(view.Post),
		"comments":     comments,
		"is_following": view.IsFollowing,
	})
}

func (s *Server) handleDeletePost(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.Social.DeletePost(c.Request().Context(), currentUserID(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAddComment(c echo.Context) error {
	postID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	parentID, err := optionalUUID("parent_id", req.ParentID)
	if err != nil {
		return err
	}

	comment, err := s.svc.Social.AddComment(c.Request().Context(), currentUserID(c), postID, req.Content, parentID)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, toCommentResponse(comment))
}

func (s *Server) handleDeleteComment(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	removed, err := s.svc.Social.DeleteComment(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleLikePost(c echo.Context) error {
	return s.spendLikes(c, s.svc.Social.LikePost)
}

func (s *Server) handleLikeComment(c echo.Context) error {
	return s.spendLikes(c, s.svc.Social.LikeComment)
}

func (s *Server) spendLikes(c echo.Context, spend func(ctx context.Context, userID, targetID uuid.UUID, amount int) (*domain.SpendResult, error)) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	req := spendRequest{Amount: 1}
	if err := bindBody(c, &req); err != nil {
		return err
	}

	res, err := spend(c.Request().Context(), currentUserID(c), id, req.Amount)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]int{
		"likes_balance": res.Balance,
		"likes_count":   res.TargetLikes,
	})
}
