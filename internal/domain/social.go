package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	MaxPostLength    = 5000
	MaxCommentLength = 1000
	FeedPageSize     = 10
	MaxLikeSpend     = 1000 // likes spent on one post or comment per request
	FollowPageSize   = 20
)

type Post struct {
	ID             uuid.UUID
	AuthorID       uuid.UUID
	AuthorUsername string
	Content        string
	ImageURL       string
	AllowComments  bool
	LikesCount     int
	CommentsCount  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Comment struct {
	ID             uuid.UUID
	PostID         uuid.UUID
	AuthorID       uuid.UUID
	AuthorUsername string
	ParentID       *uuid.UUID
	Content        string
	LikesCount     int
	CreatedAt      time.Time
	Replies        []*Comment
}

type FollowEntry struct {
	User       UserSummary
	FollowedAt time.Time
}

// SpendResult is returned after paying likes onto a post or comment.
type SpendResult struct {
	Balance     int
	TargetLikes int
}

// LikeTarget identifies what a post or comment like is spent on.
type LikeTarget string

const (
	TargetPost    LikeTarget = "post"
	TargetComment LikeTarget = "comment"
)

type SocialRepository interface {
	Follow(ctx context.Context, follower, target uuid.UUID) error
	Unfollow(ctx context.Context, follower, target uuid.UUID) error
	IsFollowing(ctx context.Context, follower, target uuid.UUID) (bool, error)
	Followers(ctx context.Context, user uuid.UUID, limit, offset int) ([]FollowEntry, error)
	Following(ctx context.Context, user uuid.UUID, limit, offset int) ([]FollowEntry, error)

	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	Feed(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]Post, error)

	AddComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]Comment, error)
	// DeleteComment removes the comment and its replies, returning how many rows went.
	DeleteComment(ctx context.Context, id uuid.UUID) (int, error)

	// SpendLikes debits amount from the user's likes balance and credits the
	// target and its author.
	SpendLikes(ctx context.Context, user uuid.UUID, target LikeTarget, targetID uuid.UUID, amount int) (*SpendResult, error)
}

// BuildCommentTree nests replies under their parents. Top level comments and
// replies keep the input (ascending) order.
func BuildCommentTree(flat []Comment) []*Comment {
	byID := make(map[uuid.UUID]*Comment, len(flat))
	for i := range flat {
		c := flat[i]
		c.Replies = nil
		byID[c.ID] = &c
	}

	var roots []*Comment
	for i := range flat {
		c := byID[flat[i].ID]
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}
