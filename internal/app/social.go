package app

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type PostInput struct {
	Content  string
	ImageURL string
	// AllowComments defaults to true when nil.
	AllowComments *bool
}

type PostView struct {
	Post        *domain.Post
	Comments    []*domain.Comment
	IsFollowing bool
}

type SocialService struct {
	repo  domain.SocialRepository
	guard *ActionGuard
}

func NewSocialService(repo domain.SocialRepository, guard *ActionGuard) *SocialService {
	return &SocialService{repo: repo, guard: guard}
}

func (s *SocialService) Follow(ctx context.Context, follower, target uuid.UUID) error {
	if follower == target {
		return domain.ErrSelfAction
	}
	return s.repo.Follow(ctx, follower, target)
}

func (s *SocialService) Unfollow(ctx context.Context, follower, target uuid.UUID) error {
	return s.repo.Unfollow(ctx, follower, target)
}

func (s *SocialService) Followers(ctx context.Context, userID uuid.UUID, page int) ([]domain.FollowEntry, error) {
	_, offset := pageOffset(page, domain.FollowPageSize)
	return s.repo.Followers(ctx, userID, domain.FollowPageSize, offset)
}

func (s *SocialService) Following(ctx context.Context, userID uuid.UUID, page int) ([]domain.FollowEntry, error) {
	_, offset := pageOffset(page, domain.FollowPageSize)
	return s.repo.Following(ctx, userID, domain.FollowPageSize, offset)
}

func (s *SocialService) CreatePost(ctx context.Context, author uuid.UUID, in PostInput) (*domain.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" || utf8.RuneCountInString(content) > domain.MaxPostLength {
		return nil, domain.Invalid("content", "must be between 1 and %d characters", domain.MaxPostLength)
	}

	p := &domain.Post{
		AuthorID:      author,
		Content:       content,
		ImageURL:      strings.TrimSpace(in.ImageURL),
		AllowComments: in.AllowComments == nil || *in.AllowComments,
	}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Feed is the viewer's own posts and those of everyone they follow.
func (s *SocialService) Feed(ctx context.Context, viewer uuid.UUID, page int) ([]domain.Post, error) {
	_, offset := pageOffset(page, domain.FeedPageSize)
	return s.repo.Feed(ctx, viewer, domain.FeedPageSize, offset)
}

func (s *SocialService) GetPost(ctx context.Context, viewer, postID uuid.UUID) (*PostView, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	view := &PostView{Post: post, Comments: domain.BuildCommentTree(comments)}
	if post.AuthorID != viewer {
		view.IsFollowing, err = s.repo.IsFollowing(ctx, viewer, post.AuthorID)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (s *SocialService) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return domain.ErrNotAuthor
	}
	return s.repo.DeletePost(ctx, postID)
}

func (s *SocialService) AddComment(ctx context.Context, author, postID uuid.UUID, content string, parentID *uuid.UUID) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > domain.MaxCommentLength {
		return nil, domain.Invalid("content", "must be between 1 and %d characters", domain.MaxCommentLength)
	}

	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.AllowComments {
		return nil, domain.ErrCommentsDisabled
	}
	if parentID != nil {
		parent, err := s.repo.GetComment(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, domain.Invalid("parent_id", "reply must be on the same post")
		}
	}

	if err := s.guard.Check(ctx, author, ActionComment); err != nil {
		return nil, err
	}

	c := &domain.Comment{
		PostID:   postID,
		AuthorID: author,
		ParentID: parentID,
		Content:  content,
	}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteComment removes the comment with its replies and returns how many
// comments went.
func (s *SocialService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) (int, error) {
	c, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return 0, err
	}
	if c.AuthorID != userID {
		return 0, domain.ErrNotAuthor
	}
	return s.repo.DeleteComment(ctx, commentID)
}

func (s *SocialService) LikePost(ctx context.Context, userID, postID uuid.UUID, amount int) (*domain.SpendResult, error) {
	return s.spend(ctx, userID, domain.TargetPost, postID, amount)
}

func (s *SocialService) LikeComment(ctx context.Context, userID, commentID uuid.UUID, amount int) (*domain.SpendResult, error) {
	return s.spend(ctx, userID, domain.TargetComment, commentID, amount)
}

func (s *SocialService) spend(ctx context.Context, userID uuid.UUID, target domain.LikeTarget, targetID uuid.UUID, amount int) (*domain.SpendResult, error) {
	if amount < 1 || amount > domain.MaxLikeSpend {
		return nil, domain.Invalid("amount", "must be between 1 and %d", domain.MaxLikeSpend)
	}
	if err := s.guard.Check(ctx, userID, ActionPostLike); err != nil {
		return nil, err
	}
	res, err := s.repo.SpendLikes(ctx, userID, target, targetID, amount)
	if err != nil {
		s.guard.countInsufficient(ActionPostLike, err)
		return nil, err
	}
	return res, nil
}
