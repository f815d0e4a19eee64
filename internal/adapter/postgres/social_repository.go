package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const postColumns = `p.id, p.author_id, u.username, p.content, p.image_url, p.allow_comments,
	p.likes_count, p.comments_count, p.created_at, p.updated_at`

const commentColumns = `c.id, c.post_id, c.author_id, u.username, c.parent_id, c.content, c.likes_count, c.created_at`

type SocialRepo struct {
	pool *pgxpool.Pool
}

func NewSocialRepo(pool *pgxpool.Pool) *SocialRepo {
	return &SocialRepo{pool: pool}
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Content, &p.ImageURL, &p.AllowComments,
		&p.LikesCount, &p.CommentsCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.ParentID, &c.Content, &c.LikesCount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SocialRepo) Follow(ctx context.Context, follower, target uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO follows (follower_id, following_id) VALUES ($1, $2)`, follower, target)
	switch {
	case isUniqueViolation(err, ""):
		return domain.ErrAlreadyFollowing
	case isForeignKeyViolation(err):
		return domain.ErrUserNotFound
	case isCheckViolation(err):
		return domain.ErrSelfAction
	case err != nil:
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

func (r *SocialRepo) Unfollow(ctx context.Context, follower, target uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, follower, target)
	if err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFollowing
	}
	return nil
}

func (r *SocialRepo) IsFollowing(ctx context.Context, follower, target uuid.UUID) (bool, error) {
	var following bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`, follower, target).Scan(&following)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return following, nil
}

func (r *SocialRepo) Followers(ctx context.Context, user uuid.UUID, limit, offset int) ([]domain.FollowEntry, error) {
	return r.follows(ctx, `
		SELECT u.id, u.username, u.first_name, COALESCE(p.picture_url, ''), f.created_at
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE f.following_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`, user, limit, offset)
}

func (r *SocialRepo) Following(ctx context.Context, user uuid.UUID, limit, offset int) ([]domain.FollowEntry, error) {
	return r.follows(ctx, `
		SELECT u.id, u.username, u.first_name, COALESCE(p.picture_url, ''), f.created_at
		FROM follows f
		JOIN users u ON u.id = f.following_id
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`, user, limit, offset)
}

func (r *SocialRepo) follows(ctx context.Context, sql string, args ...any) ([]domain.FollowEntry, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	var out []domain.FollowEntry
	for rows.Next() {
		var e domain.FollowEntry
		if err := rows.Scan(&e.User.ID, &e.User.Username, &e.User.FirstName, &e.User.PictureURL, &e.FollowedAt); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SocialRepo) CreatePost(ctx context.Context, p *domain.Post) error {
	saved, err := scanPost(r.pool.QueryRow(ctx, `
		WITH p AS (
			INSERT INTO posts (author_id, content, image_url, allow_comments)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)
		SELECT `+postColumns+` FROM p JOIN users u ON u.id = p.author_id`,
		p.AuthorID, p.Content, p.ImageURL, p.AllowComments))
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	*p = *saved
	return nil
}

func (r *SocialRepo) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, `
		SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

func (r *SocialRepo) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *SocialRepo) Feed(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1
		   OR p.author_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		ORDER BY p.created_at DESC, p.id
		LIMIT $2 OFFSET $3`, viewer, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	defer rows.Close()

	var out []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *SocialRepo) AddComment(ctx context.Context, c *domain.Comment) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		saved, err := scanComment(tx.QueryRow(ctx, `
			WITH c AS (
				INSERT INTO comments (post_id, author_id, parent_id, content)
				VALUES ($1, $2, $3, $4)
				RETURNING *
			)
			SELECT `+commentColumns+` FROM c JOIN users u ON u.id = c.author_id`,
			c.PostID, c.AuthorID, c.ParentID, c.Content))
		if isForeignKeyViolation(err) {
			return domain.ErrPostNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`, c.PostID); err != nil {
			return fmt.Errorf("failed to bump comment count: %w", err)
		}
		*c = *saved
		return nil
	})
}

func (r *SocialRepo) GetComment(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `
		SELECT `+commentColumns+` FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

func (r *SocialRepo) ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+commentColumns+` FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *SocialRepo) DeleteComment(ctx context.Context, id uuid.UUID) (int, error) {
	var deleted int
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var postID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT post_id FROM comments WHERE id = $1 FOR UPDATE`, id).Scan(&postID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCommentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock comment: %w", err)
		}

		err = tx.QueryRow(ctx, `
			WITH RECURSIVE tree AS (
				SELECT id FROM comments WHERE id = $1
				UNION ALL
				SELECT c.id FROM comments c JOIN tree t ON c.parent_id = t.id
			)
			SELECT count(*) FROM tree`, id).Scan(&deleted)
		if err != nil {
			return fmt.Errorf("failed to count replies: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE posts SET comments_count = GREATEST(comments_count - $2, 0)
			WHERE id = $1`, postID, deleted); err != nil {
			return fmt.Errorf("failed to decrement comment count: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *SocialRepo) SpendLikes(ctx context.Context, user uuid.UUID, target domain.LikeTarget, targetID uuid.UUID, amount int) (*domain.SpendResult, error) {
	table, likeTable, fk, notFound := "posts", "post_likes", "post_id", domain.ErrPostNotFound
	if target == domain.TargetComment {
		table, likeTable, fk, notFound = "comments", "comment_likes", "comment_id", domain.ErrCommentNotFound
	}

	result := &domain.SpendResult{}
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var author uuid.UUID
		err := tx.QueryRow(ctx, `SELECT author_id FROM `+table+` WHERE id = $1`, targetID).Scan(&author)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound
		}
		if err != nil {
			return fmt.Errorf("failed to load like target: %w", err)
		}

		if result.Balance, err = debit(ctx, tx, user, "likes_balance", amount); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `INSERT INTO `+likeTable+` (user_id, `+fk+`, amount) VALUES ($1, $2, $3)`, user, targetID, amount); err != nil {
			return fmt.Errorf("failed to record like: %w", err)
		}
		if err := tx.QueryRow(ctx, `
			UPDATE `+table+` SET likes_count = likes_count + $2 WHERE id = $1
			RETURNING likes_count`, targetID, amount).Scan(&result.TargetLikes); err != nil {
			return fmt.Errorf("failed to bump like count: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE users SET received_likes_count = received_likes_count + $2, updated_at = now()
			WHERE id = $1`, author, amount); err != nil {
			return fmt.Errorf("failed to credit author: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
