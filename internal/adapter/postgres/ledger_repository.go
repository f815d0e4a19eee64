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

type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// lockPair serializes ledger work on one pair of users so that two crossing
// likes cannot both miss each other.
func lockPair(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) error {
	u1, u2 := domain.OrderedPair(a, b)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, u1.String()+":"+u2.String()); err != nil {
		return fmt.Errorf("failed to lock user pair: %w", err)
	}
	return nil
}

func userExists(ctx context.Context, q querier, id uuid.UUID) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return nil
}

func balanceColumn(t domain.LikeType) string {
	if t == domain.LikeSuper {
		return "super_likes_balance"
	}
	return "likes_balance"
}

// debit subtracts n from a balance column only when it is covered.
func debit(ctx context.Context, q querier, userID uuid.UUID, column string, n int) (int, error) {
	var balance int
	err := q.QueryRow(ctx, `
		UPDATE users SET `+column+` = `+column+` - $2, updated_at = now()
		WHERE id = $1 AND `+column+` >= $2
		RETURNING `+column, userID, n).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit %s: %w", column, err)
	}
	return balance, nil
}

func (r *LedgerRepo) GiveLike(ctx context.Context, from, to uuid.UUID, t domain.LikeType) (*domain.LikeOutcome, error) {
	out := &domain.LikeOutcome{}
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := userExists(ctx, tx, to); err != nil {
			return err
		}
		if err := lockPair(ctx, tx, from, to); err != nil {
			return err
		}

		balance, err := debit(ctx, tx, from, balanceColumn(t), 1)
		if err != nil {
			return err
		}
		out.SenderBalance = balance

		var reverse bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM likes WHERE from_user = $1 AND to_user = $2)`, to, from).Scan(&reverse); err != nil {
			return fmt.Errorf("failed to check reverse like: %w", err)
		}

		out.Like = domain.Like{FromUser: from, ToUser: to, Type: t, IsMutual: reverse}
		err = tx.QueryRow(ctx, `
			INSERT INTO likes (from_user, to_user, like_type, is_mutual)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`, from, to, t, reverse).Scan(&out.Like.ID, &out.Like.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert like: %w", err)
		}

		senderPoints, receiverPoints := domain.LikePoints(t)
		if reverse {
			out.Mutual = true
			senderPoints += domain.MutualLikeBonus
			receiverPoints += domain.MutualLikeBonus
			if err := markPairMutual(ctx, tx, from, to); err != nil {
				return err
			}
			match, created, err := ensureMatch(ctx, tx, from, to)
			if err != nil {
				return err
			}
			if created {
				out.Match = match
			}
		}

		if err := tx.QueryRow(ctx, `
			UPDATE users SET points_balance = points_balance + $2, updated_at = now()
			WHERE id = $1
			RETURNING points_balance`, from, senderPoints).Scan(&out.SenderPoints); err != nil {
			return fmt.Errorf("failed to award sender points: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE users SET points_balance = points_balance + $2,
				received_likes_count = received_likes_count + 1, updated_at = now()
			WHERE id = $1`, to, receiverPoints); err != nil {
			return fmt.Errorf("failed to credit receiver: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func markPairMutual(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE likes SET is_mutual = true
		WHERE NOT is_mutual
		  AND ((from_user = $1 AND to_user = $2) OR (from_user = $2 AND to_user = $1))`, a, b)
	if err != nil {
		return fmt.Errorf("failed to mark likes mutual: %w", err)
	}
	return nil
}

// ensureMatch returns the pair's match, creating it and its chat room when missing.
func ensureMatch(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (*domain.Match, bool, error) {
	u1, u2 := domain.OrderedPair(a, b)
	m := &domain.Match{User1: u1, User2: u2}

	err := tx.QueryRow(ctx, `
		INSERT INTO matches (user1, user2) VALUES ($1, $2)
		ON CONFLICT (user1, user2) DO NOTHING
		RETURNING id, created_at`, u1, u2).Scan(&m.ID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `
			SELECT m.id, m.created_at, r.id
			FROM matches m JOIN chat_rooms r ON r.match_id = m.id
			WHERE m.user1 = $1 AND m.user2 = $2`, u1, u2).Scan(&m.ID, &m.CreatedAt, &m.RoomID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load existing match: %w", err)
		}
		return m, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert match: %w", err)
	}

	if err := tx.QueryRow(ctx, `INSERT INTO chat_rooms (match_id) VALUES ($1) RETURNING id`, m.ID).Scan(&m.RoomID); err != nil {
		return nil, false, fmt.Errorf("failed to create chat room: %w", err)
	}
	return m, true, nil
}

func (r *LedgerRepo) GiveUnlike(ctx context.Context, from, to uuid.UUID) (*domain.Unlike, int, error) {
	u := &domain.Unlike{FromUser: from, ToUser: to}
	var balance int
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := userExists(ctx, tx, to); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO unlikes (from_user, to_user) VALUES ($1, $2)
			ON CONFLICT (from_user, to_user) DO NOTHING
			RETURNING id, created_at`, from, to).Scan(&u.ID, &u.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAlreadyUnliked
		}
		if err != nil {
			return fmt.Errorf("failed to insert unlike: %w", err)
		}

		balance, err = debit(ctx, tx, from, "unlikes_balance", 1)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return u, balance, nil
}

func (r *LedgerRepo) CreateMatch(ctx context.Context, a, b uuid.UUID) (*domain.Match, error) {
	var match *domain.Match
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockPair(ctx, tx, a, b); err != nil {
			return err
		}

		for _, pair := range [][2]uuid.UUID{{a, b}, {b, a}} {
			_, err := tx.Exec(ctx, `
				INSERT INTO likes (from_user, to_user, like_type, is_mutual)
				SELECT $1::uuid, $2::uuid, 'regular', true
				WHERE NOT EXISTS (SELECT 1 FROM likes WHERE from_user = $1 AND to_user = $2)`, pair[0], pair[1])
			if isForeignKeyViolation(err) {
				return domain.ErrUserNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to insert match like: %w", err)
			}
		}
		if err := markPairMutual(ctx, tx, a, b); err != nil {
			return err
		}

		var err error
		match, _, err = ensureMatch(ctx, tx, a, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *LedgerRepo) ListGiven(ctx context.Context, from uuid.UUID) ([]domain.GivenLike, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.from_user, l.to_user, l.like_type, l.is_mutual, l.created_at,
			u.id, u.username, u.first_name, COALESCE(p.picture_url, '')
		FROM likes l
		JOIN users u ON u.id = l.to_user
		LEFT JOIN profiles p ON p.user_id = l.to_user
		WHERE l.from_user = $1
		ORDER BY l.created_at DESC`, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list given likes: %w", err)
	}
	defer rows.Close()

	var out []domain.GivenLike
	for rows.Next() {
		var g domain.GivenLike
		if err := rows.Scan(
			&g.ID, &g.FromUser, &g.ToUser, &g.Type, &g.IsMutual, &g.CreatedAt,
			&g.Target.ID, &g.Target.Username, &g.Target.FirstName, &g.Target.PictureURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan given like: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *LedgerRepo) ListMatches(ctx context.Context, user uuid.UUID) ([]domain.MatchView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.user1, m.user2, r.id, m.created_at,
			u.id, u.username, u.first_name, COALESCE(p.picture_url, '')
		FROM matches m
		JOIN chat_rooms r ON r.match_id = m.id
		JOIN users u ON u.id = CASE WHEN m.user1 = $1 THEN m.user2 ELSE m.user1 END
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE m.user1 = $1 OR m.user2 = $1
		ORDER BY m.created_at DESC`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var out []domain.MatchView
	for rows.Next() {
		var v domain.MatchView
		if err := rows.Scan(
			&v.ID, &v.User1, &v.User2, &v.RoomID, &v.CreatedAt,
			&v.Other.ID, &v.Other.Username, &v.Other.FirstName, &v.Other.PictureURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
