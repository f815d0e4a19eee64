package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/crypto"
)

const rewardColumns = `id, name, description, points_cost, reward_type, image_url, stock, active, likes_required, created_at`

const claimColumns = `c.id, c.user_id, c.reward_id, w.name, c.points_spent, c.status, c.delivery_address, c.claimed_at, c.updated_at`

// RewardRepo stores rewards and claims. Delivery addresses are sealed with
// cipher, bound to the claiming user.
type RewardRepo struct {
	pool   *pgxpool.Pool
	cipher crypto.Cipher
}

func NewRewardRepo(pool *pgxpool.Pool, cipher crypto.Cipher) *RewardRepo {
	if cipher == nil {
		cipher = crypto.Noop{}
	}
	return &RewardRepo{pool: pool, cipher: cipher}
}

func scanReward(row pgx.Row) (*domain.Reward, error) {
	var w domain.Reward
	err := row.Scan(&w.ID, &w.Name, &w.Description, &w.PointsCost, &w.Type, &w.ImageURL, &w.Stock, &w.Active, &w.LikesRequired, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *RewardRepo) scanClaim(row pgx.Row) (*domain.RewardClaim, error) {
	var c domain.RewardClaim
	err := row.Scan(&c.ID, &c.UserID, &c.RewardID, &c.RewardName, &c.PointsSpent, &c.Status, &c.DeliveryAddress, &c.ClaimedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.DeliveryAddress != "" {
		plain, err := r.cipher.Open(c.DeliveryAddress, c.UserID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt delivery address: %w", err)
		}
		c.DeliveryAddress = plain
	}
	return &c, nil
}

func (r *RewardRepo) ListAvailable(ctx context.Context) ([]domain.Reward, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rewardColumns+` FROM rewards
		WHERE active AND stock > 0
		ORDER BY points_cost, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var out []domain.Reward
	for rows.Next() {
		w, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (r *RewardRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Reward, error) {
	w, err := scanReward(r.pool.QueryRow(ctx, `SELECT `+rewardColumns+` FROM rewards WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return w, nil
}

func (r *RewardRepo) Claim(ctx context.Context, userID uuid.UUID, reward domain.Reward, deliveryAddress string) (*domain.RewardClaim, error) {
	sealed := ""
	if deliveryAddress != "" {
		var err error
		if sealed, err = r.cipher.Seal(deliveryAddress, userID.String()); err != nil {
			return nil, fmt.Errorf("failed to encrypt delivery address: %w", err)
		}
	}

	claim := &domain.RewardClaim{
		UserID:          userID,
		RewardID:        reward.ID,
		RewardName:      reward.Name,
		PointsSpent:     reward.PointsCost,
		Status:          domain.ClaimPending,
		DeliveryAddress: deliveryAddress,
	}
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE rewards SET stock = stock - 1
			WHERE id = $1 AND active AND stock > 0`, reward.ID)
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrOutOfStock
		}

		if _, err := debit(ctx, tx, userID, "points_balance", reward.PointsCost); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO reward_claims (user_id, reward_id, points_spent, delivery_address)
			VALUES ($1, $2, $3, $4)
			RETURNING id, claimed_at, updated_at`, userID, reward.ID, reward.PointsCost, sealed,
		).Scan(&claim.ID, &claim.ClaimedAt, &claim.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *RewardRepo) ListClaims(ctx context.Context, userID uuid.UUID) ([]domain.RewardClaim, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+claimColumns+`
		FROM reward_claims c JOIN rewards w ON w.id = c.reward_id
		WHERE c.user_id = $1
		ORDER BY c.claimed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var out []domain.RewardClaim
	for rows.Next() {
		c, err := r.scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *RewardRepo) GetClaim(ctx context.Context, id uuid.UUID) (*domain.RewardClaim, error) {
	c, err := r.scanClaim(r.pool.QueryRow(ctx, `
		SELECT `+claimColumns+`
		FROM reward_claims c JOIN rewards w ON w.id = c.reward_id
		WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

func (r *RewardRepo) TransitionClaim(ctx context.Context, id uuid.UUID, from, to domain.ClaimStatus) (*domain.RewardClaim, error) {
	var claim *domain.RewardClaim
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			userID, rewardID uuid.UUID
			points           int
		)
		err := tx.QueryRow(ctx, `
			UPDATE reward_claims SET status = $3, updated_at = now()
			WHERE id = $1 AND status = $2
			RETURNING user_id, reward_id, points_spent`, id, from, to,
		).Scan(&userID, &rewardID, &points)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reward_claims WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check claim: %w", err)
			}
			if !exists {
				return domain.ErrClaimNotFound
			}
			return domain.ErrInvalidTransition
		}
		if err != nil {
			return fmt.Errorf("failed to update claim status: %w", err)
		}

		if to == domain.ClaimCancelled {
			if _, err := tx.Exec(ctx, `UPDATE users SET points_balance = points_balance + $2, updated_at = now() WHERE id = $1`, userID, points); err != nil {
				return fmt.Errorf("failed to refund points: %w", err)
			}
			if _, err := tx.Exec(ctx, `UPDATE rewards SET stock = stock + 1 WHERE id = $1`, rewardID); err != nil {
				return fmt.Errorf("failed to restock reward: %w", err)
			}
		}

		claim, err = r.scanClaim(tx.QueryRow(ctx, `
			SELECT `+claimColumns+`
			FROM reward_claims c JOIN rewards w ON w.id = c.reward_id
			WHERE c.id = $1`, id))
		if err != nil {
			return fmt.Errorf("failed to reload claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *RewardRepo) ListPrizes(ctx context.Context) ([]domain.PrizeAnnouncement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, prize_value, position, icon, background_color, active, display_order, starts_at, ends_at
		FROM prize_announcements
		WHERE active
		ORDER BY display_order, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	defer rows.Close()

	var out []domain.PrizeAnnouncement
	for rows.Next() {
		var p domain.PrizeAnnouncement
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.PrizeValue, &p.Position, &p.Icon,
			&p.BackgroundColor, &p.Active, &p.DisplayOrder, &p.StartsAt, &p.EndsAt); err != nil {
			return nil, fmt.Errorf("failed to scan prize: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
