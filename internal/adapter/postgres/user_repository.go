package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

// userColumns must match the Scan order in scanUser.
const userColumns = `id, email, username, first_name, password_hash,
	is_student, is_verified, is_admin,
	likes_balance, super_likes_balance, boosters_balance, unlikes_balance, points_balance, received_likes_count,
	referral_code, referred_by, referral_points_earned, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.PasswordHash,
		&u.IsStudent, &u.IsVerified, &u.IsAdmin,
		&u.LikesBalance, &u.SuperLikesBalance, &u.BoostersBalance, &u.UnlikesBalance, &u.PointsBalance, &u.ReceivedLikesCount,
		&u.ReferralCode, &u.ReferredBy, &u.ReferralPointsEarned, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	var user *domain.User
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		user, err = scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (email, username, first_name, password_hash, is_student, is_admin, referral_code, referred_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+userColumns,
			strings.ToLower(nu.Email), nu.Username, nu.FirstName, nu.PasswordHash,
			nu.IsStudent, nu.IsAdmin, nu.ReferralCode, nu.ReferredBy,
		))
		if err != nil {
			return mapUserInsertError(err)
		}

		if _, err := tx.Exec(ctx, `INSERT INTO profiles (user_id) VALUES ($1)`, user.ID); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		if nu.ReferredBy != nil {
			_, err := tx.Exec(ctx, `INSERT INTO referrals (referrer_id, referred_id) VALUES ($1, $2)`, *nu.ReferredBy, user.ID)
			if isForeignKeyViolation(err) {
				return domain.ErrInvalidReferralCode
			}
			if err != nil {
				return fmt.Errorf("failed to create referral: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func mapUserInsertError(err error) error {
	switch {
	case isUniqueViolation(err, "users_email_key"):
		return domain.ErrEmailTaken
	case isUniqueViolation(err, "users_username_key"):
		return domain.ErrUsernameTaken
	case isUniqueViolation(err, "users_referral_code_key"):
		return domain.ErrReferralCodeTaken
	case isForeignKeyViolation(err):
		return domain.ErrInvalidReferralCode
	}
	return fmt.Errorf("failed to insert user: %w", err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, strings.ToUpper(code)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}
	return user, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
