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

const profileColumns = `user_id, bio, birth_date, study_field, study_year, interests, picture_url,
	location, city, school, latitude, longitude, is_complete, created_at, updated_at`

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// profileDest returns the Scan targets for profileColumns.
func profileDest(p *domain.Profile) []any {
	return []any{
		&p.UserID, &p.Bio, &p.BirthDate, &p.StudyField, &p.StudyYear, &p.Interests, &p.PictureURL,
		&p.Location, &p.City, &p.School, &p.Latitude, &p.Longitude, &p.IsComplete, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(profileDest(&p)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if isForeignKeyViolation(err) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}
	return r.Get(ctx, userID)
}

func (r *ProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepo) Save(ctx context.Context, p *domain.Profile) (*domain.ProfileUpdate, error) {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}

	var result domain.ProfileUpdate
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, p.UserID); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("failed to ensure profile: %w", err)
		}

		var wasComplete bool
		if err := tx.QueryRow(ctx, `SELECT is_complete FROM profiles WHERE user_id = $1 FOR UPDATE`, p.UserID).Scan(&wasComplete); err != nil {
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		saved, err := scanProfile(tx.QueryRow(ctx, `
			UPDATE profiles SET
				bio = $2, birth_date = $3, study_field = $4, study_year = $5, interests = $6,
				picture_url = $7, location = $8, city = $9, school = $10,
				latitude = $11, longitude = $12, is_complete = $13, updated_at = now()
			WHERE user_id = $1
			RETURNING `+profileColumns,
			p.UserID, p.Bio, p.BirthDate, p.StudyField, p.StudyYear, interests,
			p.PictureURL, p.Location, p.City, p.School,
			p.Latitude, p.Longitude, p.Complete(),
		))
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		result.Profile = saved
		result.BecameComplete = !wasComplete && saved.IsComplete
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
