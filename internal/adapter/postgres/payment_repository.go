package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const packageColumns = `id, kind, name, description, price_minor, currency,
	regular_likes, super_likes, boosters, unlikes, active, created_at`

const purchaseColumns = `id, buyer_id, recipient_id, package_id, kind, amount_minor, currency, provider,
	reference, provider_session_id, status, failure_reason, created_at, completed_at`

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func scanPackage(row pgx.Row) (*domain.Package, error) {
	var p domain.Package
	err := row.Scan(&p.ID, &p.Kind, &p.Name, &p.Description, &p.PriceMinor, &p.Currency,
		&p.RegularLikes, &p.SuperLikes, &p.Boosters, &p.Unlikes, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var p domain.Purchase
	err := row.Scan(&p.ID, &p.BuyerID, &p.RecipientID, &p.PackageID, &p.Kind, &p.AmountMinor, &p.Currency, &p.Provider,
		&p.Reference, &p.ProviderSessionID, &p.Status, &p.FailureReason, &p.CreatedAt, &p.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPurchases(rows pgx.Rows) ([]domain.Purchase, error) {
	defer rows.Close()
	var out []domain.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PaymentRepo) ListPackages(ctx context.Context, kind domain.PackageKind) ([]domain.Package, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+packageColumns+` FROM packages
		WHERE kind = $1 AND active
		ORDER BY price_minor, name`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var out []domain.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PaymentRepo) GetPackage(ctx context.Context, id uuid.UUID) (*domain.Package, error) {
	p, err := scanPackage(r.pool.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return p, nil
}

// UpsertPackage inserts or updates the package keyed by (kind, name).
func (r *PaymentRepo) UpsertPackage(ctx context.Context, pkg domain.Package) (*domain.Package, error) {
	p, err := scanPackage(r.pool.QueryRow(ctx, `
		INSERT INTO packages (kind, name, description, price_minor, currency, regular_likes, super_likes, boosters, unlikes, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (kind, name) DO UPDATE SET
			description = EXCLUDED.description,
			price_minor = EXCLUDED.price_minor,
			currency = EXCLUDED.currency,
			regular_likes = EXCLUDED.regular_likes,
			super_likes = EXCLUDED.super_likes,
			boosters = EXCLUDED.boosters,
			unlikes = EXCLUDED.unlikes,
			active = EXCLUDED.active
		RETURNING `+packageColumns,
		pkg.Kind, pkg.Name, pkg.Description, pkg.PriceMinor, pkg.Currency,
		pkg.RegularLikes, pkg.SuperLikes, pkg.Boosters, pkg.Unlikes, pkg.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert package: %w", err)
	}
	return p, nil
}

func (r *PaymentRepo) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO purchases (id, buyer_id, recipient_id, package_id, kind, amount_minor, currency, provider, reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
		RETURNING status, created_at`,
		p.ID, p.BuyerID, p.RecipientID, p.PackageID, p.Kind, p.AmountMinor, p.Currency, p.Provider, p.Reference,
	).Scan(&p.Status, &p.CreatedAt)
	if isForeignKeyViolation(err) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

func (r *PaymentRepo) SetProviderSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE purchases SET provider_session_id = $2 WHERE id = $1`, id, sessionID)
	if err != nil {
		return fmt.Errorf("failed to store provider session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPurchaseNotFound
	}
	return nil
}

func (r *PaymentRepo) GetPurchaseByReference(ctx context.Context, reference string) (*domain.Purchase, error) {
	return r.getPurchase(ctx, r.pool, `reference = $1`, reference)
}

func (r *PaymentRepo) GetPurchaseBySession(ctx context.Context, provider domain.Provider, sessionID string) (*domain.Purchase, error) {
	if sessionID == "" {
		return nil, domain.ErrPurchaseNotFound
	}
	return r.getPurchase(ctx, r.pool, `provider = $1 AND provider_session_id = $2`, provider, sessionID)
}

func (r *PaymentRepo) getPurchase(ctx context.Context, q querier, where string, args ...any) (*domain.Purchase, error) {
	p, err := scanPurchase(q.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE `+where, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return p, nil
}

func (r *PaymentRepo) ListPurchasesByBuyer(ctx context.Context, buyer uuid.UUID) ([]domain.Purchase, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE buyer_id = $1 ORDER BY created_at DESC`, buyer)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return collectPurchases(rows)
}

func (r *PaymentRepo) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Purchase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+purchaseColumns+` FROM purchases
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale purchases: %w", err)
	}
	return collectPurchases(rows)
}

func (r *PaymentRepo) CompletePurchase(ctx context.Context, reference string) (*domain.CompletionResult, error) {
	result := &domain.CompletionResult{}
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanPurchase(tx.QueryRow(ctx, `
			UPDATE purchases SET status = 'completed', completed_at = now(), failure_reason = ''
			WHERE reference = $1 AND status = 'pending'
			RETURNING `+purchaseColumns, reference))
		if errors.Is(err, pgx.ErrNoRows) {
			existing, err := r.getPurchase(ctx, tx, `reference = $1`, reference)
			if err != nil {
				return err
			}
			result.Purchase = existing
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to complete purchase: %w", err)
		}

		pkg, err := scanPackage(tx.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, p.PackageID))
		if err != nil {
			return fmt.Errorf("failed to load purchased package: %w", err)
		}

		credits := p.Credits(*pkg)
		for _, c := range credits {
			if _, err := tx.Exec(ctx, `
				UPDATE users SET
					likes_balance = likes_balance + $2,
					super_likes_balance = super_likes_balance + $3,
					boosters_balance = boosters_balance + $4,
					unlikes_balance = unlikes_balance + $5,
					updated_at = now()
				WHERE id = $1`, c.UserID, c.Likes, c.SuperLikes, c.Boosters, c.Unlikes); err != nil {
				return fmt.Errorf("failed to credit user: %w", err)
			}
		}

		result.Purchase = p
		result.Credits = credits
		result.Credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PaymentRepo) FailPurchase(ctx context.Context, reference, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchases SET status = 'failed', failure_reason = $2
		WHERE reference = $1 AND status = 'pending'`, reference, reason)
	if err != nil {
		return false, fmt.Errorf("failed to fail purchase: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.GetPurchaseByReference(ctx, reference); err != nil {
		return false, err
	}
	return false, nil
}

func (r *PaymentRepo) RecordEvent(ctx context.Context, provider domain.Provider, eventID, reference, eventType string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO payment_events (provider, event_id, reference, event_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, event_id) DO NOTHING`, provider, eventID, reference, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record payment event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PaymentRepo) ForgetEvent(ctx context.Context, provider domain.Provider, eventID string) error {
	if _, err := r.pool.Exec(ctx, `
		DELETE FROM payment_events WHERE provider = $1 AND event_id = $2`, provider, eventID); err != nil {
		return fmt.Errorf("failed to forget payment event: %w", err)
	}
	return nil
}
