package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type DiscoveryRepo struct {
	pool *pgxpool.Pool
}

func NewDiscoveryRepo(pool *pgxpool.Pool) *DiscoveryRepo {
	return &DiscoveryRepo{pool: pool}
}

// queryBuilder appends positional arguments while building a WHERE clause.
type queryBuilder struct {
	where []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) and(cond string) {
	b.where = append(b.where, cond)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (r *DiscoveryRepo) Candidates(ctx context.Context, q domain.DiscoveryQuery) ([]domain.DiscoveryCandidate, error) {
	b := &queryBuilder{}
	viewer := b.arg(q.ViewerID)
	seed := b.arg(q.Seed)

	b.and("p.is_complete")
	b.and("p.user_id <> " + viewer)

	f := q.Filter
	if f.StudyField != "" {
		b.and("p.study_field = " + b.arg(f.StudyField))
	}
	if f.StudyYear != nil {
		b.and("p.study_year = " + b.arg(*f.StudyYear))
	}
	if q.BornAfter != nil {
		b.and("p.birth_date > " + b.arg(*q.BornAfter))
	}
	if q.BornBefore != nil {
		b.and("p.birth_date <= " + b.arg(*q.BornBefore))
	}
	if f.City != "" {
		b.and("lower(p.city) = lower(" + b.arg(f.City) + ")")
	}
	if f.School != "" {
		b.and("lower(p.school) = lower(" + b.arg(f.School) + ")")
	}
	if f.Interest != "" {
		b.and("EXISTS (SELECT 1 FROM unnest(p.interests) AS i WHERE i ILIKE '%' || " + b.arg(escapeLike(f.Interest)) + " || '%')")
	}
	if box := q.Box; box != nil {
		b.and("p.latitude IS NOT NULL AND p.longitude IS NOT NULL")
		b.and("p.latitude BETWEEN " + b.arg(box.MinLat) + " AND " + b.arg(box.MaxLat))
		if !box.LonUnbounded {
			b.and("p.longitude BETWEEN " + b.arg(box.MinLon) + " AND " + b.arg(box.MaxLon))
		}
	}

	sql := `
		SELECT ` + qualify(profileColumns, "p") + `,
			u.username, u.first_name, u.is_student,
			(SELECT count(*) FROM likes l WHERE l.from_user = ` + viewer + ` AND l.to_user = p.user_id),
			EXISTS (
				SELECT 1 FROM matches m
				WHERE (m.user1 = ` + viewer + ` AND m.user2 = p.user_id)
				   OR (m.user2 = ` + viewer + ` AND m.user1 = p.user_id)
			)
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE ` + strings.Join(b.where, " AND ") + `
		ORDER BY md5(p.user_id::text || ` + seed + `)`
	if q.Limit > 0 {
		sql += " LIMIT " + b.arg(q.Limit) + " OFFSET " + b.arg(q.Offset)
	}

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovery candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.DiscoveryCandidate
	for rows.Next() {
		var c domain.DiscoveryCandidate
		dest := append(profileDest(&c.Profile), &c.Username, &c.FirstName, &c.IsStudent, &c.LikesGiven, &c.IsMatched)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan discovery candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discovery candidates: %w", err)
	}
	return out, nil
}
