package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type DiscoveryPage struct {
	Results  []domain.DiscoveryResult
	Page     int
	PageSize int
	HasMore  bool
	Seed     string
}

type DiscoveryService struct {
	repo     domain.DiscoveryRepository
	profiles domain.ProfileRepository
	clock    clockwork.Clock
	pageSize int
}

func NewDiscoveryService(repo domain.DiscoveryRepository, profiles domain.ProfileRepository, clock clockwork.Clock, pageSize int) *DiscoveryService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &DiscoveryService{repo: repo, profiles: profiles, clock: clock, pageSize: pageSize}
}

func validateFilter(f domain.DiscoveryFilter) error {
	if f.StudyField != "" && !f.StudyField.Valid() {
		return domain.Invalid("study_field", "unknown study field %q", f.StudyField)
	}
	if f.StudyYear != nil && (*f.StudyYear < domain.MinStudyYear || *f.StudyYear > domain.MaxStudyYear) {
		return domain.Invalid("study_year", "must be between %d and %d", domain.MinStudyYear, domain.MaxStudyYear)
	}
	for field, age := range map[string]*int{"min_age": f.MinAge, "max_age": f.MaxAge} {
		if age != nil && (*age < domain.MinDiscoverAge || *age > domain.MaxDiscoverAge) {
			return domain.Invalid(field, "must be between %d and %d", domain.MinDiscoverAge, domain.MaxDiscoverAge)
		}
	}
	if f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
		return domain.Invalid("min_age", "must not exceed max_age")
	}
	if f.MaxDistanceKm != nil && (*f.MaxDistanceKm < 1 || *f.MaxDistanceKm > domain.MaxDistanceKm) {
		return domain.Invalid("max_distance_km", "must be between 1 and %d", domain.MaxDistanceKm)
	}
	return nil
}

// Discover pages through complete profiles in a per-viewer shuffled order.
// The order is stable for a given seed; an empty seed uses the viewer and
// today's date so pages do not repeat within a day.
func (s *DiscoveryService) Discover(ctx context.Context, viewer uuid.UUID, f domain.DiscoveryFilter, page int, seed string) (*DiscoveryPage, error) {
	f.City = strings.TrimSpace(f.City)
	f.School = strings.TrimSpace(f.School)
	f.Interest = strings.TrimSpace(f.Interest)
	if err := validateFilter(f); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	page, offset := pageOffset(page, s.pageSize)
	if seed == "" {
		seed = viewer.String() + ":" + now.UTC().Format("2006-01-02")
	}

	q := domain.DiscoveryQuery{ViewerID: viewer, Filter: f, Seed: seed}
	if f.MaxAge != nil {
		bornAfter := now.AddDate(-(*f.MaxAge + 1), 0, 0)
		q.BornAfter = &bornAfter
	}
	if f.MinAge != nil {
		bornBefore := now.AddDate(-*f.MinAge, 0, 0)
		q.BornBefore = &bornBefore
	}

	var origin *domain.Profile
	if f.MaxDistanceKm != nil {
		me, err := s.profiles.Get(ctx, viewer)
		if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		if me == nil || !me.HasCoordinates() {
			return nil, domain.Invalid("max_distance_km", "set your location to filter by distance")
		}
		origin = me
		box := domain.BoundingBoxAround(*me.Latitude, *me.Longitude, *f.MaxDistanceKm)
		q.Box = &box
	} else {
		// One extra row tells whether another page exists.
		q.Limit = s.pageSize + 1
		q.Offset = offset
	}

	candidates, err := s.repo.Candidates(ctx, q)
	if err != nil {
		return nil, err
	}

	results := make([]domain.DiscoveryResult, 0, len(candidates))
	for _, c := range candidates {
		r := domain.DiscoveryResult{DiscoveryCandidate: c, Age: c.Profile.Age(now)}
		if origin != nil {
			if !c.Profile.HasCoordinates() {
				continue
			}
			km := domain.HaversineKm(*origin.Latitude, *origin.Longitude, *c.Profile.Latitude, *c.Profile.Longitude)
			if km > *f.MaxDistanceKm {
				continue
			}
			rounded := domain.RoundTenth(km)
			r.DistanceKm = &rounded
		}
		results = append(results, r)
	}

	// Distance queries are filtered in memory, so they paginate here.
	if origin != nil {
		if offset >= len(results) {
			results = results[:0]
		} else {
			results = results[offset:]
		}
	}

	out := &DiscoveryPage{Page: page, PageSize: s.pageSize, Seed: seed}
	if len(results) > s.pageSize {
		out.HasMore = true
		results = results[:s.pageSize]
	}
	out.Results = results
	return out, nil
}
