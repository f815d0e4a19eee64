package app

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

// ProfileInput is a full replacement of the editable profile fields.
// Interests is the raw comma separated list.
type ProfileInput struct {
	Bio        string
	BirthDate  *time.Time
	StudyField domain.StudyField
	StudyYear  *int
	Interests  string
	PictureURL string
	Location   string
	City       string
	School     string
	Latitude   *float64
	Longitude  *float64
}

type ProfileView struct {
	Profile  *domain.Profile
	Username string
	Age      *int
}

type referralCompleter interface {
	CompleteReferral(ctx context.Context, referredID uuid.UUID) error
}

type ProfileService struct {
	profiles  domain.ProfileRepository
	users     domain.UserRepository
	referrals referralCompleter
	clock     clockwork.Clock
}

func NewProfileService(profiles domain.ProfileRepository, users domain.UserRepository, referrals referralCompleter, clock clockwork.Clock) *ProfileService {
	return &ProfileService{profiles: profiles, users: users, referrals: referrals, clock: clock}
}

// ParseInterests splits a comma separated list, dropping blanks.
func ParseInterests(raw string) ([]string, error) {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if utf8.RuneCountInString(item) > domain.MaxInterestLen {
			return nil, domain.Invalid("interests", "each interest must be at most %d characters", domain.MaxInterestLen)
		}
		out = append(out, item)
	}
	if len(out) > domain.MaxInterests {
		return nil, domain.Invalid("interests", "at most %d interests", domain.MaxInterests)
	}
	return out, nil
}

func (s *ProfileService) validate(in ProfileInput) ([]string, error) {
	if utf8.RuneCountInString(in.Bio) > domain.MaxBioLength {
		return nil, domain.Invalid("bio", "must be at most %d characters", domain.MaxBioLength)
	}
	if in.BirthDate != nil && in.BirthDate.After(s.clock.Now()) {
		return nil, domain.Invalid("birth_date", "cannot be in the future")
	}
	if in.StudyField != "" && !in.StudyField.Valid() {
		return nil, domain.Invalid("study_field", "unknown study field %q", in.StudyField)
	}
	if in.StudyYear != nil && (*in.StudyYear < domain.MinStudyYear || *in.StudyYear > domain.MaxStudyYear) {
		return nil, domain.Invalid("study_year", "must be between %d and %d", domain.MinStudyYear, domain.MaxStudyYear)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, domain.Invalid("latitude", "latitude and longitude must be set together")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return nil, domain.Invalid("latitude", "must be between -90 and 90")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return nil, domain.Invalid("longitude", "must be between -180 and 180")
	}
	return ParseInterests(in.Interests)
}

func (s *ProfileService) view(p *domain.Profile, username string) *ProfileView {
	return &ProfileView{Profile: p, Username: username, Age: p.Age(s.clock.Now())}
}

func (s *ProfileService) GetMyProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(p, user.Username), nil
}

// GetProfile is another user's public profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(p, user.Username), nil
}

// UpdateProfile saves in. The first time the profile becomes complete, the
// user's pending referral pays out.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*ProfileView, error) {
	interests, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.Bio = strings.TrimSpace(in.Bio)
	p.BirthDate = in.BirthDate
	p.StudyField = in.StudyField
	p.StudyYear = in.StudyYear
	p.Interests = interests
	p.PictureURL = strings.TrimSpace(in.PictureURL)
	p.Location = strings.TrimSpace(in.Location)
	p.City = strings.TrimSpace(in.City)
	p.School = strings.TrimSpace(in.School)
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude

	saved, err := s.profiles.Save(ctx, p)
	if err != nil {
		return nil, err
	}

	if saved.BecameComplete && s.referrals != nil {
		if err := s.referrals.CompleteReferral(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "Failed to complete referral", "user_id", userID, "error", err)
		}
	}
	return s.view(saved.Profile, user.Username), nil
}
