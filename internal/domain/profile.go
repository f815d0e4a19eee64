package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type StudyField string

const (
	StudyComputerScience StudyField = "computer_science"
	StudyBusiness        StudyField = "business"
	StudyEngineering     StudyField = "engineering"
	StudyMedicine        StudyField = "medicine"
	StudyLaw             StudyField = "law"
	StudyArts            StudyField = "arts"
	StudyPsychology      StudyField = "psychology"
	StudyOther           StudyField = "other"
)

func (f StudyField) Valid() bool {
	switch f {
	case StudyComputerScience, StudyBusiness, StudyEngineering, StudyMedicine,
		StudyLaw, StudyArts, StudyPsychology, StudyOther:
		return true
	}
	return false
}

const (
	MinStudyYear   = 1
	MaxStudyYear   = 6 // graduate
	MaxBioLength   = 500
	MaxInterests   = 20
	MaxInterestLen = 40
)

type Profile struct {
	UserID     uuid.UUID
	Bio        string
	BirthDate  *time.Time
	StudyField StudyField
	StudyYear  *int
	Interests  []string
	PictureURL string
	Location   string
	City       string
	School     string
	Latitude   *float64
	Longitude  *float64
	IsComplete bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Complete reports whether the onboarding fields are all filled in.
func (p *Profile) Complete() bool {
	return p.Bio != "" &&
		p.StudyField != "" &&
		p.StudyYear != nil &&
		len(p.Interests) > 0 &&
		p.PictureURL != ""
}

func (p *Profile) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Age in whole years at now, or nil without a birth date.
func (p *Profile) Age(now time.Time) *int {
	if p.BirthDate == nil {
		return nil
	}
	age := AgeAt(*p.BirthDate, now)
	return &age
}

func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// ProfileUpdate carries the result of a save.
type ProfileUpdate struct {
	Profile        *Profile
	BecameComplete bool
}

type ProfileRepository interface {
	// GetOrCreate returns the user's profile, creating an empty one if needed.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Get(ctx context.Context, userID uuid.UUID) (*Profile, error)
	// Save stores p and recomputes is_complete. BecameComplete is true only on
	// the false to true transition.
	Save(ctx context.Context, p *Profile) (*ProfileUpdate, error)
}
