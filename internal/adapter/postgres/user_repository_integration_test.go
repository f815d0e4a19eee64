package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_CreateWithProfileAndReferral(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepo(pool)

	referrer := createTestUser(t, pool, "ama")

	user, err := repo.Create(ctx, domain.NewUser{
		Email:        "Kofi@Student.UG.edu.gh",
		Username:     "kofi",
		PasswordHash: "hash",
		ReferralCode: "KOFI2024",
		ReferredBy:   &referrer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "kofi@student.ug.edu.gh", user.Email)
	assert.Equal(t, &referrer.ID, user.ReferredBy)

	profile, err := NewProfileRepo(pool).Get(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsComplete)

	refs, err := NewReferralRepo(pool).ListByReferrer(ctx, referrer.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, domain.ReferralPending, refs[0].Status)
	assert.Equal(t, "kofi", refs[0].ReferredUsername)
}

func TestUserRepo_Create_Conflicts(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepo(pool)

	existing := createTestUser(t, pool, "esi")

	_, err := repo.Create(ctx, domain.NewUser{Email: "ESI@uni.edu", Username: "other", PasswordHash: "h", ReferralCode: "AAAAAAAA"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = repo.Create(ctx, domain.NewUser{Email: "new@uni.edu", Username: "ESI", PasswordHash: "h", ReferralCode: "BBBBBBBB"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = repo.Create(ctx, domain.NewUser{Email: "x@uni.edu", Username: "x_user", PasswordHash: "h", ReferralCode: existing.ReferralCode})
	assert.ErrorIs(t, err, domain.ErrReferralCodeTaken)
}

func TestUserRepo_Lookups(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepo(pool)
	user := createTestUser(t, pool, "yaw")

	byEmail, err := repo.GetByEmail(ctx, "YAW@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byCode, err := repo.GetByReferralCode(ctx, user.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byCode.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))
	assert.Equal(t, "new-hash", reloadUser(t, pool, user.ID).PasswordHash)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.New(), "x"), domain.ErrUserNotFound)
}

func TestProfileRepo_SaveReportsFirstCompletion(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewProfileRepo(pool)
	user := createTestUser(t, pool, "akua")

	p, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	year := 2
	p.Bio = "hi"
	p.StudyField = domain.StudyLaw
	p.StudyYear = &year
	p.Interests = []string{"music", "chess"}
	p.PictureURL = "https://img.example/akua.png"

	update, err := repo.Save(ctx, p)
	require.NoError(t, err)
	assert.True(t, update.BecameComplete)
	assert.True(t, update.Profile.IsComplete)
	assert.Equal(t, []string{"music", "chess"}, update.Profile.Interests)

	p.Bio = "hello again"
	update, err = repo.Save(ctx, p)
	require.NoError(t, err)
	assert.False(t, update.BecameComplete, "already complete")
}
