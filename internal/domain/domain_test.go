package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKm(t *testing.T) {
	// Accra to Kumasi is roughly 200 km.
	d := HaversineKm(5.6037, -0.1870, 6.6885, -1.6244)
	assert.InDelta(t, 200, d, 5)

	assert.InDelta(t, 0, HaversineKm(10, 10, 10, 10), 1e-9)

	// Antipodal points are half the circumference apart.
	assert.InDelta(t, 20015.1, HaversineKm(0, 0, 0, 180), 1)
}

func TestBoundingBoxAround(t *testing.T) {
	box := BoundingBoxAround(5.6, -0.19, 50)
	assert.False(t, box.LonUnbounded)
	assert.Less(t, box.MinLat, 5.6)
	assert.Greater(t, box.MaxLat, 5.6)
	assert.Less(t, box.MinLon, -0.19)
	assert.Greater(t, box.MaxLon, -0.19)

	// A point 49 km north must fall inside the box.
	northLat := 5.6 + 49/EarthRadiusKm*180/3.141592653589793
	assert.GreaterOrEqual(t, box.MaxLat, northLat)

	t.Run("antimeridian", func(t *testing.T) {
		assert.True(t, BoundingBoxAround(0, 179.9, 100).LonUnbounded)
	})

	t.Run("pole", func(t *testing.T) {
		assert.True(t, BoundingBoxAround(89.9, 0, 100).LonUnbounded)
	})
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(2003, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 21, AgeAt(birth, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 22, AgeAt(birth, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 22, AgeAt(birth, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestProfileComplete(t *testing.T) {
	year := 2
	p := &Profile{
		Bio:        "hi",
		StudyField: StudyLaw,
		StudyYear:  &year,
		Interests:  []string{"chess"},
		PictureURL: "https://cdn.example.com/p.jpg",
	}
	assert.True(t, p.Complete())

	p.Interests = nil
	assert.False(t, p.Complete())
}

func TestIsStudentEmail(t *testing.T) {
	assert.True(t, IsStudentEmail("ama@st.ug.edu.gh"))
	assert.True(t, IsStudentEmail("kofi@cs.ac.uk"))
	assert.True(t, IsStudentEmail("jo@student.tudelft.nl"))
	assert.True(t, IsStudentEmail("x@mail.uni-hamburg.de"))
	assert.False(t, IsStudentEmail("someone@gmail.com"))
}

func TestReferralCode(t *testing.T) {
	code, err := NewReferralCode()
	require.NoError(t, err)
	assert.True(t, ValidReferralCode(code), code)

	assert.False(t, ValidReferralCode("abc12345"))
	assert.False(t, ValidReferralCode("ABC1234"))
	assert.False(t, ValidReferralCode("ABC1234!"))
}

func TestOrderedPair(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	x, y := OrderedPair(b, a)
	assert.Equal(t, a, x)
	assert.Equal(t, b, y)

	x, y = OrderedPair(a, b)
	assert.Equal(t, a, x)
	assert.Equal(t, b, y)
}

func TestLikePoints(t *testing.T) {
	s, r := LikePoints(LikeRegular)
	assert.Equal(t, 5, s)
	assert.Equal(t, 10, r)

	s, r = LikePoints(LikeSuper)
	assert.Equal(t, 10, s)
	assert.Equal(t, 20, r)
}

func TestPurchaseCredits(t *testing.T) {
	buyer := uuid.New()
	friend := uuid.New()
	likePkg := Package{Kind: PackageLike, RegularLikes: 50, SuperLikes: 5, Boosters: 1}
	dislikePkg := Package{Kind: PackageDislike, Unlikes: 10}

	t.Run("self purchase", func(t *testing.T) {
		p := &Purchase{BuyerID: buyer}
		credits := p.Credits(likePkg)
		require.Len(t, credits, 1)
		assert.Equal(t, Credit{UserID: buyer, Likes: 50, SuperLikes: 5, Boosters: 1}, credits[0])
	})

	t.Run("gift to self is not a gift", func(t *testing.T) {
		p := &Purchase{BuyerID: buyer, RecipientID: &buyer}
		assert.False(t, p.IsGift())
		assert.Len(t, p.Credits(likePkg), 1)
	})

	t.Run("gifted like package", func(t *testing.T) {
		p := &Purchase{BuyerID: buyer, RecipientID: &friend}
		credits := p.Credits(likePkg)
		require.Len(t, credits, 2)
		assert.Equal(t, Credit{UserID: friend, Likes: 50}, credits[0])
		assert.Equal(t, Credit{UserID: buyer, SuperLikes: 5, Boosters: 1}, credits[1])
	})

	t.Run("gifted dislike package", func(t *testing.T) {
		p := &Purchase{BuyerID: buyer, RecipientID: &friend}
		credits := p.Credits(dislikePkg)
		require.Len(t, credits, 1)
		assert.Equal(t, Credit{UserID: friend, Unlikes: 10}, credits[0])
	})
}

func TestPurchaseReference(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "like_6ba7b8109dad11d180b400c04fd430c8", PurchaseReference(PackageLike, id))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 100.0, Percentage(4, 4))
	assert.Equal(t, 50.0, DailyQuiz{CorrectResponses: 1, TotalResponses: 2}.Accuracy())
}

func TestClaimTransitions(t *testing.T) {
	assert.True(t, ClaimPending.CanTransitionTo(ClaimApproved))
	assert.True(t, ClaimPending.CanTransitionTo(ClaimCancelled))
	assert.True(t, ClaimApproved.CanTransitionTo(ClaimShipped))
	assert.True(t, ClaimShipped.CanTransitionTo(ClaimDelivered))

	assert.False(t, ClaimPending.CanTransitionTo(ClaimDelivered))
	assert.False(t, ClaimShipped.CanTransitionTo(ClaimCancelled))
	assert.False(t, ClaimDelivered.CanTransitionTo(ClaimCancelled))
	assert.False(t, ClaimCancelled.CanTransitionTo(ClaimPending))
}

func TestPrizeVisibleAt(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	assert.True(t, PrizeAnnouncement{Active: true}.VisibleAt(now))
	assert.False(t, PrizeAnnouncement{Active: false}.VisibleAt(now))
	assert.True(t, PrizeAnnouncement{Active: true, StartsAt: &before, EndsAt: &after}.VisibleAt(now))
	assert.False(t, PrizeAnnouncement{Active: true, StartsAt: &after}.VisibleAt(now))
	assert.False(t, PrizeAnnouncement{Active: true, EndsAt: &before}.VisibleAt(now))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Just now", TimeAgo(now, now.Add(-30*time.Second)))
	assert.Equal(t, "5m ago", TimeAgo(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "3h ago", TimeAgo(now, now.Add(-3*time.Hour)))
	assert.Equal(t, "2d ago", TimeAgo(now, now.Add(-50*time.Hour)))
}

func TestValidHexColor(t *testing.T) {
	assert.True(t, ValidHexColor("#007bff"))
	assert.True(t, ValidHexColor("#FFFFFF"))
	assert.False(t, ValidHexColor("007bff"))
	assert.False(t, ValidHexColor("#fff"))
	assert.False(t, ValidHexColor("#gggggg"))
}

func TestBuildCommentTree(t *testing.T) {
	root1, root2, reply, nested := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	flat := []Comment{
		{ID: root1, Content: "first"},
		{ID: reply, ParentID: &root1, Content: "reply"},
		{ID: root2, Content: "second"},
		{ID: nested, ParentID: &reply, Content: "nested"},
	}

	tree := BuildCommentTree(flat)
	require.Len(t, tree, 2)
	assert.Equal(t, "first", tree[0].Content)
	assert.Equal(t, "second", tree[1].Content)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "reply", tree[0].Replies[0].Content)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, "nested", tree[0].Replies[0].Replies[0].Content)
}

func TestValidationError(t *testing.T) {
	err := Invalid("username", "must be %d to %d characters", 3, 30)
	assert.Equal(t, "username: must be 3 to 30 characters", err.Error())

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "username", ve.Field)
}

func TestChatRoomOther(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	room := ChatRoom{User1: a, User2: b}
	assert.Equal(t, b, room.Other(a))
	assert.Equal(t, a, room.Other(b))
}
