package httpserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type userResponse struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	Username             string    `json:"username"`
	FirstName            string    `json:"first_name"`
	IsStudent            bool      `json:"is_student"`
	IsVerified           bool      `json:"is_verified"`
	IsAdmin              bool      `json:"is_admin"`
	LikesBalance         int       `json:"likes_balance"`
	SuperLikesBalance    int       `json:"super_likes_balance"`
	BoostersBalance      int       `json:"boosters_balance"`
	UnlikesBalance       int       `json:"unlikes_balance"`
	PointsBalance        int       `json:"points_balance"`
	ReceivedLikesCount   int       `json:"received_likes_count"`
	ReferralCode         string    `json:"referral_code"`
	ReferralPointsEarned int       `json:"referral_points_earned"`
	CreatedAt            time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                   u.ID,
		Email:                u.Email,
		Username:             u.Username,
		FirstName:            u.FirstName,
		IsStudent:            u.IsStudent,
		IsVerified:           u.IsVerified,
		IsAdmin:              u.IsAdmin,
		LikesBalance:         u.LikesBalance,
		SuperLikesBalance:    u.SuperLikesBalance,
		BoostersBalance:      u.BoostersBalance,
		UnlikesBalance:       u.UnlikesBalance,
		PointsBalance:        u.PointsBalance,
		ReceivedLikesCount:   u.ReceivedLikesCount,
		ReferralCode:         u.ReferralCode,
		ReferralPointsEarned: u.ReferralPointsEarned,
		CreatedAt:            u.CreatedAt,
	}
}

type profileResponse struct {
	UserID     uuid.UUID         `json:"user_id"`
	Username   string            `json:"username,omitempty"`
	Bio        string            `json:"bio"`
	BirthDate  string            `json:"birth_date,omitempty"`
	Age        *int              `json:"age,omitempty"`
	StudyField domain.StudyField `json:"study_field"`
	StudyYear  *int              `json:"study_year"`
	Interests  []string          `json:"interests"`
	PictureURL string            `json:"picture_url"`
	Location   string            `json:"location"`
	City       string            `json:"city"`
	School     string            `json:"school"`
	Latitude   *float64          `json:"latitude"`
	Longitude  *float64          `json:"longitude"`
	IsComplete bool              `json:"is_complete"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

const dateLayout = "2006-01-02"

func toProfileResponse(p *domain.Profile, username string, age *int) profileResponse {
	resp := profileResponse{
		UserID:     p.UserID,
		Username:   username,
		Bio:        p.Bio,
		Age:        age,
		StudyField: p.StudyField,
		StudyYear:  p.StudyYear,
		Interests:  p.Interests,
		PictureURL: p.PictureURL,
		Location:   p.Location,
		City:       p.City,
		School:     p.School,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		IsComplete: p.IsComplete,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.BirthDate != nil {
		resp.BirthDate = p.BirthDate.Format(dateLayout)
	}
	if resp.Interests == nil {
		resp.Interests = []string{}
	}
	return resp
}

func toProfileViewResponse(v *app.ProfileView) profileResponse {
	return toProfileResponse(v.Profile, v.Username, v.Age)
}

type discoveryItem struct {
	Profile    profileResponse `json:"profile"`
	FirstName  string          `json:"first_name"`
	IsStudent  bool            `json:"is_student"`
	LikesGiven int             `json:"likes_given"`
	IsMatched  bool            `json:"is_matched"`
	DistanceKm *float64        `json:"distance_km,omitempty"`
}

type discoveryResponse struct {
	Results  []discoveryItem `json:"results"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	HasMore  bool            `json:"has_more"`
	Seed     string          `json:"seed"`
}

func toDiscoveryResponse(p *app.DiscoveryPage) discoveryResponse {
	items := make([]discoveryItem, 0, len(p.Results))
	for _, r := range p.Results {
		items = append(items, discoveryItem{
			Profile:    toProfileResponse(&r.Profile, r.Username, r.Age),
			FirstName:  r.FirstName,
			IsStudent:  r.IsStudent,
			LikesGiven: r.LikesGiven,
			IsMatched:  r.IsMatched,
			DistanceKm: r.DistanceKm,
		})
	}
	return discoveryResponse{Results: items, Page: p.Page, PageSize: p.PageSize, HasMore: p.HasMore, Seed: p.Seed}
}

type likeResponse struct {
	ID        uuid.UUID       `json:"id"`
	ToUser    uuid.UUID       `json:"to_user"`
	Type      domain.LikeType `json:"type"`
	IsMutual  bool            `json:"is_mutual"`
	CreatedAt time.Time       `json:"created_at"`
}

func toLikeResponse(l domain.Like) likeResponse {
	return likeResponse{ID: l.ID, ToUser: l.ToUser, Type: l.Type, IsMutual: l.IsMutual, CreatedAt: l.CreatedAt}
}

type matchResponse struct {
	ID        uuid.UUID           `json:"id"`
	RoomID    uuid.UUID           `json:"room_id"`
	Other     *domain.UserSummary `json:"other,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

func toMatchResponse(m *domain.Match) *matchResponse {
	if m == nil {
		return nil
	}
	return &matchResponse{ID: m.ID, RoomID: m.RoomID, CreatedAt: m.CreatedAt}
}

type packageResponse struct {
	ID           uuid.UUID          `json:"id"`
	Kind         domain.PackageKind `json:"kind"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	PriceMinor   int64              `json:"price_minor"`
	Currency     string             `json:"currency"`
	RegularLikes int                `json:"regular_likes"`
	SuperLikes   int                `json:"super_likes"`
	Boosters     int                `json:"boosters"`
	Unlikes      int                `json:"unlikes"`
}

func toPackageResponse(p domain.Package) packageResponse {
	return packageResponse{
		ID: p.ID, Kind: p.Kind, Name: p.Name, Description: p.Description,
		PriceMinor: p.PriceMinor, Currency: p.Currency,
		RegularLikes: p.RegularLikes, SuperLikes: p.SuperLikes, Boosters: p.Boosters, Unlikes: p.Unlikes,
	}
}

type purchaseResponse struct {
	ID            uuid.UUID             `json:"id"`
	PackageID     uuid.UUID             `json:"package_id"`
	RecipientID   *uuid.UUID            `json:"recipient_id,omitempty"`
	Kind          domain.PackageKind    `json:"kind"`
	AmountMinor   int64                 `json:"amount_minor"`
	Currency      string                `json:"currency"`
	Provider      domain.Provider       `json:"provider"`
	Reference     string                `json:"reference"`
	Status        domain.PurchaseStatus `json:"status"`
	FailureReason string                `json:"failure_reason,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
}

func toPurchaseResponse(p *domain.Purchase) purchaseResponse {
	return purchaseResponse{
		ID: p.ID, PackageID: p.PackageID, RecipientID: p.RecipientID, Kind: p.Kind,
		AmountMinor: p.AmountMinor, Currency: p.Currency, Provider: p.Provider,
		Reference: p.Reference, Status: p.Status, FailureReason: p.FailureReason,
		CreatedAt: p.CreatedAt, CompletedAt: p.CompletedAt,
	}
}

type creditResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Likes      int       `json:"likes"`
	SuperLikes int       `json:"super_likes"`
	Boosters   int       `json:"boosters"`
	Unlikes    int       `json:"unlikes"`
}

type questionResponse struct {
	ID         uuid.UUID           `json:"id"`
	Text       string              `json:"text"`
	Category   domain.QuizCategory `json:"category"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Points     int                 `json:"points"`
	Active     bool                `json:"active,omitempty"`
}

func toQuestionResponse(q *domain.Question) questionResponse {
	return questionResponse{ID: q.ID, Text: q.Text, Category: q.Category, Difficulty: q.Difficulty, Points: q.Points, Active: q.Active}
}

type adminChoice struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Order     int       `json:"order"`
	IsCorrect bool      `json:"is_correct"`
}

type adminQuestionResponse struct {
	questionResponse
	Choices   []adminChoice `json:"choices"`
	CreatedAt time.Time     `json:"created_at"`
}

func toAdminQuestion(q *domain.Question) adminQuestionResponse {
	choices := make([]adminChoice, 0, len(q.Choices))
	for _, c := range q.Choices {
		choices = append(choices, adminChoice{ID: c.ID, Text: c.Text, Order: c.Order, IsCorrect: c.IsCorrect})
	}
	resp := adminQuestionResponse{questionResponse: toQuestionResponse(q), Choices: choices, CreatedAt: q.CreatedAt}
	resp.Active = q.Active
	return resp
}

type rewardResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	PointsCost    int               `json:"points_cost"`
	Type          domain.RewardType `json:"type"`
	ImageURL      string            `json:"image_url"`
	Stock         int               `json:"stock"`
	LikesRequired int               `json:"likes_required"`
}

type claimResponse struct {
	ID              uuid.UUID          `json:"id"`
	RewardID        uuid.UUID          `json:"reward_id"`
	RewardName      string             `json:"reward_name,omitempty"`
	PointsSpent     int                `json:"points_spent"`
	Status          domain.ClaimStatus `json:"status"`
	DeliveryAddress string             `json:"delivery_address,omitempty"`
	ClaimedAt       time.Time          `json:"claimed_at"`
}

func toClaimResponse(c *domain.RewardClaim) claimResponse {
	return claimResponse{
		ID: c.ID, RewardID: c.RewardID, RewardName: c.RewardName, PointsSpent: c.PointsSpent,
		Status: c.Status, DeliveryAddress: c.DeliveryAddress, ClaimedAt: c.ClaimedAt,
	}
}

type prizeResponse struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	PrizeValue      string     `json:"prize_value"`
	Position        int        `json:"position"`
	Icon            string     `json:"icon"`
	BackgroundColor string     `json:"background_color"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
}

type referralResponse struct {
	ReferredUsername string                `json:"referred_username"`
	Status           domain.ReferralStatus `json:"status"`
	PointsAwarded    int                   `json:"points_awarded"`
	CreatedAt        time.Time             `json:"created_at"`
	CompletedAt      *time.Time            `json:"completed_at,omitempty"`
}

type postResponse struct {
	ID             uuid.UUID `json:"id"`
	AuthorID       uuid.UUID `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"image_url,omitempty"`
	AllowComments  bool      `json:"allow_comments"`
	LikesCount     int       `json:"likes_count"`
	CommentsCount  int       `json:"comments_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func toPostResponse(p *domain.Post) postResponse {
	return postResponse{
		ID: p.ID, AuthorID: p.AuthorID, AuthorUsername: p.AuthorUsername, Content: p.Content,
		ImageURL: p.ImageURL, AllowComments: p.AllowComments, LikesCount: p.LikesCount,
		CommentsCount: p.CommentsCount, CreatedAt: p.CreatedAt,
	}
}

type commentResponse struct {
	ID             uuid.UUID         `json:"id"`
	PostID         uuid.UUID         `json:"post_id"`
	AuthorID       uuid.UUID         `json:"author_id"`
	AuthorUsername string            `json:"author_username"`
	ParentID       *uuid.UUID        `json:"parent_id,omitempty"`
	Content        string            `json:"content"`
	LikesCount     int               `json:"likes_count"`
	CreatedAt      time.Time         `json:"created_at"`
	Replies        []commentResponse `json:"replies,omitempty"`
}

func toCommentResponse(c *domain.Comment) commentResponse {
	resp := commentResponse{
		ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID, AuthorUsername: c.AuthorUsername,
		ParentID: c.ParentID, Content: c.Content, LikesCount: c.LikesCount, CreatedAt: c.CreatedAt,
	}
	for _, r := range c.Replies {
		resp.Replies = append(resp.Replies, toCommentResponse(r))
	}
	return resp
}

type followResponse struct {
	User       domain.UserSummary `json:"user"`
	FollowedAt time.Time          `json:"followed_at"`
}

type updateResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	Content         string    `json:"content"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	CreatedAt       time.Time `json:"created_at"`
	TimeAgo         string    `json:"time_ago"`
}

func toUpdateResponse(u app.UpdateView) updateResponse {
	return updateResponse{
		ID: u.ID, UserID: u.UserID, Username: u.Username, Content: u.Content,
		BackgroundColor: u.BackgroundColor, TextColor: u.TextColor,
		CreatedAt: u.CreatedAt, TimeAgo: u.TimeAgo,
	}
}

func toUpdateList(views []app.UpdateView) []updateResponse {
	out := make([]updateResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toUpdateResponse(v))
	}
	return out
}

type messageResponse struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{ID: m.ID, SenderID: m.SenderID, Content: m.Content, IsRead: m.IsRead, CreatedAt: m.CreatedAt}
}

type roomSummaryResponse struct {
	ID          uuid.UUID          `json:"id"`
	MatchID     uuid.UUID          `json:"match_id"`
	Other       domain.UserSummary `json:"other"`
	LastMessage *messageResponse   `json:"last_message,omitempty"`
	Unread      int                `json:"unread"`
}

type advertisementResponse struct {
	ID        uuid.UUID `json:"id"`
	BrandName string    `json:"brand_name"`
	FlyerURL  string    `json:"flyer_url"`
	BrandURL  string    `json:"brand_url"`
	Priority  int       `json:"priority"`
}
