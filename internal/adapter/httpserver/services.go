package httpserver

import (
	"context"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type accountService interface {
	Register(ctx context.Context, req app.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Me(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

type profileService interface {
	GetMyProfile(ctx context.Context, userID uuid.UUID) (*app.ProfileView, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*app.ProfileView, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in app.ProfileInput) (*app.ProfileView, error)
}

type discoveryService interface {
	Discover(ctx context.Context, viewer uuid.UUID, f domain.DiscoveryFilter, page int, seed string) (*app.DiscoveryPage, error)
}

type ledgerService interface {
	GiveLike(ctx context.Context, from, to uuid.UUID, t domain.LikeType) (*domain.LikeOutcome, error)
	GiveUnlike(ctx context.Context, from, to uuid.UUID) (*app.UnlikeResult, error)
	MyLikes(ctx context.Context, userID uuid.UUID) ([]domain.GivenLike, error)
	Matches(ctx context.Context, userID uuid.UUID) ([]domain.MatchView, error)
	SendMatchRequest(ctx context.Context, from, to uuid.UUID) (*domain.Notification, error)
	RespondMatchRequest(ctx context.Context, receiver, notificationID uuid.UUID, accept bool) (*app.MatchResponse, error)
}

type paymentService interface {
	ListPackages(ctx context.Context, kind domain.PackageKind) ([]domain.Package, error)
	MyPurchases(ctx context.Context, buyer uuid.UUID) ([]domain.Purchase, error)
	Checkout(ctx context.Context, in app.CheckoutInput) (*app.CheckoutResult, error)
	Callback(ctx context.Context, name domain.Provider, params app.CallbackParams) (*app.PaymentResult, error)
	WebhookKey(ctx context.Context, name domain.Provider) (string, error)
	Webhook(ctx context.Context, name domain.Provider, req domain.WebhookRequest) (*domain.WebhookEvent, error)
	Providers() []domain.Provider
}

type notificationService interface {
	List(ctx context.Context, userID uuid.UUID, page int) ([]domain.Notification, error)
	Unread(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}

type quizService interface {
	GetDailyQuiz(ctx context.Context, userID uuid.UUID) (*app.DailyQuizView, error)
	SubmitAnswer(ctx context.Context, userID, questionID, choiceID uuid.UUID) (*app.AnswerResult, error)
	Stats(ctx context.Context, userID uuid.UUID) (*domain.QuizStats, error)
	CreateQuestion(ctx context.Context, createdBy uuid.UUID, in app.QuestionInput) (*domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	SetQuestionActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	SetDailyQuiz(ctx context.Context, questionID uuid.UUID) (*domain.DailyQuiz, error)
}

type referralService interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (*app.ReferralDashboard, error)
}

type rewardService interface {
	ListRewards(ctx context.Context) ([]domain.Reward, error)
	ClaimReward(ctx context.Context, userID, rewardID uuid.UUID, address string) (*domain.RewardClaim, error)
	MyClaims(ctx context.Context, userID uuid.UUID) ([]domain.RewardClaim, error)
	UpdateClaimStatus(ctx context.Context, claimID uuid.UUID, to domain.ClaimStatus) (*domain.RewardClaim, error)
	ActivePrizes(ctx context.Context) ([]domain.PrizeAnnouncement, error)
}

type socialService interface {
	Follow(ctx context.Context, follower, target uuid.UUID) error
	Unfollow(ctx context.Context, follower, target uuid.UUID) error
	Followers(ctx context.Context, userID uuid.UUID, page int) ([]domain.FollowEntry, error)
	Following(ctx context.Context, userID uuid.UUID, page int) ([]domain.FollowEntry, error)
	CreatePost(ctx context.Context, author uuid.UUID, in app.PostInput) (*domain.Post, error)
	Feed(ctx context.Context, viewer uuid.UUID, page int) ([]domain.Post, error)
	GetPost(ctx context.Context, viewer, postID uuid.UUID) (*app.PostView, error)
	DeletePost(ctx context.Context, userID, postID uuid.UUID) error
	AddComment(ctx context.Context, author, postID uuid.UUID, content string, parentID *uuid.UUID) (*domain.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID) (int, error)
	LikePost(ctx context.Context, userID, postID uuid.UUID, amount int) (*domain.SpendResult, error)
	LikeComment(ctx context.Context, userID, commentID uuid.UUID, amount int) (*domain.SpendResult, error)
}

type updateService interface {
	PostUpdate(ctx context.Context, userID uuid.UUID, in app.UpdateInput) (*app.UpdateView, error)
	Feed(ctx context.Context) ([]app.UpdateView, error)
	MyUpdates(ctx context.Context, userID uuid.UUID) ([]app.UpdateView, error)
	DeleteUpdate(ctx context.Context, userID, updateID uuid.UUID) error
}

type chatService interface {
	ListRooms(ctx context.Context, userID uuid.UUID) ([]domain.RoomSummary, error)
	GetRoom(ctx context.Context, userID, roomID uuid.UUID) (*app.RoomView, error)
	SendMessage(ctx context.Context, sender, roomID uuid.UUID, content string) (*domain.Message, error)
}

type advertisementService interface {
	ActiveAdvertisements(ctx context.Context) ([]domain.Advertisement, error)
}

type adminService interface {
	DashboardStats(ctx context.Context) (map[domain.StatKey]int64, error)
}
