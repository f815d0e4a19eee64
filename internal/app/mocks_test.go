package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

var errNotImplemented = fmt.Errorf("not implemented")

// --- Users ---

type mockUserRepo struct {
	createFn            func(ctx context.Context, u domain.NewUser) (*domain.User, error)
	getByIDFn           func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFn        func(ctx context.Context, email string) (*domain.User, error)
	getByReferralCodeFn func(ctx context.Context, code string) (*domain.User, error)
	updatePasswordFn    func(ctx context.Context, id uuid.UUID, hash string) error
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.NewUser) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil, errNotImplemented
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	if m.getByReferralCodeFn != nil {
		return m.getByReferralCodeFn(ctx, code)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, hash)
	}
	return nil
}

// memResetTokens is a single-use token store.
type memResetTokens struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func newMemResetTokens() *memResetTokens {
	return &memResetTokens{tokens: make(map[string]uuid.UUID)}
}

func (m *memResetTokens) Save(_ context.Context, tokenID string, userID uuid.UUID, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenID] = userID
	return nil
}

func (m *memResetTokens) Consume(_ context.Context, tokenID string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[tokenID]
	if !ok {
		return uuid.Nil, domain.ErrInvalidResetToken
	}
	delete(m.tokens, tokenID)
	return id, nil
}

type sentMail struct {
	to, subject, body string
}

type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

// --- Ledger and notifications ---

type mockLedgerRepo struct {
	giveLikeFn    func(ctx context.Context, from, to uuid.UUID, t domain.LikeType) (*domain.LikeOutcome, error)
	giveUnlikeFn  func(ctx context.Context, from, to uuid.UUID) (*domain.Unlike, int, error)
	createMatchFn func(ctx context.Context, a, b uuid.UUID) (*domain.Match, error)
}

func (m *mockLedgerRepo) GiveLike(ctx context.Context, from, to uuid.UUID, t domain.LikeType) (*domain.LikeOutcome, error) {
	if m.giveLikeFn != nil {
		return m.giveLikeFn(ctx, from, to, t)
	}
	return nil, errNotImplemented
}

func (m *mockLedgerRepo) GiveUnlike(ctx context.Context, from, to uuid.UUID) (*domain.Unlike, int, error) {
	if m.giveUnlikeFn != nil {
		return m.giveUnlikeFn(ctx, from, to)
	}
	return nil, 0, errNotImplemented
}

func (m *mockLedgerRepo) CreateMatch(ctx context.Context, a, b uuid.UUID) (*domain.Match, error) {
	if m.createMatchFn != nil {
		return m.createMatchFn(ctx, a, b)
	}
	return nil, errNotImplemented
}

func (m *mockLedgerRepo) ListGiven(context.Context, uuid.UUID) ([]domain.GivenLike, error) {
	return nil, nil
}

func (m *mockLedgerRepo) ListMatches(context.Context, uuid.UUID) ([]domain.MatchView, error) {
	return nil, nil
}

type mockNotificationRepo struct {
	createFn        func(ctx context.Context, n domain.NewNotification) (*domain.Notification, error)
	getFn           func(ctx context.Context, receiver, id uuid.UUID) (*domain.Notification, error)
	listFn          func(ctx context.Context, receiver uuid.UUID, limit, offset int) ([]domain.Notification, error)
	unreadFn        func(ctx context.Context, receiver uuid.UUID, limit int) ([]domain.Notification, error)
	unreadCountFn   func(ctx context.Context, receiver uuid.UUID) (int, error)
	pendingExistsFn func(ctx context.Context, from, to uuid.UUID) (bool, error)
	respondFn       func(ctx context.Context, receiver, id uuid.UUID, status domain.NotificationStatus) (*domain.Notification, error)
}

func (m *mockNotificationRepo) Create(ctx context.Context, n domain.NewNotification) (*domain.Notification, error) {
	if m.createFn != nil {
		return m.createFn(ctx, n)
	}
	return &domain.Notification{
		ID:         uuid.New(),
		SenderID:   n.SenderID,
		ReceiverID: n.ReceiverID,
		Type:       n.Type,
		Status:     n.Status,
		Message:    n.Message,
	}, nil
}

func (m *mockNotificationRepo) Get(ctx context.Context, receiver, id uuid.UUID) (*domain.Notification, error) {
	if m.getFn != nil {
		return m.getFn(ctx, receiver, id)
	}
	return nil, domain.ErrNotificationNotFound
}

func (m *mockNotificationRepo) List(ctx context.Context, receiver uuid.UUID, limit, offset int) ([]domain.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, receiver, limit, offset)
	}
	return nil, nil
}

func (m *mockNotificationRepo) Unread(ctx context.Context, receiver uuid.UUID, limit int) ([]domain.Notification, error) {
	if m.unreadFn != nil {
		return m.unreadFn(ctx, receiver, limit)
	}
	return nil, nil
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, receiver uuid.UUID) (int, error) {
	if m.unreadCountFn != nil {
		return m.unreadCountFn(ctx, receiver)
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (m *mockNotificationRepo) MarkAllRead(context.Context, uuid.UUID) (int, error) { return 0, nil }

func (m *mockNotificationRepo) PendingMatchRequestExists(ctx context.Context, from, to uuid.UUID) (bool, error) {
	if m.pendingExistsFn != nil {
		return m.pendingExistsFn(ctx, from, to)
	}
	return false, nil
}

func (m *mockNotificationRepo) RespondMatchRequest(ctx context.Context, receiver, id uuid.UUID, status domain.NotificationStatus) (*domain.Notification, error) {
	if m.respondFn != nil {
		return m.respondFn(ctx, receiver, id, status)
	}
	return nil, errNotImplemented
}

// recordingNotifier keeps every notification it is asked to send.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.NewNotification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.NewNotification) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.sent = append(r.sent, n)
	return &domain.Notification{
		ID:         uuid.New(),
		SenderID:   n.SenderID,
		ReceiverID: n.ReceiverID,
		Type:       n.Type,
		Status:     n.Status,
		Message:    n.Message,
	}, nil
}

func (r *recordingNotifier) types() []domain.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationType, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Type)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

// memDebouncer reports a key as debounced after the first call.
type memDebouncer struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDebouncer) IsDebounced(_ context.Context, key string, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

type mockLimiter struct {
	allowFn func(ctx context.Context, userID uuid.UUID, action string) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, userID uuid.UUID, action string) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(ctx, userID, action)
	}
	return true, nil
}

// --- Payments ---

type mockPaymentRepo struct {
	listPackagesFn   func(ctx context.Context, kind domain.PackageKind) ([]domain.Package, error)
	getPackageFn     func(ctx context.Context, id uuid.UUID) (*domain.Package, error)
	createPurchaseFn func(ctx context.Context, p *domain.Purchase) error
	setSessionFn     func(ctx context.Context, id uuid.UUID, sessionID string) error
	getByRefFn       func(ctx context.Context, reference string) (*domain.Purchase, error)
	getBySessionFn   func(ctx context.Context, provider domain.Provider, sessionID string) (*domain.Purchase, error)
	listStaleFn      func(ctx context.Context, before time.Time, limit int) ([]domain.Purchase, error)
	completeFn       func(ctx context.Context, reference string) (*domain.CompletionResult, error)
	failFn           func(ctx context.Context, reference, reason string) (bool, error)
	recordEventFn    func(ctx context.Context, provider domain.Provider, eventID, reference, eventType string) (bool, error)
	forgetEventFn    func(ctx context.Context, provider domain.Provider, eventID string) error
}

func (m *mockPaymentRepo) ListPackages(ctx context.Context, kind domain.PackageKind) ([]domain.Package, error) {
	if m.listPackagesFn != nil {
		return m.listPackagesFn(ctx, kind)
	}
	return nil, nil
}

func (m *mockPaymentRepo) GetPackage(ctx context.Context, id uuid.UUID) (*domain.Package, error) {
	if m.getPackageFn != nil {
		return m.getPackageFn(ctx, id)
	}
	return nil, domain.ErrPackageNotFound
}

func (m *mockPaymentRepo) UpsertPackage(_ context.Context, pkg domain.Package) (*domain.Package, error) {
	return &pkg, nil
}

func (m *mockPaymentRepo) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	if m.createPurchaseFn != nil {
		return m.createPurchaseFn(ctx, p)
	}
	return nil
}

func (m *mockPaymentRepo) SetProviderSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	if m.setSessionFn != nil {
		return m.setSessionFn(ctx, id, sessionID)
	}
	return nil
}

func (m *mockPaymentRepo) GetPurchaseByReference(ctx context.Context, reference string) (*domain.Purchase, error) {
	if m.getByRefFn != nil {
		return m.getByRefFn(ctx, reference)
	}
	return nil, domain.ErrPurchaseNotFound
}

func (m *mockPaymentRepo) GetPurchaseBySession(ctx context.Context, provider domain.Provider, sessionID string) (*domain.Purchase, error) {
	if m.getBySessionFn != nil {
		return m.getBySessionFn(ctx, provider, sessionID)
	}
	return nil, domain.ErrPurchaseNotFound
}

func (m *mockPaymentRepo) ListPurchasesByBuyer(context.Context, uuid.UUID) ([]domain.Purchase, error) {
	return nil, nil
}

func (m *mockPaymentRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]domain.Purchase, error) {
	if m.listStaleFn != nil {
		return m.listStaleFn(ctx, before, limit)
	}
	return nil, nil
}

func (m *mockPaymentRepo) CompletePurchase(ctx context.Context, reference string) (*domain.CompletionResult, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, reference)
	}
	return nil, errNotImplemented
}

func (m *mockPaymentRepo) FailPurchase(ctx context.Context, reference, reason string) (bool, error) {
	if m.failFn != nil {
		return m.failFn(ctx, reference, reason)
	}
	return true, nil
}

func (m *mockPaymentRepo) RecordEvent(ctx context.Context, provider domain.Provider, eventID, reference, eventType string) (bool, error) {
	if m.recordEventFn != nil {
		return m.recordEventFn(ctx, provider, eventID, reference, eventType)
	}
	return true, nil
}

func (m *mockPaymentRepo) ForgetEvent(ctx context.Context, provider domain.Provider, eventID string) error {
	if m.forgetEventFn != nil {
		return m.forgetEventFn(ctx, provider, eventID)
	}
	return nil
}

type mockProvider struct {
	name         domain.Provider
	checkoutFn   func(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
	verifyFn     func(ctx context.Context, req domain.VerifyRequest) (*domain.Verification, error)
	parseWebhook func(ctx context.Context, req domain.WebhookRequest) (*domain.WebhookEvent, error)
}

func (m *mockProvider) Name() domain.Provider { return m.name }

func (m *mockProvider) InitializeCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if m.checkoutFn != nil {
		return m.checkoutFn(ctx, req)
	}
	return &domain.CheckoutSession{SessionID: "sess_1", RedirectURL: "https://pay.example/redirect"}, nil
}

func (m *mockProvider) Verify(ctx context.Context, req domain.VerifyRequest) (*domain.Verification, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockProvider) ParseWebhook(ctx context.Context, req domain.WebhookRequest) (*domain.WebhookEvent, error) {
	if m.parseWebhook != nil {
		return m.parseWebhook(ctx, req)
	}
	return nil, errNotImplemented
}

// --- Profiles, referrals, discovery ---

type mockProfileRepo struct {
	getOrCreateFn func(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	getFn         func(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	saveFn        func(ctx context.Context, p *domain.Profile) (*domain.ProfileUpdate, error)
}

func (m *mockProfileRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	if m.getOrCreateFn != nil {
		return m.getOrCreateFn(ctx, userID)
	}
	return &domain.Profile{UserID: userID}, nil
}

func (m *mockProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, domain.ErrProfileNotFound
}

func (m *mockProfileRepo) Save(ctx context.Context, p *domain.Profile) (*domain.ProfileUpdate, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, p)
	}
	return &domain.ProfileUpdate{Profile: p}, nil
}

type mockReferralRepo struct {
	completeFn func(ctx context.Context, referredID uuid.UUID, points int) (*domain.Referral, bool, error)
	listFn     func(ctx context.Context, referrerID uuid.UUID) ([]domain.Referral, error)
}

func (m *mockReferralRepo) Complete(ctx context.Context, referredID uuid.UUID, points int) (*domain.Referral, bool, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, referredID, points)
	}
	return nil, false, nil
}

func (m *mockReferralRepo) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]domain.Referral, error) {
	if m.listFn != nil {
		return m.listFn(ctx, referrerID)
	}
	return nil, nil
}

type mockDiscoveryRepo struct {
	candidatesFn func(ctx context.Context, q domain.DiscoveryQuery) ([]domain.DiscoveryCandidate, error)
}

func (m *mockDiscoveryRepo) Candidates(ctx context.Context, q domain.DiscoveryQuery) ([]domain.DiscoveryCandidate, error) {
	if m.candidatesFn != nil {
		return m.candidatesFn(ctx, q)
	}
	return nil, nil
}

// --- Quiz and rewards ---

type mockQuizRepo struct {
	createQuestionFn func(ctx context.Context, q *domain.Question) error
	getQuestionFn    func(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	randomActiveFn   func(ctx context.Context) (uuid.UUID, error)
	getDailyFn       func(ctx context.Context, date time.Time) (*domain.DailyQuiz, error)
	ensureDailyFn    func(ctx context.Context, date time.Time, questionID uuid.UUID) (*domain.DailyQuiz, error)
	replaceDailyFn   func(ctx context.Context, date time.Time, questionID uuid.UUID) (*domain.DailyQuiz, error)
	getResponseFn    func(ctx context.Context, userID, questionID uuid.UUID) (*domain.QuizResponse, error)
	submitFn         func(ctx context.Context, r domain.QuizResponse, dailyDate *time.Time) (int, error)
}

func (m *mockQuizRepo) CreateQuestion(ctx context.Context, q *domain.Question) error {
	if m.createQuestionFn != nil {
		return m.createQuestionFn(ctx, q)
	}
	return nil
}

func (m *mockQuizRepo) GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	if m.getQuestionFn != nil {
		return m.getQuestionFn(ctx, id)
	}
	return nil, domain.ErrQuestionNotFound
}

func (m *mockQuizRepo) ListQuestions(context.Context) ([]domain.Question, error) { return nil, nil }

func (m *mockQuizRepo) SetQuestionActive(context.Context, uuid.UUID, bool) error { return nil }

func (m *mockQuizRepo) DeleteQuestion(context.Context, uuid.UUID) error { return nil }

func (m *mockQuizRepo) RandomActiveQuestionID(ctx context.Context) (uuid.UUID, error) {
	if m.randomActiveFn != nil {
		return m.randomActiveFn(ctx)
	}
	return uuid.Nil, domain.ErrNoActiveQuestions
}

func (m *mockQuizRepo) GetDailyQuiz(ctx context.Context, date time.Time) (*domain.DailyQuiz, error) {
	if m.getDailyFn != nil {
		return m.getDailyFn(ctx, date)
	}
	return nil, domain.ErrDailyQuizNotFound
}

func (m *mockQuizRepo) EnsureDailyQuiz(ctx context.Context, date time.Time, questionID uuid.UUID) (*domain.DailyQuiz, error) {
	if m.ensureDailyFn != nil {
		return m.ensureDailyFn(ctx, date, questionID)
	}
	return &domain.DailyQuiz{Date: date, QuestionID: questionID}, nil
}

func (m *mockQuizRepo) ReplaceDailyQuiz(ctx context.Context, date time.Time, questionID uuid.UUID) (*domain.DailyQuiz, error) {
	if m.replaceDailyFn != nil {
		return m.replaceDailyFn(ctx, date, questionID)
	}
	return &domain.DailyQuiz{Date: date, QuestionID: questionID}, nil
}

func (m *mockQuizRepo) GetResponse(ctx context.Context, userID, questionID uuid.UUID) (*domain.QuizResponse, error) {
	if m.getResponseFn != nil {
		return m.getResponseFn(ctx, userID, questionID)
	}
	return nil, domain.ErrResponseNotFound
}

func (m *mockQuizRepo) SubmitResponse(ctx context.Context, r domain.QuizResponse, dailyDate *time.Time) (int, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, r, dailyDate)
	}
	return 0, errNotImplemented
}

func (m *mockQuizRepo) Stats(context.Context, uuid.UUID) (*domain.QuizStats, error) {
	return &domain.QuizStats{}, nil
}

type mockRewardRepo struct {
	getFn        func(ctx context.Context, id uuid.UUID) (*domain.Reward, error)
	claimFn      func(ctx context.Context, userID uuid.UUID, reward domain.Reward, address string) (*domain.RewardClaim, error)
	getClaimFn   func(ctx context.Context, id uuid.UUID) (*domain.RewardClaim, error)
	transitionFn func(ctx context.Context, id uuid.UUID, from, to domain.ClaimStatus) (*domain.RewardClaim, error)
	prizesFn     func(ctx context.Context) ([]domain.PrizeAnnouncement, error)
}

func (m *mockRewardRepo) ListAvailable(context.Context) ([]domain.Reward, error) { return nil, nil }

func (m *mockRewardRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Reward, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrRewardNotFound
}

func (m *mockRewardRepo) Claim(ctx context.Context, userID uuid.UUID, reward domain.Reward, address string) (*domain.RewardClaim, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, userID, reward, address)
	}
	return nil, errNotImplemented
}

func (m *mockRewardRepo) ListClaims(context.Context, uuid.UUID) ([]domain.RewardClaim, error) {
	return nil, nil
}

func (m *mockRewardRepo) GetClaim(ctx context.Context, id uuid.UUID) (*domain.RewardClaim, error) {
	if m.getClaimFn != nil {
		return m.getClaimFn(ctx, id)
	}
	return nil, domain.ErrClaimNotFound
}

func (m *mockRewardRepo) TransitionClaim(ctx context.Context, id uuid.UUID, from, to domain.ClaimStatus) (*domain.RewardClaim, error) {
	if m.transitionFn != nil {
		return m.transitionFn(ctx, id, from, to)
	}
	return nil, errNotImplemented
}

func (m *mockRewardRepo) ListPrizes(ctx context.Context) ([]domain.PrizeAnnouncement, error) {
	if m.prizesFn != nil {
		return m.prizesFn(ctx)
	}
	return nil, nil
}

// --- Social, updates, chat, stats ---

type mockSocialRepo struct {
	followFn       func(ctx context.Context, follower, target uuid.UUID) error
	isFollowingFn  func(ctx context.Context, follower, target uuid.UUID) (bool, error)
	createPostFn   func(ctx context.Context, p *domain.Post) error
	getPostFn      func(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	deletePostFn   func(ctx context.Context, id uuid.UUID) error
	feedFn         func(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]domain.Post, error)
	addCommentFn   func(ctx context.Context, c *domain.Comment) error
	getCommentFn   func(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	listCommentsFn func(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error)
	deleteComment  func(ctx context.Context, id uuid.UUID) (int, error)
	spendLikesFn   func(ctx context.Context, user uuid.UUID, target domain.LikeTarget, targetID uuid.UUID, amount int) (*domain.SpendResult, error)
}

func (m *mockSocialRepo) Follow(ctx context.Context, follower, target uuid.UUID) error {
	if m.followFn != nil {
		return m.followFn(ctx, follower, target)
	}
	return nil
}

func (m *mockSocialRepo) Unfollow(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (m *mockSocialRepo) IsFollowing(ctx context.Context, follower, target uuid.UUID) (bool, error) {
	if m.isFollowingFn != nil {
		return m.isFollowingFn(ctx, follower, target)
	}
	return false, nil
}

func (m *mockSocialRepo) Followers(context.Context, uuid.UUID, int, int) ([]domain.FollowEntry, error) {
	return nil, nil
}

func (m *mockSocialRepo) Following(context.Context, uuid.UUID, int, int) ([]domain.FollowEntry, error) {
	return nil, nil
}

func (m *mockSocialRepo) CreatePost(ctx context.Context, p *domain.Post) error {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, p)
	}
	p.ID = uuid.New()
	return nil
}

func (m *mockSocialRepo) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, id)
	}
	return nil, domain.ErrPostNotFound
}

func (m *mockSocialRepo) DeletePost(ctx context.Context, id uuid.UUID) error {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, id)
	}
	return nil
}

func (m *mockSocialRepo) Feed(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]domain.Post, error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, viewer, limit, offset)
	}
	return nil, nil
}

func (m *mockSocialRepo) AddComment(ctx context.Context, c *domain.Comment) error {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, c)
	}
	c.ID = uuid.New()
	return nil
}

func (m *mockSocialRepo) GetComment(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	if m.getCommentFn != nil {
		return m.getCommentFn(ctx, id)
	}
	return nil, domain.ErrCommentNotFound
}

func (m *mockSocialRepo) ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, postID)
	}
	return nil, nil
}

func (m *mockSocialRepo) DeleteComment(ctx context.Context, id uuid.UUID) (int, error) {
	if m.deleteComment != nil {
		return m.deleteComment(ctx, id)
	}
	return 1, nil
}

func (m *mockSocialRepo) SpendLikes(ctx context.Context, user uuid.UUID, target domain.LikeTarget, targetID uuid.UUID, amount int) (*domain.SpendResult, error) {
	if m.spendLikesFn != nil {
		return m.spendLikesFn(ctx, user, target, targetID, amount)
	}
	return nil, errNotImplemented
}

type mockUpdateRepo struct {
	createFn     func(ctx context.Context, u *domain.StatusUpdate) error
	feedFn       func(ctx context.Context, limit int) ([]domain.StatusUpdate, error)
	deleteFn     func(ctx context.Context, id, userID uuid.UUID) error
	deactivateFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockUpdateRepo) Create(ctx context.Context, u *domain.StatusUpdate) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}

func (m *mockUpdateRepo) Feed(ctx context.Context, limit int) ([]domain.StatusUpdate, error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockUpdateRepo) ListByUser(context.Context, uuid.UUID) ([]domain.StatusUpdate, error) {
	return nil, nil
}

func (m *mockUpdateRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, userID)
	}
	return nil
}

func (m *mockUpdateRepo) DeactivateBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, cutoff)
	}
	return 0, nil
}

type mockChatRepo struct {
	getRoomFn       func(ctx context.Context, roomID, user uuid.UUID) (*domain.ChatRoom, error)
	listMessagesFn  func(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error)
	markReadFn      func(ctx context.Context, roomID, reader uuid.UUID) (int64, error)
	createMessageFn func(ctx context.Context, roomID, sender uuid.UUID, content string) (*domain.Message, error)
}

func (m *mockChatRepo) ListRooms(context.Context, uuid.UUID) ([]domain.RoomSummary, error) {
	return nil, nil
}

func (m *mockChatRepo) GetRoom(ctx context.Context, roomID, user uuid.UUID) (*domain.ChatRoom, error) {
	if m.getRoomFn != nil {
		return m.getRoomFn(ctx, roomID, user)
	}
	return nil, domain.ErrRoomNotFound
}

func (m *mockChatRepo) ListMessages(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error) {
	if m.listMessagesFn != nil {
		return m.listMessagesFn(ctx, roomID)
	}
	return nil, nil
}

func (m *mockChatRepo) MarkRead(ctx context.Context, roomID, reader uuid.UUID) (int64, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, roomID, reader)
	}
	return 0, nil
}

func (m *mockChatRepo) CreateMessage(ctx context.Context, roomID, sender uuid.UUID, content string) (*domain.Message, error) {
	if m.createMessageFn != nil {
		return m.createMessageFn(ctx, roomID, sender, content)
	}
	return &domain.Message{ID: uuid.New(), RoomID: roomID, SenderID: sender, Content: content}, nil
}

type mockStatsRepo struct {
	countFn func(ctx context.Context, key domain.StatKey) (int64, error)
}

func (m *mockStatsRepo) Count(ctx context.Context, key domain.StatKey) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, key)
	}
	return 0, nil
}
