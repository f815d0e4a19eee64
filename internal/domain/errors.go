package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrReferralCodeTaken   = errors.New("referral code already in use")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")

	ErrProfileNotFound = errors.New("profile not found")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSelfAction          = errors.New("cannot perform this action on yourself")
	ErrAlreadyUnliked      = errors.New("user already unliked")
	ErrRateLimited         = errors.New("too many actions, slow down")

	ErrPackageNotFound     = errors.New("package not found")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrProviderDisabled    = errors.New("payment provider not enabled")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrUnknownWebhookIP    = errors.New("webhook source not allowed")
	ErrAmountMismatch      = errors.New("paid amount does not match purchase")
	ErrPaymentNotVerified  = errors.New("payment not verified")

	ErrNotificationNotFound = errors.New("notification not found")
	ErrMatchRequestExists   = errors.New("match request already pending")
	ErrAlreadyResponded     = errors.New("match request already answered")

	ErrQuestionNotFound   = errors.New("question not found")
	ErrNoActiveQuestions  = errors.New("no active quiz questions")
	ErrDailyQuizNotFound  = errors.New("no daily quiz for date")
	ErrChoiceNotFound     = errors.New("choice does not belong to question")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrResponseNotFound   = errors.New("quiz response not found")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrOutOfStock         = errors.New("reward out of stock")
	ErrNotEnoughLikes     = errors.New("not enough received likes for this reward")
	ErrClaimNotFound      = errors.New("reward claim not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrReferralNotFound   = errors.New("referral not found")
	ErrAlreadyFollowing   = errors.New("already following user")
	ErrNotFollowing       = errors.New("not following user")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrCommentsDisabled   = errors.New("comments are disabled for this post")
	ErrNotAuthor          = errors.New("only the author can do this")
	ErrUpdateNotFound     = errors.New("status update not found")
	ErrRoomNotFound       = errors.New("chat room not found")
	ErrNotAdmin           = errors.New("admin access required")
)
