package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenTTL        = time.Hour
	referralCodeAttempts = 5
	minPasswordLength    = 8
	maxPasswordLength    = 128
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)

type RegisterRequest struct {
	Email        string
	Username     string
	FirstName    string
	Password     string
	ReferralCode string
}

// AccountService handles registration, login and password resets.
type AccountService struct {
	users       domain.UserRepository
	resetTokens domain.ResetTokenStore
	mailer      domain.Mailer
	clock       clockwork.Clock
	resetSecret []byte
	appURL      string
	hashCost    int
}

func NewAccountService(users domain.UserRepository, resetTokens domain.ResetTokenStore, mailer domain.Mailer, clock clockwork.Clock, resetSecret, appURL string) *AccountService {
	return &AccountService{
		users:       users,
		resetTokens: resetTokens,
		mailer:      mailer,
		clock:       clock,
		resetSecret: []byte(resetSecret),
		appURL:      strings.TrimRight(appURL, "/"),
		hashCost:    bcrypt.DefaultCost,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Invalid("email", "enter a valid email address")
	}
	return email, nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		return domain.Invalid("password", "must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}
	return nil
}

// Register creates the user with an empty profile. A referral code links the
// new account to its referrer with a pending referral.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(username) {
		return nil, domain.Invalid("username", "must be 3 to 30 letters, digits, dots or underscores")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	var referredBy *uuid.UUID
	if code := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); code != "" {
		if !domain.ValidReferralCode(code) {
			return nil, domain.ErrInvalidReferralCode
		}
		referrer, err := s.users.GetByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidReferralCode
		}
		if err != nil {
			return nil, err
		}
		referredBy = &referrer.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	nu := domain.NewUser{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(req.FirstName),
		PasswordHash: string(hash),
		IsStudent:    domain.IsStudentEmail(email),
		ReferredBy:   referredBy,
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		nu.ReferralCode, err = domain.NewReferralCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate referral code: %w", err)
		}

		user, err := s.users.Create(ctx, nu)
		if errors.Is(err, domain.ErrReferralCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		slog.InfoContext(ctx, "User registered", "user_id", user.ID, "referred", referredBy != nil)
		return user, nil
	}
	return nil, fmt.Errorf("failed to allocate a referral code after %d attempts", referralCodeAttempts)
}

// Login checks the credentials. Every failure is ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// RequestPasswordReset mails a single-use reset link. Unknown emails succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		slog.DebugContext(ctx, "Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, tokenID, err := s.issueResetToken(user.ID)
	if err != nil {
		return err
	}
	if err := s.resetTokens.Save(ctx, tokenID, user.ID, resetTokenTTL); err != nil {
		return err
	}

	link := s.appURL + "/reset-password?token=" + url.QueryEscape(token)
	body := "Hi " + user.Username + ",\n\n" +
		"Use the link below to choose a new password. It expires in one hour.\n\n" +
		link + "\n\nIf you did not ask for this, ignore this email.\n"
	if err := s.mailer.Send(ctx, user.Email, "Reset your mooibanana password", body); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	slog.InfoContext(ctx, "Password reset email sent", "user_id", user.ID)
	return nil
}

func (s *AccountService) issueResetToken(userID uuid.UUID) (string, string, error) {
	now := s.clock.Now()
	tokenID := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
	})
	signed, err := token.SignedString(s.resetSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, tokenID, nil
}

// ConfirmPasswordReset sets a new password when the token verifies and has not
// been used yet.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.resetSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.ID == "" {
		return domain.ErrInvalidResetToken
	}
	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.ErrInvalidResetToken
	}

	owner, err := s.resetTokens.Consume(ctx, claims.ID)
	if err != nil {
		return err
	}
	if owner != subject {
		return domain.ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, subject, string(hash)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Password reset completed", "user_id", subject)
	return nil
}
