// Command seed loads the default packages, sample quiz questions and an admin
// account. Running it again leaves existing rows in place.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/postgres"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/logging"
	"go-simpler.org/env"
	"golang.org/x/crypto/bcrypt"
)

type seedConfig struct {
	DatabaseURL   string `env:"DATABASE_URL,required"`
	Currency      string `env:"CURRENCY" default:"GHS"`
	AdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
}

var defaultPackages = []domain.Package{
	{Kind: domain.PackageLike, Name: "Starter Package", PriceMinor: 7000, RegularLikes: 50,
		Description: "Basic profile view, perfect for getting started"},
	{Kind: domain.PackageLike, Name: "Popular Package", PriceMinor: 15000, RegularLikes: 110, SuperLikes: 5, Boosters: 2,
		Description: "Improved profile display, the most popular choice among students"},
	{Kind: domain.PackageLike, Name: "Premium Package", PriceMinor: 30000, RegularLikes: 250, SuperLikes: 15, Boosters: 5,
		Description: "Premium profile view with maximum visibility"},
	{Kind: domain.PackageDislike, Name: "Unlike Pack", PriceMinor: 2000, Unlikes: 10,
		Description: "Ten unlikes to pass on profiles"},
	{Kind: domain.PackageDislike, Name: "Unlike Bundle", PriceMinor: 5000, Unlikes: 30,
		Description: "Thirty unlikes at a lower price per unlike"},
}

type sampleQuestion struct {
	text       string
	category   domain.QuizCategory
	difficulty domain.Difficulty
	points     int
	choices    []string
	correct    int
}

var sampleQuestions = []sampleQuestion{
	{"What is the capital of France?", domain.CategoryGeography, domain.DifficultyEasy, 1,
		[]string{"London", "Berlin", "Paris", "Madrid"}, 2},
	{"Who painted the Mona Lisa?", domain.CategoryEntertainment, domain.DifficultyMedium, 2,
		[]string{"Vincent van Gogh", "Leonardo da Vinci", "Pablo Picasso", "Michelangelo"}, 1},
	{"What is the largest planet in our solar system?", domain.CategoryScience, domain.DifficultyEasy, 1,
		[]string{"Earth", "Saturn", "Jupiter", "Mars"}, 2},
	{"In which year did World War II end?", domain.CategoryHistory, domain.DifficultyMedium, 2,
		[]string{"1944", "1945", "1946", "1947"}, 1},
	{"What is the chemical symbol for gold?", domain.CategoryScience, domain.DifficultyMedium, 2,
		[]string{"Go", "Gd", "Au", "Ag"}, 2},
	{`Which programming language is known as the "language of the web"?`, domain.CategoryTechnology, domain.DifficultyEasy, 1,
		[]string{"Python", "Java", "JavaScript", "C++"}, 2},
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	var cfg seedConfig
	if err := env.Load(&cfg, nil); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.InitLogger(cfg.LogLevel, "text")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Seeding complete")
}

func run(ctx context.Context, cfg seedConfig) error {
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		return err
	}

	users := postgres.NewUserRepo(pool)
	if err := seedPackages(ctx, postgres.NewPaymentRepo(pool), strings.ToUpper(cfg.Currency)); err != nil {
		return err
	}
	admin, err := seedAdmin(ctx, users, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	return seedQuestions(ctx, postgres.NewQuizRepo(pool), admin)
}

func seedPackages(ctx context.Context, repo *postgres.PaymentRepo, currency string) error {
	for _, pkg := range defaultPackages {
		pkg.Currency = currency
		pkg.Active = true
		saved, err := repo.UpsertPackage(ctx, pkg)
		if err != nil {
			return fmt.Errorf("package %q: %w", pkg.Name, err)
		}
		slog.Info("Package ready", "kind", saved.Kind, "name", saved.Name, "id", saved.ID)
	}
	return nil
}

// seedAdmin returns the admin user, or nil when no credentials are configured.
func seedAdmin(ctx context.Context, users *postgres.UserRepo, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		slog.Warn("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set, skipping admin")
		return nil, nil
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin {
			slog.Warn("Seed admin email belongs to a regular user, leaving it unchanged", "email", email)
		}
		return existing, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	code, err := domain.NewReferralCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate referral code: %w", err)
	}

	admin, err := users.Create(ctx, domain.NewUser{
		Email:        email,
		Username:     strings.SplitN(email, "@", 2)[0],
		PasswordHash: string(hash),
		IsStudent:    domain.IsStudentEmail(email),
		IsAdmin:      true,
		ReferralCode: code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	slog.Info("Admin created", "email", email, "id", admin.ID)
	return admin, nil
}

func seedQuestions(ctx context.Context, repo *postgres.QuizRepo, admin *domain.User) error {
	for _, sq := range sampleQuestions {
		q := &domain.Question{
			Text:       sq.text,
			Category:   sq.category,
			Difficulty: sq.difficulty,
			Points:     sq.points,
			Active:     true,
		}
		if admin != nil {
			q.CreatedBy = &admin.ID
		}
		for i, text := range sq.choices {
			q.Choices = append(q.Choices, domain.Choice{Text: text, Order: i, IsCorrect: i == sq.correct})
		}

		err := repo.CreateQuestion(ctx, q)
		var invalid *domain.ValidationError
		if errors.As(err, &invalid) {
			slog.Debug("Question already present", "text", sq.text)
			continue
		}
		if err != nil {
			return fmt.Errorf("question %q: %w", sq.text, err)
		}
		slog.Info("Question created", "id", q.ID, "category", q.Category)
	}
	return nil
}
