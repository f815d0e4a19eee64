package domain

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

type QuizCategory string

const (
	CategoryGeneral       QuizCategory = "general"
	CategoryScience       QuizCategory = "science"
	CategoryHistory       QuizCategory = "history"
	CategorySports        QuizCategory = "sports"
	CategoryEntertainment QuizCategory = "entertainment"
	CategoryGeography     QuizCategory = "geography"
	CategoryLiterature    QuizCategory = "literature"
	CategoryTechnology    QuizCategory = "technology"
)

func (c QuizCategory) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryScience, CategoryHistory, CategorySports,
		CategoryEntertainment, CategoryGeography, CategoryLiterature, CategoryTechnology:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

const (
	MinQuestionPoints = 1
	MaxQuestionPoints = 10
	MinChoices        = 2
	MaxChoices        = 6
)

type Question struct {
	ID         uuid.UUID
	Text       string
	Category   QuizCategory
	Difficulty Difficulty
	Points     int
	Active     bool
	CreatedBy  *uuid.UUID
	CreatedAt  time.Time
	Choices    []Choice
}

func (q *Question) Choice(id uuid.UUID) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

func (q *Question) CorrectChoice() (Choice, bool) {
	for _, c := range q.Choices {
		if c.IsCorrect {
			return c, true
		}
	}
	return Choice{}, false
}

type Choice struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Text       string
	Order      int
	IsCorrect  bool
}

type QuizResponse struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	QuestionID   uuid.UUID
	ChoiceID     uuid.UUID
	IsCorrect    bool
	PointsEarned int
	AnsweredAt   time.Time
}

type DailyQuiz struct {
	Date             time.Time
	QuestionID       uuid.UUID
	TotalResponses   int
	CorrectResponses int
}

func (d DailyQuiz) Accuracy() float64 {
	return Percentage(d.CorrectResponses, d.TotalResponses)
}

// Percentage returns part/total*100 rounded to two decimals, 0 for an empty total.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

type QuizStats struct {
	TotalAnswered  int     `json:"total_answered"`
	CorrectAnswers int     `json:"correct_answers"`
	Accuracy       float64 `json:"accuracy_percentage"`
	PointsEarned   int     `json:"total_points_earned"`
	CurrentPoints  int     `json:"current_points_balance"`
}

type QuizRepository interface {
	CreateQuestion(ctx context.Context, q *Question) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*Question, error)
	ListQuestions(ctx context.Context) ([]Question, error)
	SetQuestionActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	RandomActiveQuestionID(ctx context.Context) (uuid.UUID, error)

	GetDailyQuiz(ctx context.Context, date time.Time) (*DailyQuiz, error)
	// EnsureDailyQuiz inserts the row unless another caller won the race and
	// returns whichever row is stored.
	EnsureDailyQuiz(ctx context.Context, date time.Time, questionID uuid.UUID) (*DailyQuiz, error)
	ReplaceDailyQuiz(ctx context.Context, date time.Time, questionID uuid.UUID) (*DailyQuiz, error)

	GetResponse(ctx context.Context, userID, questionID uuid.UUID) (*QuizResponse, error)
	// SubmitResponse stores the answer, credits points and bumps the daily
	// counters for dailyDate when it is non-nil. Returns the new points balance.
	SubmitResponse(ctx context.Context, r QuizResponse, dailyDate *time.Time) (int, error)
	Stats(ctx context.Context, userID uuid.UUID) (*QuizStats, error)
}
