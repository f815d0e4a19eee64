package app

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	maxQuestionLength  = 500
	dailyLookupTimeout = 5 * time.Second
)

type QuizChoiceView struct {
	ID    uuid.UUID `json:"id"`
	Text  string    `json:"text"`
	Order int       `json:"order"`
}

type QuizAnswer struct {
	UserChoice    uuid.UUID `json:"user_choice"`
	CorrectChoice uuid.UUID `json:"correct_choice"`
	IsCorrect     bool      `json:"is_correct"`
	PointsEarned  int       `json:"points_earned"`
}

type DailyQuizView struct {
	Date     time.Time
	Question *domain.Question
	Choices  []QuizChoiceView
	Total    int
	Correct  int
	Accuracy float64
	Answer   *QuizAnswer
}

type AnswerResult struct {
	QuizAnswer
	TotalPoints int
	// Accuracy is today's accuracy across all players, set only when the
	// answered question is today's quiz.
	Accuracy *float64
}

type ChoiceInput struct {
	Text      string
	IsCorrect bool
}

type QuestionInput struct {
	Text       string
	Category   domain.QuizCategory
	Difficulty domain.Difficulty
	Points     int
	Choices    []ChoiceInput
}

type QuizService struct {
	repo     domain.QuizRepository
	clock    clockwork.Clock
	location *time.Location
	daily    singleflight.Group
}

func NewQuizService(repo domain.QuizRepository, clock clockwork.Clock, location *time.Location) *QuizService {
	if location == nil {
		location = time.UTC
	}
	return &QuizService{repo: repo, clock: clock, location: location}
}

// today is the current calendar date in the quiz time zone, as a UTC midnight.
func (s *QuizService) today() time.Time {
	y, m, d := s.clock.Now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailyQuiz returns today's row, picking a random active question the first
// time it is asked for. Concurrent callers in this process share one lookup;
// the insert itself is race safe across instances.
func (s *QuizService) dailyQuiz(ctx context.Context, date time.Time) (*domain.DailyQuiz, error) {
	v, err, _ := s.daily.Do(date.Format(time.DateOnly), func() (any, error) {
		// The lookup is shared, so one caller going away must not fail the rest.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dailyLookupTimeout)
		defer cancel()

		dq, err := s.repo.GetDailyQuiz(ctx, date)
		if err == nil {
			return dq, nil
		}
		if !errors.Is(err, domain.ErrDailyQuizNotFound) {
			return nil, err
		}

		questionID, err := s.repo.RandomActiveQuestionID(ctx)
		if err != nil {
			return nil, err
		}
		return s.repo.EnsureDailyQuiz(ctx, date, questionID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.DailyQuiz), nil
}

func choiceViews(q *domain.Question) []QuizChoiceView {
	out := make([]QuizChoiceView, 0, len(q.Choices))
	for _, c := range q.Choices {
		out = append(out, QuizChoiceView{ID: c.ID, Text: c.Text, Order: c.Order})
	}
	return out
}

// GetDailyQuiz shows today's question without revealing the answer, unless
// userID already answered it.
func (s *QuizService) GetDailyQuiz(ctx context.Context, userID uuid.UUID) (*DailyQuizView, error) {
	date := s.today()
	dq, err := s.dailyQuiz(ctx, date)
	if err != nil {
		return nil, err
	}
	q, err := s.repo.GetQuestion(ctx, dq.QuestionID)
	if err != nil {
		return nil, err
	}

	view := &DailyQuizView{
		Date:     date,
		Question: q,
		Choices:  choiceViews(q),
		Total:    dq.TotalResponses,
		Correct:  dq.CorrectResponses,
		Accuracy: dq.Accuracy(),
	}

	resp, err := s.repo.GetResponse(ctx, userID, q.ID)
	if errors.Is(err, domain.ErrResponseNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	correct, _ := q.CorrectChoice()
	view.Answer = &QuizAnswer{
		UserChoice:    resp.ChoiceID,
		CorrectChoice: correct.ID,
		IsCorrect:     resp.IsCorrect,
		PointsEarned:  resp.PointsEarned,
	}
	return view, nil
}

// SubmitAnswer records userID's one answer to an active question. Only
// answers to today's quiz count towards the daily statistics.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID, questionID, choiceID uuid.UUID) (*AnswerResult, error) {
	q, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if !q.Active {
		return nil, domain.ErrQuestionNotFound
	}
	choice, ok := q.Choice(choiceID)
	if !ok {
		return nil, domain.ErrChoiceNotFound
	}
	correct, _ := q.CorrectChoice()

	resp := domain.QuizResponse{
		UserID:     userID,
		QuestionID: q.ID,
		ChoiceID:   choice.ID,
		IsCorrect:  choice.IsCorrect,
		AnsweredAt: s.clock.Now(),
	}
	if choice.IsCorrect {
		resp.PointsEarned = q.Points
	}

	var dailyDate *time.Time
	date := s.today()
	dq, err := s.repo.GetDailyQuiz(ctx, date)
	switch {
	case err == nil && dq.QuestionID == q.ID:
		dailyDate = &date
	case err != nil && !errors.Is(err, domain.ErrDailyQuizNotFound):
		return nil, err
	}

	total, err := s.repo.SubmitResponse(ctx, resp, dailyDate)
	if err != nil {
		return nil, err
	}

	result := &AnswerResult{
		QuizAnswer: QuizAnswer{
			UserChoice:    choice.ID,
			CorrectChoice: correct.ID,
			IsCorrect:     resp.IsCorrect,
			PointsEarned:  resp.PointsEarned,
		},
		TotalPoints: total,
	}
	if dailyDate != nil {
		if updated, err := s.repo.GetDailyQuiz(ctx, date); err == nil {
			accuracy := updated.Accuracy()
			result.Accuracy = &accuracy
		}
	}
	return result, nil
}

func (s *QuizService) Stats(ctx context.Context, userID uuid.UUID) (*domain.QuizStats, error) {
	return s.repo.Stats(ctx, userID)
}

func validateQuestion(in QuestionInput) error {
	text := strings.TrimSpace(in.Text)
	if text == "" || utf8.RuneCountInString(text) > maxQuestionLength {
		return domain.Invalid("text", "must be between 1 and %d characters", maxQuestionLength)
	}
	if !in.Category.Valid() {
		return domain.Invalid("category", "unknown category %q", in.Category)
	}
	if !in.Difficulty.Valid() {
		return domain.Invalid("difficulty", "must be easy, medium or hard")
	}
	if in.Points < domain.MinQuestionPoints || in.Points > domain.MaxQuestionPoints {
		return domain.Invalid("points", "must be between %d and %d", domain.MinQuestionPoints, domain.MaxQuestionPoints)
	}
	if len(in.Choices) < domain.MinChoices || len(in.Choices) > domain.MaxChoices {
		return domain.Invalid("choices", "must have between %d and %d choices", domain.MinChoices, domain.MaxChoices)
	}
	correct := 0
	for _, c := range in.Choices {
		if strings.TrimSpace(c.Text) == "" {
			return domain.Invalid("choices", "choice text is required")
		}
		if c.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return domain.Invalid("choices", "exactly one choice must be correct")
	}
	return nil
}

func (s *QuizService) CreateQuestion(ctx context.Context, createdBy uuid.UUID, in QuestionInput) (*domain.Question, error) {
	if err := validateQuestion(in); err != nil {
		return nil, err
	}

	q := &domain.Question{
		Text:       strings.TrimSpace(in.Text),
		Category:   in.Category,
		Difficulty: in.Difficulty,
		Points:     in.Points,
		Active:     true,
		CreatedBy:  &createdBy,
	}
	for i, c := range in.Choices {
		q.Choices = append(q.Choices, domain.Choice{
			Text:      strings.TrimSpace(c.Text),
			Order:     i + 1,
			IsCorrect: c.IsCorrect,
		})
	}
	if err := s.repo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuizService) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.repo.ListQuestions(ctx)
}

func (s *QuizService) SetQuestionActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetQuestionActive(ctx, id, active)
}

func (s *QuizService) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteQuestion(ctx, id)
}

// SetDailyQuiz features questionID today, replacing any earlier pick.
func (s *QuizService) SetDailyQuiz(ctx context.Context, questionID uuid.UUID) (*domain.DailyQuiz, error) {
	if _, err := s.repo.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	return s.repo.ReplaceDailyQuiz(ctx, s.today(), questionID)
}
