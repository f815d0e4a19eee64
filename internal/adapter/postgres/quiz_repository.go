package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const questionColumns = `id, text, category, difficulty, points, active, created_by, created_at`

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func scanQuestion(row pgx.Row) (*domain.Question, error) {
	var q domain.Question
	if err := row.Scan(&q.ID, &q.Text, &q.Category, &q.Difficulty, &q.Points, &q.Active, &q.CreatedBy, &q.CreatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuizRepo) CreateQuestion(ctx context.Context, q *domain.Question) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO quiz_questions (text, category, difficulty, points, active, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			q.Text, q.Category, q.Difficulty, q.Points, q.Active, q.CreatedBy,
		).Scan(&q.ID, &q.CreatedAt)
		if isUniqueViolation(err, "quiz_questions_text_key") {
			return domain.Invalid("text", "a question with this text already exists")
		}
		if err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}

		for i := range q.Choices {
			c := &q.Choices[i]
			c.QuestionID = q.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO quiz_choices (question_id, text, sort_order, is_correct)
				VALUES ($1, $2, $3, $4)
				RETURNING id`, q.ID, c.Text, c.Order, c.IsCorrect).Scan(&c.ID)
			if err != nil {
				return fmt.Errorf("failed to insert choice: %w", err)
			}
		}
		return nil
	})
}

func (r *QuizRepo) loadChoices(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID][]domain.Choice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, question_id, text, sort_order, is_correct
		FROM quiz_choices
		WHERE question_id = ANY($1)
		ORDER BY question_id, sort_order`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load choices: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Choice)
	for rows.Next() {
		var c domain.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.Order, &c.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		out[c.QuestionID] = append(out[c.QuestionID], c)
	}
	return out, rows.Err()
}

func (r *QuizRepo) GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM quiz_questions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	choices, err := r.loadChoices(ctx, []uuid.UUID{q.ID})
	if err != nil {
		return nil, err
	}
	q.Choices = choices[q.ID]
	return q, nil
}

func (r *QuizRepo) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM quiz_questions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	var out []domain.Question
	var ids []uuid.UUID
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		out = append(out, *q)
		ids = append(ids, q.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	choices, err := r.loadChoices(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Choices = choices[out[i].ID]
	}
	return out, nil
}

func (r *QuizRepo) SetQuestionActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quiz_questions SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuizRepo) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quiz_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuizRepo) RandomActiveQuestionID(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM quiz_questions WHERE active ORDER BY random() LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrNoActiveQuestions
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to pick question: %w", err)
	}
	return id, nil
}

func scanDailyQuiz(row pgx.Row) (*domain.DailyQuiz, error) {
	var d domain.DailyQuiz
	if err := row.Scan(&d.Date, &d.QuestionID, &d.TotalResponses, &d.CorrectResponses); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *QuizRepo) GetDailyQuiz(ctx context.Context, date time.Time) (*domain.DailyQuiz, error) {
	d, err := scanDailyQuiz(r.pool.QueryRow(ctx, `
		SELECT quiz_date, question_id, total_responses, correct_responses
		FROM daily_quizzes WHERE quiz_date = $1`, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDailyQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily quiz: %w", err)
	}
	return d, nil
}

func (r *QuizRepo) EnsureDailyQuiz(ctx context.Context, date time.Time, questionID uuid.UUID) (*domain.DailyQuiz, error) {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO daily_quizzes (quiz_date, question_id) VALUES ($1, $2)
		ON CONFLICT (quiz_date) DO NOTHING`, date, questionID); err != nil {
		return nil, fmt.Errorf("failed to insert daily quiz: %w", err)
	}
	return r.GetDailyQuiz(ctx, date)
}

func (r *QuizRepo) ReplaceDailyQuiz(ctx context.Context, date time.Time, questionID uuid.UUID) (*domain.DailyQuiz, error) {
	d, err := scanDailyQuiz(r.pool.QueryRow(ctx, `
		INSERT INTO daily_quizzes (quiz_date, question_id) VALUES ($1, $2)
		ON CONFLICT (quiz_date) DO UPDATE SET
			question_id = EXCLUDED.question_id,
			total_responses = 0,
			correct_responses = 0
		RETURNING quiz_date, question_id, total_responses, correct_responses`, date, questionID))
	if isForeignKeyViolation(err) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace daily quiz: %w", err)
	}
	return d, nil
}

func (r *QuizRepo) GetResponse(ctx context.Context, userID, questionID uuid.UUID) (*domain.QuizResponse, error) {
	var resp domain.QuizResponse
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, question_id, choice_id, is_correct, points_earned, answered_at
		FROM quiz_responses WHERE user_id = $1 AND question_id = $2`, userID, questionID,
	).Scan(&resp.ID, &resp.UserID, &resp.QuestionID, &resp.ChoiceID, &resp.IsCorrect, &resp.PointsEarned, &resp.AnsweredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz response: %w", err)
	}
	return &resp, nil
}

func (r *QuizRepo) SubmitResponse(ctx context.Context, resp domain.QuizResponse, dailyDate *time.Time) (int, error) {
	var points int
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO quiz_responses (user_id, question_id, choice_id, is_correct, points_earned)
			VALUES ($1, $2, $3, $4, $5)`,
			resp.UserID, resp.QuestionID, resp.ChoiceID, resp.IsCorrect, resp.PointsEarned)
		if isUniqueViolation(err, "quiz_responses_user_question_key") {
			return domain.ErrAlreadyAnswered
		}
		if err != nil {
			return fmt.Errorf("failed to insert quiz response: %w", err)
		}

		err = tx.QueryRow(ctx, `
			UPDATE users SET points_balance = points_balance + $2, updated_at = now()
			WHERE id = $1
			RETURNING points_balance`, resp.UserID, resp.PointsEarned).Scan(&points)
		if err != nil {
			return fmt.Errorf("failed to credit quiz points: %w", err)
		}

		if dailyDate != nil {
			correct := 0
			if resp.IsCorrect {
				correct = 1
			}
			if _, err := tx.Exec(ctx, `
				UPDATE daily_quizzes SET
					total_responses = total_responses + 1,
					correct_responses = correct_responses + $3
				WHERE quiz_date = $1 AND question_id = $2`, *dailyDate, resp.QuestionID, correct); err != nil {
				return fmt.Errorf("failed to update daily quiz stats: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return points, nil
}

func (r *QuizRepo) Stats(ctx context.Context, userID uuid.UUID) (*domain.QuizStats, error) {
	var s domain.QuizStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM quiz_responses WHERE user_id = $1),
			(SELECT count(*) FROM quiz_responses WHERE user_id = $1 AND is_correct),
			(SELECT COALESCE(sum(points_earned), 0) FROM quiz_responses WHERE user_id = $1),
			u.points_balance
		FROM users u WHERE u.id = $1`, userID,
	).Scan(&s.TotalAnswered, &s.CorrectAnswers, &s.PointsEarned, &s.CurrentPoints)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz stats: %w", err)
	}
	s.Accuracy = domain.Percentage(s.CorrectAnswers, s.TotalAnswered)
	return &s, nil
}
