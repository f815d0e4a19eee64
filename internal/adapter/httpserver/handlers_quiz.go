package httpserver

import (
	"net/http"

	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/labstack/echo/v4"
)

type answerRequest struct {
	QuestionID string `json:"question_id"`
	ChoiceID   string `json:"choice_id"`
}

type questionRequest struct {
	Text       string              `json:"text"`
	Category   domain.QuizCategory `json:"category"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Points     int                 `json:"points"`
	Choices    []struct {
		Text      string `json:"text"`
		IsCorrect bool   `json:"is_correct"`
	} `json:"choices"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

type dailyRequest struct {
	QuestionID string `json:"question_id"`
}

func (s *Server) registerQuizRoutes(authed, admin *echo.Group) {
	if s.svc.Quiz == nil {
		return
	}
	authed.GET("/quiz/daily", s.handleDailyQuiz)
	authed.POST("/quiz/answer", s.handleSubmitAnswer)
	authed.GET("/quiz/stats", s.handleQuizStats)

	admin.GET("/quiz/questions", s.handleListQuestions)
	admin.POST("/quiz/questions", s.handleCreateQuestion)
	admin.PUT("/quiz/questions/:id/active", s.handleSetQuestionActive)
	admin.DELETE("/quiz/questions/:id", s.handleDeleteQuestion)
	admin.PUT("/quiz/daily", s.handleSetDailyQuiz)
}

func (s *Server) handleDailyQuiz(c echo.Context) error {
	view, err := s.svc.Quiz.GetDailyQuiz(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]any{
		"date":             view.Date.Format(dateLayout),
		"question":         toQuestionResponse(view.Question),
		"choices":          view.Choices,
		"total_responses":  view.Total,
		"correct_answers":  view.Correct,
		"accuracy_percent": view.Accuracy,
		"answer":           view.Answer,
	})
}

func (s *Server) handleSubmitAnswer(c echo.Context) error {
	var req answerRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	questionID, err := parseUUID("question_id", req.QuestionID)
	if err != nil {
		return err
	}
	choiceID, err := parseUUID("choice_id", req.ChoiceID)
	if err != nil {
		return err
	}

	res, err := s.svc.Quiz.SubmitAnswer(c.Request().Context(), currentUserID(c), questionID, choiceID)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]any{
		"is_correct":       res.IsCorrect,
		"user_choice":      res.UserChoice,
		"correct_choice":   res.CorrectChoice,
		"points_earned":    res.PointsEarned,
		"total_points":     res.TotalPoints,
		"accuracy_percent": res.Accuracy,
	})
}

func (s *Server) handleQuizStats(c echo.Context) error {
	stats, err := s.svc.Quiz.Stats(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, stats)
}

func (s *Server) handleListQuestions(c echo.Context) error {
	questions, err := s.svc.Quiz.ListQuestions(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]adminQuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, toAdminQuestion(&questions[i]))
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleCreateQuestion(c echo.Context) error {
	var req questionRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	in := app.QuestionInput{
		Text:       req.Text,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Points:     req.Points,
	}
	for _, ch := range req.Choices {
		in.Choices = append(in.Choices, app.ChoiceInput{Text: ch.Text, IsCorrect: ch.IsCorrect})
	}

	q, err := s.svc.Quiz.CreateQuestion(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusCreated, toAdminQuestion(q))
}

func (s *Server) handleSetQuestionActive(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req activeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.Active == nil {
		return domain.Invalid("active", "is required")
	}

	if err := s.svc.Quiz.SetQuestionActive(c.Request().Context(), id, *req.Active); err != nil {
		return err
	}
	return sendOK(c)
}

func (s *Server) handleDeleteQuestion(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.Quiz.DeleteQuestion(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSetDailyQuiz(c echo.Context) error {
	var req dailyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := parseUUID("question_id", req.QuestionID)
	if err != nil {
		return err
	}

	dq, err := s.svc.Quiz.SetDailyQuiz(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, map[string]any{
		"date":        dq.Date.Format(dateLayout),
		"question_id": dq.QuestionID,
	})
}
