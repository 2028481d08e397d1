package handler

import (
	"studyhub/internal/domain"
	"studyhub/internal/dto"
	"studyhub/internal/middleware"
	"studyhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Path and query parameter names validated by middleware.ValidateIDParams.
const (
	ParamQuizID    = "quizID"
	ParamAttemptID = "attemptID"
	ParamTopicID   = "topicID"
	ParamCardID    = "cardID"
	ParamTaskID    = "taskID"
	QueryQuiz      = "quiz"
)

// QuizHandler serves the quiz-taking flow and the attempt history.
type QuizHandler struct {
	flows   service.QuizFlowService
	history service.HistoryService
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(flows service.QuizFlowService, history service.HistoryService) *QuizHandler {
	return &QuizHandler{
		flows:   flows,
		history: history,
	}
}

// OpenQuiz godoc
// @Summary Open a quiz
// @Description Returns the current attempt state of a quiz, loading it if needed
// @Tags quiz
// @Produce json
// @Param quizID path int true "Quiz ID"
// @Success 200 {object} dto.QuizFlowResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /quizzes/{quizID} [get]
func (h *QuizHandler) OpenQuiz(c *fiber.Ctx) error {
	resp, err := h.flows.Open(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamQuizID))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// StartQuiz godoc
// @Summary Start a quiz attempt
// @Tags quiz
// @Produce json
// @Param quizID path int true "Quiz ID"
// @Success 200 {object} dto.QuizFlowResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /quizzes/{quizID}/start [post]
func (h *QuizHandler) StartQuiz(c *fiber.Ctx) error {
	resp, err := h.flows.Start(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamQuizID))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// AnswerQuestion godoc
// @Summary Select an option
// @Description Records the selected option for one question; reselecting replaces the answer
// @Tags quiz
// @Accept json
// @Produce json
// @Param quizID path int true "Quiz ID"
// @Param answer body dto.AnswerRequest true "Answer"
// @Success 200 {object} dto.QuizFlowResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /quizzes/{quizID}/answers [post]
func (h *QuizHandler) AnswerQuestion(c *fiber.Ctx) error {
	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	resp, err := h.flows.Answer(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamQuizID), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitQuiz godoc
// @Summary Submit the attempt
// @Description Submits the selected answers and returns the scored result
// @Tags quiz
// @Produce json
// @Param quizID path int true "Quiz ID"
// @Success 200 {object} dto.QuizFlowResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /quizzes/{quizID}/submit [post]
func (h *QuizHandler) SubmitQuiz(c *fiber.Ctx) error {
	resp, err := h.flows.Submit(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamQuizID))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RetakeQuiz godoc
// @Summary Retake a quiz
// @Description Discards answers and result and returns the quiz to its not-started state
// @Tags quiz
// @Produce json
// @Param quizID path int true "Quiz ID"
// @Success 200 {object} dto.QuizFlowResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /quizzes/{quizID}/retake [post]
func (h *QuizHandler) RetakeQuiz(c *fiber.Ctx) error {
	resp, err := h.flows.Retake(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamQuizID))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListAttempts godoc
// @Summary Quiz history
// @Description Lists past attempts, newest first, optionally for one quiz
// @Tags history
// @Produce json
// @Param quiz query int false "Quiz ID"
// @Success 200 {object} dto.AttemptHistoryResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /attempts [get]
func (h *QuizHandler) ListAttempts(c *fiber.Ctx) error {
	resp, err := h.history.ListAttempts(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, QueryQuiz))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ReviewAttempt godoc
// @Summary Review a past attempt
// @Description Shows a past attempt read-only, with correct answers and explanations
// @Tags history
// @Produce json
// @Param quizID path int true "Quiz ID"
// @Param attemptID path int true "Attempt ID"
// @Success 200 {object} dto.QuizFlowResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{quizID}/attempts/{attemptID} [get]
func (h *QuizHandler) ReviewAttempt(c *fiber.Ctx) error {
	resp, err := h.history.Review(c.UserContext(), middleware.SessionID(c),
		middleware.ValidatedID(c, ParamQuizID), middleware.ValidatedID(c, ParamAttemptID))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
