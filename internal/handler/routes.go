package handler

import (
	"studyhub/internal/middleware"
	"studyhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups the route handlers of the site.
type Handlers struct {
	Auth  *AuthHandler
	Quiz  *QuizHandler
	Views *ViewHandler
}

// RegisterRoutes mounts every route on api. Everything except login sits behind
// the session cookie.
func RegisterRoutes(api fiber.Router, h Handlers, sessions service.SessionService, cookieName string) {
	vm := middleware.NewValidationMiddleware()
	protected := middleware.RequireSession(sessions, cookieName)

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/logout", protected, h.Auth.Logout)

	api.Get("/me", protected, h.Auth.Me)
	api.Get("/notices", protected, h.Auth.Notices)

	// Views
	topicID := vm.ValidateIDParams(ParamTopicID)
	api.Get("/dashboard", protected, h.Views.Dashboard)
	api.Get("/analytics", protected, h.Views.Analytics)
	api.Get("/topics/:topicID", protected, topicID, h.Views.Course)
	api.Get("/topics/:topicID/flashcards", protected, topicID, h.Views.Flashcards)
	api.Get("/topics/:topicID/materials", protected, topicID, h.Views.Materials)
	api.Post("/flashcards/:cardID/review", protected, vm.ValidateIDParams(ParamCardID), h.Views.ReviewFlashcard)
	api.Get("/study-plan", protected, h.Views.StudyPlan)
	api.Post("/study-plan/tasks", protected, h.Views.CreateStudyTask)
	api.Post("/study-plan/tasks/:taskID/complete", protected, vm.ValidateIDParams(ParamTaskID), h.Views.CompleteStudyTask)
	api.Post("/materials", protected, h.Views.UploadMaterial)
	api.Get("/exports", protected, h.Views.Exports)
	api.Post("/exports", protected, h.Views.CreateExport)

	// Quiz flow and history
	quizID := vm.ValidateIDParams(ParamQuizID)
	api.Get("/attempts", protected, vm.ValidateQueryID(QueryQuiz), h.Quiz.ListAttempts)
	api.Get("/quizzes/:quizID", protected, quizID, h.Quiz.OpenQuiz)
	api.Post("/quizzes/:quizID/start", protected, quizID, h.Quiz.StartQuiz)
	api.Post("/quizzes/:quizID/answers", protected, quizID, h.Quiz.AnswerQuestion)
	api.Post("/quizzes/:quizID/submit", protected, quizID, h.Quiz.SubmitQuiz)
	api.Post("/quizzes/:quizID/retake", protected, quizID, h.Quiz.RetakeQuiz)
	api.Get("/quizzes/:quizID/attempts/:attemptID", protected, vm.ValidateIDParams(ParamQuizID, ParamAttemptID), h.Quiz.ReviewAttempt)
}
