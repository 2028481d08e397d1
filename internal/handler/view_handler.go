package handler

import (
	"strconv"

	"studyhub/internal/domain"
	"studyhub/internal/dto"
	"studyhub/internal/logger"
	"studyhub/internal/middleware"
	"studyhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ViewHandler struct {
	views service.ViewService
}

func NewViewHandler(views service.ViewService) *ViewHandler {
	return &ViewHandler{views: views}
}

// Dashboard godoc
// @Summary Dashboard
// @Description User, quizzes, recent attempts, study tasks and progress
// @Tags views
// @Produce json
// @Success 200 {object} dto.DashboardResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /dashboard [get]
func (h *ViewHandler) Dashboard(c *fiber.Ctx) error {
	resp, err := h.views.Dashboard(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Course godoc
// @Summary Course page
// @Description Topic with its materials, quizzes, flashcards and summaries
// @Tags views
// @Produce json
// @Param topicID path int true "Topic ID"
// @Success 200 {object} dto.CourseResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /topics/{topicID} [get]
func (h *ViewHandler) Course(c *fiber.Ctx) error {
	resp, err := h.views.Course(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamTopicID))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Analytics godoc
// @Summary Analytics
// @Description Score trend and per-topic averages; falls back to sample data flagged as placeholder
// @Tags views
// @Produce json
// @Success 200 {object} dto.AnalyticsResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /analytics [get]
func (h *ViewHandler) Analytics(c *fiber.Ctx) error {
	resp, err := h.views.Analytics(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Flashcards godoc
// @Summary Flashcard deck
// @Tags flashcards
// @Produce json
// @Param topicID path int true "Topic ID"
// @Success 200 {object} dto.FlashcardDeckResponse
// @Router /topics/{topicID}/flashcards [get]
func (h *ViewHandler) Flashcards(c *fiber.Ctx) error {
	resp, err := h.views.Flashcards(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamTopicID))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ReviewFlashcard godoc
// @Summary Record a flashcard review
// @Tags flashcards
// @Accept json
// @Produce json
// @Param cardID path int true "Flashcard ID"
// @Param review body dto.FlashcardReviewRequest true "Review"
// @Success 200 {object} domain.Flashcard
// @Router /flashcards/{cardID}/review [post]
func (h *ViewHandler) ReviewFlashcard(c *fiber.Ctx) error {
	var req dto.FlashcardReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	card, err := h.views.ReviewFlashcard(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamCardID), req.Known)
	if err != nil {
		return err
	}
	return c.JSON(card)
}

// StudyPlan godoc
// @Summary Study plan
// @Tags study-plan
// @Produce json
// @Success 200 {object} dto.StudyPlanResponse
// @Router /study-plan [get]
func (h *ViewHandler) StudyPlan(c *fiber.Ctx) error {
	resp, err := h.views.StudyPlan(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// CreateStudyTask godoc
// @Summary Add a study task
// @Tags study-plan
// @Accept json
// @Produce json
// @Param task body dto.StudyTaskRequest true "Task"
// @Success 201 {object} dto.TaskView
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /study-plan/tasks [post]
func (h *ViewHandler) CreateStudyTask(c *fiber.Ctx) error {
	var req dto.StudyTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	task, err := h.views.CreateStudyTask(c.UserContext(), middleware.SessionID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// CompleteStudyTask godoc
// @Summary Complete a study task
// @Tags study-plan
// @Produce json
// @Param taskID path int true "Task ID"
// @Success 200 {object} dto.TaskView
// @Router /study-plan/tasks/{taskID}/complete [post]
func (h *ViewHandler) CompleteStudyTask(c *fiber.Ctx) error {
	task, err := h.views.CompleteStudyTask(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamTaskID))
	if err != nil {
		return err
	}
	return c.JSON(task)
}

// Materials godoc
// @Summary Learning materials of a topic
// @Tags materials
// @Produce json
// @Param topicID path int true "Topic ID"
// @Success 200 {object} dto.MaterialsResponse
// @Router /topics/{topicID}/materials [get]
func (h *ViewHandler) Materials(c *fiber.Ctx) error {
	resp, err := h.views.Materials(c.UserContext(), middleware.SessionID(c), middleware.ValidatedID(c, ParamTopicID))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// UploadMaterial godoc
// @Summary Upload a learning material
// @Description The file is forwarded to the learning platform as multipart form data
// @Tags materials
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param topic formData int true "Topic ID"
// @Param file formData file true "Material file"
// @Success 201 {object} domain.Material
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /materials [post]
func (h *ViewHandler) UploadMaterial(c *fiber.Ctx) error {
	upload := service.MaterialUpload{Title: c.FormValue("title")}
	if topicID, err := strconv.ParseInt(c.FormValue("topic"), 10, 64); err == nil {
		upload.TopicID = topicID
	}

	if fh, err := c.FormFile("file"); err == nil {
		file, err := fh.Open()
		if err != nil {
			return domain.NewInternalError("failed to read uploaded file", err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				logger.Get().Warn("Failed to close uploaded file", zap.Error(err))
			}
		}()
		upload.FileName = fh.Filename
		upload.Size = fh.Size
		upload.Content = file
	}

	material, err := h.views.UploadMaterial(c.UserContext(), middleware.SessionID(c), upload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(material)
}

// Exports godoc
// @Summary Quiz exports
// @Tags exports
// @Produce json
// @Success 200 {object} dto.ExportsResponse
// @Router /exports [get]
func (h *ViewHandler) Exports(c *fiber.Ctx) error {
	resp, err := h.views.Exports(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// CreateExport godoc
// @Summary Export a quiz
// @Tags exports
// @Accept json
// @Produce json
// @Param export body dto.ExportRequest true "Export"
// @Success 201 {object} domain.ExportedQuiz
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /exports [post]
func (h *ViewHandler) CreateExport(c *fiber.Ctx) error {
	var req dto.ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	export, err := h.views.CreateExport(c.UserContext(), middleware.SessionID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(export)
}
