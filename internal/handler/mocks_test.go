package handler_test

import (
	"context"

	"studyhub/internal/apiclient"
	"studyhub/internal/domain"
	"studyhub/internal/dto"
	"studyhub/internal/service"
)

// --- Manual Mocks ---

type MockSessionService struct {
	LoginFunc  func(ctx context.Context, email, password string) (*service.Session, error)
	LoadFunc   func(ctx context.Context, sid string) (*service.Session, error)
	LogoutFunc func(ctx context.Context, sid string) error
}

func (m *MockSessionService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	panic("MockSessionService.LoginFunc not implemented")
}
func (m *MockSessionService) Load(ctx context.Context, sid string) (*service.Session, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, sid)
	}
	panic("MockSessionService.LoadFunc not implemented")
}
func (m *MockSessionService) Client(sid string) *apiclient.Client {
	panic("MockSessionService.Client not implemented")
}
func (m *MockSessionService) Logout(ctx context.Context, sid string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sid)
	}
	panic("MockSessionService.LogoutFunc not implemented")
}

type MockNotifier struct {
	DrainFunc func(ctx context.Context, sid string) ([]dto.Notice, error)
}

func (m *MockNotifier) Push(ctx context.Context, sid, level, message string) error {
	panic("MockNotifier.Push not implemented")
}
func (m *MockNotifier) Drain(ctx context.Context, sid string) ([]dto.Notice, error) {
	if m.DrainFunc != nil {
		return m.DrainFunc(ctx, sid)
	}
	panic("MockNotifier.DrainFunc not implemented")
}

type flowFunc func(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error)

type MockQuizFlowService struct {
	OpenFunc   flowFunc
	StartFunc  flowFunc
	AnswerFunc func(ctx context.Context, sid string, quizID int64, req dto.AnswerRequest) (*dto.QuizFlowResponse, error)
	SubmitFunc flowFunc
	RetakeFunc flowFunc
}

func callFlow(name string, f flowFunc, ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	if f != nil {
		return f(ctx, sid, quizID)
	}
	panic("MockQuizFlowService." + name + "Func not implemented")
}

func (m *MockQuizFlowService) Open(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	return callFlow("Open", m.OpenFunc, ctx, sid, quizID)
}
func (m *MockQuizFlowService) Start(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	return callFlow("Start", m.StartFunc, ctx, sid, quizID)
}
func (m *MockQuizFlowService) Answer(ctx context.Context, sid string, quizID int64, req dto.AnswerRequest) (*dto.QuizFlowResponse, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, sid, quizID, req)
	}
	panic("MockQuizFlowService.AnswerFunc not implemented")
}
func (m *MockQuizFlowService) Submit(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	return callFlow("Submit", m.SubmitFunc, ctx, sid, quizID)
}
func (m *MockQuizFlowService) Retake(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	return callFlow("Retake", m.RetakeFunc, ctx, sid, quizID)
}

type MockHistoryService struct {
	ListAttemptsFunc func(ctx context.Context, sid string, quizID int64) (*dto.AttemptHistoryResponse, error)
	ReviewFunc       func(ctx context.Context, sid string, quizID, attemptID int64) (*dto.QuizFlowResponse, error)
}

func (m *MockHistoryService) ListAttempts(ctx context.Context, sid string, quizID int64) (*dto.AttemptHistoryResponse, error) {
	if m.ListAttemptsFunc != nil {
		return m.ListAttemptsFunc(ctx, sid, quizID)
	}
	panic("MockHistoryService.ListAttemptsFunc not implemented")
}
func (m *MockHistoryService) Review(ctx context.Context, sid string, quizID, attemptID int64) (*dto.QuizFlowResponse, error) {
	if m.ReviewFunc != nil {
		return m.ReviewFunc(ctx, sid, quizID, attemptID)
	}
	panic("MockHistoryService.ReviewFunc not implemented")
}

type MockViewService struct {
	DashboardFunc         func(ctx context.Context, sid string) (*dto.DashboardResponse, error)
	CourseFunc            func(ctx context.Context, sid string, topicID int64) (*dto.CourseResponse, error)
	AnalyticsFunc         func(ctx context.Context, sid string) (*dto.AnalyticsResponse, error)
	FlashcardsFunc        func(ctx context.Context, sid string, topicID int64) (*dto.FlashcardDeckResponse, error)
	ReviewFlashcardFunc   func(ctx context.Context, sid string, cardID int64, known bool) (*domain.Flashcard, error)
	StudyPlanFunc         func(ctx context.Context, sid string) (*dto.StudyPlanResponse, error)
	CreateStudyTaskFunc   func(ctx context.Context, sid string, req dto.StudyTaskRequest) (*dto.TaskView, error)
	CompleteStudyTaskFunc func(ctx context.Context, sid string, taskID int64) (*dto.TaskView, error)
	MaterialsFunc         func(ctx context.Context, sid string, topicID int64) (*dto.MaterialsResponse, error)
	UploadMaterialFunc    func(ctx context.Context, sid string, upload service.MaterialUpload) (*domain.Material, error)
	ExportsFunc           func(ctx context.Context, sid string) (*dto.ExportsResponse, error)
	CreateExportFunc      func(ctx context.Context, sid string, req dto.ExportRequest) (*domain.ExportedQuiz, error)
}

func (m *MockViewService) Dashboard(ctx context.Context, sid string) (*dto.DashboardResponse, error) {
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx, sid)
	}
	panic("MockViewService.DashboardFunc not implemented")
}
func (m *MockViewService) Course(ctx context.Context, sid string, topicID int64) (*dto.CourseResponse, error) {
	if m.CourseFunc != nil {
		return m.CourseFunc(ctx, sid, topicID)
	}
	panic("MockViewService.CourseFunc not implemented")
}
func (m *MockViewService) Analytics(ctx context.Context, sid string) (*dto.AnalyticsResponse, error) {
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx, sid)
	}
	panic("MockViewService.AnalyticsFunc not implemented")
}
func (m *MockViewService) Flashcards(ctx context.Context, sid string, topicID int64) (*dto.FlashcardDeckResponse, error) {
	if m.FlashcardsFunc != nil {
		return m.FlashcardsFunc(ctx, sid, topicID)
	}
	panic("MockViewService.FlashcardsFunc not implemented")
}
func (m *MockViewService) ReviewFlashcard(ctx context.Context, sid string, cardID int64, known bool) (*domain.Flashcard, error) {
	if m.ReviewFlashcardFunc != nil {
		return m.ReviewFlashcardFunc(ctx, sid, cardID, known)
	}
	panic("MockViewService.ReviewFlashcardFunc not implemented")
}
func (m *MockViewService) StudyPlan(ctx context.Context, sid string) (*dto.StudyPlanResponse, error) {
	if m.StudyPlanFunc != nil {
		return m.StudyPlanFunc(ctx, sid)
	}
	panic("MockViewService.StudyPlanFunc not implemented")
}
func (m *MockViewService) CreateStudyTask(ctx context.Context, sid string, req dto.StudyTaskRequest) (*dto.TaskView, error) {
	if m.CreateStudyTaskFunc != nil {
		return m.CreateStudyTaskFunc(ctx, sid, req)
	}
	panic("MockViewService.CreateStudyTaskFunc not implemented")
}
func (m *MockViewService) CompleteStudyTask(ctx context.Context, sid string, taskID int64) (*dto.TaskView, error) {
	if m.CompleteStudyTaskFunc != nil {
		return m.CompleteStudyTaskFunc(ctx, sid, taskID)
	}
	panic("MockViewService.CompleteStudyTaskFunc not implemented")
}
func (m *MockViewService) Materials(ctx context.Context, sid string, topicID int64) (*dto.MaterialsResponse, error) {
	if m.MaterialsFunc != nil {
		return m.MaterialsFunc(ctx, sid, topicID)
	}
	panic("MockViewService.MaterialsFunc not implemented")
}
func (m *MockViewService) UploadMaterial(ctx context.Context, sid string, upload service.MaterialUpload) (*domain.Material, error) {
	if m.UploadMaterialFunc != nil {
		return m.UploadMaterialFunc(ctx, sid, upload)
	}
	panic("MockViewService.UploadMaterialFunc not implemented")
}
func (m *MockViewService) Exports(ctx context.Context, sid string) (*dto.ExportsResponse, error) {
	if m.ExportsFunc != nil {
		return m.ExportsFunc(ctx, sid)
	}
	panic("MockViewService.ExportsFunc not implemented")
}
func (m *MockViewService) CreateExport(ctx context.Context, sid string, req dto.ExportRequest) (*domain.ExportedQuiz, error) {
	if m.CreateExportFunc != nil {
		return m.CreateExportFunc(ctx, sid, req)
	}
	panic("MockViewService.CreateExportFunc not implemented")
}
