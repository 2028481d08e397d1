package dto

import "studyhub/internal/domain"

// DashboardResponse is the landing page after login
// @Description Dashboard view
type DashboardResponse struct {
	User           UserResponse      `json:"user"`
	Quizzes        []QuizSummary     `json:"quizzes"`
	RecentAttempts []AttemptSummary  `json:"recent_attempts"`
	Tasks          []TaskView        `json:"tasks"`
	Progress       []domain.Progress `json:"progress"`
	Notices        []Notice          `json:"notices"`
}

// CourseResponse is the page of one curriculum topic
// @Description Course (topic) view
type CourseResponse struct {
	Topic      domain.Topic       `json:"topic"`
	Materials  []domain.Material  `json:"materials"`
	Quizzes    []QuizSummary      `json:"quizzes"`
	Flashcards []domain.Flashcard `json:"flashcards"`
	Summaries  []domain.Summary   `json:"summaries"`
	Notices    []Notice           `json:"notices"`
}

// ScorePoint is one attempt on the score trend chart.
type ScorePoint struct {
	AttemptID int64  `json:"attempt_id"`
	Date      string `json:"date"`
	Score     int    `json:"score"`
}

// TopicAverage summarizes progress on one topic.
type TopicAverage struct {
	Topic        int64   `json:"topic"`
	Name         string  `json:"name"`
	AverageScore float64 `json:"average_score"`
	Completion   float64 `json:"completion_percentage"`
	QuizzesTaken int     `json:"quizzes_taken"`
}

// AnalyticsResponse is the analytics dashboard. Placeholder is set when the
// backend could not be reached and the figures are a fixed sample.
// @Description Analytics view
type AnalyticsResponse struct {
	Placeholder   bool           `json:"placeholder"`
	TotalAttempts int            `json:"total_attempts"`
	AverageScore  float64        `json:"average_score"`
	BestScore     int            `json:"best_score"`
	ScoreTrend    []ScorePoint   `json:"score_trend"`
	Topics        []TopicAverage `json:"topics"`
	Notices       []Notice       `json:"notices"`
}

// FlashcardDeckResponse lists the flashcards of a topic.
type FlashcardDeckResponse struct {
	Topic     int64              `json:"topic,omitempty"`
	Cards     []domain.Flashcard `json:"cards"`
	Known     int                `json:"known"`
	Remaining int                `json:"remaining"`
}

// FlashcardReviewRequest records a flashcard review
// @Description Request body for reviewing a flashcard
type FlashcardReviewRequest struct {
	Known bool `json:"known"`
}

// TaskView is a study task with its computed overdue flag.
type TaskView struct {
	domain.StudyTask
	Overdue bool `json:"overdue"`
}

// StudyPlanResponse is the study-plan page
// @Description Study plan view
type StudyPlanResponse struct {
	Tasks     []TaskView `json:"tasks"`
	Open      int        `json:"open"`
	Overdue   int        `json:"overdue"`
	Completed int        `json:"completed"`
}

// StudyTaskRequest creates a study task
// @Description Request body for a new study task
type StudyTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Topic       *int64 `json:"topic,omitempty"`
	DueDate     string `json:"due_date"`
}

// MaterialsResponse lists learning materials.
type MaterialsResponse struct {
	Materials []domain.Material `json:"materials"`
}

// ExportsResponse lists quiz exports.
type ExportsResponse struct {
	Exports []domain.ExportedQuiz `json:"exports"`
}
