package domain

import (
	"strings"
	"time"
)

// User is the read-only copy of the backend user profile held in the session.
type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	DateJoined time.Time `json:"date_joined,omitempty"`
}

// DisplayName returns the best human-readable name available.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Topic is a curriculum topic (a "course" in the UI).
type Topic struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Material is an uploaded learning material.
type Material struct {
	ID          int64     `json:"id"`
	Topic       int64     `json:"topic"`
	Title       string    `json:"title"`
	File        string    `json:"file,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Flashcard is a two-sided study card.
type Flashcard struct {
	ID          int64  `json:"id"`
	Topic       int64  `json:"topic"`
	Front       string `json:"front"`
	Back        string `json:"back"`
	Known       bool   `json:"known"`
	ReviewCount int    `json:"review_count"`
}

// Summary is a generated summary of a topic's materials.
type Summary struct {
	ID        int64     `json:"id"`
	Topic     int64     `json:"topic"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StudyTask is an entry of the study plan.
type StudyTask struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Topic       *int64 `json:"topic,omitempty"`
	// DueDate is a calendar date in YYYY-MM-DD form.
	DueDate   string `json:"due_date,omitempty"`
	Completed bool   `json:"completed"`
}

// Overdue reports whether an open task is past its due date.
func (t StudyTask) Overdue(now time.Time) bool {
	if t.Completed || t.DueDate == "" {
		return false
	}
	due, err := time.Parse(DateLayout, t.DueDate)
	if err != nil {
		return false
	}
	return now.After(due.Add(24 * time.Hour))
}

// DateLayout is the backend's calendar date format.
const DateLayout = "2006-01-02"

// Progress is the user's progress on one topic.
type Progress struct {
	Topic             int64     `json:"topic"`
	TopicName         string    `json:"topic_name,omitempty"`
	CompletionPercent float64   `json:"completion_percentage"`
	QuizzesTaken      int       `json:"quizzes_taken"`
	AverageScore      float64   `json:"average_score"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ExportedQuiz is a quiz export produced by the backend.
type ExportedQuiz struct {
	ID        int64     `json:"id"`
	Quiz      int64     `json:"quiz"`
	Format    string    `json:"format"`
	File      string    `json:"file,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
