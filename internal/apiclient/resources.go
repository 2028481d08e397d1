package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"studyhub/internal/domain"
)

func byID(collection string, id int64) string {
	return fmt.Sprintf("/%s/%d/", collection, id)
}

func filter(key string, id int64) url.Values {
	if id <= 0 {
		return nil
	}
	return url.Values{key: []string{strconv.FormatInt(id, 10)}}
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "/users/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTopics lists curriculum topics.
func (c *Client) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	return getList[domain.Topic](ctx, c, "/topics/", nil)
}

func (c *Client) GetTopic(ctx context.Context, id int64) (*domain.Topic, error) {
	var topic domain.Topic
	if err := c.getJSON(ctx, byID("topics", id), nil, &topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

// ListMaterials lists learning materials, optionally restricted to a topic.
func (c *Client) ListMaterials(ctx context.Context, topicID int64) ([]domain.Material, error) {
	return getList[domain.Material](ctx, c, "/materials/", filter("topic", topicID))
}

// Upload is a file forwarded to the backend as multipart form data.
type Upload struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

// UploadMaterial forwards a material file and its form fields to the backend.
// The body is buffered so it can be replayed after a token refresh.
func (c *Client) UploadMaterial(ctx context.Context, fields map[string]string, file Upload) (*domain.Material, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, domain.NewInternalError("failed to encode upload", err)
		}
	}
	part, err := w.CreateFormFile(file.FieldName, file.FileName)
	if err != nil {
		return nil, domain.NewInternalError("failed to encode upload", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, domain.NewInternalError("failed to read uploaded file", err)
	}
	if err := w.Close(); err != nil {
		return nil, domain.NewInternalError("failed to encode upload", err)
	}

	body, err := c.send(ctx, request{
		method:      http.MethodPost,
		path:        "/materials/",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		auth:        true,
	})
	if err != nil {
		return nil, err
	}
	var material domain.Material
	if err := decode("/materials/", body, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// ListQuizzes lists quizzes, optionally restricted to a topic.
func (c *Client) ListQuizzes(ctx context.Context, topicID int64) ([]domain.Quiz, error) {
	return getList[domain.Quiz](ctx, c, "/quizzes/", filter("topic", topicID))
}

func (c *Client) GetQuiz(ctx context.Context, id int64) (*domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.getJSON(ctx, byID("quizzes", id), nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// ListQuestions returns the questions of a quiz with normalized options.
func (c *Client) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	return getList[domain.Question](ctx, c, "/quiz-questions/", filter("quiz", quizID))
}

// ListAttempts lists past attempts; quizID <= 0 lists all of them.
func (c *Client) ListAttempts(ctx context.Context, quizID int64) ([]domain.QuizAttempt, error) {
	return getList[domain.QuizAttempt](ctx, c, "/quiz-attempts/", filter("quiz", quizID))
}

func (c *Client) GetAttempt(ctx context.Context, id int64) (*domain.QuizAttempt, error) {
	var attempt domain.QuizAttempt
	if err := c.getJSON(ctx, byID("quiz-attempts", id), nil, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// SubmitAnswers posts an answer payload to the quiz submit endpoint and returns the
// raw response body for result normalization.
func (c *Client) SubmitAnswers(ctx context.Context, quizID int64, payload interface{}) ([]byte, error) {
	req, err := jsonRequest(http.MethodPost, fmt.Sprintf("/quizzes/%d/submit/", quizID), payload)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, req)
}

// CreateAttempt posts a complete attempt record and returns the raw response body.
func (c *Client) CreateAttempt(ctx context.Context, payload interface{}) ([]byte, error) {
	req, err := jsonRequest(http.MethodPost, "/quiz-attempts/", payload)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, req)
}

// ListFlashcards lists flashcards, optionally restricted to a topic.
func (c *Client) ListFlashcards(ctx context.Context, topicID int64) ([]domain.Flashcard, error) {
	return getList[domain.Flashcard](ctx, c, "/flashcards/", filter("topic", topicID))
}

// ReviewFlashcard records whether the user knew the card.
func (c *Client) ReviewFlashcard(ctx context.Context, id int64, known bool) (*domain.Flashcard, error) {
	var card domain.Flashcard
	if err := c.writeJSON(ctx, http.MethodPatch, byID("flashcards", id), map[string]bool{"known": known}, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) ListSummaries(ctx context.Context, topicID int64) ([]domain.Summary, error) {
	return getList[domain.Summary](ctx, c, "/summaries/", filter("topic", topicID))
}

func (c *Client) ListStudyTasks(ctx context.Context) ([]domain.StudyTask, error) {
	return getList[domain.StudyTask](ctx, c, "/study-tasks/", nil)
}

func (c *Client) CreateStudyTask(ctx context.Context, task domain.StudyTask) (*domain.StudyTask, error) {
	var created domain.StudyTask
	if err := c.writeJSON(ctx, http.MethodPost, "/study-tasks/", task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CompleteStudyTask marks a study task done.
func (c *Client) CompleteStudyTask(ctx context.Context, id int64) (*domain.StudyTask, error) {
	var task domain.StudyTask
	if err := c.writeJSON(ctx, http.MethodPatch, byID("study-tasks", id), map[string]bool{"completed": true}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) ListProgress(ctx context.Context) ([]domain.Progress, error) {
	return getList[domain.Progress](ctx, c, "/user-progress/", nil)
}

func (c *Client) ListExports(ctx context.Context) ([]domain.ExportedQuiz, error) {
	return getList[domain.ExportedQuiz](ctx, c, "/exported-quizzes/", nil)
}

// CreateExport asks the backend to export a quiz in the given format.
func (c *Client) CreateExport(ctx context.Context, quizID int64, format string) (*domain.ExportedQuiz, error) {
	payload := map[string]interface{}{"quiz": quizID, "format": format}
	var export domain.ExportedQuiz
	if err := c.writeJSON(ctx, http.MethodPost, "/exported-quizzes/", payload, &export); err != nil {
		return nil, err
	}
	return &export, nil
}
