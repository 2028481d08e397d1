package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"studyhub/internal/apiclient"
	"studyhub/internal/domain"
	"studyhub/internal/logger"

	"go.uber.org/zap"
)

// Answer payload encodings, in the order they are tried by default.
const (
	FormatPrefixedKeys = "prefixed_keys"
	FormatIDMap        = "id_map"
	FormatArray        = "array"
	FormatAnswersOnly  = "answers_only"
	FormatFullAttempt  = "full_attempt"
	FormatRawText      = "raw_text"
)

// DefaultSubmitFormats is the fallback order used when none is configured.
var DefaultSubmitFormats = []string{
	FormatPrefixedKeys,
	FormatIDMap,
	FormatArray,
	FormatAnswersOnly,
	FormatFullAttempt,
	FormatRawText,
}

// Submitter sends the answers of a flow in SUBMITTING and normalizes the response.
type Submitter interface {
	Submit(ctx context.Context, api *apiclient.Client, flow *domain.QuizFlow, timeTaken int) (*domain.AttemptResult, error)
	Formats() []string
}

type submission struct {
	quizID    int64
	questions []domain.Question
	answers   map[int64]domain.SelectedAnswer
	timeTaken int
}

// sortedIDs returns the answered question IDs in ascending order.
func (s submission) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.answers))
	for id := range s.answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s submission) keyed(key func(id int64) string, value func(a domain.SelectedAnswer) string) map[string]string {
	out := make(map[string]string, len(s.answers))
	for id, a := range s.answers {
		out[key(id)] = value(a)
	}
	return out
}

func plainID(id int64) string { return strconv.FormatInt(id, 10) }

func optionKey(a domain.SelectedAnswer) string { return a.OptionKey }

// encoder posts one payload shape and returns the raw response body.
type encoder func(ctx context.Context, api *apiclient.Client, s submission) ([]byte, error)

var encoders = map[string]encoder{
	FormatPrefixedKeys: func(ctx context.Context, api *apiclient.Client, s submission) ([]byte, error) {
		answers := s.keyed(func(id int64) string { return fmt.Sprintf("question_id_%d", id) }, optionKey)
		return api.SubmitAnswers(ctx, s.quizID, map[string]interface{}{"answers": answers, "time_taken": s.timeTaken})
	},
	FormatIDMap: func(ctx context.Context, api *apiclient.Client, s submission) ([]byte, error) {
		answers := s.keyed(plainID, optionKey)
		return api.SubmitAnswers(ctx, s.quizID, map[string]interface{}{"answers": answers, "time_taken": s.timeTaken})
	},
	FormatArray: func(ctx context.Context, api *apiclient.Client, s submission) ([]byte, error) {
		type item struct {
			QuestionID     int64  `json:"question_id"`
			SelectedOption string `json:"selected_option"`
		}
		items := make([]item, 0, len(s.answers))
		for _, id := range s.sortedIDs() {
			items = append(items, item{QuestionID: id, SelectedOption: s.answers[id].OptionKey})
		}
		return api.SubmitAnswers(ctx, s.quizID, map[string]interface{}{"answers": items, "time_taken": s.timeTaken})
	},
	FormatAnswersOnly: func(ctx context.Context, api *apiclient.Client, s submission) ([]byte, error) {
		return api.SubmitAnswers(ctx, s.quizID, map[string]interface{}{"answers": s.keyed(plainID, optionKey)})
	},
	FormatFullAttempt: func(ctx context.Context, api *apiclient.Client, s submission) ([]byte, error) {
		type item struct {
			QuestionID     int64  `json:"question_id"`
			SelectedOption string `json:"selected_option"`
			IsCorrect      bool   `json:"is_correct"`
		}
		graded := domain.Grade(s.questions, s.answers)
		correct := 0
		items := make([]item, 0, len(graded))
		for _, r := range graded {
			if r.IsCorrect {
				correct++
			}
			items = append(items, item{QuestionID: r.QuestionID, SelectedOption: r.SelectedOption, IsCorrect: r.IsCorrect})
		}
		return api.CreateAttempt(ctx, map[string]interface{}{
			"quiz":            s.quizID,
			"score":           domain.ScorePercent(correct, len(s.questions)),
			"correct_answers": correct,
			"total_questions": len(s.questions),
			"time_taken":      s.timeTaken,
			"results":         items,
		})
	},
	FormatRawText: func(ctx context.Context, api *apiclient.Client, s submission) ([]byte, error) {
		answers := s.keyed(plainID, func(a domain.SelectedAnswer) string { return a.OptionText })
		return api.SubmitAnswers(ctx, s.quizID, map[string]interface{}{"answers": answers, "time_taken": s.timeTaken})
	},
}

type submitterImpl struct {
	formats []string
}

// NewSubmitter creates a Submitter trying formats in the given order. An empty list
// selects DefaultSubmitFormats.
func NewSubmitter(formats []string) (Submitter, error) {
	if len(formats) == 0 {
		formats = DefaultSubmitFormats
	}
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		if _, ok := encoders[f]; !ok {
			return nil, fmt.Errorf("unknown submit format %q", f)
		}
		if seen[f] {
			return nil, fmt.Errorf("submit format %q listed twice", f)
		}
		seen[f] = true
	}
	return &submitterImpl{formats: append([]string(nil), formats...)}, nil
}

func (s *submitterImpl) Formats() []string {
	return append([]string(nil), s.formats...)
}

// Submit tries each format until the backend accepts one. If every format fails the
// error of the first attempt is returned. A session expiry stops the chain at once.
func (s *submitterImpl) Submit(ctx context.Context, api *apiclient.Client, flow *domain.QuizFlow, timeTaken int) (*domain.AttemptResult, error) {
	sub := submission{
		quizID:    flow.Quiz.ID,
		questions: flow.Questions,
		answers:   flow.Answers,
		timeTaken: timeTaken,
	}

	var firstErr error
	for i, name := range s.formats {
		body, err := encoders[name](ctx, api, sub)
		if err == nil {
			result := domain.NormalizeResult(body, flow.Questions, flow.Answers, timeTaken)
			result.SubmitFormat = name
			logger.Get().Info("Quiz submitted",
				zap.Int64("quizID", flow.Quiz.ID),
				zap.String("format", name),
				zap.Int("attempt", i+1),
				zap.Int("score", result.Score))
			if result.ScoreMismatch {
				logger.Get().Warn("Backend score differs from local grading",
					zap.Int64("quizID", flow.Quiz.ID),
					zap.Int("backendScore", result.Score),
					zap.Int("localScore", result.LocalScore))
			}
			return result, nil
		}

		if errors.Is(err, domain.ErrSessionExpired) {
			return nil, err
		}
		logger.Get().Warn("Submission format rejected",
			zap.Int64("quizID", flow.Quiz.ID),
			zap.String("format", name),
			zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}

	logger.Get().Error("All submission formats failed",
		zap.Int64("quizID", flow.Quiz.ID),
		zap.Strings("formats", s.formats),
		zap.Error(firstErr))
	return nil, firstErr
}
