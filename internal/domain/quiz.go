package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Quiz status values as reported by the backend.
const (
	QuizStatusNotStarted = "not_started"
	QuizStatusInProgress = "in_progress"
	QuizStatusCompleted  = "completed"
)

// Quiz represents a quiz as served by the backend API.
type Quiz struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Topic      int64  `json:"topic"`
	// TimeLimit is in minutes; nil means untimed.
	TimeLimit *int   `json:"time_limit,omitempty"`
	Status    string `json:"status,omitempty"`
}

// TimeLimitDuration returns the quiz time limit, or zero when untimed.
func (q Quiz) TimeLimitDuration() time.Duration {
	if q.TimeLimit == nil || *q.TimeLimit <= 0 {
		return 0
	}
	return time.Duration(*q.TimeLimit) * time.Minute
}

// Question is a multiple-choice question with normalized options.
type Question struct {
	ID            int64   `json:"id"`
	Quiz          int64   `json:"quiz"`
	Text          string  `json:"question_text"`
	Options       Options `json:"options"`
	CorrectOption string  `json:"correct_option"`
	Explanation   string  `json:"explanation,omitempty"`
}

// UnmarshalJSON decodes a question and resolves its correct option to an option key.
func (q *Question) UnmarshalJSON(data []byte) error {
	type alias Question
	aux := &struct {
		Text          *string         `json:"text"`
		CorrectOption json.RawMessage `json:"correct_option"`
		CorrectAnswer json.RawMessage `json:"correct_answer"`
		*alias
	}{alias: (*alias)(q)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if q.Text == "" && aux.Text != nil {
		q.Text = *aux.Text
	}

	raw := aux.CorrectOption
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		raw = aux.CorrectAnswer
	}
	ref := rawRef(raw)
	if key, ok := q.Options.KeyFor(ref); ok {
		q.CorrectOption = key
	} else {
		q.CorrectOption = ref
	}
	return nil
}

// rawRef turns a string or number JSON value into a plain string reference.
func rawRef(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

// HasOptions reports whether the question can be rendered as multiple choice.
func (q Question) HasOptions() bool {
	return len(q.Options) > 0
}

// QuestionResult is the per-question outcome of an attempt.
type QuestionResult struct {
	QuestionID     int64  `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	SelectedText   string `json:"selected_text,omitempty"`
	CorrectOption  string `json:"correct_option,omitempty"`
	IsCorrect      bool   `json:"is_correct"`
}

// QuizAttempt is a server-owned record of a completed attempt.
type QuizAttempt struct {
	ID             int64            `json:"id"`
	Quiz           int64            `json:"quiz"`
	Score          float64          `json:"score"`
	CorrectAnswers int              `json:"correct_answers"`
	TotalQuestions int              `json:"total_questions"`
	TimeTaken      int              `json:"time_taken"`
	CreatedAt      time.Time        `json:"created_at"`
	Results        []QuestionResult `json:"results"`
}

// UnmarshalJSON accepts stored selections either as a results list or as an
// "answers" map of question id to selected option.
func (a *QuizAttempt) UnmarshalJSON(data []byte) error {
	type alias QuizAttempt
	aux := &struct {
		QuestionResults []QuestionResult `json:"question_results"`
		Answers         json.RawMessage  `json:"answers"`
		*alias
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(a.Results) == 0 && len(aux.QuestionResults) > 0 {
		a.Results = aux.QuestionResults
	}
	if len(a.Results) == 0 && len(aux.Answers) > 0 {
		a.Results = resultsFromAnswers(aux.Answers)
	}
	return nil
}

func resultsFromAnswers(raw json.RawMessage) []QuestionResult {
	var byID map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byID); err != nil {
		var list []QuestionResult
		if err := json.Unmarshal(raw, &list); err == nil {
			return list
		}
		return nil
	}
	results := make([]QuestionResult, 0, len(byID))
	for k, v := range byID {
		id, err := strconv.ParseInt(strings.TrimPrefix(k, "question_id_"), 10, 64)
		if err != nil {
			continue
		}
		results = append(results, QuestionResult{QuestionID: id, SelectedOption: rawRef(v)})
	}
	sortResults(results)
	return results
}
