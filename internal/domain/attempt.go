package domain

import (
	"time"
)

// AttemptState is the state of the quiz-taking flow.
type AttemptState string

const (
	StateNotStarted AttemptState = "NOT_STARTED"
	StateInProgress AttemptState = "IN_PROGRESS"
	StateSubmitting AttemptState = "SUBMITTING"
	StateCompleted  AttemptState = "COMPLETED"
)

// SelectedAnswer is the in-memory answer to one question.
type SelectedAnswer struct {
	OptionKey  string `json:"selected_option"`
	OptionText string `json:"selected_text"`
}

// QuizFlow is the single source of truth for one user taking one quiz.
// All transitions go through its methods; invalid transitions return INVALID_STATE.
type QuizFlow struct {
	Quiz            Quiz                     `json:"quiz"`
	Questions       []Question               `json:"questions"`
	State           AttemptState             `json:"state"`
	Answers         map[int64]SelectedAnswer `json:"answers"`
	StartedAt       time.Time                `json:"started_at"`
	SubmittedAt     time.Time                `json:"submitted_at"`
	Result          *AttemptResult           `json:"result,omitempty"`
	ReviewAttemptID int64                    `json:"review_attempt_id,omitempty"`
}

// NewQuizFlow returns a flow in NOT_STARTED for the given quiz.
func NewQuizFlow(quiz Quiz, questions []Question) *QuizFlow {
	return &QuizFlow{
		Quiz:      quiz,
		Questions: questions,
		State:     StateNotStarted,
		Answers:   make(map[int64]SelectedAnswer),
	}
}

func (f *QuizFlow) question(id int64) (Question, bool) {
	for _, q := range f.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Start moves NOT_STARTED to IN_PROGRESS and resets the timer and answers.
func (f *QuizFlow) Start(now time.Time) error {
	if f.State != StateNotStarted {
		return NewInvalidStateError(f.State, "start")
	}
	f.State = StateInProgress
	f.StartedAt = now
	f.SubmittedAt = time.Time{}
	f.Answers = make(map[int64]SelectedAnswer)
	f.Result = nil
	return nil
}

// Answer records the selected option for a question of the loaded set.
func (f *QuizFlow) Answer(questionID int64, optionKey string) error {
	if f.State != StateInProgress {
		return NewInvalidStateError(f.State, "answer")
	}
	q, ok := f.question(questionID)
	if !ok {
		return ValidationErrors{NewValidationError("question_id", "does not belong to this quiz")}
	}
	text, ok := q.Options.Text(optionKey)
	if !ok {
		return ValidationErrors{NewInvalidFormatError("selected_option", optionKey)}
	}
	if f.Answers == nil {
		f.Answers = make(map[int64]SelectedAnswer)
	}
	f.Answers[questionID] = SelectedAnswer{OptionKey: optionKey, OptionText: text}
	return nil
}

// Elapsed returns the time spent on the attempt so far, frozen at submission.
func (f *QuizFlow) Elapsed(now time.Time) time.Duration {
	if f.StartedAt.IsZero() {
		return 0
	}
	end := now
	if !f.SubmittedAt.IsZero() {
		end = f.SubmittedAt
	}
	if end.Before(f.StartedAt) {
		return 0
	}
	return end.Sub(f.StartedAt)
}

// TimeTaken returns whole seconds spent, capped at the quiz time limit.
func (f *QuizFlow) TimeTaken(now time.Time) int {
	elapsed := f.Elapsed(now)
	if limit := f.Quiz.TimeLimitDuration(); limit > 0 && elapsed > limit {
		elapsed = limit
	}
	return int(elapsed / time.Second)
}

// RemainingSeconds returns the seconds left for a timed quiz in progress.
func (f *QuizFlow) RemainingSeconds(now time.Time) (int, bool) {
	limit := f.Quiz.TimeLimitDuration()
	if limit == 0 || f.State != StateInProgress {
		return 0, false
	}
	left := limit - f.Elapsed(now)
	if left < 0 {
		left = 0
	}
	return int(left / time.Second), true
}

// BeginSubmit moves IN_PROGRESS to SUBMITTING. It rejects a submission without any
// answer for the loaded questions and leaves the state unchanged in that case.
// Answers for question IDs outside the loaded set are dropped and returned.
func (f *QuizFlow) BeginSubmit(now time.Time) ([]int64, error) {
	if f.State != StateInProgress {
		return nil, NewInvalidStateError(f.State, "submit")
	}
	valid := 0
	var unknown []int64
	for id := range f.Answers {
		if _, ok := f.question(id); ok {
			valid++
		} else {
			unknown = append(unknown, id)
		}
	}
	if valid == 0 {
		return nil, NewError(CodeNoAnswers, "Please answer at least one question before submitting.", nil)
	}
	for _, id := range unknown {
		delete(f.Answers, id)
	}
	f.State = StateSubmitting
	f.SubmittedAt = now
	return unknown, nil
}

// CompleteSubmit moves SUBMITTING to COMPLETED with the normalized result.
func (f *QuizFlow) CompleteSubmit(result *AttemptResult) error {
	if f.State != StateSubmitting {
		return NewInvalidStateError(f.State, "complete submission")
	}
	f.State = StateCompleted
	f.Result = result
	return nil
}

// FailSubmit returns a failed submission to IN_PROGRESS; the timer keeps running.
func (f *QuizFlow) FailSubmit() error {
	if f.State != StateSubmitting {
		return NewInvalidStateError(f.State, "fail submission")
	}
	f.State = StateInProgress
	f.SubmittedAt = time.Time{}
	return nil
}

// Retake resets the flow to NOT_STARTED from any state.
func (f *QuizFlow) Retake() {
	f.State = StateNotStarted
	f.Answers = make(map[int64]SelectedAnswer)
	f.StartedAt = time.Time{}
	f.SubmittedAt = time.Time{}
	f.Result = nil
	f.ReviewAttemptID = 0
}

// LoadReview puts the flow into COMPLETED for a past attempt. The answer map is
// rebuilt from the attempt's stored selections, keyed by exactly the question IDs
// present in its results.
func (f *QuizFlow) LoadReview(attempt QuizAttempt) {
	answers := make(map[int64]SelectedAnswer, len(attempt.Results))
	results := make([]QuestionResult, 0, len(attempt.Results))
	for _, r := range attempt.Results {
		sel := SelectedAnswer{OptionKey: r.SelectedOption, OptionText: r.SelectedText}
		if q, ok := f.question(r.QuestionID); ok {
			if key, ok := q.Options.KeyFor(r.SelectedOption); ok {
				sel.OptionKey = key
				sel.OptionText, _ = q.Options.Text(key)
			}
			if r.CorrectOption == "" {
				r.CorrectOption = q.CorrectOption
			}
		}
		r.SelectedOption = sel.OptionKey
		r.SelectedText = sel.OptionText
		answers[r.QuestionID] = sel
		results = append(results, r)
	}

	total := attempt.TotalQuestions
	if total == 0 {
		total = len(f.Questions)
	}
	correct := attempt.CorrectAnswers
	if correct == 0 {
		correct = countCorrect(results)
	}
	score := int(attempt.Score + 0.5)
	if attempt.Score <= 1 && correct > 0 {
		score = ScorePercent(correct, total)
	}

	f.State = StateCompleted
	f.Answers = answers
	f.ReviewAttemptID = attempt.ID
	f.StartedAt = attempt.CreatedAt
	f.SubmittedAt = attempt.CreatedAt
	f.Result = &AttemptResult{
		AttemptID:      attempt.ID,
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: total,
		TimeTaken:      attempt.TimeTaken,
		Results:        results,
		LocalScore:     ScorePercent(countCorrect(results), total),
	}
}
