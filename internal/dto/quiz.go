package dto

import "time"

// QuizSummary represents a quiz in list views
// @Description Quiz information
type QuizSummary struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Topic      int64  `json:"topic"`
	TimeLimit  *int   `json:"time_limit,omitempty"` // minutes
	Status     string `json:"status,omitempty"`
}

// OptionView is one answer choice of a question.
type OptionView struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// QuestionView represents a question inside the quiz-taking view. Correctness
// fields are only filled once the flow is completed.
type QuestionView struct {
	ID             int64        `json:"id"`
	Text           string       `json:"question_text"`
	Options        []OptionView `json:"options"`
	NoOptions      bool         `json:"no_options"`
	SelectedOption string       `json:"selected_option,omitempty"`
	SelectedText   string       `json:"selected_text,omitempty"`
	CorrectOption  string       `json:"correct_option,omitempty"`
	IsCorrect      *bool        `json:"is_correct,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
}

// QuestionResultView is the graded outcome of one question.
type QuestionResultView struct {
	QuestionID     int64  `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	SelectedText   string `json:"selected_text,omitempty"`
	CorrectOption  string `json:"correct_option,omitempty"`
	IsCorrect      bool   `json:"is_correct"`
}

// ResultResponse is the normalized result of a submitted or reviewed attempt
// @Description Quiz attempt result
type ResultResponse struct {
	AttemptID      int64                `json:"attempt_id,omitempty"`
	Score          int                  `json:"score"`
	CorrectAnswers int                  `json:"correct_answers"`
	TotalQuestions int                  `json:"total_questions"`
	TimeTaken      int                  `json:"time_taken"`
	ScoreMismatch  bool                 `json:"score_mismatch,omitempty"`
	SubmitFormat   string               `json:"submit_format,omitempty"`
	Results        []QuestionResultView `json:"results"`
}

// QuizFlowResponse is the quiz-taking view
// @Description Quiz-taking state
type QuizFlowResponse struct {
	Quiz             QuizSummary     `json:"quiz"`
	State            string          `json:"state"`
	Questions        []QuestionView  `json:"questions"`
	AnsweredCount    int             `json:"answered_count"`
	TotalQuestions   int             `json:"total_questions"`
	ElapsedSeconds   int             `json:"elapsed_seconds"`
	RemainingSeconds *int            `json:"remaining_seconds,omitempty"`
	Result           *ResultResponse `json:"result,omitempty"`
	ReviewAttemptID  int64           `json:"review_attempt_id,omitempty"`
	Notices          []Notice        `json:"notices"`
}

// AnswerRequest records one selection
// @Description Request body for answering a question
type AnswerRequest struct {
	QuestionID     int64  `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// AttemptSummary is one past attempt in the history view.
type AttemptSummary struct {
	ID             int64     `json:"id"`
	Quiz           int64     `json:"quiz"`
	QuizTitle      string    `json:"quiz_title,omitempty"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	TimeTaken      int       `json:"time_taken"`
	CreatedAt      time.Time `json:"created_at"`
}

// AttemptHistoryResponse lists past attempts, newest first
// @Description Quiz attempt history
type AttemptHistoryResponse struct {
	Attempts []AttemptSummary `json:"attempts"`
	Total    int              `json:"total"`
}

// ExportRequest asks for a quiz export
// @Description Request body for exporting a quiz
type ExportRequest struct {
	Quiz   int64  `json:"quiz"`
	Format string `json:"format"`
}
