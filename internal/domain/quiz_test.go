package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantText    string
		wantCorrect string
		wantOptions int
	}{
		{
			name:        "key reference",
			raw:         `{"id":1,"question_text":"Capital of France?","options":["Paris","Rome"],"correct_option":"a"}`,
			wantText:    "Capital of France?",
			wantCorrect: "a",
			wantOptions: 2,
		},
		{
			name:        "text reference and text field",
			raw:         `{"id":2,"text":"2+2?","options":"3,4,5","correct_option":"4"}`,
			wantText:    "2+2?",
			wantCorrect: "b",
			wantOptions: 3,
		},
		{
			name:        "numeric index in correct_answer",
			raw:         `{"id":3,"question_text":"Pick c","options":"[\"x\",\"y\",\"z\"]","correct_answer":2}`,
			wantText:    "Pick c",
			wantCorrect: "c",
			wantOptions: 3,
		},
		{
			name:        "unresolvable reference kept as sent",
			raw:         `{"id":4,"question_text":"?","options":null,"correct_option":"q"}`,
			wantText:    "?",
			wantCorrect: "q",
			wantOptions: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Question
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &q))
			assert.Equal(t, tt.wantText, q.Text)
			assert.Equal(t, tt.wantCorrect, q.CorrectOption)
			assert.Len(t, q.Options, tt.wantOptions)
			assert.Equal(t, tt.wantOptions > 0, q.HasOptions())
		})
	}
}

func TestQuestion_RoundTrip(t *testing.T) {
	q := Question{ID: 9, Text: "t", Options: Options{{Key: "a", Text: "x"}, {Key: "b", Text: "y"}}, CorrectOption: "b"}
	data, err := json.Marshal(q)
	require.NoError(t, err)

	var back Question
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, q, back)
}

func TestQuizAttempt_UnmarshalJSON(t *testing.T) {
	t.Run("results list", func(t *testing.T) {
		var a QuizAttempt
		require.NoError(t, json.Unmarshal([]byte(`{"id":5,"quiz":1,"score":67,"results":[{"question_id":1,"selected_option":"a","is_correct":true}]}`), &a))
		assert.Equal(t, int64(5), a.ID)
		require.Len(t, a.Results, 1)
		assert.True(t, a.Results[0].IsCorrect)
	})

	t.Run("answers map", func(t *testing.T) {
		var a QuizAttempt
		require.NoError(t, json.Unmarshal([]byte(`{"id":6,"quiz":1,"answers":{"question_id_2":"b","1":"a"}}`), &a))
		assert.Equal(t, []QuestionResult{
			{QuestionID: 1, SelectedOption: "a"},
			{QuestionID: 2, SelectedOption: "b"},
		}, a.Results)
	})

	t.Run("question_results alias", func(t *testing.T) {
		var a QuizAttempt
		require.NoError(t, json.Unmarshal([]byte(`{"id":7,"question_results":[{"question_id":3,"selected_option":"c"}]}`), &a))
		require.Len(t, a.Results, 1)
		assert.Equal(t, int64(3), a.Results[0].QuestionID)
	})
}

func TestQuiz_TimeLimitDuration(t *testing.T) {
	ten := 10
	zero := 0
	assert.Equal(t, 10*time.Minute, Quiz{TimeLimit: &ten}.TimeLimitDuration())
	assert.Equal(t, time.Duration(0), Quiz{TimeLimit: &zero}.TimeLimitDuration())
	assert.Equal(t, time.Duration(0), Quiz{}.TimeLimitDuration())
}

func TestStudyTask_Overdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.True(t, StudyTask{DueDate: "2024-03-08"}.Overdue(now))
	assert.False(t, StudyTask{DueDate: "2024-03-10"}.Overdue(now))
	assert.False(t, StudyTask{DueDate: "2024-03-08", Completed: true}.Overdue(now))
	assert.False(t, StudyTask{DueDate: "not a date"}.Overdue(now))
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace", Email: "a@x"}.DisplayName())
	assert.Equal(t, "ada", User{Username: "ada", Email: "a@x"}.DisplayName())
	assert.Equal(t, "a@x", User{Email: "a@x"}.DisplayName())
}
