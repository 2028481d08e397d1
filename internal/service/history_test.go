package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"studyhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attemptsJSON = `{"count":3,"results":[
	{"id":1,"quiz":5,"score":50,"correct_answers":1,"total_questions":2,"time_taken":30,"created_at":"2024-02-01T10:00:00Z"},
	{"id":2,"quiz":6,"score":0.75,"correct_answers":3,"total_questions":4,"time_taken":60,"created_at":"2024-02-03T10:00:00Z"},
	{"id":3,"quiz":5,"score":100,"correct_answers":2,"total_questions":2,"time_taken":20,"created_at":"2024-02-02T10:00:00Z"}
]}`

func newHistoryService(env *testEnv) *historyServiceImpl {
	svc := NewHistoryService(env.sessions, env.cache, time.Hour, env.notifier).(*historyServiceImpl)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestHistoryService_ListAttempts(t *testing.T) {
	env := newTestEnv(t)
	env.backend.reply(http.MethodGet, "/quiz-attempts/", http.StatusOK, attemptsJSON)
	env.backend.reply(http.MethodGet, "/quizzes/", http.StatusOK, `[{"id":5,"title":"Basics"},{"id":6,"title":"Advanced"}]`)
	svc := newHistoryService(env)

	all, err := svc.ListAttempts(context.Background(), env.sid, 0)
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	assert.Equal(t, []int64{2, 3, 1}, []int64{all.Attempts[0].ID, all.Attempts[1].ID, all.Attempts[2].ID})
	assert.Equal(t, 75, all.Attempts[0].Score)
	assert.Equal(t, "Advanced", all.Attempts[0].QuizTitle)

	filtered, err := svc.ListAttempts(context.Background(), env.sid, 5)
	require.NoError(t, err)
	require.Len(t, filtered.Attempts, 2)
	for _, a := range filtered.Attempts {
		assert.Equal(t, int64(5), a.Quiz)
	}
}

func TestHistoryService_ListAttemptsFailsAsBatch(t *testing.T) {
	env := newTestEnv(t)
	env.backend.reply(http.MethodGet, "/quiz-attempts/", http.StatusOK, attemptsJSON)
	env.backend.reply(http.MethodGet, "/quizzes/", http.StatusServiceUnavailable, ``)

	_, err := newHistoryService(env).ListAttempts(context.Background(), env.sid, 0)
	assert.Equal(t, domain.CodeUpstream, domain.CodeOf(err))
}

func TestHistoryService_Review(t *testing.T) {
	env := newTestEnv(t)
	env.serveQuiz()
	env.backend.reply(http.MethodGet, "/quiz-attempts/12/", http.StatusOK, `{
		"id":12,"quiz":5,"score":50,"time_taken":80,"created_at":"2024-02-01T10:00:00Z",
		"answers":{"question_id_1":"a","question_id_3":"Jupiter"}
	}`)
	svc := newHistoryService(env)
	ctx := context.Background()

	view, err := svc.Review(ctx, env.sid, 5, 12)
	require.NoError(t, err)

	assert.Equal(t, string(domain.StateCompleted), view.State)
	assert.Equal(t, int64(12), view.ReviewAttemptID)
	assert.Equal(t, 2, view.AnsweredCount)
	assert.Equal(t, "a", view.Questions[0].SelectedOption)
	assert.Empty(t, view.Questions[1].SelectedOption)
	assert.Equal(t, "b", view.Questions[2].SelectedOption)
	assert.Equal(t, "Jupiter", view.Questions[2].SelectedText)
	require.NotNil(t, view.Result)
	assert.Equal(t, 50, view.Result.Score)
	assert.Equal(t, 80, view.Result.TimeTaken)

	flow, err := svc.flows.load(ctx, env.sid, 5)
	require.NoError(t, err)
	keys := make([]int64, 0, len(flow.Answers))
	for id := range flow.Answers {
		keys = append(keys, id)
	}
	assert.ElementsMatch(t, []int64{1, 3}, keys)

	// review mode can be left through a retake
	flows := newFlowService(t, env, nil)
	retake, err := flows.Retake(ctx, env.sid, 5)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StateNotStarted), retake.State)
	assert.Zero(t, retake.ReviewAttemptID)
}

func TestHistoryService_ReviewOfOtherQuiz(t *testing.T) {
	env := newTestEnv(t)
	env.serveQuiz()
	env.backend.reply(http.MethodGet, "/quiz-attempts/13/", http.StatusOK, `{"id":13,"quiz":9,"results":[]}`)

	_, err := newHistoryService(env).Review(context.Background(), env.sid, 5, 13)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}
