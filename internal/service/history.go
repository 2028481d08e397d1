package service

import (
	"context"
	"math"
	"sort"
	"time"

	"studyhub/internal/domain"
	"studyhub/internal/dto"
	"studyhub/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HistoryService gives read-only access to past attempts. Attempts cannot be
// changed; reviewing one only loads it into the session's quiz flow.
type HistoryService interface {
	// ListAttempts lists attempts newest first; quizID <= 0 lists all quizzes.
	ListAttempts(ctx context.Context, sid string, quizID int64) (*dto.AttemptHistoryResponse, error)
	Review(ctx context.Context, sid string, quizID, attemptID int64) (*dto.QuizFlowResponse, error)
}

type historyServiceImpl struct {
	sessions SessionService
	flows    *flowStore
	notifier Notifier
	now      func() time.Time
}

// NewHistoryService creates a HistoryService sharing the quiz flow store.
func NewHistoryService(sessions SessionService, cache domain.Cache, flowTTL time.Duration, notifier Notifier) HistoryService {
	return &historyServiceImpl{
		sessions: sessions,
		flows:    newFlowStore(cache, flowTTL),
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *historyServiceImpl) ListAttempts(ctx context.Context, sid string, quizID int64) (*dto.AttemptHistoryResponse, error) {
	api := s.sessions.Client(sid)

	var (
		attempts []domain.QuizAttempt
		quizzes  []domain.Quiz
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attempts, err = api.ListAttempts(gctx, quizID)
		return err
	})
	g.Go(func() error {
		var err error
		quizzes, err = api.ListQuizzes(gctx, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	titles := make(map[int64]string, len(quizzes))
	for _, q := range quizzes {
		titles[q.ID] = q.Title
	}

	summaries := attemptSummaries(attempts, titles, quizID)
	return &dto.AttemptHistoryResponse{Attempts: summaries, Total: len(summaries)}, nil
}

// attemptSummaries filters by quizID (when > 0) and orders newest first.
func attemptSummaries(attempts []domain.QuizAttempt, titles map[int64]string, quizID int64) []dto.AttemptSummary {
	out := make([]dto.AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		if quizID > 0 && a.Quiz != quizID {
			continue
		}
		out = append(out, dto.AttemptSummary{
			ID:             a.ID,
			Quiz:           a.Quiz,
			QuizTitle:      titles[a.Quiz],
			Score:          attemptScore(a),
			CorrectAnswers: a.CorrectAnswers,
			TotalQuestions: a.TotalQuestions,
			TimeTaken:      a.TimeTaken,
			CreatedAt:      a.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// attemptScore returns a stored attempt's score as a whole percentage.
func attemptScore(a domain.QuizAttempt) int {
	if a.Score <= 1 && a.CorrectAnswers > 0 && a.TotalQuestions > 0 {
		return domain.ScorePercent(a.CorrectAnswers, a.TotalQuestions)
	}
	return int(math.Round(a.Score))
}

func (s *historyServiceImpl) Review(ctx context.Context, sid string, quizID, attemptID int64) (*dto.QuizFlowResponse, error) {
	api := s.sessions.Client(sid)

	var (
		attempt   *domain.QuizAttempt
		quiz      *domain.Quiz
		questions []domain.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attempt, err = api.GetAttempt(gctx, attemptID)
		return err
	})
	g.Go(func() error {
		var err error
		quiz, questions, err = loadQuiz(gctx, api, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if attempt.Quiz != 0 && attempt.Quiz != quizID {
		return nil, domain.NewNotFoundError("This attempt does not belong to the selected quiz.")
	}

	unlock, err := s.flows.lock(ctx, sid, quizID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	flow := domain.NewQuizFlow(*quiz, questions)
	flow.LoadReview(*attempt)
	if err := s.flows.save(ctx, sid, flow); err != nil {
		return nil, err
	}
	logger.Get().Info("Attempt loaded for review",
		zap.String("sessionID", sid),
		zap.Int64("quizID", quizID),
		zap.Int64("attemptID", attemptID))

	resp := buildFlowView(flow, s.now())
	resp.Notices = drainNotices(ctx, s.notifier, sid)
	return resp, nil
}
