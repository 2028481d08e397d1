package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"studyhub/internal/apiclient"
	"studyhub/internal/domain"
	"studyhub/internal/dto"
	"studyhub/internal/logger"
	"studyhub/internal/util"
	"studyhub/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// staleSubmission is how long a flow may sit in SUBMITTING before it is treated
// as an interrupted submission and returned to IN_PROGRESS.
const staleSubmission = 2 * time.Minute

// A flow lock lapses after flowLockTTL. A request waits up to flowLockWait
// for a flow held by another request.
const (
	flowLockTTL  = staleSubmission
	flowLockWait = 5 * time.Second
	flowLockPoll = 20 * time.Millisecond
)

// ErrFlowBusy is returned when another request holds the flow for too long.
var ErrFlowBusy = domain.NewError(domain.CodeInvalidState, "This quiz is being updated by another request. Please try again.", nil)

// QuizFlowService drives the quiz-taking state machine of a session.
type QuizFlowService interface {
	// Open returns the current flow for the quiz, loading quiz and questions on first use.
	Open(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error)
	Start(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error)
	Answer(ctx context.Context, sid string, quizID int64, req dto.AnswerRequest) (*dto.QuizFlowResponse, error)
	Submit(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error)
	Retake(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error)
}

type quizFlowServiceImpl struct {
	sessions  SessionService
	flows     *flowStore
	submitter Submitter
	notifier  Notifier
	validator *validation.Validator
	now       func() time.Time
}

// NewQuizFlowService creates a QuizFlowService.
func NewQuizFlowService(sessions SessionService, cache domain.Cache, flowTTL time.Duration, submitter Submitter, notifier Notifier) QuizFlowService {
	return &quizFlowServiceImpl{
		sessions:  sessions,
		flows:     newFlowStore(cache, flowTTL),
		submitter: submitter,
		notifier:  notifier,
		validator: validation.NewValidator(),
		now:       time.Now,
	}
}

func (s *quizFlowServiceImpl) Open(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	flow, err := s.flows.load(ctx, sid, quizID)
	if err != nil {
		return nil, err
	}
	if flow == nil || s.stale(flow) {
		// building or recovering a flow writes it, so it happens under the lock
		unlock, err := s.flows.lock(ctx, sid, quizID)
		if err != nil {
			return nil, err
		}
		defer unlock()
		if flow, err = s.flow(ctx, sid, quizID); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, sid, flow), nil
}

func (s *quizFlowServiceImpl) Start(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	return s.mutate(ctx, sid, quizID, func(flow *domain.QuizFlow) error {
		return flow.Start(s.now())
	})
}

func (s *quizFlowServiceImpl) Answer(ctx context.Context, sid string, quizID int64, req dto.AnswerRequest) (*dto.QuizFlowResponse, error) {
	if errs := s.validator.ValidateAnswer(req.QuestionID, req.SelectedOption); len(errs) > 0 {
		return nil, errs
	}
	return s.mutate(ctx, sid, quizID, func(flow *domain.QuizFlow) error {
		return flow.Answer(req.QuestionID, req.SelectedOption)
	})
}

func (s *quizFlowServiceImpl) Retake(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	return s.mutate(ctx, sid, quizID, func(flow *domain.QuizFlow) error {
		flow.Retake()
		logger.Get().Info("Quiz reset for retake", zap.String("sessionID", sid), zap.Int64("quizID", quizID))
		return nil
	})
}

// Submit sends the answers through the submitter. On success the flow is COMPLETED;
// on failure it returns to IN_PROGRESS with the answers kept.
// The flow stays locked until the backend has answered, so a second submit waits and then
// finds the flow COMPLETED or back in IN_PROGRESS.
func (s *quizFlowServiceImpl) Submit(ctx context.Context, sid string, quizID int64) (*dto.QuizFlowResponse, error) {
	unlock, err := s.flows.lock(ctx, sid, quizID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	flow, err := s.flow(ctx, sid, quizID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dropped, err := flow.BeginSubmit(now)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		logger.Get().Warn("Dropped answers for questions outside the loaded quiz",
			zap.Int64("quizID", quizID),
			zap.Int64s("questionIDs", dropped))
	}
	// SUBMITTING is stored so an interrupted submission can be recovered
	if err := s.flows.save(ctx, sid, flow); err != nil {
		return nil, err
	}

	result, submitErr := s.submitter.Submit(ctx, s.sessions.Client(sid), flow, flow.TimeTaken(now))
	if submitErr != nil {
		if errors.Is(submitErr, domain.ErrSessionExpired) {
			// the session and its flows are already gone
			return nil, submitErr
		}
		if err := flow.FailSubmit(); err != nil {
			return nil, err
		}
		if err := s.flows.save(ctx, sid, flow); err != nil {
			logger.Get().Error("Failed to restore quiz flow after rejected submission", zap.Error(err))
		}
		return nil, submitErr
	}

	if err := flow.CompleteSubmit(result); err != nil {
		return nil, err
	}
	if err := s.flows.save(ctx, sid, flow); err != nil {
		return nil, err
	}
	if err := s.notifier.Push(ctx, sid, dto.NoticeSuccess, "Quiz submitted. You scored "+strconv.Itoa(result.Score)+"%."); err != nil {
		logger.Get().Warn("Failed to queue submission notice", zap.Error(err))
	}
	return s.view(ctx, sid, flow), nil
}

func (s *quizFlowServiceImpl) mutate(ctx context.Context, sid string, quizID int64, apply func(*domain.QuizFlow) error) (*dto.QuizFlowResponse, error) {
	unlock, err := s.flows.lock(ctx, sid, quizID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	flow, err := s.flow(ctx, sid, quizID)
	if err != nil {
		return nil, err
	}
	if err := apply(flow); err != nil {
		return nil, err
	}
	if err := s.flows.save(ctx, sid, flow); err != nil {
		return nil, err
	}
	return s.view(ctx, sid, flow), nil
}

func (s *quizFlowServiceImpl) stale(flow *domain.QuizFlow) bool {
	return flow.State == domain.StateSubmitting && s.now().Sub(flow.SubmittedAt) > staleSubmission
}

// flow returns the stored flow or builds a fresh one from the backend. Callers hold the flow lock.
func (s *quizFlowServiceImpl) flow(ctx context.Context, sid string, quizID int64) (*domain.QuizFlow, error) {
	flow, err := s.flows.load(ctx, sid, quizID)
	if err != nil {
		return nil, err
	}
	if flow != nil {
		if s.stale(flow) {
			logger.Get().Warn("Recovering interrupted submission", zap.String("sessionID", sid), zap.Int64("quizID", quizID))
			_ = flow.FailSubmit()
			if err := s.flows.save(ctx, sid, flow); err != nil {
				return nil, err
			}
		}
		return flow, nil
	}

	quiz, questions, err := loadQuiz(ctx, s.sessions.Client(sid), quizID)
	if err != nil {
		return nil, err
	}
	flow = domain.NewQuizFlow(*quiz, questions)
	if err := s.flows.save(ctx, sid, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// loadQuiz fetches a quiz and its questions concurrently; either failure fails both.
func loadQuiz(ctx context.Context, api *apiclient.Client, quizID int64) (*domain.Quiz, []domain.Question, error) {
	var (
		quiz      *domain.Quiz
		questions []domain.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = api.GetQuiz(gctx, quizID)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = api.ListQuestions(gctx, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if quiz.ID == 0 {
		quiz.ID = quizID
	}

	for _, q := range questions {
		if !q.HasOptions() {
			logger.Get().Warn("Question has no usable options", zap.Int64("quizID", quizID), zap.Int64("questionID", q.ID))
		}
	}
	return quiz, questions, nil
}

func (s *quizFlowServiceImpl) view(ctx context.Context, sid string, flow *domain.QuizFlow) *dto.QuizFlowResponse {
	resp := buildFlowView(flow, s.now())
	resp.Notices = drainNotices(ctx, s.notifier, sid)
	return resp
}

// drainNotices never fails a view; unreadable queues are logged and skipped.
func drainNotices(ctx context.Context, notifier Notifier, sid string) []dto.Notice {
	notices, err := notifier.Drain(ctx, sid)
	if err != nil {
		logger.Get().Warn("Skipping notices", zap.String("sessionID", sid), zap.Error(err))
		return []dto.Notice{}
	}
	return notices
}

func buildFlowView(flow *domain.QuizFlow, now time.Time) *dto.QuizFlowResponse {
	resp := &dto.QuizFlowResponse{
		Quiz:            quizSummary(flow.Quiz),
		State:           string(flow.State),
		Questions:       make([]dto.QuestionView, 0, len(flow.Questions)),
		AnsweredCount:   len(flow.Answers),
		TotalQuestions:  len(flow.Questions),
		ElapsedSeconds:  int(flow.Elapsed(now) / time.Second),
		ReviewAttemptID: flow.ReviewAttemptID,
	}
	if left, ok := flow.RemainingSeconds(now); ok {
		resp.RemainingSeconds = &left
	}

	graded := make(map[int64]domain.QuestionResult)
	if flow.State == domain.StateCompleted && flow.Result != nil {
		resp.Result = resultResponse(flow.Result)
		for _, r := range flow.Result.Results {
			graded[r.QuestionID] = r
		}
	}

	for _, q := range flow.Questions {
		qv := dto.QuestionView{
			ID:        q.ID,
			Text:      q.Text,
			Options:   make([]dto.OptionView, 0, len(q.Options)),
			NoOptions: !q.HasOptions(),
		}
		for _, o := range q.Options {
			qv.Options = append(qv.Options, dto.OptionView{Key: o.Key, Text: o.Text})
		}
		if sel, ok := flow.Answers[q.ID]; ok {
			qv.SelectedOption = sel.OptionKey
			qv.SelectedText = sel.OptionText
		}
		if flow.State == domain.StateCompleted {
			qv.CorrectOption = q.CorrectOption
			qv.Explanation = q.Explanation
			if r, ok := graded[q.ID]; ok {
				correct := r.IsCorrect
				qv.IsCorrect = &correct
			}
		}
		resp.Questions = append(resp.Questions, qv)
	}
	return resp
}

func quizSummary(q domain.Quiz) dto.QuizSummary {
	return dto.QuizSummary{
		ID:         q.ID,
		Title:      q.Title,
		Difficulty: q.Difficulty,
		Topic:      q.Topic,
		TimeLimit:  q.TimeLimit,
		Status:     q.Status,
	}
}

func resultResponse(r *domain.AttemptResult) *dto.ResultResponse {
	out := &dto.ResultResponse{
		AttemptID:      r.AttemptID,
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		TimeTaken:      r.TimeTaken,
		ScoreMismatch:  r.ScoreMismatch,
		SubmitFormat:   r.SubmitFormat,
		Results:        make([]dto.QuestionResultView, 0, len(r.Results)),
	}
	for _, qr := range r.Results {
		out.Results = append(out.Results, dto.QuestionResultView{
			QuestionID:     qr.QuestionID,
			SelectedOption: qr.SelectedOption,
			SelectedText:   qr.SelectedText,
			CorrectOption:  qr.CorrectOption,
			IsCorrect:      qr.IsCorrect,
		})
	}
	return out
}

// flowStore persists quiz flows per session and quiz.
type flowStore struct {
	cache    domain.Cache
	ttl      time.Duration
	lockWait time.Duration
}

func newFlowStore(cache domain.Cache, ttl time.Duration) *flowStore {
	return &flowStore{cache: cache, ttl: ttl, lockWait: flowLockWait}
}

// lock takes the flow's lock, polling until lockWait has passed. The returned
// func releases it and is safe to defer.
func (fs *flowStore) lock(ctx context.Context, sid string, quizID int64) (func(), error) {
	key := flowLockKey(sid, quizID)
	token := util.NewULID()

	waitCtx, cancel := context.WithTimeout(ctx, fs.lockWait)
	defer cancel()
	ticker := time.NewTicker(flowLockPoll)
	defer ticker.Stop()

	for {
		ok, err := fs.cache.TryLock(waitCtx, key, token, flowLockTTL)
		if err != nil && waitCtx.Err() == nil {
			logger.Get().Error("Failed to lock quiz flow", zap.String("key", key), zap.Error(err))
			return nil, domain.NewInternalError("failed to lock quiz flow", err)
		}
		if ok {
			return func() {
				// released even when the request was cancelled
				if err := fs.cache.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					logger.Get().Warn("Failed to unlock quiz flow", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, domain.NewInternalError("request cancelled while waiting for quiz flow", ctx.Err())
		case <-waitCtx.Done():
			logger.Get().Warn("Quiz flow is busy", zap.String("sessionID", sid), zap.Int64("quizID", quizID))
			return nil, ErrFlowBusy
		case <-ticker.C:
		}
	}
}

// load returns nil without error when no flow is stored.
func (fs *flowStore) load(ctx context.Context, sid string, quizID int64) (*domain.QuizFlow, error) {
	data, err := fs.cache.Get(ctx, flowKey(sid, quizID))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, nil
		}
		logger.Get().Error("Failed to read quiz flow", zap.String("sessionID", sid), zap.Int64("quizID", quizID), zap.Error(err))
		return nil, domain.NewInternalError("failed to read quiz flow", err)
	}

	var flow domain.QuizFlow
	if err := json.Unmarshal([]byte(data), &flow); err != nil {
		logger.Get().Warn("Discarding unreadable quiz flow", zap.String("sessionID", sid), zap.Int64("quizID", quizID), zap.Error(err))
		return nil, nil
	}
	if flow.Answers == nil {
		flow.Answers = make(map[int64]domain.SelectedAnswer)
	}
	return &flow, nil
}

func (fs *flowStore) save(ctx context.Context, sid string, flow *domain.QuizFlow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return domain.NewInternalError("failed to encode quiz flow", err)
	}
	if err := fs.cache.Set(ctx, flowKey(sid, flow.Quiz.ID), string(data), fs.ttl); err != nil {
		logger.Get().Error("Failed to store quiz flow", zap.String("sessionID", sid), zap.Int64("quizID", flow.Quiz.ID), zap.Error(err))
		return domain.NewInternalError("failed to store quiz flow", err)
	}

	index := flowIndexKey(sid)
	if err := fs.cache.HSet(ctx, index, strconv.FormatInt(flow.Quiz.ID, 10), string(flow.State)); err != nil {
		return domain.NewInternalError("failed to index quiz flow", err)
	}
	if fs.ttl > 0 {
		if err := fs.cache.Expire(ctx, index, fs.ttl); err != nil {
			logger.Get().Warn("Failed to set quiz flow index expiry", zap.String("key", index), zap.Error(err))
		}
	}
	return nil
}
