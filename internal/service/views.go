package service

import (
	"context"
	"io"
	"sort"
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

const (
	recentAttemptLimit = 5
	scoreTrendLimit    = 20
)

// AnalyticsUnavailableMessage is the toast shown when analytics fall back to sample data.
const AnalyticsUnavailableMessage = "Analytics are unavailable right now. Showing sample data."

// MaterialUpload is a file to forward to the backend.
type MaterialUpload struct {
	Title    string
	TopicID  int64
	FileName string
	Size     int64
	Content  io.Reader
}

// ViewService assembles the read-mostly pages of the site.
type ViewService interface {
	Dashboard(ctx context.Context, sid string) (*dto.DashboardResponse, error)
	Course(ctx context.Context, sid string, topicID int64) (*dto.CourseResponse, error)
	// Analytics never fails on backend errors; it returns a placeholder instead.
	Analytics(ctx context.Context, sid string) (*dto.AnalyticsResponse, error)
	Flashcards(ctx context.Context, sid string, topicID int64) (*dto.FlashcardDeckResponse, error)
	ReviewFlashcard(ctx context.Context, sid string, cardID int64, known bool) (*domain.Flashcard, error)
	StudyPlan(ctx context.Context, sid string) (*dto.StudyPlanResponse, error)
	CreateStudyTask(ctx context.Context, sid string, req dto.StudyTaskRequest) (*dto.TaskView, error)
	CompleteStudyTask(ctx context.Context, sid string, taskID int64) (*dto.TaskView, error)
	Materials(ctx context.Context, sid string, topicID int64) (*dto.MaterialsResponse, error)
	UploadMaterial(ctx context.Context, sid string, upload MaterialUpload) (*domain.Material, error)
	Exports(ctx context.Context, sid string) (*dto.ExportsResponse, error)
	CreateExport(ctx context.Context, sid string, req dto.ExportRequest) (*domain.ExportedQuiz, error)
}

type viewServiceImpl struct {
	sessions  SessionService
	notifier  Notifier
	validator *validation.Validator
	now       func() time.Time
}

// NewViewService creates a ViewService.
func NewViewService(sessions SessionService, notifier Notifier) ViewService {
	return &viewServiceImpl{
		sessions:  sessions,
		notifier:  notifier,
		validator: validation.NewValidator(),
		now:       time.Now,
	}
}

func (s *viewServiceImpl) Dashboard(ctx context.Context, sid string) (*dto.DashboardResponse, error) {
	sess, err := s.sessions.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	api := s.sessions.Client(sid)

	var (
		user     = sess.User
		quizzes  []domain.Quiz
		attempts []domain.QuizAttempt
		tasks    []domain.StudyTask
		progress []domain.Progress
	)
	g, gctx := errgroup.WithContext(ctx)
	if user == nil {
		g.Go(func() error {
			var err error
			user, err = api.Me(gctx)
			return err
		})
	}
	g.Go(func() error {
		var err error
		quizzes, err = api.ListQuizzes(gctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		attempts, err = api.ListAttempts(gctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = api.ListStudyTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = api.ListProgress(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	titles := make(map[int64]string, len(quizzes))
	summaries := make([]dto.QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		titles[q.ID] = q.Title
		summaries = append(summaries, quizSummary(q))
	}
	recent := attemptSummaries(attempts, titles, 0)
	if len(recent) > recentAttemptLimit {
		recent = recent[:recentAttemptLimit]
	}

	return &dto.DashboardResponse{
		User:           dto.NewUserResponse(user),
		Quizzes:        summaries,
		RecentAttempts: recent,
		Tasks:          s.taskViews(tasks),
		Progress:       progress,
		Notices:        drainNotices(ctx, s.notifier, sid),
	}, nil
}

func (s *viewServiceImpl) Course(ctx context.Context, sid string, topicID int64) (*dto.CourseResponse, error) {
	api := s.sessions.Client(sid)

	resp := &dto.CourseResponse{}
	var quizzes []domain.Quiz
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		topic, err := api.GetTopic(gctx, topicID)
		if err == nil {
			resp.Topic = *topic
		}
		return err
	})
	g.Go(func() error {
		var err error
		resp.Materials, err = api.ListMaterials(gctx, topicID)
		return err
	})
	g.Go(func() error {
		var err error
		quizzes, err = api.ListQuizzes(gctx, topicID)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Flashcards, err = api.ListFlashcards(gctx, topicID)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Summaries, err = api.ListSummaries(gctx, topicID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp.Quizzes = make([]dto.QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		resp.Quizzes = append(resp.Quizzes, quizSummary(q))
	}
	resp.Notices = drainNotices(ctx, s.notifier, sid)
	return resp, nil
}

func (s *viewServiceImpl) Analytics(ctx context.Context, sid string) (*dto.AnalyticsResponse, error) {
	api := s.sessions.Client(sid)

	var (
		progress []domain.Progress
		attempts []domain.QuizAttempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		progress, err = api.ListProgress(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		attempts, err = api.ListAttempts(gctx, 0)
		return err
	})

	var resp *dto.AnalyticsResponse
	if err := g.Wait(); err != nil {
		// an expired session still logs the user out
		if domain.CodeOf(err) == domain.CodeUnauthorized {
			return nil, err
		}
		logger.Get().Warn("Analytics unavailable, serving placeholder data", zap.String("sessionID", sid), zap.Error(err))
		if pushErr := s.notifier.Push(ctx, sid, dto.NoticeWarning, AnalyticsUnavailableMessage); pushErr != nil {
			logger.Get().Error("Failed to queue analytics notice", zap.Error(pushErr))
		}
		resp = PlaceholderAnalytics()
	} else {
		resp = buildAnalytics(progress, attempts)
	}
	resp.Notices = drainNotices(ctx, s.notifier, sid)
	return resp, nil
}

func buildAnalytics(progress []domain.Progress, attempts []domain.QuizAttempt) *dto.AnalyticsResponse {
	resp := &dto.AnalyticsResponse{
		ScoreTrend: []dto.ScorePoint{},
		Topics:     make([]dto.TopicAverage, 0, len(progress)),
	}

	ordered := make([]domain.QuizAttempt, len(attempts))
	copy(ordered, attempts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	scores := make([]int, 0, len(ordered))
	for _, a := range ordered {
		score := attemptScore(a)
		scores = append(scores, score)
		if score > resp.BestScore {
			resp.BestScore = score
		}
		resp.ScoreTrend = append(resp.ScoreTrend, dto.ScorePoint{
			AttemptID: a.ID,
			Date:      a.CreatedAt.Format(domain.DateLayout),
			Score:     score,
		})
	}
	if len(resp.ScoreTrend) > scoreTrendLimit {
		resp.ScoreTrend = resp.ScoreTrend[len(resp.ScoreTrend)-scoreTrendLimit:]
	}
	resp.TotalAttempts = len(scores)
	resp.AverageScore = util.Round(util.Mean(scores), 1)

	for _, p := range progress {
		name := p.TopicName
		if name == "" {
			name = "Topic " + strconv.FormatInt(p.Topic, 10)
		}
		resp.Topics = append(resp.Topics, dto.TopicAverage{
			Topic:        p.Topic,
			Name:         name,
			AverageScore: util.Round(p.AverageScore, 1),
			Completion:   util.Round(p.CompletionPercent, 1),
			QuizzesTaken: p.QuizzesTaken,
		})
	}
	return resp
}

// PlaceholderAnalytics returns the fixed sample shown when analytics cannot be loaded.
func PlaceholderAnalytics() *dto.AnalyticsResponse {
	trend := []dto.ScorePoint{
		{Date: "2024-01-01", Score: 55},
		{Date: "2024-01-08", Score: 62},
		{Date: "2024-01-15", Score: 68},
		{Date: "2024-01-22", Score: 74},
		{Date: "2024-01-29", Score: 81},
	}
	scores := make([]int, 0, len(trend))
	best := 0
	for _, p := range trend {
		scores = append(scores, p.Score)
		if p.Score > best {
			best = p.Score
		}
	}
	return &dto.AnalyticsResponse{
		Placeholder:   true,
		TotalAttempts: len(trend),
		AverageScore:  util.Round(util.Mean(scores), 1),
		BestScore:     best,
		ScoreTrend:    trend,
		Topics: []dto.TopicAverage{
			{Topic: 1, Name: "Sample topic A", AverageScore: 72, Completion: 60, QuizzesTaken: 3},
			{Topic: 2, Name: "Sample topic B", AverageScore: 64, Completion: 35, QuizzesTaken: 2},
		},
	}
}

func (s *viewServiceImpl) Flashcards(ctx context.Context, sid string, topicID int64) (*dto.FlashcardDeckResponse, error) {
	cards, err := s.sessions.Client(sid).ListFlashcards(ctx, topicID)
	if err != nil {
		return nil, err
	}
	resp := &dto.FlashcardDeckResponse{Topic: topicID, Cards: cards}
	for _, c := range cards {
		if c.Known {
			resp.Known++
		}
	}
	resp.Remaining = len(cards) - resp.Known
	return resp, nil
}

func (s *viewServiceImpl) ReviewFlashcard(ctx context.Context, sid string, cardID int64, known bool) (*domain.Flashcard, error) {
	card, err := s.sessions.Client(sid).ReviewFlashcard(ctx, cardID, known)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("Flashcard reviewed", zap.Int64("cardID", cardID), zap.Bool("known", known))
	return card, nil
}

func (s *viewServiceImpl) StudyPlan(ctx context.Context, sid string) (*dto.StudyPlanResponse, error) {
	tasks, err := s.sessions.Client(sid).ListStudyTasks(ctx)
	if err != nil {
		return nil, err
	}
	views := s.taskViews(tasks)
	resp := &dto.StudyPlanResponse{Tasks: views}
	for _, t := range views {
		switch {
		case t.Completed:
			resp.Completed++
		case t.Overdue:
			resp.Overdue++
			resp.Open++
		default:
			resp.Open++
		}
	}
	return resp, nil
}

// taskViews orders open tasks by due date (undated last) ahead of completed ones.
func (s *viewServiceImpl) taskViews(tasks []domain.StudyTask) []dto.TaskView {
	now := s.now()
	views := make([]dto.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, dto.TaskView{StudyTask: t, Overdue: t.Overdue(now)})
	}
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if (a.DueDate == "") != (b.DueDate == "") {
			return a.DueDate != ""
		}
		return a.DueDate < b.DueDate
	})
	return views
}

func (s *viewServiceImpl) CreateStudyTask(ctx context.Context, sid string, req dto.StudyTaskRequest) (*dto.TaskView, error) {
	if errs := s.validator.ValidateStudyTask(req.Title, req.DueDate); len(errs) > 0 {
		return nil, errs
	}
	task, err := s.sessions.Client(sid).CreateStudyTask(ctx, domain.StudyTask{
		Title:       req.Title,
		Description: req.Description,
		Topic:       req.Topic,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Push(ctx, sid, dto.NoticeSuccess, "Study task added."); err != nil {
		logger.Get().Warn("Failed to queue study task notice", zap.Error(err))
	}
	return &dto.TaskView{StudyTask: *task, Overdue: task.Overdue(s.now())}, nil
}

func (s *viewServiceImpl) CompleteStudyTask(ctx context.Context, sid string, taskID int64) (*dto.TaskView, error) {
	task, err := s.sessions.Client(sid).CompleteStudyTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &dto.TaskView{StudyTask: *task}, nil
}

func (s *viewServiceImpl) Materials(ctx context.Context, sid string, topicID int64) (*dto.MaterialsResponse, error) {
	materials, err := s.sessions.Client(sid).ListMaterials(ctx, topicID)
	if err != nil {
		return nil, err
	}
	return &dto.MaterialsResponse{Materials: materials}, nil
}

func (s *viewServiceImpl) UploadMaterial(ctx context.Context, sid string, upload MaterialUpload) (*domain.Material, error) {
	if errs := s.validator.ValidateUpload(upload.Title, upload.TopicID, upload.FileName, upload.Size); len(errs) > 0 {
		return nil, errs
	}
	fields := map[string]string{
		"title": upload.Title,
		"topic": strconv.FormatInt(upload.TopicID, 10),
	}
	material, err := s.sessions.Client(sid).UploadMaterial(ctx, fields, apiclient.Upload{
		FieldName: "file",
		FileName:  upload.FileName,
		Content:   upload.Content,
	})
	if err != nil {
		return nil, err
	}
	logger.Get().Info("Material uploaded",
		zap.String("sessionID", sid),
		zap.Int64("materialID", material.ID),
		zap.Int64("size", upload.Size))
	if err := s.notifier.Push(ctx, sid, dto.NoticeSuccess, "Material uploaded."); err != nil {
		logger.Get().Warn("Failed to queue upload notice", zap.Error(err))
	}
	return material, nil
}

func (s *viewServiceImpl) Exports(ctx context.Context, sid string) (*dto.ExportsResponse, error) {
	exports, err := s.sessions.Client(sid).ListExports(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ExportsResponse{Exports: exports}, nil
}

func (s *viewServiceImpl) CreateExport(ctx context.Context, sid string, req dto.ExportRequest) (*domain.ExportedQuiz, error) {
	if errs := s.validator.ValidateExport(req.Quiz, req.Format); len(errs) > 0 {
		return nil, errs
	}
	return s.sessions.Client(sid).CreateExport(ctx, req.Quiz, req.Format)
}
