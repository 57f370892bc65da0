package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

// Gateway is the subset of the backend client the controller drives.
type Gateway interface {
	UploadDocument(ctx context.Context, filename string, data []byte) (*models.UploadResult, error)
	Ask(ctx context.Context, fileID, question string) (*models.AskResult, error)
	Summarize(ctx context.Context, fileID string) (*models.Summary, error)
	GenerateQuiz(ctx context.Context, req models.GenerateQuizRequest) (*models.QuizSet, error)
	SubmitQuiz(ctx context.Context, req models.SubmitQuizRequest) (*models.SubmissionResult, error)
	FetchProgress(ctx context.Context, studentID, fileID string) (*models.ProgressReport, error)
	FetchTeacherReport(ctx context.Context, fileID string) (*models.TeacherReport, error)
}

// DocumentInspector checks a file locally before it is uploaded.
type DocumentInspector interface {
	InspectPDF(filename string, data []byte) (*models.DocumentInfo, error)
}

// Notifier receives the session snapshot after every change.
type Notifier interface {
	SessionUpdated(sessionID string, snapshot models.SessionSnapshot)
}

type Options struct {
	DefaultStudentID     string
	DefaultQuizQuestions int
	MaxQuizQuestions     int
	ReadRetries          int
	RetryBackoff         time.Duration
}

const logModule = "SESSION"

// Controller is the only way a learning session changes. It reads the
// current document and student at the moment an action starts, calls the
// backend without holding any lock and merges the result into the owning
// component.
type Controller struct {
	id        string
	gateway   Gateway
	inspector DocumentInspector
	notifier  Notifier
	logger    logger.ILogger
	opts      Options

	store    *Store
	thread   *Thread
	quiz     *Quiz
	progress *ProgressAggregator
	view     *ViewController
	summary  latest[models.Summary]
	teacher  latest[models.TeacherReport]

	mu        sync.Mutex
	uploading bool
	updatedAt time.Time

	// publishMu keeps snapshot capture and hand-off in one order, so the
	// notifier never sees an older snapshot after a newer one.
	publishMu sync.Mutex
}

func NewController(id string, gw Gateway, inspector DocumentInspector, notifier Notifier, log logger.ILogger, opts Options) *Controller {
	if opts.DefaultQuizQuestions <= 0 {
		opts.DefaultQuizQuestions = 5
	}
	if opts.MaxQuizQuestions < opts.DefaultQuizQuestions {
		opts.MaxQuizQuestions = opts.DefaultQuizQuestions
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}

	return &Controller{
		id:        id,
		gateway:   gw,
		inspector: inspector,
		notifier:  notifier,
		logger:    log,
		opts:      opts,
		store:     NewStore(opts.DefaultStudentID),
		thread:    NewThread(),
		quiz:      NewQuiz(log),
		progress:  NewProgressAggregator(),
		view:      NewViewController(),
		updatedAt: time.Now(),
	}
}

func (c *Controller) ID() string { return c.id }

// Draft is the pending chat input.
func (c *Controller) Draft() string { return c.thread.Draft() }

// Upload validates and sends a PDF, then makes it the current document.
func (c *Controller) Upload(ctx context.Context, filename string, data []byte) (*models.UploadResult, error) {
	var info *models.DocumentInfo
	if c.inspector != nil {
		var err error
		info, err = c.inspector.InspectPDF(filename, data)
		if err != nil {
			return nil, err
		}
		if !info.HasText {
			c.logger.Warn(logModule, "PDF has no extractable text on its first pages", map[string]interface{}{
				"session_id": c.id,
				"filename":   filename,
				"pages":      info.Pages,
			})
		}
	}

	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return nil, &models.BusyError{Op: "upload"}
	}
	c.uploading = true
	c.mu.Unlock()
	c.publish()

	res, err := c.gateway.UploadDocument(ctx, filename, data)

	c.mu.Lock()
	c.uploading = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn(logModule, "Upload failed", map[string]interface{}{
			"session_id": c.id,
			"filename":   filename,
			"error":      err.Error(),
		})
		c.publish()
		return nil, err
	}

	receipt := *res
	receipt.Filename = filename
	if info != nil {
		receipt.Pages = info.Pages
		receipt.Preview = info.Preview
	}
	if c.store.RecordUpload(&receipt) {
		c.quiz.Reset()
	}

	c.logger.Info(logModule, "Document uploaded", map[string]interface{}{
		"session_id":    c.id,
		"file_id":       receipt.FileID,
		"chunks_stored": receipt.ChunksStored,
	})
	c.touch()
	return &receipt, nil
}

// SetDocument points the session at an existing document id. A different
// document discards the current quiz.
func (c *Controller) SetDocument(ref string) {
	if c.store.SetDocument(ref) {
		c.quiz.Reset()
		c.logger.Info(logModule, "Document changed", map[string]interface{}{
			"session_id": c.id,
			"file_id":    c.store.Document(),
		})
	}
	c.touch()
}

func (c *Controller) SetStudent(id string) error {
	if err := c.store.SetStudent(id); err != nil {
		return err
	}
	c.touch()
	return nil
}

func (c *Controller) SetDraft(text string) {
	c.thread.SetDraft(text)
	c.touch()
}

// SelectView accepts view names regardless of case and surrounding space.
func (c *Controller) SelectView(view string) error {
	if err := c.view.Select(models.View(strings.ToLower(strings.TrimSpace(view)))); err != nil {
		return err
	}
	c.touch()
	return nil
}

func (c *Controller) Ask(ctx context.Context, question string) (*models.AskResult, error) {
	fileID := c.store.Document()

	res, err := c.thread.Ask(ctx, fileID, question, func(ctx context.Context, fileID, question string) (*models.AskResult, error) {
		c.publish()
		return c.gateway.Ask(ctx, fileID, question)
	})
	if isRejected(err) {
		return nil, err
	}
	if models.IsTransport(err) {
		c.logger.Warn(logModule, "Ask failed", map[string]interface{}{
			"session_id": c.id,
			"file_id":    fileID,
			"error":      err.Error(),
		})
	}
	c.touch()
	return res, err
}

func (c *Controller) Summarize(ctx context.Context) (*models.Summary, error) {
	fileID := c.store.Document()
	if fileID == "" {
		return nil, models.NewValidationError("file_id", "Upload a document first")
	}

	token := c.summary.begin()
	c.publish()

	res, err := retryRead(ctx, c, "summarize", func(ctx context.Context) (*models.Summary, error) {
		return c.gateway.Summarize(ctx, fileID)
	})
	if err != nil {
		if !c.summary.fail(token) {
			return nil, &models.StaleResponseDiscarded{Op: "summarize"}
		}
		c.touch()
		return nil, err
	}

	if res.FileID == "" {
		res.FileID = fileID
	}
	if !c.summary.commit(token, res) {
		return nil, &models.StaleResponseDiscarded{Op: "summarize"}
	}
	c.touch()
	out := *res
	return &out, nil
}

// GenerateQuiz requests a new question set. An empty mode means standard and
// a count of zero means the configured default.
func (c *Controller) GenerateQuiz(ctx context.Context, mode models.QuizMode, count int) error {
	if mode == "" {
		mode = models.QuizModeStandard
	}
	if count == 0 {
		count = c.opts.DefaultQuizQuestions
	}

	req := models.GenerateQuizRequest{
		Mode:         mode,
		StudentID:    c.store.Student(),
		FileID:       c.store.Document(),
		NumQuestions: count,
	}

	fields := map[string]string{}
	if !mode.Valid() {
		fields["mode"] = "Mode must be standard or adaptive"
	}
	if count < 1 || count > c.opts.MaxQuizQuestions {
		fields["num_questions"] = fmt.Sprintf("Number of questions must be between 1 and %d", c.opts.MaxQuizQuestions)
	}
	if req.FileID == "" {
		fields["file_id"] = "Upload a document first"
	}
	if mode == models.QuizModeAdaptive && req.StudentID == "" {
		fields["student_id"] = "Student ID is required for an adaptive quiz"
	}
	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}

	err := c.quiz.Generate(ctx, req, func(ctx context.Context, req models.GenerateQuizRequest) (*models.QuizSet, error) {
		c.publish()
		return c.gateway.GenerateQuiz(ctx, req)
	})
	if isRejected(err) {
		return err
	}
	if err == nil {
		c.logger.Info(logModule, "Quiz generated", map[string]interface{}{
			"session_id": c.id,
			"file_id":    req.FileID,
			"mode":       string(mode),
		})
	}
	c.touch()
	return err
}

func (c *Controller) SelectAnswer(questionID, question, option string) error {
	if err := c.quiz.SelectAnswer(questionID, question, option); err != nil {
		return err
	}
	c.touch()
	return nil
}

func (c *Controller) SubmitQuiz(ctx context.Context) (*models.SubmissionResult, error) {
	studentID := c.store.Student()
	fileID := c.store.Document()

	res, err := c.quiz.Submit(ctx, studentID, fileID, func(ctx context.Context, req models.SubmitQuizRequest) (*models.SubmissionResult, error) {
		c.publish()
		return c.gateway.SubmitQuiz(ctx, req)
	})
	if isRejected(err) {
		return nil, err
	}
	if err == nil {
		c.logger.Info(logModule, "Quiz graded", map[string]interface{}{
			"session_id": c.id,
			"student_id": studentID,
			"score":      res.Score,
			"total":      res.Total,
		})
	}
	c.touch()
	return res, err
}

func (c *Controller) RefreshProgress(ctx context.Context) (*models.ProgressReport, error) {
	studentID := c.store.Student()
	fileID := c.store.Document()

	res, err := c.progress.Refresh(ctx, studentID, fileID, func(ctx context.Context, studentID, fileID string) (*models.ProgressReport, error) {
		c.publish()
		return retryRead(ctx, c, "progress", func(ctx context.Context) (*models.ProgressReport, error) {
			return c.gateway.FetchProgress(ctx, studentID, fileID)
		})
	})
	if isRejected(err) {
		return nil, err
	}
	c.touch()
	return res, err
}

func (c *Controller) FetchTeacherReport(ctx context.Context) (*models.TeacherReport, error) {
	fileID := c.store.Document()
	if fileID == "" {
		return nil, models.NewValidationError("file_id", "Upload a document first")
	}

	token := c.teacher.begin()
	c.publish()

	res, err := retryRead(ctx, c, "teacher report", func(ctx context.Context) (*models.TeacherReport, error) {
		return c.gateway.FetchTeacherReport(ctx, fileID)
	})
	if err != nil {
		if !c.teacher.fail(token) {
			return nil, &models.StaleResponseDiscarded{Op: "teacher report"}
		}
		c.touch()
		return nil, err
	}

	if !c.teacher.commit(token, res) {
		return nil, &models.StaleResponseDiscarded{Op: "teacher report"}
	}
	c.touch()
	out := *res
	return &out, nil
}

// Snapshot derives the presentation state from every component.
func (c *Controller) Snapshot() models.SessionSnapshot {
	summary, _ := c.summary.get()
	teacher, _ := c.teacher.get()

	c.mu.Lock()
	uploading := c.uploading
	updatedAt := c.updatedAt
	c.mu.Unlock()

	snap := models.SessionSnapshot{
		SessionID:  c.id,
		ActiveView: c.view.Active(),
		FileID:     c.store.Document(),
		StudentID:  c.store.Student(),
		LastUpload: c.store.LastUpload(),
		Chat:       c.thread.View(),
		Quiz:       c.quiz.View(),
		Progress:   c.progress.View(),
		Busy: models.BusyFlags{
			Upload:   uploading,
			Ask:      c.thread.Busy(),
			Summary:  c.summary.busy(),
			Quiz:     c.quiz.Busy(),
			Progress: c.progress.Busy(),
			Teacher:  c.teacher.busy(),
		},
		UpdatedAt: updatedAt,
	}
	if summary != nil {
		s := *summary
		snap.Summary = &s
	}
	if teacher != nil {
		t := *teacher
		snap.TeacherReport = &t
	}
	return snap
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.updatedAt = time.Now()
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) publish() {
	if c.notifier == nil {
		return
	}
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.notifier.SessionUpdated(c.id, c.Snapshot())
}

// isRejected reports errors raised before any state changed.
func isRejected(err error) bool {
	var ve *models.ValidationError
	var be *models.BusyError
	return errors.As(err, &ve) || errors.As(err, &be) || models.IsStale(err)
}

// retryRead retries idempotent reads on transport failures with exponential
// backoff. Client errors from the backend are returned at once.
func retryRead[T any](ctx context.Context, c *Controller, op string, call func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.ReadRetries; attempt++ {
		if attempt > 0 {
			wait := c.opts.RetryBackoff * time.Duration(1<<uint(attempt-1))
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= wait {
				return nil, lastErr
			}
			c.logger.Warn(logModule, "Retrying backend read", map[string]interface{}{
				"session_id": c.id,
				"op":         op,
				"attempt":    attempt + 1,
				"wait":       wait.String(),
			})
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(wait):
			}
		}

		res, err := call(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	if c.opts.ReadRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%s failed after %d attempts: %w", op, c.opts.ReadRetries+1, lastErr)
}

func retryable(err error) bool {
	var te *models.TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode == 0 || te.StatusCode >= 500
}
