package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

type fakeGateway struct {
	upload   func(ctx context.Context, filename string, data []byte) (*models.UploadResult, error)
	ask      func(ctx context.Context, fileID, question string) (*models.AskResult, error)
	summary  func(ctx context.Context, fileID string) (*models.Summary, error)
	generate func(ctx context.Context, req models.GenerateQuizRequest) (*models.QuizSet, error)
	submit   func(ctx context.Context, req models.SubmitQuizRequest) (*models.SubmissionResult, error)
	progress func(ctx context.Context, studentID, fileID string) (*models.ProgressReport, error)
	teacher  func(ctx context.Context, fileID string) (*models.TeacherReport, error)

	uploadCalls   int32
	askCalls      int32
	summaryCalls  int32
	generateCalls int32
	submitCalls   int32
	progressCalls int32
	teacherCalls  int32
}

func (f *fakeGateway) UploadDocument(ctx context.Context, filename string, data []byte) (*models.UploadResult, error) {
	atomic.AddInt32(&f.uploadCalls, 1)
	if f.upload != nil {
		return f.upload(ctx, filename, data)
	}
	return &models.UploadResult{FileID: "abc123", ChunksStored: 12}, nil
}

func (f *fakeGateway) Ask(ctx context.Context, fileID, question string) (*models.AskResult, error) {
	atomic.AddInt32(&f.askCalls, 1)
	if f.ask != nil {
		return f.ask(ctx, fileID, question)
	}
	return &models.AskResult{Answer: "answer to " + question}, nil
}

func (f *fakeGateway) Summarize(ctx context.Context, fileID string) (*models.Summary, error) {
	atomic.AddInt32(&f.summaryCalls, 1)
	if f.summary != nil {
		return f.summary(ctx, fileID)
	}
	return &models.Summary{FileID: fileID, Summary: "summary"}, nil
}

func (f *fakeGateway) GenerateQuiz(ctx context.Context, req models.GenerateQuizRequest) (*models.QuizSet, error) {
	atomic.AddInt32(&f.generateCalls, 1)
	if f.generate != nil {
		return f.generate(ctx, req)
	}
	return &models.QuizSet{FileID: req.FileID, Quiz: sampleQuestions(req.NumQuestions)}, nil
}

func (f *fakeGateway) SubmitQuiz(ctx context.Context, req models.SubmitQuizRequest) (*models.SubmissionResult, error) {
	atomic.AddInt32(&f.submitCalls, 1)
	if f.submit != nil {
		return f.submit(ctx, req)
	}
	return gradeLocally(req), nil
}

func (f *fakeGateway) FetchProgress(ctx context.Context, studentID, fileID string) (*models.ProgressReport, error) {
	atomic.AddInt32(&f.progressCalls, 1)
	if f.progress != nil {
		return f.progress(ctx, studentID, fileID)
	}
	return &models.ProgressReport{WrongQuestions: []models.WrongQuestion{}}, nil
}

func (f *fakeGateway) FetchTeacherReport(ctx context.Context, fileID string) (*models.TeacherReport, error) {
	atomic.AddInt32(&f.teacherCalls, 1)
	if f.teacher != nil {
		return f.teacher(ctx, fileID)
	}
	return &models.TeacherReport{Raw: []byte(`{}`), FileID: fileID}, nil
}

type fakeInspector struct {
	err error
}

func (f *fakeInspector) InspectPDF(filename string, data []byte) (*models.DocumentInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.DocumentInfo{Pages: 3, HasText: true, Preview: "Cell biology basics"}, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	snapshots []models.SessionSnapshot
}

func (n *recordingNotifier) SessionUpdated(sessionID string, snapshot models.SessionSnapshot) {
	n.mu.Lock()
	n.snapshots = append(n.snapshots, snapshot)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.snapshots)
}

func (n *recordingNotifier) last() models.SessionSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshots[len(n.snapshots)-1]
}

// gate blocks a fake call until released and reports when it has started.
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait() {
	g.started <- struct{}{}
	<-g.release
}

func (g *gate) awaitStart(t testing.TB) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("call did not start")
	}
}

func sampleQuestions(n int) []models.QuizQuestion {
	answers := []string{"A", "B", "C", "D"}
	out := make([]models.QuizQuestion, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.QuizQuestion{
			Question: "Q" + string(rune('1'+i)),
			Options:  map[string]string{"A": "one", "B": "two", "C": "three", "D": "four"},
			Answer:   answers[i%len(answers)],
		})
	}
	return out
}

func gradeLocally(req models.SubmitQuizRequest) *models.SubmissionResult {
	score := 0
	for _, r := range req.Responses {
		if r.Selected != "" && r.Selected == r.Correct {
			score++
		}
	}
	return &models.SubmissionResult{Score: score, Total: len(req.Responses), Percentage: percentage(score, len(req.Responses))}
}

func newTestController(gw Gateway, notifier Notifier) *Controller {
	return NewController("session-1", gw, &fakeInspector{}, notifier, logger.NewNop(), Options{
		DefaultStudentID:     "student_1",
		DefaultQuizQuestions: 5,
		MaxQuizQuestions:     20,
		ReadRetries:          1,
		RetryBackoff:         time.Millisecond,
	})
}

func readyController(gw *fakeGateway, n int) *Controller {
	c := newTestController(gw, nil)
	c.SetDocument("abc123")
	if err := c.GenerateQuiz(context.Background(), models.QuizModeStandard, n); err != nil {
		panic(err)
	}
	return c
}

func nopLogger() *logger.ZapLogger {
	return logger.NewNop()
}
