package session

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"

	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

type (
	generateFunc func(ctx context.Context, req models.GenerateQuizRequest) (*models.QuizSet, error)
	submitFunc   func(ctx context.Context, req models.SubmitQuizRequest) (*models.SubmissionResult, error)
)

type quizItem struct {
	id string
	models.QuizQuestion
}

// Quiz runs the generate, answer, submit and grade cycle for one question set.
//
// Selections are keyed by question text. Generate and Submit share a single
// in-flight slot, and Reset moves to a new epoch so that replies to requests
// issued before it are discarded.
type Quiz struct {
	mu         sync.Mutex
	state      models.QuizState
	mode       models.QuizMode
	items      []quizItem
	selections map[string]string
	result     *models.SubmissionResult
	epoch      uint64
	logger     logger.ILogger
}

func NewQuiz(log logger.ILogger) *Quiz {
	return &Quiz{
		state:      models.QuizIdle,
		selections: map[string]string{},
		logger:     log,
	}
}

func (q *Quiz) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight()
}

func (q *Quiz) inFlight() bool {
	return q.state == models.QuizGenerating || q.state == models.QuizSubmitting
}

// Generate replaces the question set. Any previous selections and result are
// gone once the new set arrives; on failure the quiz is left as it was.
func (q *Quiz) Generate(ctx context.Context, req models.GenerateQuizRequest, generate generateFunc) error {
	q.mu.Lock()
	if q.inFlight() {
		q.mu.Unlock()
		return &models.BusyError{Op: "quiz"}
	}
	prior := q.state
	epoch := q.epoch
	q.state = models.QuizGenerating
	q.mu.Unlock()

	set, err := generate(ctx, req)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.epoch != epoch {
		return &models.StaleResponseDiscarded{Op: "quiz generation"}
	}
	if err != nil {
		q.state = prior
		return err
	}

	items := make([]quizItem, 0, len(set.Quiz))
	seen := make(map[string]bool, len(set.Quiz))
	for _, question := range set.Quiz {
		if seen[question.Question] {
			q.logger.Warn("QUIZ", "Duplicate question text in generated set", map[string]interface{}{
				"question": question.Question,
			})
		}
		seen[question.Question] = true
		items = append(items, quizItem{id: uuid.NewString(), QuizQuestion: question})
	}

	q.items = items
	q.selections = map[string]string{}
	q.result = nil
	q.mode = req.Mode
	q.state = models.QuizReady
	return nil
}

// SelectAnswer records option for a question, found by id or else by text.
func (q *Quiz) SelectAnswer(questionID, question, option string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.requireReady(); err != nil {
		return err
	}

	item, ok := q.find(strings.TrimSpace(questionID), strings.TrimSpace(question))
	if !ok {
		return models.NewValidationError("question", "Question is not part of the current quiz")
	}

	key, ok := optionKey(item.Options, option)
	if !ok {
		return models.NewValidationError("option", "Option is not one of the question's choices")
	}

	q.selections[item.Question] = key
	return nil
}

// Submit grades the current selections. Every question is sent in set order;
// an unanswered one goes out with an empty selection and counts as wrong.
func (q *Quiz) Submit(ctx context.Context, studentID, fileID string, submit submitFunc) (*models.SubmissionResult, error) {
	fields := map[string]string{}
	if strings.TrimSpace(studentID) == "" {
		fields["student_id"] = "Student ID is required"
	}
	if strings.TrimSpace(fileID) == "" {
		fields["file_id"] = "Upload a document first"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	q.mu.Lock()
	if err := q.requireReady(); err != nil {
		q.mu.Unlock()
		return nil, err
	}

	responses := make([]models.QuizResponse, 0, len(q.items))
	correct := 0
	for _, item := range q.items {
		selected := q.selections[item.Question]
		if selected != "" && selected == item.Answer {
			correct++
		}
		responses = append(responses, models.QuizResponse{
			Question: item.Question,
			Selected: selected,
			Correct:  item.Answer,
		})
	}
	total := len(q.items)
	epoch := q.epoch
	q.state = models.QuizSubmitting
	q.mu.Unlock()

	res, err := submit(ctx, models.SubmitQuizRequest{
		StudentID: studentID,
		FileID:    fileID,
		Responses: responses,
	})

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.epoch != epoch {
		return nil, &models.StaleResponseDiscarded{Op: "quiz submission"}
	}
	if err != nil {
		q.state = models.QuizReady
		return nil, err
	}

	graded := *res
	if graded.Total == 0 {
		graded.Total = total
	}
	if graded.Score > correct {
		q.logger.Warn("QUIZ", "Backend score exceeds correct selections, using local count", map[string]interface{}{
			"backend_score": graded.Score,
			"local_correct": correct,
		})
		graded.Score = correct
		graded.Percentage = percentage(correct, graded.Total)
	}

	q.result = &graded
	q.state = models.QuizGraded
	out := graded
	return &out, nil
}

// Reset discards the question set and supersedes any request in flight.
func (q *Quiz) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.epoch++
	q.state = models.QuizIdle
	q.mode = ""
	q.items = nil
	q.selections = map[string]string{}
	q.result = nil
}

func (q *Quiz) View() models.QuizView {
	q.mu.Lock()
	defer q.mu.Unlock()

	graded := q.state == models.QuizGraded
	view := models.QuizView{
		State:     q.state,
		Mode:      q.mode,
		Questions: make([]models.QuizQuestionView, 0, len(q.items)),
	}

	for _, item := range q.items {
		options := make(map[string]string, len(item.Options))
		for k, v := range item.Options {
			options[k] = v
		}

		qv := models.QuizQuestionView{
			ID:       item.id,
			Question: item.Question,
			Options:  options,
			Selected: q.selections[item.Question],
		}
		if qv.Selected != "" {
			view.Answered++
		}
		if graded {
			isCorrect := qv.Selected != "" && qv.Selected == item.Answer
			qv.Correct = item.Answer
			qv.IsCorrect = &isCorrect
			qv.Explanation = item.Explanation
		}
		view.Questions = append(view.Questions, qv)
	}

	if q.result != nil {
		res := *q.result
		view.Result = &res
	}
	return view
}

func (q *Quiz) requireReady() error {
	switch q.state {
	case models.QuizReady:
		return nil
	case models.QuizIdle:
		return models.NewValidationError("quiz", "Generate a quiz first")
	case models.QuizGraded:
		return models.NewValidationError("quiz", "Quiz has already been graded, generate a new one")
	default:
		return &models.BusyError{Op: "quiz"}
	}
}

func (q *Quiz) find(id, text string) (quizItem, bool) {
	for _, item := range q.items {
		if id != "" && item.id == id {
			return item, true
		}
	}
	if text == "" {
		return quizItem{}, false
	}
	for _, item := range q.items {
		if item.Question == text {
			return item, true
		}
	}
	return quizItem{}, false
}

func optionKey(options map[string]string, option string) (string, bool) {
	option = strings.TrimSpace(option)
	if option == "" {
		return "", false
	}
	if _, ok := options[option]; ok {
		return option, true
	}
	upper := strings.ToUpper(option)
	if _, ok := options[upper]; ok {
		return upper, true
	}
	return "", false
}

func percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*10000) / 100
}
