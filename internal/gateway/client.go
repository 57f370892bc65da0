package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

const (
	endpointHealth        = "/"
	endpointUpload        = "/upload-pdf/"
	endpointAsk           = "/ask/"
	endpointSummarize     = "/summarize/"
	endpointGenerateQuiz  = "/generate-quiz/"
	endpointAdaptiveQuiz  = "/generate-adaptive-quiz/"
	endpointSubmitQuiz    = "/submit-quiz/"
	endpointProgress      = "/student-progress/"
	endpointTeacherReport = "/teacher-dashboard/"
	maxResponseBytes      = 10 << 20
	logModule             = "gateway"
)

// Client talks to the document backend. Every method performs exactly one
// request/response exchange and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.ILogger
}

func NewClient(baseURL string, timeout time.Duration, log logger.ILogger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Health probes the backend root endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpointHealth, nil)
	if err != nil {
		return &models.TransportError{Op: "health", Err: err}
	}
	_, err = c.do("health", req)
	return err
}

func (c *Client) UploadDocument(ctx context.Context, filename string, data []byte) (*models.UploadResult, error) {
	if strings.TrimSpace(filename) == "" || len(data) == 0 {
		return nil, models.NewValidationError("file", "Select a PDF first")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, &models.TransportError{Op: "upload", Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &models.TransportError{Op: "upload", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &models.TransportError{Op: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointUpload, &buf)
	if err != nil {
		return nil, &models.TransportError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do("upload", req)
	if err != nil {
		return nil, err
	}

	var result models.UploadResult
	if err := decode("upload", body, &result); err != nil {
		return nil, err
	}
	if result.FileID == "" {
		return nil, &models.TransportError{Op: "upload", Message: "backend returned no file_id"}
	}
	return &result, nil
}

func (c *Client) Ask(ctx context.Context, fileID, question string) (*models.AskResult, error) {
	fields := map[string]string{}
	if strings.TrimSpace(fileID) == "" {
		fields["file_id"] = "Enter file_id first"
	}
	if strings.TrimSpace(question) == "" {
		fields["question"] = "Enter question"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	var result models.AskResult
	if err := c.postJSON(ctx, "ask", endpointAsk, models.AskRequest{FileID: fileID, Question: question}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Summarize(ctx context.Context, fileID string) (*models.Summary, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, models.NewValidationError("file_id", "Enter file_id first")
	}

	var result models.Summary
	if err := c.postJSON(ctx, "summarize", endpointSummarize, models.FileRequest{FileID: fileID}, &result); err != nil {
		return nil, err
	}
	if result.FileID == "" {
		result.FileID = fileID
	}
	return &result, nil
}

// GenerateQuiz dispatches to the standard or adaptive endpoint depending on
// req.Mode. Both return the same shape.
func (c *Client) GenerateQuiz(ctx context.Context, req models.GenerateQuizRequest) (*models.QuizSet, error) {
	fields := map[string]string{}
	if !req.Mode.Valid() {
		fields["mode"] = "Mode must be standard or adaptive"
	}
	if strings.TrimSpace(req.FileID) == "" {
		fields["file_id"] = "Enter file_id first"
	}
	if req.NumQuestions <= 0 {
		fields["num_questions"] = "Number of questions must be positive"
	}
	if req.Mode == models.QuizModeAdaptive && strings.TrimSpace(req.StudentID) == "" {
		fields["student_id"] = "Student ID is required for adaptive quizzes"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	op := "generate-quiz"
	path := endpointGenerateQuiz
	var payload interface{} = struct {
		FileID       string `json:"file_id"`
		NumQuestions int    `json:"num_questions"`
	}{req.FileID, req.NumQuestions}

	if req.Mode == models.QuizModeAdaptive {
		op = "generate-adaptive-quiz"
		path = endpointAdaptiveQuiz
		payload = struct {
			StudentID    string `json:"student_id"`
			FileID       string `json:"file_id"`
			NumQuestions int    `json:"num_questions"`
		}{req.StudentID, req.FileID, req.NumQuestions}
	}

	var set models.QuizSet
	if err := c.postJSON(ctx, op, path, payload, &set); err != nil {
		return nil, err
	}

	questions, dropped := sanitizeQuestions(set.Quiz)
	if dropped > 0 {
		c.logger.Warn(logModule, "Dropped malformed quiz questions", map[string]interface{}{
			"op":       op,
			"dropped":  dropped,
			"received": len(set.Quiz),
		})
	}
	if len(questions) == 0 {
		msg := "backend returned no usable questions"
		if set.RawOutput != "" {
			msg = "backend could not produce a valid quiz"
		}
		return nil, &models.TransportError{Op: op, Message: msg}
	}

	set.Quiz = questions
	if set.FileID == "" {
		set.FileID = req.FileID
	}
	return &set, nil
}

func (c *Client) SubmitQuiz(ctx context.Context, req models.SubmitQuizRequest) (*models.SubmissionResult, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.StudentID) == "" {
		fields["student_id"] = "Student ID is required"
	}
	if strings.TrimSpace(req.FileID) == "" {
		fields["file_id"] = "Enter file_id first"
	}
	if len(req.Responses) == 0 {
		fields["responses"] = "Generate quiz first"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	var result models.SubmissionResult
	if err := c.postJSON(ctx, "submit-quiz", endpointSubmitQuiz, req, &result); err != nil {
		return nil, err
	}
	if result.Total == 0 {
		result.Total = len(req.Responses)
	}
	return &result, nil
}

func (c *Client) FetchProgress(ctx context.Context, studentID, fileID string) (*models.ProgressReport, error) {
	fields := map[string]string{}
	if strings.TrimSpace(studentID) == "" {
		fields["student_id"] = "Student ID is required"
	}
	if strings.TrimSpace(fileID) == "" {
		fields["file_id"] = "Enter file_id first"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	var report models.ProgressReport
	req := models.StudentProgressRequest{StudentID: studentID, FileID: fileID}
	if err := c.postJSON(ctx, "student-progress", endpointProgress, req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// FetchTeacherReport returns the dashboard aggregate as-is. The typed fields
// are filled on a best-effort basis and left empty when the shape differs.
func (c *Client) FetchTeacherReport(ctx context.Context, fileID string) (*models.TeacherReport, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, models.NewValidationError("file_id", "Enter file_id first")
	}

	body, err := c.postRaw(ctx, "teacher-dashboard", endpointTeacherReport, models.FileRequest{FileID: fileID})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &models.TransportError{Op: "teacher-dashboard", Message: "invalid response body"}
	}

	report := &models.TeacherReport{Raw: json.RawMessage(body)}
	var typed struct {
		FileID        string                  `json:"file_id"`
		StudentReport []models.StudentSummary `json:"student_report"`
	}
	if err := json.Unmarshal(body, &typed); err == nil {
		report.FileID = typed.FileID
		report.StudentReport = typed.StudentReport
	}
	return report, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out interface{}) error {
	body, err := c.postRaw(ctx, op, path, payload)
	if err != nil {
		return err
	}
	return decode(op, body, out)
}

func (c *Client) postRaw(ctx context.Context, op, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &models.TransportError{Op: op, Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, &models.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(logModule, "Backend request failed", map[string]interface{}{
			"op":    op,
			"error": err.Error(),
		})
		return nil, &models.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &models.TransportError{Op: op, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	c.logger.Debug(logModule, "Backend call completed", map[string]interface{}{
		"op":          op,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &models.TransportError{Op: op, StatusCode: resp.StatusCode, Message: errorDetail(body, resp.Status)}
	}

	// The backend reports some failures as 200 with an "error" field.
	if msg, ok := backendError(body); ok {
		return nil, &models.TransportError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	return body, nil
}

func decode(op string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &models.TransportError{Op: op, Message: "invalid response body", Err: err}
	}
	return nil
}

func backendError(body []byte) (string, bool) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", false
	}
	if len(envelope.Error) == 0 || string(envelope.Error) == "null" {
		return "", false
	}
	return rawText(envelope.Error), true
}

func errorDetail(body []byte, fallback string) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			return rawText(envelope.Detail)
		}
		if len(envelope.Error) > 0 {
			return rawText(envelope.Error)
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return fallback
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
