package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, logger.NewNop()), &calls
}

func writeBody(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestUploadDocument_SendsMultipartFile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload-pdf/", r.URL.Path)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "notes.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4 test", string(data))

		writeBody(w, http.StatusOK, map[string]interface{}{
			"message":       "PDF uploaded + stored in vector DB",
			"file_id":       "abc123",
			"chunks_stored": 12,
		})
	})

	result, err := client.UploadDocument(context.Background(), "notes.pdf", []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.FileID)
	assert.Equal(t, 12, result.ChunksStored)
}

func TestUploadDocument_NoFileIsValidationError(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.UploadDocument(context.Background(), "", nil)

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "file")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestAsk_PreconditionsSkipNetwork(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]string{"answer": "unused"})
	})

	tests := []struct {
		name     string
		fileID   string
		question string
		field    string
	}{
		{"empty question", "abc123", "", "question"},
		{"blank question", "abc123", "   ", "question"},
		{"empty file id", "", "What is entropy?", "file_id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Ask(context.Background(), tc.fileID, tc.question)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestAsk_PostsQuestion(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask/", r.URL.Path)
		var req models.AskRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc123", req.FileID)
		assert.Equal(t, "What is entropy?", req.Question)
		writeBody(w, http.StatusOK, map[string]string{"answer": "A measure of disorder."})
	})

	result, err := client.Ask(context.Background(), "abc123", "What is entropy?")
	require.NoError(t, err)
	assert.Equal(t, "A measure of disorder.", result.Answer)
}

func TestGenerateQuiz_RoutesByMode(t *testing.T) {
	quiz := []map[string]interface{}{
		{"question": "Q1", "options": map[string]string{"A": "x", "B": "y"}, "answer": "B"},
	}

	tests := []struct {
		name     string
		mode     models.QuizMode
		path     string
		wantBody map[string]interface{}
	}{
		{
			name:     "standard",
			mode:     models.QuizModeStandard,
			path:     "/generate-quiz/",
			wantBody: map[string]interface{}{"file_id": "abc123", "num_questions": float64(3)},
		},
		{
			name: "adaptive",
			mode: models.QuizModeAdaptive,
			path: "/generate-adaptive-quiz/",
			wantBody: map[string]interface{}{
				"student_id": "student_1", "file_id": "abc123", "num_questions": float64(3),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tc.path, r.URL.Path)
				var body map[string]interface{}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tc.wantBody, body)
				writeBody(w, http.StatusOK, map[string]interface{}{"file_id": "abc123", "quiz": quiz})
			})

			set, err := client.GenerateQuiz(context.Background(), models.GenerateQuizRequest{
				Mode:         tc.mode,
				StudentID:    "student_1",
				FileID:       "abc123",
				NumQuestions: 3,
			})
			require.NoError(t, err)
			require.Len(t, set.Quiz, 1)
			assert.Equal(t, "B", set.Quiz[0].Answer)
		})
	}
}

func TestGenerateQuiz_EmptyQuizIsTransportError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]interface{}{"file_id": "abc123", "quiz": []interface{}{}, "raw_output": "oops"})
	})

	_, err := client.GenerateQuiz(context.Background(), models.GenerateQuizRequest{
		Mode: models.QuizModeStandard, FileID: "abc123", NumQuestions: 5,
	})

	var te *models.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "generate-quiz", te.Op)
}

func TestGenerateQuiz_AdaptiveRequiresStudent(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.GenerateQuiz(context.Background(), models.GenerateQuizRequest{
		Mode: models.QuizModeAdaptive, FileID: "abc123", NumQuestions: 5,
	})

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "student_id")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestSubmitQuiz_DecodesStringScore(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submit-quiz/", r.URL.Path)
		var req models.SubmitQuizRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Responses, 2)
		writeBody(w, http.StatusOK, map[string]interface{}{
			"student_id": "student_1",
			"file_id":    "abc123",
			"score":      "1/2",
			"percentage": 50.0,
		})
	})

	result, err := client.SubmitQuiz(context.Background(), models.SubmitQuizRequest{
		StudentID: "student_1",
		FileID:    "abc123",
		Responses: []models.QuizResponse{
			{Question: "Q1", Selected: "A", Correct: "A"},
			{Question: "Q2", Selected: "", Correct: "C"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 50.0, result.Percentage)
}

func TestFetchProgress_EmptyWrongQuestions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/student-progress/", r.URL.Path)
		writeBody(w, http.StatusOK, map[string]interface{}{
			"total_attempted":      4,
			"correct":              4,
			"accuracy":             100.0,
			"wrong_questions":      []interface{}{},
			"personalized_roadmap": "No wrong answers yet.",
		})
	})

	report, err := client.FetchProgress(context.Background(), "student_1", "abc123")
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalAttempted)
	assert.NotNil(t, report.WrongQuestions)
	assert.False(t, report.HasWrongAnswers())
}

func TestFetchTeacherReport_KeepsRawPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]interface{}{
			"file_id": "abc123",
			"student_report": []map[string]interface{}{
				{"student_id": "student_1", "attempted": 5, "correct": 3, "accuracy": 60.0},
			},
		})
	})

	report, err := client.FetchTeacherReport(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", report.FileID)
	require.Len(t, report.StudentReport, 1)
	assert.Equal(t, "student_1", report.StudentReport[0].StudentID)
	assert.True(t, json.Valid(report.Raw))
}

func TestBackendErrors_AreTransportErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   interface{}
		code   int
	}{
		{"error body with 200", http.StatusOK, map[string]string{"error": "No content found for this file_id"}, http.StatusOK},
		{"server error", http.StatusInternalServerError, map[string]string{"detail": "boom"}, http.StatusInternalServerError},
		{"validation from backend", http.StatusUnprocessableEntity, map[string]interface{}{"detail": []string{"field required"}}, http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeBody(w, tc.status, tc.body)
			})

			_, err := client.Summarize(context.Background(), "abc123")

			var te *models.TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tc.code, te.StatusCode)
			assert.Equal(t, "summarize", te.Op)
		})
	}
}

func TestNetworkFailure_IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, logger.NewNop())
	_, err := client.Summarize(context.Background(), "abc123")

	var te *models.TransportError
	require.ErrorAs(t, err, &te)
	assert.Error(t, errors.Unwrap(te))
}
