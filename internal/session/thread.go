package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"learning-session/internal/models"
)

type askFunc func(ctx context.Context, fileID, question string) (*models.AskResult, error)

// Thread is the conversation log. Messages are only ever appended.
type Thread struct {
	mu       sync.Mutex
	messages []models.Message
	draft    string
	asking   bool
}

func NewThread() *Thread {
	return &Thread{messages: []models.Message{}}
}

func (t *Thread) Append(msg models.Message) {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
}

func (t *Thread) SetDraft(text string) {
	t.mu.Lock()
	t.draft = text
	t.mu.Unlock()
}

func (t *Thread) Draft() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft
}

func (t *Thread) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.asking
}

func (t *Thread) View() models.ChatView {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return models.ChatView{Messages: out, Draft: t.draft}
}

// Ask records the question, sends it and records the answer.
//
// Invalid input leaves the thread untouched. When the backend call fails the
// question stays in the log without an answer and is kept as the draft so it
// can be sent again.
func (t *Thread) Ask(ctx context.Context, fileID, question string, ask askFunc) (*models.AskResult, error) {
	question = strings.TrimSpace(question)
	fields := map[string]string{}
	if strings.TrimSpace(fileID) == "" {
		fields["file_id"] = "Upload a document first"
	}
	if question == "" {
		fields["question"] = "Enter a question"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	t.mu.Lock()
	if t.asking {
		t.mu.Unlock()
		return nil, &models.BusyError{Op: "ask"}
	}
	t.asking = true
	t.messages = append(t.messages, models.Message{Role: models.RoleUser, Text: question, SentAt: time.Now()})
	t.mu.Unlock()

	res, err := ask(ctx, fileID, question)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.asking = false

	if err != nil {
		if strings.TrimSpace(t.draft) == "" {
			t.draft = question
		}
		return nil, err
	}

	t.messages = append(t.messages, models.Message{Role: models.RoleAssistant, Text: res.Answer, SentAt: time.Now()})
	if strings.TrimSpace(t.draft) == question {
		t.draft = ""
	}
	return res, nil
}
