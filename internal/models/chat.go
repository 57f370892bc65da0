package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in the conversation thread.
type Message struct {
	Role   string    `json:"role"` // "user" or "assistant"
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// AskRequest is the payload sent to the backend ask endpoint.
type AskRequest struct {
	FileID   string `json:"file_id"`
	Question string `json:"question"`
}

// AskResult is the backend's reply to a question.
type AskResult struct {
	Answer string `json:"answer"`
}

type ChatAskRequest struct {
	Question string `json:"question"`
}

type ChatDraftRequest struct {
	Text string `json:"text"`
}
