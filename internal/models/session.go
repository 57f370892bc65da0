package models

import "time"

type View string

const (
	ViewUpload   View = "upload"
	ViewChat     View = "chat"
	ViewSummary  View = "summary"
	ViewQuiz     View = "quiz"
	ViewProgress View = "progress"
	ViewTeacher  View = "teacher"
)

var Views = []View{ViewUpload, ViewChat, ViewSummary, ViewQuiz, ViewProgress, ViewTeacher}

type ChatView struct {
	Messages []Message `json:"messages"`
	Draft    string    `json:"draft"`
}

// BusyFlags tells the presentation layer which controls to disable.
type BusyFlags struct {
	Upload   bool `json:"upload"`
	Ask      bool `json:"ask"`
	Summary  bool `json:"summary"`
	Quiz     bool `json:"quiz"`
	Progress bool `json:"progress"`
	Teacher  bool `json:"teacher"`
}

// SessionSnapshot is the derived, read-only state of one learning session.
type SessionSnapshot struct {
	SessionID     string         `json:"session_id"`
	ActiveView    View           `json:"active_view"`
	FileID        string         `json:"file_id"`
	StudentID     string         `json:"student_id"`
	LastUpload    *UploadResult  `json:"last_upload"`
	Chat          ChatView       `json:"chat"`
	Summary       *Summary       `json:"summary"`
	Quiz          QuizView       `json:"quiz"`
	Progress      ProgressView   `json:"progress"`
	TeacherReport *TeacherReport `json:"teacher_report"`
	Busy          BusyFlags      `json:"busy"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type CreateSessionResponse struct {
	SessionID string          `json:"session_id"`
	Token     string          `json:"token"`
	Session   SessionSnapshot `json:"session"`
}

type OperationResponse struct {
	Superseded bool            `json:"superseded,omitempty"`
	Session    SessionSnapshot `json:"session"`
}
