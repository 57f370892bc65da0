package models

import (
	"encoding/json"
	"time"
)

const NoWrongAnswersRoadmap = "No wrong answers yet."

type WrongQuestion struct {
	Question   string `json:"question"`
	Selected   string `json:"selected,omitempty"`
	Correct    string `json:"correct,omitempty"`
	TimesWrong int    `json:"times_wrong,omitempty"`
}

type ProgressReport struct {
	StudentID           string          `json:"student_id,omitempty"`
	FileID              string          `json:"file_id,omitempty"`
	TotalAttempted      int             `json:"total_attempted"`
	Correct             int             `json:"correct"`
	Accuracy            float64         `json:"accuracy"`
	WrongQuestions      []WrongQuestion `json:"wrong_questions"`
	PersonalizedRoadmap string          `json:"personalized_roadmap"`
}

func (p *ProgressReport) HasWrongAnswers() bool {
	return p != nil && len(p.WrongQuestions) > 0
}

type ProgressView struct {
	Report          *ProgressReport `json:"report"`
	HasWrongAnswers bool            `json:"has_wrong_answers"`
	FetchedAt       *time.Time      `json:"fetched_at,omitempty"`
}

type StudentProgressRequest struct {
	StudentID string `json:"student_id"`
	FileID    string `json:"file_id"`
}

// TeacherReport keeps the backend's aggregate verbatim in Raw. FileID and
// StudentReport are filled when the payload has the usual shape.
type TeacherReport struct {
	Raw           json.RawMessage  `json:"raw"`
	FileID        string           `json:"file_id,omitempty"`
	StudentReport []StudentSummary `json:"student_report,omitempty"`
}

type StudentSummary struct {
	StudentID string  `json:"student_id"`
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}
