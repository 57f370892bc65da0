package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type QuizMode string

const (
	QuizModeStandard QuizMode = "standard"
	QuizModeAdaptive QuizMode = "adaptive"
)

func (m QuizMode) Valid() bool {
	return m == QuizModeStandard || m == QuizModeAdaptive
}

type QuizState string

const (
	QuizIdle       QuizState = "idle"
	QuizGenerating QuizState = "generating"
	QuizReady      QuizState = "ready"
	QuizSubmitting QuizState = "submitting"
	QuizGraded     QuizState = "graded"
)

// QuizQuestion is a multiple-choice question as produced by the backend.
// Answer is the ground-truth option key.
type QuizQuestion struct {
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"`
	Answer      string            `json:"answer"`
	Explanation string            `json:"explanation,omitempty"`
}

type GenerateQuizRequest struct {
	Mode         QuizMode
	StudentID    string
	FileID       string
	NumQuestions int
}

type QuizSet struct {
	FileID    string         `json:"file_id"`
	Quiz      []QuizQuestion `json:"quiz"`
	RawOutput string         `json:"raw_output,omitempty"`
}

// QuizResponse pairs a question with the selected and ground-truth option keys.
type QuizResponse struct {
	Question string `json:"question"`
	Selected string `json:"selected"`
	Correct  string `json:"correct"`
}

type SubmitQuizRequest struct {
	StudentID string         `json:"student_id"`
	FileID    string         `json:"file_id"`
	Responses []QuizResponse `json:"responses"`
}

type SubmissionResult struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// UnmarshalJSON accepts score either as a number or as a "correct/total" string.
func (r *SubmissionResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Score      json.RawMessage `json:"score"`
		Total      *int            `json:"total"`
		Percentage float64         `json:"percentage"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	score, total, err := parseScore(wire.Score)
	if err != nil {
		return err
	}

	r.Score = score
	r.Total = total
	if wire.Total != nil {
		r.Total = *wire.Total
	}
	r.Percentage = wire.Percentage
	return nil
}

func parseScore(raw json.RawMessage) (int, int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, 0, nil
	}

	if strings.HasPrefix(s, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, 0, err
		}
		num, den, found := strings.Cut(strings.TrimSpace(text), "/")
		score, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid score %q", text)
		}
		if !found {
			return score, 0, nil
		}
		total, err := strconv.Atoi(strings.TrimSpace(den))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid score %q", text)
		}
		return score, total, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, 0, fmt.Errorf("invalid score %s", s)
	}
	return int(f), 0, nil
}

// QuizQuestionView is the presentation form of a question. Correct and
// IsCorrect stay empty until the quiz has been graded.
type QuizQuestionView struct {
	ID          string            `json:"id"`
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"`
	Selected    string            `json:"selected,omitempty"`
	Correct     string            `json:"correct,omitempty"`
	IsCorrect   *bool             `json:"is_correct,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
}

type QuizView struct {
	State     QuizState          `json:"state"`
	Mode      QuizMode           `json:"mode,omitempty"`
	Questions []QuizQuestionView `json:"questions"`
	Answered  int                `json:"answered"`
	Result    *SubmissionResult  `json:"result"`
}

type GenerateQuizBody struct {
	Mode         string `json:"mode"`
	NumQuestions int    `json:"num_questions"`
}

type SelectAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Option     string `json:"option"`
}
