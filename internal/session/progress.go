package session

import (
	"context"
	"strings"

	"learning-session/internal/models"
)

type progressFunc func(ctx context.Context, studentID, fileID string) (*models.ProgressReport, error)

// ProgressAggregator holds the last progress report fetched from the backend.
// Each refresh replaces the report wholesale.
type ProgressAggregator struct {
	reports latest[models.ProgressReport]
}

func NewProgressAggregator() *ProgressAggregator {
	return &ProgressAggregator{}
}

func (p *ProgressAggregator) Refresh(ctx context.Context, studentID, fileID string, fetch progressFunc) (*models.ProgressReport, error) {
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

	token := p.reports.begin()
	report, err := fetch(ctx, studentID, fileID)
	if err != nil {
		if !p.reports.fail(token) {
			return nil, &models.StaleResponseDiscarded{Op: "progress"}
		}
		return nil, err
	}

	normalized := normalizeReport(report, studentID, fileID)
	if !p.reports.commit(token, normalized) {
		return nil, &models.StaleResponseDiscarded{Op: "progress"}
	}
	out := *normalized
	return &out, nil
}

func (p *ProgressAggregator) Busy() bool {
	return p.reports.busy()
}

func (p *ProgressAggregator) View() models.ProgressView {
	report, fetchedAt := p.reports.get()
	if report == nil {
		return models.ProgressView{}
	}

	out := *report
	out.WrongQuestions = append([]models.WrongQuestion{}, report.WrongQuestions...)
	return models.ProgressView{
		Report:          &out,
		HasWrongAnswers: out.HasWrongAnswers(),
		FetchedAt:       &fetchedAt,
	}
}

// normalizeReport makes an empty wrong-answer list explicit and fills in the
// roadmap text the backend leaves out when there is nothing to review.
func normalizeReport(in *models.ProgressReport, studentID, fileID string) *models.ProgressReport {
	report := *in
	if report.WrongQuestions == nil {
		report.WrongQuestions = []models.WrongQuestion{}
	}
	if report.StudentID == "" {
		report.StudentID = studentID
	}
	if report.FileID == "" {
		report.FileID = fileID
	}
	if strings.TrimSpace(report.PersonalizedRoadmap) == "" && len(report.WrongQuestions) == 0 {
		report.PersonalizedRoadmap = models.NoWrongAnswersRoadmap
	}
	return &report
}
