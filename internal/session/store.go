package session

import (
	"strings"
	"sync"

	"learning-session/internal/models"
)

// Store holds the document reference and the student identity.
type Store struct {
	mu         sync.RWMutex
	fileID     string
	studentID  string
	lastUpload *models.UploadResult
}

func NewStore(defaultStudentID string) *Store {
	return &Store{studentID: strings.TrimSpace(defaultStudentID)}
}

func (s *Store) Document() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileID
}

func (s *Store) Student() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.studentID
}

// SetDocument replaces the document reference and reports whether it changed.
// An empty reference is accepted and leaves the session without a document.
func (s *Store) SetDocument(ref string) bool {
	ref = strings.TrimSpace(ref)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ref == s.fileID {
		return false
	}
	s.fileID = ref
	return true
}

func (s *Store) SetStudent(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.NewValidationError("student_id", "Student ID is required")
	}

	s.mu.Lock()
	s.studentID = id
	s.mu.Unlock()
	return nil
}

// RecordUpload keeps the receipt and adopts its file id as the current document.
func (s *Store) RecordUpload(res *models.UploadResult) bool {
	receipt := *res
	ref := strings.TrimSpace(res.FileID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpload = &receipt
	if ref == s.fileID {
		return false
	}
	s.fileID = ref
	return true
}

func (s *Store) LastUpload() *models.UploadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpload == nil {
		return nil
	}
	receipt := *s.lastUpload
	return &receipt
}
