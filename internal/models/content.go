package models

// UploadResult is the backend's receipt for an ingested document.
type UploadResult struct {
	FileID       string `json:"file_id"`
	ChunksStored int    `json:"chunks_stored"`
	Message      string `json:"message,omitempty"`
	Filename     string `json:"filename,omitempty"`
	Pages        int    `json:"pages,omitempty"`
	Preview      string `json:"preview,omitempty"`
}

// DocumentInfo is what can be learned about a PDF locally, before upload.
type DocumentInfo struct {
	Pages   int    `json:"pages"`
	HasText bool   `json:"has_text"`
	Preview string `json:"preview,omitempty"`
}

type FileRequest struct {
	FileID string `json:"file_id"`
}

type SetDocumentRequest struct {
	FileID string `json:"file_id"`
}

type SetStudentRequest struct {
	StudentID string `json:"student_id"`
}

type SelectViewRequest struct {
	View string `json:"view"`
}
