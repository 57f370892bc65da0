package models

type Summary struct {
	FileID  string `json:"file_id"`
	Summary string `json:"summary"`
}
