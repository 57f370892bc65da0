package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"learning-session/internal/models"
)

const (
	previewPages = 3
	previewRunes = 280
)

var pdfMagic = []byte("%PDF-")

// FileExtractService checks uploads locally so that unreadable files never
// reach the backend.
type FileExtractService struct {
	maxBytes int64
}

func NewFileExtractService(maxBytes int64) *FileExtractService {
	return &FileExtractService{maxBytes: maxBytes}
}

func (s *FileExtractService) InspectPDF(filename string, data []byte) (*models.DocumentInfo, error) {
	if strings.TrimSpace(filename) == "" || len(data) == 0 {
		return nil, models.NewValidationError("file", "Select a PDF first")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, models.NewValidationError("file", fmt.Sprintf("File exceeds %d MB", s.maxBytes>>20))
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, models.NewValidationError("file", "Only PDF files allowed")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, models.NewValidationError("file", "File is not a valid PDF")
	}

	reader, err := openPDF(data)
	if err != nil {
		return nil, models.NewValidationError("file", "PDF could not be read")
	}

	totalPage := reader.NumPage()
	if totalPage == 0 {
		return nil, models.NewValidationError("file", "PDF has no pages")
	}

	info := &models.DocumentInfo{Pages: totalPage}
	text := normalizeExtractedText(extractPages(reader, previewPages))
	if text != "" {
		info.HasText = true
		info.Preview = truncateRunes(text, previewRunes)
	}
	return info, nil
}

// openPDF guards against the parser panicking on malformed input.
func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func extractPages(reader *pdf.Reader, limit int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	var b strings.Builder
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage && pageIndex <= limit; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
