package extract

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"interviewai/internal/errors"
)

// FileType is a supported resume document format.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
)

// DefaultMaxFileSize applies when no limit is configured.
const DefaultMaxFileSize = 5 * 1024 * 1024

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// SupportedExtensions lists the accepted upload extensions.
var SupportedExtensions = []string{".pdf", ".docx", ".txt"}

// Extractor turns uploaded resume documents into plain text.
type Extractor struct {
	maxSize int64
	logger  *errors.Logger
}

// New creates an Extractor. A non-positive maxSize selects DefaultMaxFileSize.
func New(maxSize int64, logger *errors.Logger) *Extractor {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Extractor{maxSize: maxSize, logger: logger}
}

// MaxSize returns the upload size limit in bytes.
func (e *Extractor) MaxSize() int64 {
	return e.maxSize
}

// Extract returns the document's text. Parser failures, panics included,
// become EXTRACTION_FAILED errors, as does a document without text.
func (e *Extractor) Extract(data []byte, fileType FileType) (text string, err error) {
	if int64(len(data)) > e.maxSize {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file is %s, the limit is %s", FormatFileSize(int64(len(data))), FormatFileSize(e.maxSize)), nil)
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.NewExtractionError(errors.ErrCodeExtractionFailed,
				fmt.Sprintf("error extracting text from %s file", fileType), fmt.Errorf("parser panic: %v", r))
		}
	}()

	switch fileType {
	case FileTypePDF:
		text, err = extractPDF(data)
	case FileTypeDOCX:
		text, err = extractDOCX(data)
	case FileTypeTXT:
		text, err = extractTXT(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("unsupported file type %q, please upload a PDF, DOCX or TXT file", fileType), nil)
	}
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			fmt.Sprintf("error extracting text from %s file", fileType), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			fmt.Sprintf("no text could be extracted from the %s file", fileType), nil)
	}

	if e.logger != nil {
		e.logger.Debug("Extracted resume text", "file_type", string(fileType), "bytes", len(data), "chars", utf8.RuneCountInString(text))
	}
	return text, nil
}

// DetectType resolves the file type from the extension, then the declared
// content type, then content sniffing.
func DetectType(filename, contentType string, data []byte) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FileTypePDF, nil
	case ".docx":
		return FileTypeDOCX, nil
	case ".txt", ".text":
		return FileTypeTXT, nil
	}

	if t, ok := typeFromMIME(contentType); ok {
		return t, nil
	}
	if len(data) > 0 {
		if t, ok := typeFromMIME(http.DetectContentType(data)); ok {
			return t, nil
		}
	}

	return "", errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
		fmt.Sprintf("unsupported file %q, please upload one of %s", filename, strings.Join(SupportedExtensions, ", ")), nil)
}

func typeFromMIME(contentType string) (FileType, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch mediaType {
	case mimePDF:
		return FileTypePDF, true
	case mimeDOCX:
		return FileTypeDOCX, true
	case mimeText:
		return FileTypeTXT, true
	}
	return "", false
}

func extractTXT(data []byte) (string, error) {
	data = []byte(strings.TrimPrefix(string(data), "\uFEFF"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	return string(data), nil
}

// FormatFileSize returns a human-readable file size.
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
