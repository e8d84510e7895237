package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"interviewai/internal/errors"
)

// ReadFile validates and reads a resume from disk, enforcing the size limit.
func (e *Extractor) ReadFile(filename string) ([]byte, error) {
	if filename == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "filename cannot be empty", nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", filename), err)
	}
	if info.IsDir() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("path is a directory, not a file: %s", filename), nil)
	}
	if info.Size() > e.maxSize {
		return nil, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file is %s, the limit is %s", FormatFileSize(info.Size()), FormatFileSize(e.maxSize)), nil)
	}

	file, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && e.logger != nil {
			e.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(file, e.maxSize+1))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return data, nil
}
