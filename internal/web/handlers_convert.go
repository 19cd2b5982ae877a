package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/entityexport/internal/core"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// multipartOverhead is allowed on top of the file size for form boundaries
// and headers.
const multipartOverhead = 1 << 20

// allowedExtensions and allowedContentTypes list accepted uploads.
var (
	allowedExtensions = map[string]bool{".xlsx": true, ".xls": true, ".csv": true}

	allowedContentTypes = map[string]bool{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
		"application/vnd.ms-excel": true,
		"text/csv":                 true,
	}
)

// convertForm holds the validated conversion parameters.
type convertForm struct {
	FileName  string `validate:"required,max=255"`
	SheetName string `validate:"omitempty,max=31,excludesall=[]:*?/\\"`
}

// validationError wraps validator failures so respondError can explain them.
type validationError struct {
	err error
}

func (e *validationError) Error() string { return "invalid request: " + e.err.Error() }
func (e *validationError) Unwrap() error { return e.err }

func (e *validationError) userMessage() core.UserMessage {
	msg := core.UserMessage{
		Message: "The request is invalid",
		Action:  "Check the file and sheet name and try again",
		Code:    "VAL001",
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(e.err, &fieldErrs) || len(fieldErrs) == 0 {
		return msg
	}
	switch fieldErrs[0].Field() {
	case "SheetName":
		msg.Message = "Invalid sheet name"
		msg.Action = `Sheet names are at most 31 characters and cannot contain [ ] : * ? / \`
	case "FileName":
		msg.Message = "Invalid file name"
		msg.Action = "Rename the file and upload again"
	}
	return msg
}

// convertResponse is the success body of the convert routes.
type convertResponse struct {
	Success    bool                `json:"success"`
	Data       []string            `json:"data"`
	FileName   string              `json:"fileName"`
	FolderName string              `json:"folderName"`
	RunID      string              `json:"runId"`
	SheetName  string              `json:"sheetName"`
	Archives   []core.EntityResult `json:"archives"`
}

// handleConvert converts an uploaded spreadsheet. The sheet comes from the
// {sheetname} path segment; without one the configured default sheet is used.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, core.ErrFileTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.respondError(w, r, core.ErrFileTooLarge)
		return
	}
	if !allowedUpload(header.Filename, header.Header.Get("Content-Type")) {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnsupportedFileType, header.Filename))
		return
	}

	form := convertForm{
		FileName:  header.Filename,
		SheetName: sheetParam(r),
	}
	if err := validate.Struct(form); err != nil {
		s.respondError(w, r, &validationError{err: err})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	result, err := s.service.Convert(ctx, core.ConvertRequest{
		FileName:  form.FileName,
		SheetName: form.SheetName,
		Data:      data,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		Success:    true,
		Data:       result.DownloadPaths(),
		FileName:   result.FileName,
		FolderName: filepath.Base(result.FolderName),
		RunID:      result.RunID,
		SheetName:  result.SheetName,
		Archives:   result.Entities,
	})
}

// sheetParam returns the decoded, trimmed {sheetname} segment or "".
func sheetParam(r *http.Request) string {
	raw := chi.URLParam(r, "sheetname")
	if name, err := url.PathUnescape(raw); err == nil {
		raw = name
	}
	return strings.TrimSpace(raw)
}

// allowedUpload accepts a file by extension or, failing that, content type.
func allowedUpload(name, contentType string) bool {
	if allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return true
	}
	ct := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	return allowedContentTypes[strings.ToLower(ct)]
}
