package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/server/services"
)

var (
	errBodyTooLarge = fmt.Errorf("%w: request body too large", common.ErrBadRequest)
	errBadBody      = fmt.Errorf("%w: malformed request body", common.ErrBadRequest)
)

// operation carries the per-endpoint response texts.
type operation struct {
	name     string
	ok       string
	missing  string
	internal string
}

var (
	opCreate = operation{"create", "File created successfully.", "Filename, content, and password are required.", "Error creating file."}
	opUpdate = operation{"update", "File updated successfully.", "Filename, content, and password are required.", "Error updating file."}
	opDelete = operation{"delete", "File deleted successfully.", "Filename and password are required.", "Error deleting file."}
	opList   = operation{name: "list", internal: "Error reading files."}
	opGet    = operation{name: "get", missing: "Filename and password are required.", internal: "Error reading file."}
)

type fileParams struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Password string `json:"password"`
}

// bodyParams reads filename/content/password from a JSON or urlencoded
// body. The body is read by hand so DELETE bodies are honoured too.
func (s *Server) bodyParams(w http.ResponseWriter, r *http.Request) (*fileParams, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("%w: %w", errBadBody, err)
	}

	p := &fileParams{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if len(body) == 0 {
			return p, nil
		}
		if err := json.Unmarshal(body, p); err != nil {
			return nil, fmt.Errorf("%w: %w", errBadBody, err)
		}
		return p, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadBody, err)
	}
	p.Filename = values.Get("filename")
	p.Content = values.Get("content")
	p.Password = values.Get("password")
	return p, nil
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	io.WriteString(w, msg) //nolint:errcheck
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotFound, "Not found.")
}

// statusFor maps service errors to HTTP status codes. Internal errors are
// checked first since they may wrap a repository sentinel.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, common.ErrBadRequest),
		errors.Is(err, common.ErrAlreadyExists),
		errors.Is(err, common.ErrNotFound):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func messageFor(op operation, err error) string {
	switch {
	case errors.Is(err, services.ErrMetadataLookup):
		return "Error retrieving file data."
	case errors.Is(err, common.ErrInternal):
		return op.internal
	case errors.Is(err, services.ErrMissingFields):
		return op.missing
	case errors.Is(err, services.ErrInvalidFilename):
		return "Invalid filename."
	case errors.Is(err, errBodyTooLarge):
		return "Request body too large."
	case errors.Is(err, errBadBody):
		return "Invalid request body."
	case errors.Is(err, common.ErrAlreadyExists):
		return "File already exists."
	case errors.Is(err, common.ErrNotFound):
		return "File not found."
	case errors.Is(err, common.ErrUnauthorized):
		return "Unauthorized access."
	}
	return op.internal
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op operation, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "op", op.name, "error", err)
	}
	writeText(w, code, messageFor(op, err))
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request) {
	p, err := s.bodyParams(w, r)
	if err == nil {
		err = s.files.CreateFile(r.Context(), p.Filename, p.Content, p.Password)
	}
	if err != nil {
		s.fail(w, r, opCreate, err)
		return
	}
	writeText(w, http.StatusOK, opCreate.ok)
}

func (s *Server) updateFile(w http.ResponseWriter, r *http.Request) {
	p, err := s.bodyParams(w, r)
	if err == nil {
		err = s.files.UpdateFile(r.Context(), p.Filename, p.Content, p.Password)
	}
	if err != nil {
		s.fail(w, r, opUpdate, err)
		return
	}
	writeText(w, http.StatusOK, opUpdate.ok)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	p, err := s.bodyParams(w, r)
	if err == nil {
		err = s.files.DeleteFile(r.Context(), p.Filename, p.Password)
	}
	if err != nil {
		s.fail(w, r, opDelete, err)
		return
	}
	writeText(w, http.StatusOK, opDelete.ok)
}

func (s *Server) getFiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.files.ListFiles(r.Context())
	if err != nil {
		s.fail(w, r, opList, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(names) //nolint:errcheck
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, err := s.files.GetFile(r.Context(), q.Get("filename"), q.Get("password"))
	if err != nil {
		s.fail(w, r, opGet, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
