package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/logging"
	"github.com/dmitrijs2005/gophfiles/internal/server/config"
	"github.com/dmitrijs2005/gophfiles/internal/server/metrics"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
	"github.com/dmitrijs2005/gophfiles/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op, filename, content, password string
}

type fakeFiles struct {
	mu    sync.Mutex
	calls []call
	err   error
	names []string
	data  []byte
	panic bool
}

func (f *fakeFiles) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeFiles) CreateFile(ctx context.Context, filename, content, password string) error {
	return f.record(call{"create", filename, content, password})
}

func (f *fakeFiles) UpdateFile(ctx context.Context, filename, content, password string) error {
	return f.record(call{"update", filename, content, password})
}

func (f *fakeFiles) DeleteFile(ctx context.Context, filename, password string) error {
	return f.record(call{"delete", filename, "", password})
}

func (f *fakeFiles) ListFiles(ctx context.Context) ([]string, error) {
	if err := f.record(call{op: "list"}); err != nil {
		return nil, err
	}
	return f.names, nil
}

func (f *fakeFiles) GetFile(ctx context.Context, filename, password string) ([]byte, error) {
	if err := f.record(call{"get", filename, "", password}); err != nil {
		return nil, err
	}
	return f.data, nil
}

type memLog struct {
	mu      sync.Mutex
	entries []models.LogEntry
	err     error
}

func (l *memLog) Append(ctx context.Context, e *models.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, *e)
	return nil
}

func newTestServer(t *testing.T, files FileService, rl *memLog) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.MaxBodyBytes = 64
	return NewServer(cfg, files, rl, metrics.New(), logging.NewDiscardLogger())
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func form(kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v.Encode()
}

const formType = "application/x-www-form-urlencoded"

func TestHandlers_ParseParameters(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		want        call
		wantMsg     string
	}{
		{
			name: "create json", method: http.MethodPost, target: "/createFile",
			contentType: "application/json; charset=utf-8",
			body:        `{"filename":"a.txt","content":"hi","password":"pw"}`,
			want:        call{"create", "a.txt", "hi", "pw"},
			wantMsg:     "File created successfully.",
		},
		{
			name: "create form", method: http.MethodPost, target: "/createFile",
			contentType: formType, body: form("filename", "a.txt", "content", "a b&c", "password", "pw"),
			want:    call{"create", "a.txt", "a b&c", "pw"},
			wantMsg: "File created successfully.",
		},
		{
			name: "update json", method: http.MethodPut, target: "/updateFile",
			contentType: "application/json", body: `{"filename":"a.txt","content":"new","password":"pw"}`,
			want:    call{"update", "a.txt", "new", "pw"},
			wantMsg: "File updated successfully.",
		},
		{
			name: "delete form body", method: http.MethodDelete, target: "/deleteFile",
			contentType: formType, body: form("filename", "a.txt", "password", "pw"),
			want:    call{"delete", "a.txt", "", "pw"},
			wantMsg: "File deleted successfully.",
		},
		{
			name: "get query", method: http.MethodGet, target: "/getFile?filename=a.txt&password=p%26w",
			want: call{"get", "a.txt", "", "p&w"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := &fakeFiles{data: []byte("content")}
			s := newTestServer(t, files, &memLog{})

			rec := do(t, s.Handler(), tt.method, tt.target, tt.contentType, tt.body)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Len(t, files.calls, 1)
			assert.Equal(t, tt.want, files.calls[0])
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, rec.Body.String())
			}
		})
	}
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"create missing", http.MethodPost, "/createFile", form("filename", "a"), services.ErrMissingFields, 400, "Filename, content, and password are required."},
		{"create exists", http.MethodPost, "/createFile", form("filename", "a"), common.ErrAlreadyExists, 400, "File already exists."},
		{"create internal", http.MethodPost, "/createFile", form("filename", "a"), fmt.Errorf("%w: disk", common.ErrInternal), 500, "Error creating file."},
		{"create bad name", http.MethodPost, "/createFile", form("filename", ".."), services.ErrInvalidFilename, 400, "Invalid filename."},
		{"update not found", http.MethodPut, "/updateFile", form("filename", "a"), common.ErrNotFound, 400, "File not found."},
		{"update unauthorized", http.MethodPut, "/updateFile", form("filename", "a"), common.ErrUnauthorized, 401, "Unauthorized access."},
		{"update metadata", http.MethodPut, "/updateFile", form("filename", "a"), fmt.Errorf("%w: %w", services.ErrMetadataLookup, common.ErrNotFound), 500, "Error retrieving file data."},
		{"update internal", http.MethodPut, "/updateFile", form("filename", "a"), fmt.Errorf("%w: x", common.ErrInternal), 500, "Error updating file."},
		{"delete missing", http.MethodDelete, "/deleteFile", "", services.ErrMissingFields, 400, "Filename and password are required."},
		{"delete internal", http.MethodDelete, "/deleteFile", form("filename", "a"), fmt.Errorf("%w: x", common.ErrInternal), 500, "Error deleting file."},
		{"list internal", http.MethodGet, "/getFiles", "", fmt.Errorf("%w: x", common.ErrInternal), 500, "Error reading files."},
		{"get missing", http.MethodGet, "/getFile", "", services.ErrMissingFields, 400, "Filename and password are required."},
		{"get unauthorized", http.MethodGet, "/getFile?filename=a&password=b", "", common.ErrUnauthorized, 401, "Unauthorized access."},
		{"get internal wrapping not found", http.MethodGet, "/getFile?filename=a&password=b", "", fmt.Errorf("%w: read: %w", common.ErrInternal, common.ErrNotFound), 500, "Error reading file."},
		{"unknown error", http.MethodGet, "/getFile?filename=a&password=b", "", errors.New("???"), 500, "Error reading file."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeFiles{err: tt.err}, &memLog{})

			rec := do(t, s.Handler(), tt.method, tt.target, formType, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, rec.Body.String())
		})
	}
}

func TestHandlers_BodyErrors(t *testing.T) {
	files := &fakeFiles{}
	s := newTestServer(t, files, &memLog{})

	rec := do(t, s.Handler(), http.MethodPost, "/createFile", "application/json", `{"filename":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body.", rec.Body.String())

	big := form("filename", "a", "content", strings.Repeat("x", 100), "password", "p")
	rec = do(t, s.Handler(), http.MethodPost, "/createFile", formType, big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body too large.", rec.Body.String())

	assert.Empty(t, files.calls)
}

func TestGetFiles(t *testing.T) {
	t.Run("empty is an array", func(t *testing.T) {
		s := newTestServer(t, &fakeFiles{}, &memLog{})
		rec := do(t, s.Handler(), http.MethodGet, "/getFiles", "", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("names", func(t *testing.T) {
		s := newTestServer(t, &fakeFiles{names: []string{"a.txt", "b.txt"}}, &memLog{})
		rec := do(t, s.Handler(), http.MethodGet, "/getFiles", "", "")

		var got []string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, []string{"a.txt", "b.txt"}, got)
	})
}

func TestGetFile_RawContent(t *testing.T) {
	s := newTestServer(t, &fakeFiles{data: []byte("line1\nline2")}, &memLog{})
	rec := do(t, s.Handler(), http.MethodGet, "/getFile?filename=a&password=b", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "line1\nline2", rec.Body.String())
}

func TestUnknownRoutesAndMethods(t *testing.T) {
	files := &fakeFiles{}
	s := newTestServer(t, files, &memLog{})

	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/nope", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/createFile", "", "").Code)
	assert.Empty(t, files.calls)
}

func TestPanicIsRecovered(t *testing.T) {
	s := newTestServer(t, &fakeFiles{panic: true}, &memLog{})

	rec := do(t, s.Handler(), http.MethodGet, "/getFiles", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeFiles{}, &memLog{})
	do(t, s.Handler(), http.MethodGet, "/getFiles", "", "")

	rec := do(t, s.Handler(), http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gophfiles_http_requests_total{code="200",method="GET",route="/getFiles"} 1`)
}
