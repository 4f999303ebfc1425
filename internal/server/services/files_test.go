package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/cryptox"
	"github.com/dmitrijs2005/gophfiles/internal/logging"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/content"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/metadata"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/requestlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- fakes ---

type memMetadata struct {
	mu      sync.Mutex
	records map[string]*models.FileRecord

	insertErr error
	findErr   error
	removeErr error
}

func newMemMetadata() *memMetadata {
	return &memMetadata{records: map[string]*models.FileRecord{}}
}

func (m *memMetadata) List(ctx context.Context) ([]*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.FileRecord, 0, len(m.records))
	for _, r := range m.records {
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

func (m *memMetadata) Find(ctx context.Context, filename string) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	r, ok := m.records[filename]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (m *memMetadata) Insert(ctx context.Context, record *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.records[record.Filename]; ok {
		return common.ErrAlreadyExists
	}
	c := *record
	m.records[record.Filename] = &c
	return nil
}

func (m *memMetadata) Remove(ctx context.Context, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	if _, ok := m.records[filename]; !ok {
		return common.ErrNotFound
	}
	delete(m.records, filename)
	return nil
}

type memContent struct {
	mu    sync.Mutex
	files map[string][]byte
	calls int

	existsErr error
	writeErr  error
	listErr   error
}

func newMemContent() *memContent {
	return &memContent{files: map[string][]byte{}}
}

func (c *memContent) Write(ctx context.Context, filename string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.writeErr != nil {
		return c.writeErr
	}
	c.files[filename] = append([]byte(nil), data...)
	return nil
}

func (c *memContent) Read(ctx context.Context, filename string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	b, ok := c.files[filename]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (c *memContent) Delete(ctx context.Context, filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if _, ok := c.files[filename]; !ok {
		return common.ErrNotFound
	}
	delete(c.files, filename)
	return nil
}

func (c *memContent) Exists(ctx context.Context, filename string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.existsErr != nil {
		return false, c.existsErr
	}
	_, ok := c.files[filename]
	return ok, nil
}

func (c *memContent) List(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []string
	for name := range c.files {
		out = append(out, name)
	}
	return out, nil
}

type fakeManager struct {
	meta metadata.Repository
	cont content.Repository
}

func (f *fakeManager) Metadata() metadata.Repository     { return f.meta }
func (f *fakeManager) Content() content.Repository       { return f.cont }
func (f *fakeManager) RequestLog() requestlog.Repository { return nil }
func (f *fakeManager) Close() error                      { return nil }

// --- helpers ---

func newTestService(t *testing.T) (*FileService, *memMetadata, *memContent) {
	t.Helper()
	meta, cont := newMemMetadata(), newMemContent()
	s := NewFileService(&fakeManager{meta: meta, cont: cont}, cryptox.NewPasswordHasher(bcrypt.MinCost), logging.NewDiscardLogger())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("X", 3600)) }
	return s, meta, cont
}

// --- tests ---

func TestFileService_Lifecycle(t *testing.T) {
	s, meta, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.CreateFile(ctx, "a.txt", "hello", "pw"))

	names, err := s.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)

	rec := meta.records["a.txt"]
	require.NotNil(t, rec)
	assert.NotEqual(t, "pw", rec.Password)
	assert.True(t, cryptox.IsHashed(rec.Password))
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), rec.CreatedAt)

	data, err := s.GetFile(ctx, "a.txt", "pw")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = s.GetFile(ctx, "a.txt", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	require.NoError(t, s.UpdateFile(ctx, "a.txt", "bye", "pw"))
	data, err = s.GetFile(ctx, "a.txt", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bye", string(data))
	assert.Equal(t, rec.Password, meta.records["a.txt"].Password, "update must not touch metadata")

	require.NoError(t, s.DeleteFile(ctx, "a.txt", "pw"))
	names, err = s.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, names)

	_, err = s.GetFile(ctx, "a.txt", "pw")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, meta.records)
}

func TestFileService_ValidationTouchesNoStorage(t *testing.T) {
	s, _, cont := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		want error
	}{
		{"create no filename", func() error { return s.CreateFile(ctx, "", "c", "p") }, ErrMissingFields},
		{"create no content", func() error { return s.CreateFile(ctx, "f", "", "p") }, ErrMissingFields},
		{"create no password", func() error { return s.CreateFile(ctx, "f", "c", "") }, ErrMissingFields},
		{"update no password", func() error { return s.UpdateFile(ctx, "f", "c", "") }, ErrMissingFields},
		{"update no content", func() error { return s.UpdateFile(ctx, "f", "", "p") }, ErrMissingFields},
		{"delete no filename", func() error { return s.DeleteFile(ctx, "", "p") }, ErrMissingFields},
		{"get no password", func() error { _, err := s.GetFile(ctx, "f", ""); return err }, ErrMissingFields},
		{"create slash", func() error { return s.CreateFile(ctx, "../etc/passwd", "c", "p") }, ErrInvalidFilename},
		{"create backslash", func() error { return s.CreateFile(ctx, `a\b`, "c", "p") }, ErrInvalidFilename},
		{"create dotdot", func() error { return s.CreateFile(ctx, "..", "c", "p") }, ErrInvalidFilename},
		{"get dot", func() error { _, err := s.GetFile(ctx, ".", "p"); return err }, ErrInvalidFilename},
		{"delete nul", func() error { return s.DeleteFile(ctx, "a\x00b", "p") }, ErrInvalidFilename},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, common.ErrBadRequest)
		})
	}
	assert.Zero(t, cont.calls)
}

func TestFileService_CreateDuplicate(t *testing.T) {
	s, _, cont := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.CreateFile(ctx, "a.txt", "first", "pw"))
	err := s.CreateFile(ctx, "a.txt", "second", "other")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.Equal(t, "first", string(cont.files["a.txt"]))
}

func TestFileService_CreateCompensation(t *testing.T) {
	t.Run("metadata failure", func(t *testing.T) {
		s, meta, cont := newTestService(t)
		meta.insertErr = errors.New("disk full")

		err := s.CreateFile(context.Background(), "a.txt", "x", "pw")
		assert.ErrorIs(t, err, common.ErrInternal)
		assert.Empty(t, cont.files)
	})

	t.Run("stale metadata record", func(t *testing.T) {
		s, meta, cont := newTestService(t)
		meta.records["a.txt"] = &models.FileRecord{Filename: "a.txt", Password: "old"}

		err := s.CreateFile(context.Background(), "a.txt", "x", "pw")
		assert.ErrorIs(t, err, common.ErrAlreadyExists)
		assert.Empty(t, cont.files)
		assert.Equal(t, "old", meta.records["a.txt"].Password)
	})

	t.Run("content failure", func(t *testing.T) {
		s, meta, cont := newTestService(t)
		cont.writeErr = common.ErrIO

		err := s.CreateFile(context.Background(), "a.txt", "x", "pw")
		assert.ErrorIs(t, err, common.ErrInternal)
		assert.Empty(t, meta.records)
	})

	t.Run("exists check failure", func(t *testing.T) {
		s, _, cont := newTestService(t)
		cont.existsErr = common.ErrIO

		err := s.CreateFile(context.Background(), "a.txt", "x", "pw")
		assert.ErrorIs(t, err, common.ErrInternal)
	})
}

func TestFileService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		s, _, _ := newTestService(t)
		assert.ErrorIs(t, s.UpdateFile(ctx, "nope", "x", "pw"), common.ErrNotFound)
	})

	t.Run("content without metadata", func(t *testing.T) {
		s, _, cont := newTestService(t)
		cont.files["orphan"] = []byte("x")

		err := s.UpdateFile(ctx, "orphan", "y", "pw")
		assert.ErrorIs(t, err, ErrMetadataLookup)
		assert.ErrorIs(t, err, common.ErrInternal)
		assert.Equal(t, "x", string(cont.files["orphan"]))
	})

	t.Run("metadata lookup error", func(t *testing.T) {
		s, meta, _ := newTestService(t)
		require.NoError(t, s.CreateFile(ctx, "a.txt", "x", "pw"))
		meta.findErr = common.ErrIO

		assert.ErrorIs(t, s.UpdateFile(ctx, "a.txt", "y", "pw"), common.ErrInternal)
	})

	t.Run("wrong password", func(t *testing.T) {
		s, _, cont := newTestService(t)
		require.NoError(t, s.CreateFile(ctx, "a.txt", "x", "pw"))

		assert.ErrorIs(t, s.UpdateFile(ctx, "a.txt", "y", "bad"), common.ErrUnauthorized)
		assert.Equal(t, "x", string(cont.files["a.txt"]))
	})

	t.Run("write failure", func(t *testing.T) {
		s, _, cont := newTestService(t)
		require.NoError(t, s.CreateFile(ctx, "a.txt", "x", "pw"))
		cont.writeErr = common.ErrIO

		assert.ErrorIs(t, s.UpdateFile(ctx, "a.txt", "y", "pw"), common.ErrInternal)
	})
}

func TestFileService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		s, _, _ := newTestService(t)
		assert.ErrorIs(t, s.DeleteFile(ctx, "nope", "pw"), common.ErrNotFound)
	})

	t.Run("wrong password keeps file", func(t *testing.T) {
		s, meta, cont := newTestService(t)
		require.NoError(t, s.CreateFile(ctx, "a.txt", "x", "pw"))

		assert.ErrorIs(t, s.DeleteFile(ctx, "a.txt", "bad"), common.ErrUnauthorized)
		assert.Contains(t, cont.files, "a.txt")
		assert.Contains(t, meta.records, "a.txt")
	})

	t.Run("metadata removal failure restores content", func(t *testing.T) {
		s, meta, cont := newTestService(t)
		require.NoError(t, s.CreateFile(ctx, "a.txt", "keep me", "pw"))
		meta.removeErr = common.ErrIO

		err := s.DeleteFile(ctx, "a.txt", "pw")
		assert.ErrorIs(t, err, common.ErrInternal)
		assert.Equal(t, "keep me", string(cont.files["a.txt"]))
		assert.Contains(t, meta.records, "a.txt")

		meta.removeErr = nil
		data, err := s.GetFile(ctx, "a.txt", "pw")
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(data))
	})
}

func TestFileService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("content missing despite metadata", func(t *testing.T) {
		s, meta, _ := newTestService(t)
		meta.records["ghost"] = &models.FileRecord{Filename: "ghost", Password: "pw"}

		_, err := s.GetFile(ctx, "ghost", "pw")
		assert.ErrorIs(t, err, common.ErrInternal)
	})

	t.Run("metadata lookup error", func(t *testing.T) {
		s, meta, _ := newTestService(t)
		meta.findErr = common.ErrIO

		_, err := s.GetFile(ctx, "a.txt", "pw")
		assert.ErrorIs(t, err, ErrMetadataLookup)
	})

	t.Run("legacy plaintext password", func(t *testing.T) {
		s, meta, cont := newTestService(t)
		meta.records["old.txt"] = &models.FileRecord{Filename: "old.txt", Password: "secret"}
		cont.files["old.txt"] = []byte("legacy")

		data, err := s.GetFile(ctx, "old.txt", "secret")
		require.NoError(t, err)
		assert.Equal(t, "legacy", string(data))

		_, err = s.GetFile(ctx, "old.txt", "Secret")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})
}

func TestFileService_List(t *testing.T) {
	ctx := context.Background()
	s, _, cont := newTestService(t)

	names, err := s.ListFiles(ctx)
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)

	cont.files["b"] = nil
	cont.files["a"] = nil
	names, err = s.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	cont.listErr = common.ErrIO
	_, err = s.ListFiles(ctx)
	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestFileService_ConcurrentCreateSameName(t *testing.T) {
	s, meta, cont := newTestService(t)
	ctx := context.Background()

	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateFile(ctx, "race.txt", "c", "pw")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrAlreadyExists)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, meta.records, 1)
	assert.Len(t, cont.files, 1)
	assert.Zero(t, s.locks.Len())
}

func TestFileService_OnDiskBackends(t *testing.T) {
	dir := t.TempDir()
	meta, err := metadata.NewJSONRepository(filepath.Join(dir, "createdFiles.json"))
	require.NoError(t, err)
	cont, err := content.NewLocalRepository(filepath.Join(dir, "files"))
	require.NoError(t, err)

	s := NewFileService(&fakeManager{meta: meta, cont: cont}, cryptox.NewPasswordHasher(bcrypt.MinCost), logging.NewDiscardLogger())
	ctx := context.Background()

	require.NoError(t, s.CreateFile(ctx, "notes.txt", "line1\nline2", "pw"))
	assert.ErrorIs(t, s.CreateFile(ctx, "notes.txt", "x", "pw"), common.ErrAlreadyExists)

	data, err := s.GetFile(ctx, "notes.txt", "pw")
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", string(data))

	require.NoError(t, s.DeleteFile(ctx, "notes.txt", "pw"))
	names, err := s.ListFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	records, err := meta.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
