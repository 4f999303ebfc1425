// Package services contains server-side business logic. FileService keeps
// a file's content and its metadata record consistent.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/cryptox"
	"github.com/dmitrijs2005/gophfiles/internal/keylock"
	"github.com/dmitrijs2005/gophfiles/internal/logging"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/repomanager"
)

var (
	// ErrMissingFields means a required parameter was absent or empty.
	ErrMissingFields = fmt.Errorf("%w: missing required fields", common.ErrBadRequest)
	// ErrInvalidFilename rejects names that are not a single path element.
	ErrInvalidFilename = fmt.Errorf("%w: invalid filename", common.ErrBadRequest)
	// ErrMetadataLookup means content exists but its record could not be read.
	ErrMetadataLookup = fmt.Errorf("%w: metadata lookup failed", common.ErrInternal)
)

// FileService implements create/update/delete/list/get over the metadata
// and content stores. All operations on one filename are serialized.
type FileService struct {
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.PasswordHasher
	locks       keylock.Map
	log         logging.Logger
	now         func() time.Time
}

// NewFileService constructs a FileService over the stores vended by m.
func NewFileService(m repomanager.RepositoryManager, hasher *cryptox.PasswordHasher, log logging.Logger) *FileService {
	return &FileService{
		repomanager: m,
		hasher:      hasher,
		log:         log,
		now:         time.Now,
	}
}

func required(fields ...string) error {
	for _, f := range fields {
		if f == "" {
			return ErrMissingFields
		}
	}
	return nil
}

func validFilename(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidFilename
	}
	return nil
}

func validate(filename string, fields ...string) error {
	if err := required(append([]string{filename}, fields...)...); err != nil {
		return err
	}
	return validFilename(filename)
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrInternal, op, err)
}

// CreateFile stores a new file. It fails with common.ErrAlreadyExists if
// the filename is taken. A failed metadata insert removes the content again.
func (s *FileService) CreateFile(ctx context.Context, filename, content, password string) error {
	if err := validate(filename, content, password); err != nil {
		return err
	}

	unlock := s.locks.Lock(filename)
	defer unlock()

	cs := s.repomanager.Content()
	exists, err := cs.Exists(ctx, filename)
	if err != nil {
		return internal("check content", err)
	}
	if exists {
		return common.ErrAlreadyExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return internal("hash password", err)
	}

	if err := cs.Write(ctx, filename, []byte(content)); err != nil {
		return internal("write content", err)
	}

	record := &models.FileRecord{Filename: filename, Password: hash, CreatedAt: s.now().UTC()}
	if err := s.repomanager.Metadata().Insert(ctx, record); err != nil {
		if derr := cs.Delete(ctx, filename); derr != nil {
			s.log.Error(ctx, "orphaned content after failed create", "filename", filename, "error", derr)
		}
		if errors.Is(err, common.ErrAlreadyExists) {
			return common.ErrAlreadyExists
		}
		return internal("insert metadata", err)
	}

	s.log.Info(ctx, "file created", "filename", filename, "size", len(content))
	return nil
}

// authorize loads the record of an existing file and checks password
// against it.
func (s *FileService) authorize(ctx context.Context, filename, password string) error {
	exists, err := s.repomanager.Content().Exists(ctx, filename)
	if err != nil {
		return internal("check content", err)
	}
	if !exists {
		return common.ErrNotFound
	}

	record, err := s.repomanager.Metadata().Find(ctx, filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMetadataLookup, err)
	}
	if !s.hasher.Verify(record.Password, password) {
		return common.ErrUnauthorized
	}
	return nil
}

// UpdateFile replaces the content of an existing file. Metadata is left
// untouched.
func (s *FileService) UpdateFile(ctx context.Context, filename, content, password string) error {
	if err := validate(filename, content, password); err != nil {
		return err
	}

	unlock := s.locks.Lock(filename)
	defer unlock()

	if err := s.authorize(ctx, filename, password); err != nil {
		return err
	}
	if err := s.repomanager.Content().Write(ctx, filename, []byte(content)); err != nil {
		return internal("write content", err)
	}

	s.log.Info(ctx, "file updated", "filename", filename, "size", len(content))
	return nil
}

// DeleteFile removes the content and then the record. If the record cannot
// be removed the content is written back.
func (s *FileService) DeleteFile(ctx context.Context, filename, password string) error {
	if err := validate(filename, password); err != nil {
		return err
	}

	unlock := s.locks.Lock(filename)
	defer unlock()

	if err := s.authorize(ctx, filename, password); err != nil {
		return err
	}

	cs := s.repomanager.Content()
	saved, err := cs.Read(ctx, filename)
	if err != nil {
		return internal("read content", err)
	}
	if err := cs.Delete(ctx, filename); err != nil {
		return internal("delete content", err)
	}

	if err := s.repomanager.Metadata().Remove(ctx, filename); err != nil {
		if werr := cs.Write(ctx, filename, saved); werr != nil {
			s.log.Error(ctx, "content lost after failed delete", "filename", filename, "error", werr)
		}
		return internal("remove metadata", err)
	}

	s.log.Info(ctx, "file deleted", "filename", filename)
	return nil
}

// ListFiles returns the names of all stored files, sorted. An empty store
// yields an empty, non-nil slice.
func (s *FileService) ListFiles(ctx context.Context) ([]string, error) {
	names, err := s.repomanager.Content().List(ctx)
	if err != nil {
		return nil, internal("list content", err)
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names, nil
}

// GetFile returns the content of filename if password matches its record.
func (s *FileService) GetFile(ctx context.Context, filename, password string) ([]byte, error) {
	if err := validate(filename, password); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(filename)
	defer unlock()

	record, err := s.repomanager.Metadata().Find(ctx, filename)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataLookup, err)
	}
	if !s.hasher.Verify(record.Password, password) {
		return nil, common.ErrUnauthorized
	}

	data, err := s.repomanager.Content().Read(ctx, filename)
	if err != nil {
		return nil, internal("read content", err)
	}
	return data, nil
}
