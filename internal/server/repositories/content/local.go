package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/filex"
	"github.com/google/uuid"
)

// tmpPrefix marks in-flight writes; such entries are never listed.
const tmpPrefix = ".gophfiles-tmp-"

// LocalRepository keeps one regular file per stored filename under root.
type LocalRepository struct {
	root string
}

// NewLocalRepository creates root if needed and drops temp files left by
// an interrupted write.
func NewLocalRepository(root string) (*LocalRepository, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}

	stale, _ := filepath.Glob(filepath.Join(abs, tmpPrefix+"*"))
	for _, p := range stale {
		os.Remove(p) //nolint:errcheck
	}

	return &LocalRepository{root: abs}, nil
}

// path maps filename to a location directly under root. Anything that
// would land elsewhere is rejected.
func (r *LocalRepository) path(filename string) (string, error) {
	if filename == "" || strings.HasPrefix(filename, tmpPrefix) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	p := filepath.Join(r.root, filename)
	if filepath.Dir(p) != r.root {
		return "", fmt.Errorf("filename %q escapes content root", filename)
	}
	return p, nil
}

func (r *LocalRepository) Write(ctx context.Context, filename string, content []byte) error {
	dest, err := r.path(filename)
	if err != nil {
		return err
	}

	tmp := filepath.Join(r.root, tmpPrefix+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("%w: open temp for %q: %w", common.ErrIO, filename, err)
	}

	_, werr := f.Write(content)
	if werr == nil {
		werr = f.Sync()
	}
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("%w: write %q: %w", common.ErrIO, filename, werr)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("%w: rename %q: %w", common.ErrIO, filename, err)
	}
	return nil
}

func (r *LocalRepository) Read(ctx context.Context, filename string) ([]byte, error) {
	p, err := r.path(filename)
	if err != nil {
		return nil, common.ErrNotFound
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", common.ErrIO, filename, err)
	}
	return b, nil
}

func (r *LocalRepository) Delete(ctx context.Context, filename string) error {
	p, err := r.path(filename)
	if err != nil {
		return common.ErrNotFound
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: delete %q: %w", common.ErrIO, filename, err)
	}
	return nil
}

func (r *LocalRepository) Exists(ctx context.Context, filename string) (bool, error) {
	p, err := r.path(filename)
	if err != nil {
		return false, nil
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %q: %w", common.ErrIO, filename, err)
	}
	return true, nil
}

func (r *LocalRepository) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("%w: list content: %w", common.ErrIO, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
