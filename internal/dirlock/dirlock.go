// Package dirlock takes an exclusive advisory lock on a directory so two
// server processes never share the same on-disk stores.
package dirlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the lock file created inside the locked directory.
const FileName = ".lock"

// ErrLocked is returned when another process already holds the lock.
var ErrLocked = errors.New("directory is locked by another process")

// Lock holds the lock until Release is called.
type Lock struct {
	f *os.File
}

// Acquire locks dir without blocking. It fails with ErrLocked if the
// directory is held elsewhere.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := tryLock(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{f: f}, nil
}

// Release drops the lock. Calling it more than once is safe.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
