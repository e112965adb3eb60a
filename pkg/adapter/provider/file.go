package provider

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// fileLock serialises writers of one store: mu within the process and a
// <path>.lock file across processes.
type fileLock struct {
	mu   sync.Mutex
	path string
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

// with runs fn while holding both locks.
func (l *fileLock) with(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	fl := flock.New(l.path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquiring store lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

// writeAtomic writes through a temporary file in the target directory and
// renames it over path. The temporary name keeps path's extension so that
// writers which pick a format by extension behave the same.
func writeAtomic(path string, write func(tmp string) error) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	ext := filepath.Ext(name)
	f, err := os.CreateTemp(dir, "."+strings.TrimSuffix(name, ext)+"-*"+ext)
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	return writeAtomic(path, func(tmp string) error {
		return os.WriteFile(tmp, data, 0o644)
	})
}

// readFile returns the store content. A missing file is reported with
// exists false and no error.
func readFile(path string) (data []byte, exists bool, err error) {
	data, err = os.ReadFile(path)
	switch {
	case err == nil:
		return data, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	default:
		return nil, false, err
	}
}
