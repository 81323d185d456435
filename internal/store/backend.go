package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrNotFound is returned by a Backend when no record exists under a key.
var ErrNotFound = errors.New("record not found")

// Backend is a string-keyed get/set/remove interface over serialized JSON
// blobs. The store and the credential cache both persist through it, each
// with a small fixed set of named records.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, data []byte) error
	Remove(key string) error
}

// FileBackend keeps one file per record inside a directory. Writes go
// through a temp file and rename so a crashed write never leaves a torn
// record behind.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory if needed and returns a backend
// rooted at it.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

// Get reads the record stored under key, or ErrNotFound.
func (b *FileBackend) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading record %s: %w", key, err)
	}
	return data, nil
}

// Set atomically replaces the record stored under key.
func (b *FileBackend) Set(key string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing record %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing record %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions on record %s: %w", key, err)
	}
	if err := os.Rename(tmpName, b.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing record %s: %w", key, err)
	}
	return nil
}

// Remove deletes the record stored under key. Removing an absent record is
// not an error.
func (b *FileBackend) Remove(key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing record %s: %w", key, err)
	}
	return nil
}

// NewLock returns a cross-process lock guarding reconciliation for the data
// directory. At most one reconcile may run per account at a time.
func NewLock(dir string) *flock.Flock {
	return flock.New(filepath.Join(dir, "sync.lock"))
}
