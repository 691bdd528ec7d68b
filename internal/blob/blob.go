package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotExist   = errors.New("blob does not exist")
	errBadPath    = errors.New("storage path escapes the storage root")
	errPartialKey = errors.New("refusing to overwrite existing blob")
)

// Store is the blob medium boundary. Storage paths are generated keys;
// a key is never rewritten in place.
type Store interface {
	Write(namespace, name string, r io.Reader) (storagePath string, size int64, err error)
	Open(storagePath string) (io.ReadCloser, error)
	Delete(storagePath string) error
}

type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

// Write stores the content under namespace with a random unique suffix so two
// uploads with the same name never collide. The returned path is relative to
// the storage root.
func (s *LocalStore) Write(namespace, name string, r io.Reader) (string, int64, error) {
	key := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(name))
	dir := filepath.Join(s.root, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}

	out, err := os.OpenFile(filepath.Join(dir, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", 0, errPartialKey
		}
		return "", 0, err
	}

	written, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", 0, err
	}

	return filepath.ToSlash(filepath.Join(namespace, key)), written, nil
}

func (s *LocalStore) Open(storagePath string) (io.ReadCloser, error) {
	full, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	return f, err
}

// Delete removes the blob. A missing blob is reported as ErrNotExist so
// callers can treat it as already gone.
func (s *LocalStore) Delete(storagePath string) error {
	full, err := s.resolve(storagePath)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if os.IsNotExist(err) {
		return ErrNotExist
	}
	return err
}

func (s *LocalStore) resolve(storagePath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(storagePath))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", errBadPath
	}
	return filepath.Join(s.root, clean), nil
}
