// Package artifact stores uploaded source materials and exported curriculum
// files as opaque blobs keyed by upload id and filename.
package artifact

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// Store persists content blobs for uploads and exports.
type Store interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	// ContentRef returns a stable reference for embedding in curriculum
	// sections; the filesystem store returns a file:// URL.
	ContentRef(key string) (string, error)
}

// FSStore is a filesystem-backed Store rooted at a base directory.
type FSStore struct{ base string }

// NewFSStore creates a filesystem store, creating base if needed.
func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	dst := filepath.Join(s.base, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.base, filepath.Clean(key)))
}

func (s *FSStore) ContentRef(key string) (string, error) {
	u := url.URL{Scheme: "file", Path: filepath.Join(s.base, key)}
	return u.String(), nil
}
