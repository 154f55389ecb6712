package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/filex"
)

// ErrInvalidKey rejects keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// LocalStore writes objects below a directory and serves them from
// urlPrefix, e.g. "/static/uploads".
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStore{dir: abs, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalStore) Put(_ context.Context, key, _ string, body io.Reader, size int64) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	limit := size
	if limit <= 0 || limit > MaxPictureSize {
		limit = MaxPictureSize
	}
	_, err = filex.WriteFile(p, body, limit)
	return err
}

func (s *LocalStore) URL(_ context.Context, key string) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return s.urlPrefix + "/" + key, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean != "/"+key {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}
