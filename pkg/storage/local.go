package storage

import (
	"context"
	"errors"
	"github.com/spf13/afero"
	"io"
	"os"
	"path"
)

type localStorage struct {
	fs afero.Fs
}

// NewLocal stores objects as files below root on the host filesystem.
func NewLocal(root string) (FileStorage, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, err
	}
	return NewFs(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

// NewFs stores objects on an arbitrary afero filesystem.
func NewFs(fs afero.Fs) FileStorage {
	return &localStorage{fs: fs}
}

func (s *localStorage) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := s.fs.MkdirAll(path.Dir(key), os.ModePerm); err != nil {
		return err
	}

	f, err := s.fs.Create(key)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(key)
		return err
	}
	return f.Close()
}

func (s *localStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := s.fs.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Join(ErrObjectNotFound, err)
		}
		return nil, err
	}
	return f, nil
}

func (s *localStorage) Remove(_ context.Context, key string) error {
	err := s.fs.Remove(key)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
