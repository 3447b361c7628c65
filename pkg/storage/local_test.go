package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveAndOpen(t *testing.T) {
	ctx := context.Background()
	s := NewFs(afero.NewMemMapFs())

	err := s.Save(ctx, "videos/a.mp3", strings.NewReader("audio-bytes"), 11, "audio/mpeg")
	require.NoError(t, err)

	rc, err := s.Open(ctx, "videos/a.mp3")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}

func TestLocalOpenMissing(t *testing.T) {
	s := NewFs(afero.NewMemMapFs())

	_, err := s.Open(context.Background(), "videos/missing.mp3")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewFs(afero.NewMemMapFs())
	require.NoError(t, s.Save(ctx, "x.mp3", strings.NewReader("x"), 1, ""))

	require.NoError(t, s.Remove(ctx, "x.mp3"))
	require.NoError(t, s.Remove(ctx, "x.mp3"))

	_, err := s.Open(ctx, "x.mp3")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewLocalCreatesRoot(t *testing.T) {
	root := t.TempDir() + "/nested/store"
	s, err := NewLocal(root)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "videos/b.mp3", strings.NewReader("b"), 1, ""))
	rc, err := s.Open(context.Background(), "videos/b.mp3")
	require.NoError(t, err)
	_ = rc.Close()
}
