package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"upload-ai/config"
	"upload-ai/constant"
)

func newTestRepo(t *testing.T) VideoRepository {
	t.Helper()
	db, err := config.OpenDB(config.Database{
		Driver: string(constant.DatabaseDriverSQLite),
		DSN:    "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000",
	})
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	r, err := NewRepo(db, constant.DatabaseDriverSQLite, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func TestCreateAndFindVideo(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.CreateVideo(ctx, "talk.mp3", "videos/abc-talk.mp3")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	found, err := r.FindVideoById(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "talk.mp3", found.Name)
	assert.Equal(t, "videos/abc-talk.mp3", found.Path)
	assert.False(t, found.HasTranscription())
}

func TestFindVideoById_NotFound(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.FindVideoById(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestSetTranscription_KeepsFirstValue(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	video, err := r.CreateVideo(ctx, "a.mp3", "videos/a.mp3")
	require.NoError(t, err)

	first, err := r.SetTranscription(ctx, video.ID, "hello world")
	require.NoError(t, err)
	require.True(t, first.HasTranscription())
	assert.Equal(t, "hello world", *first.Transcription)

	second, err := r.SetTranscription(ctx, video.ID, "something else")
	require.NoError(t, err)
	assert.Equal(t, "hello world", *second.Transcription)
}

func TestSetTranscription_ConcurrentWritersAgree(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	video, err := r.CreateVideo(ctx, "a.mp3", "videos/a.mp3")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, err := r.SetTranscription(ctx, video.ID, uuid.NewString())
			if assert.NoError(t, err) {
				results[i] = *stored.Transcription
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results[1:] {
		assert.Equal(t, results[0], got)
	}
}

func TestSetTranscription_UnknownVideo(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.SetTranscription(context.Background(), uuid.New(), "text")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}
