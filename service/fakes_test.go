package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"upload-ai/entities"
	"upload-ai/pkg/llm"
	"upload-ai/repository"
)

type memoryRepo struct {
	mu     sync.Mutex
	videos map[uuid.UUID]entities.Video
	err    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{videos: map[uuid.UUID]entities.Video{}}
}

func (r *memoryRepo) GetDB() *gorm.DB                 { return nil }
func (r *memoryRepo) Migrate(ctx context.Context) error { return nil }

func (r *memoryRepo) CreateVideo(ctx context.Context, name, path string) (*entities.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := entities.Video{ID: uuid.New(), Name: name, Path: path, CreatedAt: time.Now()}
	r.videos[v.ID] = v
	return &v, nil
}

func (r *memoryRepo) FindVideoById(ctx context.Context, id uuid.UUID) (*entities.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	v, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrVideoNotFound
	}
	return &v, nil
}

func (r *memoryRepo) SetTranscription(ctx context.Context, id uuid.UUID, text string) (*entities.Video, error) {
	r.mu.Lock()
	v, ok := r.videos[id]
	if !ok {
		r.mu.Unlock()
		return nil, repository.ErrVideoNotFound
	}
	if !v.HasTranscription() {
		v.Transcription = &text
		r.videos[id] = v
	}
	r.mu.Unlock()
	return r.FindVideoById(ctx, id)
}

func (r *memoryRepo) withTranscription(text string) uuid.UUID {
	v, _ := r.CreateVideo(context.Background(), "talk.mp3", "videos/talk.mp3")
	if text != "" {
		_, _ = r.SetTranscription(context.Background(), v.ID, text)
	}
	return v.ID
}

type fakeSTT struct {
	calls    atomic.Int32
	text     string
	err      error
	block    chan struct{}
	lastReq  llm.TranscriptionRequest
	lastBody string
	mu       sync.Mutex
}

func (f *fakeSTT) Transcribe(ctx context.Context, req llm.TranscriptionRequest) (string, error) {
	f.calls.Add(1)
	body, _ := io.ReadAll(req.Audio)
	f.mu.Lock()
	f.lastReq = req
	f.lastBody = string(body)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeStreamer struct {
	calls   atomic.Int32
	chunks  []llm.Chunk
	openErr error
	lastReq llm.CompletionRequest
}

func (f *fakeStreamer) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.openErr != nil {
		return nil, f.openErr
	}
	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		for _, c := range f.chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

var errProviderDown = errors.New("provider down")
