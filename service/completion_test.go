package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upload-ai/pkg/llm"
)

func ptr(f float64) *float64 { return &f }

func drain(ch <-chan llm.Chunk) []string {
	var out []string
	for c := range ch {
		out = append(out, c.Text)
	}
	return out
}

func TestGenerateRequiresTranscription(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.withTranscription("")
	streamer := &fakeStreamer{}
	svc := NewCompletionService(repo, streamer)

	for _, temp := range []*float64{nil, ptr(0), ptr(1)} {
		for _, prompt := range []string{"", "Summarize: {transcription}", "no placeholder"} {
			_, err := svc.Generate(context.Background(), GenerateInput{VideoId: id.String(), Prompt: prompt, Temperature: temp})
			assert.ErrorIs(t, err, ErrMissingPrerequisite)
		}
	}
	assert.Zero(t, streamer.calls.Load())
}

func TestGenerateRejectsTemperatureOutOfRange(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.withTranscription("hello world")
	streamer := &fakeStreamer{}
	svc := NewCompletionService(repo, streamer)

	for _, temp := range []float64{1.5, -0.1} {
		_, err := svc.Generate(context.Background(), GenerateInput{VideoId: id.String(), Prompt: "x", Temperature: ptr(temp)})
		assert.ErrorIs(t, err, ErrValidation, "temperature %v", temp)
	}
	assert.Zero(t, streamer.calls.Load())
}

func TestGenerateDefaultsTemperature(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.withTranscription("hello world")
	streamer := &fakeStreamer{}
	svc := NewCompletionService(repo, streamer)

	ch, err := svc.Generate(context.Background(), GenerateInput{VideoId: id.String(), Prompt: "x"})
	require.NoError(t, err)
	drain(ch)

	assert.Equal(t, 0.5, streamer.lastReq.Temperature)
}

func TestGenerateSubstitutesTranscription(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.withTranscription("hello world")
	streamer := &fakeStreamer{}
	svc := NewCompletionService(repo, streamer)

	ch, err := svc.Generate(context.Background(), GenerateInput{
		VideoId:     id.String(),
		Prompt:      "Summarize: {transcription}",
		Temperature: ptr(0.2),
	})
	require.NoError(t, err)
	drain(ch)

	assert.Equal(t, "Summarize: hello world", streamer.lastReq.Prompt)
	assert.Equal(t, 0.2, streamer.lastReq.Temperature)
}

func TestGenerateForwardsChunksInOrder(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.withTranscription("hello world")
	streamer := &fakeStreamer{chunks: []llm.Chunk{{Text: "A"}, {Text: "B"}, {Text: "C"}}}
	svc := NewCompletionService(repo, streamer)

	ch, err := svc.Generate(context.Background(), GenerateInput{VideoId: id.String(), Prompt: "{transcription}"})
	require.NoError(t, err)

	assert.Equal(t, "A", (<-ch).Text)
	assert.Equal(t, "B", (<-ch).Text)
	assert.Equal(t, "C", (<-ch).Text)
	_, open := <-ch
	assert.False(t, open, "stream must close right after the last chunk")
}

func TestGenerateInvalidInput(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewCompletionService(repo, &fakeStreamer{})

	_, err := svc.Generate(context.Background(), GenerateInput{VideoId: "nope"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Generate(context.Background(), GenerateInput{VideoId: uuid.NewString()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateProviderOpenFailure(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.withTranscription("hello world")
	svc := NewCompletionService(repo, &fakeStreamer{openErr: errProviderDown})

	_, err := svc.Generate(context.Background(), GenerateInput{VideoId: id.String(), Prompt: "x"})

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "completion", providerErr.Op)
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name, template, transcription, want string
	}{
		{"single", "Summarize: {transcription}", "hello world", "Summarize: hello world"},
		{"first only", "{transcription} / {transcription}", "x", "x / {transcription}"},
		{"none", "no placeholder", "x", "no placeholder"},
		{"not recursive", "{transcription}", "{transcription}", "{transcription}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPrompt(tt.template, tt.transcription))
		})
	}
}
