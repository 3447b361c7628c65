package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
}

func writeSSE(w http.ResponseWriter, deltas ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for i, d := range deltas {
		fmt.Fprintf(w, "data: {\"id\":\"chunk-%d\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", i, d)
		w.(http.Flusher).Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func TestTranscribeSendsWhisperParameters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "pt", r.FormValue("language"))
		assert.Equal(t, "nlw, rocketseat", r.FormValue("prompt"))
		assert.Equal(t, "json", r.FormValue("response_format"))
		assert.Equal(t, "0.00", r.FormValue("temperature"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "audio.mp3", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "mp3-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"olá mundo"}`))
	})

	text, err := client.Transcribe(context.Background(), TranscriptionRequest{
		Audio:    strings.NewReader("mp3-bytes"),
		FileName: "audio.mp3",
		Language: "pt",
		Prompt:   "nlw, rocketseat",
	})
	require.NoError(t, err)
	assert.Equal(t, "olá mundo", text)
}

func TestTranscribeProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	})

	_, err := client.Transcribe(context.Background(), TranscriptionRequest{
		Audio:    strings.NewReader("x"),
		FileName: "audio.mp3",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestStreamCompletionForwardsInOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"stream":true`)
		assert.Contains(t, string(body), `"content":"Summarize: hello world"`)
		assert.Contains(t, string(body), `"temperature":0.7`)
		writeSSE(w, "A", "B", "C")
	})

	chunks, err := client.StreamCompletion(context.Background(), CompletionRequest{
		Prompt:      "Summarize: hello world",
		Temperature: 0.7,
	})
	require.NoError(t, err)

	var got []string
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		got = append(got, chunk.Text)
	}
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestStreamCompletionOpenError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	chunks, err := client.StreamCompletion(context.Background(), CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Nil(t, chunks)
}

func TestStreamCompletionStopsOnCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "A", "B", "C")
	})

	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := client.StreamCompletion(ctx, CompletionRequest{Prompt: "x"})
	require.NoError(t, err)

	first := <-chunks
	assert.Equal(t, "A", first.Text)
	cancel()

	// The producer must close the channel instead of blocking on a gone consumer.
	for range chunks {
	}
}

func TestTemperatureZeroIsNotDropped(t *testing.T) {
	assert.NotZero(t, temperature32(0))
	assert.InDelta(t, 0.5, temperature32(0.5), 1e-6)
}
