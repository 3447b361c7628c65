package llm

import (
	"context"
	"errors"
	openai "github.com/sashabaranov/go-openai"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	DefaultTranscriptionModel = openai.Whisper1
	DefaultCompletionModel    = openai.GPT3Dot5Turbo16K
)

type Config struct {
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	CompletionModel    string
	Timeout            time.Duration
}

type OpenAIClient struct {
	api                *openai.Client
	transcriptionModel string
	completionModel    string
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	c := &OpenAIClient{
		api:                openai.NewClientWithConfig(clientConfig),
		transcriptionModel: cfg.TranscriptionModel,
		completionModel:    cfg.CompletionModel,
	}
	if c.transcriptionModel == "" {
		c.transcriptionModel = DefaultTranscriptionModel
	}
	if c.completionModel == "" {
		c.completionModel = DefaultCompletionModel
	}
	return c
}

// Transcribe sends the audio to the whisper endpoint with deterministic
// decoding and a JSON response body.
func (c *OpenAIClient) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	if req.Audio == nil {
		return "", errors.New("audio reader is required")
	}

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:       c.transcriptionModel,
		Reader:      req.Audio,
		FilePath:    req.FileName,
		Prompt:      req.Prompt,
		Language:    req.Language,
		Format:      openai.AudioResponseFormatJSON,
		Temperature: temperature32(0),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// StreamCompletion opens a chat completion stream and forwards each content
// delta on the returned channel in arrival order. The channel is unbuffered so
// nothing is read from the provider faster than the consumer drains it.
func (c *OpenAIClient) StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.completionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		Temperature: temperature32(req.Temperature),
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}

	chunks := make(chan Chunk)
	go func() {
		defer close(chunks)
		defer stream.Close()

		send := func(chunk Chunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				send(Chunk{Err: err})
				return
			}
			for _, choice := range resp.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !send(Chunk{Text: choice.Delta.Content}) {
					return
				}
			}
		}
	}()

	return chunks, nil
}

// temperature32 keeps an explicit 0 on the wire: go-openai skips zero
// temperatures both in the chat JSON body and in the audio multipart form.
func temperature32(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
