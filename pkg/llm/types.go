// Package llm adapts the remote speech-to-text and chat completion providers.
package llm

import "io"

type TranscriptionRequest struct {
	Audio    io.Reader
	FileName string
	Language string
	Prompt   string
}

type CompletionRequest struct {
	Prompt      string
	Temperature float64
}

// Chunk is one incremental piece of generated text. A chunk carrying Err is
// always the last value sent before the channel closes.
type Chunk struct {
	Text string
	Err  error
}
