package uploader

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"sync"
	"upload-ai/dto"
	"upload-ai/pkg/transcoder"
)

var ErrStaleSession = errors.New("session was reset while work was in flight")

type Converter interface {
	Convert(ctx context.Context, inputPath string, onProgress func(float64)) (*transcoder.Result, error)
}

type Backend interface {
	UploadAudio(ctx context.Context, audioPath string) (dto.VideoResponse, error)
	CreateTranscription(ctx context.Context, videoId string, prompt string) (string, error)
}

type Option func(*Session)

// WithObserver registers fn to be called after every status change.
func WithObserver(fn func(Status)) Option {
	return func(s *Session) { s.observers = append(s.observers, fn) }
}

// WithOnUploaded registers the consumer that receives the record id once the
// transcription has been generated.
func WithOnUploaded(fn func(videoId string)) Option {
	return func(s *Session) { s.onUploaded = fn }
}

// WithProgress registers a receiver for transcoder progress fractions.
func WithProgress(fn func(float64)) Option {
	return func(s *Session) { s.onProgress = fn }
}

// Session drives one selected video through convert, upload and transcribe.
// A session is reusable: Select starts over with a new file.
type Session struct {
	conv    Converter
	backend Backend

	observers  []func(Status)
	onUploaded func(string)
	onProgress func(float64)

	mu         sync.Mutex
	file       string
	status     Status
	prompt     string
	audio      *transcoder.Result
	videoId    string
	generation uint64
}

func NewSession(conv Converter, backend Backend, opts ...Option) *Session {
	s := &Session{
		conv:    conv,
		backend: backend,
		status:  StatusWaiting,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// VideoId is the record id of the last successful submission.
func (s *Session) VideoId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoId
}

// Select replaces the source file and resets the session to waiting. Work
// already in flight for the previous file is abandoned: it keeps running but
// its results are discarded.
func (s *Session) Select(file string) {
	s.mu.Lock()
	s.generation++
	s.file = file
	s.prompt = ""
	s.videoId = ""
	old := s.audio
	s.audio = nil
	changed := s.status != StatusWaiting
	s.status = StatusWaiting
	s.mu.Unlock()

	if old != nil {
		_ = old.Cleanup()
	}
	if changed {
		s.notify(StatusWaiting)
	}
}

// Submit runs the pipeline for the selected file. It is a no-op when no file
// is selected or a submission has already started.
func (s *Session) Submit(ctx context.Context, prompt string) error {
	s.mu.Lock()
	if s.file == "" || s.status != StatusWaiting {
		s.mu.Unlock()
		return nil
	}
	// Claiming converting under the same lock makes a concurrent Submit a no-op.
	gen := s.generation
	file := s.file
	s.prompt = prompt
	s.status = StatusConverting
	s.mu.Unlock()
	s.notify(StatusConverting)

	logger := zerolog.Ctx(ctx).With().Str("file", file).Logger()

	audio, err := s.conv.Convert(ctx, file, s.onProgress)
	if err != nil {
		logger.Error().Err(err).Msg("failed to convert video to audio")
		return s.fail(gen, fmt.Errorf("convert: %w", err))
	}
	if !s.keepAudio(gen, audio) {
		_ = audio.Cleanup()
		return nil
	}
	logger.Debug().Int64("size", audio.Size).Msg("audio converted")

	if err := s.transition(gen, StatusUploading); err != nil {
		return ignoreStale(err)
	}

	video, err := s.backend.UploadAudio(ctx, audio.AudioPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to upload audio")
		return s.fail(gen, fmt.Errorf("upload: %w", err))
	}
	videoId := video.ID.String()

	if err := s.transition(gen, StatusGenerating); err != nil {
		return ignoreStale(err)
	}

	if _, err := s.backend.CreateTranscription(ctx, videoId, prompt); err != nil {
		logger.Error().Err(err).Str("video_id", videoId).Msg("failed to generate transcription")
		return s.fail(gen, fmt.Errorf("transcription: %w", err))
	}

	s.mu.Lock()
	if gen == s.generation {
		s.videoId = videoId
	}
	s.mu.Unlock()

	if err := s.transition(gen, StatusSuccess); err != nil {
		return ignoreStale(err)
	}

	logger.Info().Str("video_id", videoId).Msg("video uploaded and transcribed")
	if s.onUploaded != nil {
		s.onUploaded(videoId)
	}
	return nil
}

// Close releases the derived audio file.
func (s *Session) Close() error {
	s.mu.Lock()
	audio := s.audio
	s.audio = nil
	s.mu.Unlock()
	return audio.Cleanup()
}

func (s *Session) keepAudio(gen uint64, audio *transcoder.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.audio = audio
	return true
}

func (s *Session) transition(gen uint64, to Status) error {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return ErrStaleSession
	}
	if !isValidTransition(s.status, to) {
		from := s.status
		s.mu.Unlock()
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	s.status = to
	s.mu.Unlock()

	s.notify(to)
	return nil
}

func (s *Session) fail(gen uint64, cause error) error {
	if err := s.transition(gen, StatusFailed); err != nil {
		if errors.Is(err, ErrStaleSession) {
			return nil
		}
		return errors.Join(cause, err)
	}
	return cause
}

func (s *Session) notify(status Status) {
	for _, fn := range s.observers {
		fn(status)
	}
}

func ignoreStale(err error) error {
	if errors.Is(err, ErrStaleSession) {
		return nil
	}
	return err
}
