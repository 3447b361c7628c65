package transcoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultAudioBitrate = "20k"
	outputFileName      = "output.mp3"
)

type Options struct {
	FFmpegPath     string
	FFprobePath    string
	AudioBitrate   string
	MaxConcurrency int64
	// TempDir is the parent directory for job workspaces. Empty means os.TempDir.
	TempDir string
}

// Result is the derived audio file. It owns its workspace until Cleanup.
type Result struct {
	AudioPath string
	Size      int64
	Duration  time.Duration

	workDir string
	once    sync.Once
}

// Cleanup removes the audio file and its workspace. Safe to call more than once.
func (r *Result) Cleanup() error {
	if r == nil {
		return nil
	}
	var err error
	r.once.Do(func() {
		if r.AudioPath != "" {
			if rmErr := os.Remove(r.AudioPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = rmErr
			}
		}
		if r.workDir != "" {
			err = errors.Join(err, os.RemoveAll(r.workDir))
		}
	})
	return err
}

// Engine runs ffmpeg conversions with bounded concurrency.
type Engine struct {
	ffmpegPath  string
	ffprobePath string
	bitrate     string
	tempDir     string

	sem      *semaphore.Weighted
	runner   commandRunner
	lookPath func(string) (string, error)
}

func NewEngine(opts Options) *Engine {
	return newEngine(opts, execRunner{}, exec.LookPath)
}

func newEngine(opts Options, runner commandRunner, lookPath func(string) (string, error)) *Engine {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	if opts.AudioBitrate == "" {
		opts.AudioBitrate = defaultAudioBitrate
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	return &Engine{
		ffmpegPath:  opts.FFmpegPath,
		ffprobePath: opts.FFprobePath,
		bitrate:     opts.AudioBitrate,
		tempDir:     opts.TempDir,
		sem:         semaphore.NewWeighted(opts.MaxConcurrency),
		runner:      runner,
		lookPath:    lookPath,
	}
}

// Job is a conversion slot held on the engine. Release must be called once
// the caller is done with it.
type Job struct {
	engine   *Engine
	mu       sync.Mutex
	released bool
}

// Acquire blocks until a conversion slot is free or ctx is done.
func (e *Engine) Acquire(ctx context.Context) (*Job, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &Job{engine: e}, nil
}

func (j *Job) Release() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.released {
		return
	}
	j.released = true
	j.engine.sem.Release(1)
}

// Convert acquires a slot, converts inputPath and releases the slot.
func (e *Engine) Convert(ctx context.Context, inputPath string, onProgress func(float64)) (*Result, error) {
	job, err := e.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer job.Release()
	return job.Convert(ctx, inputPath, onProgress)
}

// Convert extracts the audio track of inputPath into a compact mp3.
// onProgress receives fractions in [0,1]; events are dropped while the
// callback is busy.
func (j *Job) Convert(ctx context.Context, inputPath string, onProgress func(float64)) (*Result, error) {
	j.mu.Lock()
	released := j.released
	j.mu.Unlock()
	if released {
		return nil, ErrEngineClosed
	}

	e := j.engine
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(inputPath); err != nil {
		return nil, &TranscodeError{Stage: StageInput, Message: "input file is not readable", Err: err}
	}

	ffmpegBin, err := e.lookPath(e.ffmpegPath)
	if err != nil {
		return nil, &TranscodeError{Stage: StageInit, Message: "ffmpeg binary not found", Err: err}
	}
	ffprobeBin, err := e.lookPath(e.ffprobePath)
	if err != nil {
		return nil, &TranscodeError{Stage: StageInit, Message: "ffprobe binary not found", Err: err}
	}

	duration, err := e.probe(ctx, ffprobeBin, inputPath)
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(e.tempDir, "upload-ai-*")
	if err != nil {
		return nil, &TranscodeError{Stage: StageInit, Message: "cannot create workspace", Err: err}
	}
	outputPath := filepath.Join(workDir, outputFileName)

	ffmpegArgs := []string{
		"-y", "-hide_banner", "-nostdin",
		"-i", inputPath,
		"-map", "0:a",
		"-b:a", e.bitrate,
		"-acodec", "libmp3lame",
		"-progress", "pipe:1",
		"-nostats",
		outputPath,
	}

	logger.Debug().Str("input", inputPath).Msgf("Executing FFmpeg command: %s %s", ffmpegBin, strings.Join(ffmpegArgs, " "))

	reporter := newProgressReporter(onProgress)
	progress := &progressWriter{durationUs: duration.Seconds() * 1e6, reporter: reporter}
	res, runErr := e.runner.Run(ctx, progress, ffmpegBin, ffmpegArgs...)
	if runErr == nil {
		reporter.report(1)
	}
	reporter.close()

	if runErr != nil {
		_ = os.RemoveAll(workDir)
		logger.Error().Err(runErr).Str("stderr", res.Stderr).Msg("ffmpeg conversion failed")
		return nil, &TranscodeError{
			Stage:   StageConvert,
			Message: "ffmpeg conversion failed",
			CommandLog: CommandLog{
				Command:  ffmpegBin,
				Args:     ffmpegArgs,
				ExitCode: res.ExitCode,
				Stderr:   res.Stderr,
			},
			Err: runErr,
		}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, &TranscodeError{Stage: StageConvert, Message: "ffmpeg produced no output", Err: err}
	}

	return &Result{
		AudioPath: outputPath,
		Size:      info.Size(),
		Duration:  duration,
		workDir:   workDir,
	}, nil
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (e *Engine) probe(ctx context.Context, bin, inputPath string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "stream=codec_type:format=duration",
		"-of", "json",
		inputPath,
	}
	res, err := e.runner.Run(ctx, nil, bin, args...)
	if err != nil {
		return 0, &TranscodeError{
			Stage:      StageProbe,
			Message:    "ffprobe failed",
			CommandLog: CommandLog{Command: bin, Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr},
			Err:        err,
		}
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return 0, &TranscodeError{Stage: StageProbe, Message: "unreadable ffprobe output", Err: err}
	}

	hasAudio := false
	for _, s := range out.Streams {
		if s.CodecType == "audio" {
			hasAudio = true
			break
		}
	}
	if !hasAudio {
		return 0, &TranscodeError{Stage: StageProbe, Message: ErrNoAudioStream.Error(), Err: ErrNoAudioStream}
	}

	seconds, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || seconds < 0 {
		// Unknown duration only disables intermediate progress.
		return 0, nil
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// IsTranscodeError reports whether err carries a TranscodeError at the given stage.
func IsTranscodeError(err error, stage string) bool {
	var te *TranscodeError
	if !errors.As(err, &te) {
		return false
	}
	return stage == "" || te.Stage == stage
}

func (r *Result) String() string {
	return fmt.Sprintf("%s (%d bytes, %s)", r.AudioPath, r.Size, r.Duration)
}
