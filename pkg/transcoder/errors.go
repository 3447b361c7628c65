package transcoder

import (
	"errors"
	"fmt"
)

var (
	ErrNoAudioStream = errors.New("input has no audio stream")
	ErrEngineClosed  = errors.New("transcoder job already released")
)

const (
	StageInput   = "input"
	StageInit    = "init"
	StageProbe   = "probe"
	StageConvert = "convert"
)

// CommandLog captures one external command invocation.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stderr   string   `json:"stderr"`
}

// TranscodeError is a stage-aware conversion failure.
type TranscodeError struct {
	Stage      string     `json:"stage"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

func (e *TranscodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("transcode %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("transcode %s: %s (cmd=%s exit=%d)", e.Stage, e.Message, e.CommandLog.Command, e.CommandLog.ExitCode)
}

func (e *TranscodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
