package transcoder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution so tests can script ffmpeg.
type commandRunner interface {
	// Run executes name with args. When stdout is non-nil the process output
	// is streamed to it instead of being captured in the result.
	Run(ctx context.Context, stdout io.Writer, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (r execRunner) Run(ctx context.Context, stdout io.Writer, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	if stdout != nil {
		cmd.Stdout = stdout
	}
	cmd.Stderr = &errOut

	err := cmd.Run()
	result := commandResult{
		Stdout: out.String(),
		Stderr: errOut.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}
