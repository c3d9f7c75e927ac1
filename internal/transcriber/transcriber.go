package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config locates the external tool. Nothing here is hardcoded by the package.
type Config struct {
	// Interpreter runs Script, e.g. "python3". When empty Script is executed directly.
	Interpreter string
	Script      string
	WorkDir     string
	Timeout     time.Duration
}

// Result is the document printed by the tool on stdout.
// When Error is set the other fields must not be used.
type Result struct {
	Transcription string `json:"transcription"`
	Summary       string `json:"summary"`
	Error         string `json:"error,omitempty"`
}

// Transcriber drives the external transcription tool as a request/response call
// over process stdio: one input path in, one JSON document out.
type Transcriber struct {
	cfg    Config
	runner Runner
	log    *slog.Logger
}

// New builds a Transcriber that executes real processes.
func New(cfg Config, log *slog.Logger) *Transcriber {
	return NewWithRunner(cfg, NewExecRunner(), log)
}

// NewWithRunner builds a Transcriber on top of a custom Runner.
func NewWithRunner(cfg Config, runner Runner, log *slog.Logger) *Transcriber {
	return &Transcriber{cfg: cfg, runner: runner, log: log}
}

// Transcribe runs the tool for filePath and returns its parsed document.
// A document carrying an "error" field is returned as-is with a nil error;
// every other failure is an *ExternalToolError.
func (t *Transcriber) Transcribe(ctx context.Context, filePath string) (Result, error) {
	if err := checkReadable(filePath); err != nil {
		return Result{}, &ExternalToolError{Message: MsgMissingInput + ": " + filePath, Err: err}
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	cmd := t.command(filePath)
	log := t.log.With("binary", cmd.Binary, "input", filePath)
	log.Info("starting transcriber")

	res, err := t.runner.Run(ctx, cmd)
	t.logStderr(log, res.Stderr)
	stderr := strings.TrimSpace(res.Stderr)

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return Result{}, &ExternalToolError{Message: "transcriber did not finish", Stderr: stderr, Err: err}
		case res.ExitCode > 0:
			return Result{}, &ExternalToolError{Message: "transcriber exited with failure status", ExitCode: res.ExitCode, Stderr: stderr, Err: err}
		default:
			return Result{}, &ExternalToolError{Message: "failed to run transcriber", Stderr: stderr, Err: err}
		}
	}
	if res.ExitCode != 0 {
		return Result{}, &ExternalToolError{Message: "transcriber exited with failure status", ExitCode: res.ExitCode, Stderr: stderr}
	}

	log.Info("transcriber finished", "duration_ms", res.Duration.Milliseconds(), "stdout_bytes", len(res.Stdout))
	return Parse(res.Stdout)
}

// Parse decodes the tool's stdout. Empty output and anything that is not a JSON
// object with "transcription" and "summary" (or "error") is an *ExternalToolError.
func Parse(stdout string) (Result, error) {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return Result{}, &ExternalToolError{Message: MsgNoOutput}
	}

	var raw struct {
		Transcription *string `json:"transcription"`
		Summary       *string `json:"summary"`
		Error         *string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Result{}, &ExternalToolError{Message: "malformed output", Err: err}
	}

	if raw.Error != nil {
		msg := *raw.Error
		if msg == "" {
			msg = "unspecified error"
		}
		return Result{Error: msg}, nil
	}
	if raw.Transcription == nil {
		return Result{}, &ExternalToolError{Message: `malformed output: missing "transcription"`}
	}
	if raw.Summary == nil {
		return Result{}, &ExternalToolError{Message: `malformed output: missing "summary"`}
	}
	return Result{Transcription: *raw.Transcription, Summary: *raw.Summary}, nil
}

func (t *Transcriber) command(filePath string) Command {
	if t.cfg.Interpreter == "" {
		return Command{Binary: t.cfg.Script, Args: []string{filePath}, Dir: t.cfg.WorkDir}
	}
	return Command{Binary: t.cfg.Interpreter, Args: []string{t.cfg.Script, filePath}, Dir: t.cfg.WorkDir}
}

func (t *Transcriber) logStderr(log *slog.Logger, stderr string) {
	for _, line := range strings.Split(stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			log.Debug("transcriber stderr", "line", line)
		}
	}
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
