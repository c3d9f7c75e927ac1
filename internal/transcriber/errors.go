package transcriber

import (
	"fmt"
	"strings"
)

// Messages used for the well-known failure modes.
const (
	MsgNoOutput     = "no output received"
	MsgMissingInput = "input file does not exist"
)

// ExternalToolError is returned for every failure of the external transcription
// tool: missing input, non-zero exit, empty or malformed output, an error
// reported by the tool itself, or a timeout.
type ExternalToolError struct {
	Message  string
	ExitCode int    // zero unless the process exited with a failure status
	Stderr   string // captured diagnostic text, trimmed
	Err      error
}

func (e *ExternalToolError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("external tool: ")
	b.WriteString(e.Message)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit=%d)", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		b.WriteString("\nstderr: ")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ExternalToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
