package preference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Method selects how a session's uploads are summarized.
type Method string

const (
	// MethodLocal uses the external transcriber's own summary.
	MethodLocal Method = "local"
	// MethodRemote re-summarizes the transcription with a hosted model.
	MethodRemote Method = "remote"
)

// ParseMethod accepts the canonical names and the legacy "python"/"gemini" aliases.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "python":
		return MethodLocal, nil
	case "remote", "gemini":
		return MethodRemote, nil
	default:
		return "", fmt.Errorf("unknown processing method %q", s)
	}
}

// UnmarshalText lets Method be decoded from JSON strings, including the aliases.
func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Preference is the per-session processing choice. Saving replaces it whole.
type Preference struct {
	Method  Method `json:"method"`
	ModelID string `json:"modelId,omitempty"`
}

// IsRemote reports whether p asks for remote summarization. A nil preference means local.
func (p *Preference) IsRemote() bool {
	return p != nil && p.Method == MethodRemote
}

// Store keeps preferences by session id. Implementations are safe for concurrent
// use; the last Put for a key wins.
type Store interface {
	// Get returns nil without error when nothing is stored or the entry expired.
	Get(ctx context.Context, sessionID string) (*Preference, error)

	// Put overwrites the stored preference and restarts its lifetime.
	Put(ctx context.Context, sessionID string, pref Preference) error

	// Close releases the backing connection.
	Close() error
}

func encode(p Preference) ([]byte, error) {
	return json.Marshal(p)
}

func decode(data []byte) (*Preference, error) {
	var p Preference
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
