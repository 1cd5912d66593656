package server

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mstreet3/script-relayer/domain"
)

// decodeSubmit pulls the "script" member out of a submit body. The body
// must be a single JSON object and the key is matched exactly, unlike
// struct decoding which folds case.
func decodeSubmit(body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}

	raw, ok := fields["script"]
	if !ok {
		return "", domain.ErrInvalidScript
	}

	var script string
	if err := json.Unmarshal(raw, &script); err != nil {
		return "", fmt.Errorf("decode script: %w", err)
	}
	if script == "" {
		return "", domain.ErrInvalidScript
	}
	return script, nil
}

type SubmitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DrainResponse struct {
	Scripts        []string `json:"scripts"`
	LastBufferRead *string  `json:"lastBufferRead"`
}

// LastDrainResponse carries either a timestamp and epochMs, or a null
// timestamp and a message when the buffer has never been drained.
type LastDrainResponse struct {
	LastDrainedAt *string `json:"lastDrainedAt"`
	EpochMs       *int64  `json:"epochMs,omitempty"`
	Message       string  `json:"message,omitempty"`
}
