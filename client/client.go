package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mstreet3/script-relayer/domain"
	"github.com/mstreet3/script-relayer/server"
)

const DefaultEndpoint = "http://127.0.0.1:3000"

// Client talks to a running relay on behalf of submitters and consumers.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func New(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: httpClient,
	}
}

// Submit queues one already-encoded script.
func (c *Client) Submit(ctx context.Context, script string) error {
	body, err := json.Marshal(map[string]string{"script": script})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var resp server.SubmitResponse
	return c.do(ctx, http.MethodPost, "/scriptRequest", body, &resp)
}

// Drain empties the relay's buffer.
func (c *Client) Drain(ctx context.Context) (domain.DrainResult, error) {
	var resp server.DrainResponse
	if err := c.do(ctx, http.MethodGet, "/scriptBuffer", nil, &resp); err != nil {
		return domain.DrainResult{}, err
	}

	result := domain.DrainResult{Scripts: resp.Scripts}
	if result.Scripts == nil {
		result.Scripts = []string{}
	}
	if resp.LastBufferRead != nil {
		t, err := time.Parse(domain.TimestampLayout, *resp.LastBufferRead)
		if err != nil {
			return domain.DrainResult{}, fmt.Errorf("parse lastBufferRead: %w", err)
		}
		result.DrainedAt = t
	}
	return result, nil
}

// LastDrain reports when the buffer was last drained, if ever.
func (c *Client) LastDrain(ctx context.Context) (domain.LastDrain, error) {
	var resp server.LastDrainResponse
	if err := c.do(ctx, http.MethodGet, "/bufferCalled", nil, &resp); err != nil {
		return domain.LastDrain{}, err
	}
	if resp.LastDrainedAt == nil {
		return domain.LastDrain{}, nil
	}
	if resp.EpochMs != nil {
		return domain.LastDrain{DrainedAt: time.UnixMilli(*resp.EpochMs).UTC(), Drained: true}, nil
	}

	t, err := time.Parse(domain.TimestampLayout, *resp.LastDrainedAt)
	if err != nil {
		return domain.LastDrain{}, fmt.Errorf("parse lastDrainedAt: %w", err)
	}
	return domain.LastDrain{DrainedAt: t, Drained: true}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr server.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
		}
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.Code, e.Message)
}
