// Package client calls the attribution API's remote overlap validator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/channel-attribution/internal/domain"
	"github.com/ignite/channel-attribution/internal/pkg/httpretry"
)

const validatePath = "/api/validate-subchannel-overlap"

// ErrBadRequest is returned when the server rejects the request parameters.
var ErrBadRequest = errors.New("validation request rejected")

// APIError is a non-2xx answer other than 400.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("attribution api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to one attribution API base URL.
type Client struct {
	baseURL string
	http    httpretry.HTTPDoer
}

// New creates a client. doer may be nil to use a default http.Client; it is
// wrapped with retries for gateway errors.
func New(baseURL string, doer httpretry.HTTPDoer, opts httpretry.Options) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpretry.NewRetryClient(doer, opts),
	}
}

// ValidateOverlap runs the authoritative overlap check on the server.
func (c *Client) ValidateOverlap(ctx context.Context, req domain.OverlapRequest) (domain.ValidationVerdict, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.ValidationVerdict{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+validatePath, bytes.NewReader(body))
	if err != nil {
		return domain.ValidationVerdict{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.ValidationVerdict{}, fmt.Errorf("validate overlap: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.ValidationVerdict{}, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var out domain.OverlapResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return domain.ValidationVerdict{}, fmt.Errorf("decode response: %w", err)
		}
		return out.Verdict(), nil
	case resp.StatusCode == http.StatusBadRequest:
		return domain.ValidationVerdict{}, fmt.Errorf("%w: %s", ErrBadRequest, errorMessage(raw))
	default:
		return domain.ValidationVerdict{}, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
}

func errorMessage(raw []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(raw))
}
