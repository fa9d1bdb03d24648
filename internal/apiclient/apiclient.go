// Package apiclient is the shared plumbing for talking to the
// data-access services. Both stores speak the same JSON envelope.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/opencircle/auth-server/internal/errors"
)

const requestTimeout = 10 * time.Second

// Envelope is the response wrapper every data-access endpoint emits.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// DoJSON performs a request against a data-access endpoint and decodes
// the envelope. Transport failures (unreachable host, timeout) come
// back as ErrUnavailable so the caller never hangs or guesses.
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, body any) (int, *Envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, apperrors.Wrapf(err, "encode request")
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, apperrors.Wrapf(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, apperrors.Wrapf(apperrors.ErrUnavailable, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var envelope Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return resp.StatusCode, nil, apperrors.Wrapf(apperrors.ErrInternal, "%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, &envelope, nil
}

// ErrorFromStatus maps a non-2xx data-access status to the shared
// taxonomy.
func ErrorFromStatus(status int, message string) error {
	switch {
	case status == http.StatusNotFound:
		return apperrors.ErrNotFound
	case status == http.StatusConflict:
		return apperrors.ErrConflict
	case status == http.StatusServiceUnavailable:
		return apperrors.ErrUnavailable
	default:
		return apperrors.Wrapf(apperrors.ErrInternal, "status %d: %s", status, message)
	}
}

// IsSuccess reports whether a status is in the 2xx range.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
