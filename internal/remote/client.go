package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client issues generic {method, url, body, headers} requests against the
// remote API. It does not interpret verbs or payloads; the only distinction
// it draws is whether a response was received at all.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Do executes one request and returns the raw response body.
//
// Failure classes:
//   - no response received (timeout, refused connection, DNS): the transport
//     error is returned as-is and satisfies IsNetworkError;
//   - response received with a non-2xx status: a *RejectionError carrying the
//     status and body is returned.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		// The peer responded but the body was cut off mid-read. Treat as
		// network-class: nothing usable was received.
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("Remote rejected request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return nil, &RejectionError{Status: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// AuthHeaders builds the bearer headers captured on a request. The token is
// opaque to this core; an empty token produces no Authorization header.
func AuthHeaders(token string) map[string]string {
	if token == "" {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// ExtractServerID pulls the server-assigned identifier out of a create
// response, accepting both {"_id": ...} and {"data": {"_id": ...}}. Returns
// "" when the response carries no id.
func ExtractServerID(body []byte) string {
	var direct struct {
		ID   string `json:"_id"`
		Data struct {
			ID string `json:"_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &direct); err != nil {
		return ""
	}
	if direct.ID != "" {
		return direct.ID
	}
	return direct.Data.ID
}
