// Package httputil wraps the few HTTP verbs the wallet adapters need.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is used by NewClient when no timeout is given.
const DefaultTimeout = 30 * time.Second

// Client sends requests and returns status code and body of the response.
type Client struct {
	http *http.Client
}

// NewClient returns a Client whose requests time out after the given
// duration.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{&http.Client{Timeout: timeout}}
}

// Get sends a GET request to the given url with the given query.
func (c *Client) Get(
	ctx context.Context, endpoint string, query url.Values, header map[string]string,
) (int, string, error) {
	if len(query) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, "", err
	}
	return c.do(req, header)
}

// PostForm sends a url-encoded form to the given url.
func (c *Client) PostForm(
	ctx context.Context, endpoint string, form url.Values, header map[string]string,
) (int, string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, header)
}

func (c *Client) do(req *http.Request, header map[string]string) (int, string, error) {
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return rs.StatusCode, string(bodyBytes), nil
}
