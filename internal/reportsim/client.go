package reportsim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnexpectedStatus is returned when the API answers with a status the
// simulation did not expect.
var ErrUnexpectedStatus = errors.New("unexpected status")

// client calls the API with optional bearer tokens.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends body as JSON and decodes the {"data": ...} envelope into out on
// success. It returns the response status; non-2xx statuses are not errors.
func (c *client) do(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		envelope := struct {
			Data any `json:"data"`
		}{Data: out}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// expect calls do and fails unless the status is one of want.
func (c *client) expect(ctx context.Context, method, path, token string, body, out any, want ...int) (int, error) {
	status, err := c.do(ctx, method, path, token, body, out)
	if err != nil {
		return status, err
	}
	for _, w := range want {
		if status == w {
			return status, nil
		}
	}
	return status, fmt.Errorf("%s %s: %w %d", method, path, ErrUnexpectedStatus, status)
}

func (c *client) login(ctx context.Context, username, password string) (string, error) {
	var tok struct {
		JWT string `json:"jwt"`
	}
	creds := map[string]string{"username": username, "password": password}
	if _, err := c.expect(ctx, http.MethodPost, "/authenticate", "", creds, &tok, http.StatusOK); err != nil {
		return "", err
	}
	return tok.JWT, nil
}
