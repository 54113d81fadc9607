package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client fetches report rows from a running server. It never retries; a
// failed fetch is returned so the caller can show it and let the user try
// again.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client whose requests are bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx answer from the report endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("report request failed (%d): %s", e.Status, e.Message)
}

// FetchMonthly calls GET /api/payments/monthly with f.
func (c *Client) FetchMonthly(ctx context.Context, f Filter) ([]RawRow, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	u := c.baseURL + "/api/payments/monthly?" + f.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch monthly income: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read report response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var rows []RawRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode report rows: %w", err)
	}
	return rows, nil
}
