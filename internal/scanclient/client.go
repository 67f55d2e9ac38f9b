package scanclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"foodscan/internal/domain"
)

var (
	// ErrSubmitInProgress is returned while another Submit on the same client
	// has not finished.
	ErrSubmitInProgress = errors.New("an analysis is already in progress")
	// ErrTransport wraps failures that never produced an HTTP response.
	ErrTransport = errors.New("transport failure")
	// ErrNoPhoto is returned when Submit is called without a photo.
	ErrNoPhoto = errors.New("no photo selected")
)

// ResponseError is a failure reported by the endpoint in an {"error": ...} body.
// RetryAfter is set from the Retry-After header when the server sent one.
type ResponseError struct {
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *ResponseError) Error() string {
	return e.Message
}

// RateLimited reports any 429, either the daily quota or the per-IP throttle.
func (e *ResponseError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// QuotaExhausted reports the daily per-user quota. The per-IP throttle
// always sends Retry-After and the quota never does.
func (e *ResponseError) QuotaExhausted() bool {
	return e.RateLimited() && e.RetryAfter == 0
}

// Throttled reports the short-lived per-IP limiter.
func (e *ResponseError) Throttled() bool {
	return e.RateLimited() && e.RetryAfter > 0
}

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Session carries the signed-in user's credentials for one client.
type Session struct {
	Token  string
	APIKey string
}

type Client struct {
	endpoint   string
	session    Session
	httpClient *http.Client
	busy       atomic.Bool
}

func New(endpoint string, session Session, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{endpoint: strings.TrimSpace(endpoint), session: session, httpClient: httpClient}
}

// Busy reports whether a submission is in flight, i.e. whether the submit
// control should be disabled.
func (c *Client) Busy() bool {
	return c.busy.Load()
}

// Submit sends the photo for analysis exactly once. It never retries.
func (c *Client) Submit(ctx context.Context, photo *Photo) (*domain.NutritionEstimate, error) {
	if photo == nil || len(photo.Data) == 0 {
		return nil, ErrNoPhoto
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer c.busy.Store(false)

	payload, err := json.Marshal(map[string]string{"imageBase64": photo.Base64()})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Info", "foodscan-cli")
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	if c.session.APIKey != "" {
		req.Header.Set("apikey", c.session.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	var envelope struct {
		Error *string `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)
	if envelope.Error != nil {
		return nil, &ResponseError{Status: resp.StatusCode, Message: *envelope.Error, RetryAfter: retryAfter(resp.Header)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &ResponseError{Status: resp.StatusCode, Message: msg, RetryAfter: retryAfter(resp.Header)}
	}

	var estimate *domain.NutritionEstimate
	if err := json.Unmarshal(body, &estimate); err != nil {
		return nil, &ResponseError{Status: resp.StatusCode, Message: fmt.Sprintf("invalid response: %v", err)}
	}
	return estimate, nil
}
