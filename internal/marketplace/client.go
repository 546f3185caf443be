// Package marketplace is a typed client for the marketplace booking REST API.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the bearer token for a request. An empty token sends
// the request unauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// HTTPClient talks to the marketplace REST API. Requests are never retried.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

// Option customises an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithTokenSource attaches bearer tokens to every request.
func WithTokenSource(source TokenSource) Option {
	return func(c *HTTPClient) {
		c.token = source
	}
}

// NewClient returns a client for baseURL.
func NewClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCalendar fetches the schedule and events of a listing.
func (c *HTTPClient) GetCalendar(ctx context.Context, listingType ListingType, id string) (*Calendar, error) {
	query := url.Values{}
	query.Set("type", string(listingType))
	query.Set("id", id)

	out := &Calendar{}
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/booking/calendar", query), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// BookingsByDate lists the bookings of a listing on date.
func (c *HTTPClient) BookingsByDate(ctx context.Context, date time.Time, postID string, listingType ListingType) ([]Event, error) {
	query := url.Values{}
	query.Set("date", date.Format(time.DateOnly))
	query.Set("postId", postID)
	query.Set("type", string(listingType))

	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/booking/by-date", query), nil, &raw); err != nil {
		return nil, err
	}
	return decodeEvents(raw)
}

// CreateBooking submits a new booking.
func (c *HTTPClient) CreateBooking(ctx context.Context, payload BookingPayload) (Event, error) {
	var out Event
	if err := c.sendJSON(ctx, http.MethodPost, c.endpoint("/booking/create", nil), payload, &out); err != nil {
		return Event{}, err
	}
	return out, nil
}

// UpdateBooking replaces an existing booking.
func (c *HTTPClient) UpdateBooking(ctx context.Context, id string, payload BookingPayload) (Event, error) {
	var out Event
	if err := c.sendJSON(ctx, http.MethodPut, c.endpoint("/booking/"+url.PathEscape(id), nil), payload, &out); err != nil {
		return Event{}, err
	}
	return out, nil
}

// DeleteBooking removes a booking.
func (c *HTTPClient) DeleteBooking(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("/booking/"+url.PathEscape(id), nil), nil, nil)
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

func (c *HTTPClient) sendJSON(ctx context.Context, method, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, method, endpoint, bytes.NewReader(body), out)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("marketplace: resolve token: %w", err)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("marketplace: decode response: %w", err)
	}
	return nil
}

func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// decodeEvents accepts either a bare array or an object wrapping the array
// under "bookings" or "events".
func decodeEvents(raw json.RawMessage) ([]Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var events []Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("marketplace: decode bookings: %w", err)
		}
		return events, nil
	}
	var wrapped struct {
		Bookings []Event `json:"bookings"`
		Events   []Event `json:"events"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("marketplace: decode bookings: %w", err)
	}
	if wrapped.Bookings != nil {
		return wrapped.Bookings, nil
	}
	return wrapped.Events, nil
}
