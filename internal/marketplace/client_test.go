package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_GetCalendar(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/booking/calendar", r.URL.Path)
		assert.Equal(t, "venue", r.URL.Query().Get("type"))
		assert.Equal(t, "v-1", r.URL.Query().Get("id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{
			"operationDays": ["Monday", "Wednesday"],
			"operationHours": {"open": "09:00", "close": "17:00"},
			"events": [{"id": "b-1", "start": "2024-03-13T13:00:00Z", "end": "2024-03-13T14:00:00Z", "title": "Yoga"}]
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/api/", WithTokenSource(func(context.Context) (string, error) { return "tok", nil }))
	cal, err := client.GetCalendar(context.Background(), ListingVenue, "v-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Monday", "Wednesday"}, cal.OperationDays)
	assert.Equal(t, OperationHours{Open: "09:00", Close: "17:00"}, cal.OperationHours)
	require.Len(t, cal.Events, 1)
	assert.Equal(t, "b-1", cal.Events[0].ID)
	assert.True(t, cal.Events[0].Start.Equal(time.Date(2024, 3, 13, 13, 0, 0, 0, time.UTC)))
}

func TestHTTPClient_BookingsByDate(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"bare array":       `[{"id":"b-1","start":"2024-03-13T13:00:00Z","end":"2024-03-13T14:00:00Z"}]`,
		"bookings wrapper": `{"bookings":[{"id":"b-1","start":"2024-03-13T13:00:00Z","end":"2024-03-13T14:00:00Z"}]}`,
		"events wrapper":   `{"events":[{"id":"b-1","start":"2024-03-13T13:00:00Z","end":"2024-03-13T14:00:00Z"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/booking/by-date", r.URL.Path)
				assert.Equal(t, "2024-03-13", r.URL.Query().Get("date"))
				assert.Equal(t, "s-9", r.URL.Query().Get("postId"))
				assert.Equal(t, "service", r.URL.Query().Get("type"))
				_, _ = io.WriteString(w, body)
			}))
			defer server.Close()

			events, err := NewClient(server.URL).BookingsByDate(context.Background(), time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), "s-9", ListingService)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "b-1", events[0].ID)
		})
	}
}

func TestHTTPClient_CreateAndUpdate(t *testing.T) {
	t.Parallel()

	var (
		mu             sync.Mutex
		bodies         []map[string]any
		methods, paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = io.WriteString(w, `{"id":"b-7","start":"2024-03-13T10:00:00Z","end":"2024-03-13T11:00:00Z"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	start := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	payload := BookingPayload{
		UserID:    "u-1",
		Type:      ListingVenue,
		ListingID: "v-1",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Notes:     "birthday",
		Price:     42.5,
	}

	created, err := client.CreateBooking(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "b-7", created.ID)

	payload.Type = ListingService
	_, err = client.UpdateBooking(context.Background(), "b-7", payload)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{http.MethodPost, http.MethodPut}, methods)
	assert.Equal(t, []string{"/booking/create", "/booking/b-7"}, paths)

	assert.Equal(t, "v-1", bodies[0]["venueId"])
	assert.NotContains(t, bodies[0], "serviceId")
	assert.Equal(t, "u-1", bodies[0]["userId"])
	assert.Equal(t, "2024-03-13T10:00:00Z", bodies[0]["startTime"])
	assert.Equal(t, "2024-03-13T11:00:00Z", bodies[0]["endTime"])
	assert.Equal(t, 42.5, bodies[0]["price"])

	assert.Equal(t, "v-1", bodies[1]["serviceId"])
	assert.NotContains(t, bodies[1], "venueId")
}

func TestHTTPClient_DeleteBooking(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/booking/b-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL).DeleteBooking(context.Background(), "b-1"))
}

func TestHTTPClient_Errors(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx returns APIError with server message", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"message":"slot already taken"}`)
		}))
		defer server.Close()

		_, err := NewClient(server.URL).CreateBooking(context.Background(), BookingPayload{Type: ListingVenue, ListingID: "v-1"})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "slot already taken", apiErr.Message)
		assert.Equal(t, int32(1), calls.Load(), "requests must not be retried")
	})

	t.Run("plain text error body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		err := NewClient(server.URL).DeleteBooking(context.Background(), "b-1")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "boom", apiErr.Message)
	})

	t.Run("unknown listing type fails before the request", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("http://127.0.0.1:1").CreateBooking(context.Background(), BookingPayload{Type: "boat"})
		assert.Error(t, err)
	})

	t.Run("token source failure", func(t *testing.T) {
		t.Parallel()

		client := NewClient("http://127.0.0.1:1", WithTokenSource(func(context.Context) (string, error) {
			return "", errors.New("no session")
		}))
		err := client.DeleteBooking(context.Background(), "b-1")
		assert.ErrorContains(t, err, "no session")
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewClient(server.URL).GetCalendar(ctx, ListingVenue, "v-1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseListingType(t *testing.T) {
	t.Parallel()

	got, err := ParseListingType(" Venue ")
	require.NoError(t, err)
	assert.Equal(t, ListingVenue, got)

	got, err = ParseListingType("service")
	require.NoError(t, err)
	assert.Equal(t, ListingService, got)

	_, err = ParseListingType("boat")
	assert.Error(t, err)
}
