package upstream

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/atom-feed-server/internal/testutil"
)

var base = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func fastRetry() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig("atom-feed-server-test/1.0")
	cfg.Retry = fastRetry()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without user agent: error = nil, want error")
	}
	if _, err := New(Config{UserAgent: "x", Retry: &RetryConfig{}}); err == nil {
		t.Error("New() with zero attempts: error = nil, want error")
	}
}

func TestClient_Fetch(t *testing.T) {
	mock := testutil.NewMockUpstream(testutil.Items(3, base)...)
	defer mock.Close()
	c := newTestClient(t)

	f, err := c.Fetch(context.Background(), mock.URL())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(f.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(f.Items))
	}
	if f.Items[0].GUID != "item-3" {
		t.Errorf("Items[0].GUID = %q, want item-3", f.Items[0].GUID)
	}
	if got := mock.LastRequestHeader.Get("User-Agent"); got != "atom-feed-server-test/1.0" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := c.Validators(mock.URL()).ETag; got != mock.ETag() {
		t.Errorf("remembered ETag = %q, want %q", got, mock.ETag())
	}
}

func TestClient_Fetch_Conditional(t *testing.T) {
	mock := testutil.NewMockUpstream(testutil.Items(2, base)...)
	defer mock.Close()
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Fetch(ctx, mock.URL()); err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}

	_, err := c.Fetch(ctx, mock.URL())
	if !errors.Is(err, ErrNotModified) {
		t.Fatalf("second Fetch() error = %v, want ErrNotModified", err)
	}
	if mock.GetConditionalCount() != 1 {
		t.Errorf("conditional requests = %d, want 1", mock.GetConditionalCount())
	}

	mock.Publish(testutil.MockItem{ID: "item-3", Updated: base.Add(time.Hour)})
	f, err := c.Fetch(ctx, mock.URL())
	if err != nil {
		t.Fatalf("Fetch() after publish error = %v", err)
	}
	if len(f.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3", len(f.Items))
	}

	c.Forget(mock.URL())
	if !c.Validators(mock.URL()).Empty() {
		t.Error("Validators() after Forget not empty")
	}
}

func TestClient_Fetch_Retry(t *testing.T) {
	tests := []struct {
		name         string
		failures     []int
		wantErr      error
		wantClass    ErrorClass
		wantRequests int
	}{
		{
			name:         "server error then success",
			failures:     []int{http.StatusInternalServerError},
			wantRequests: 2,
		},
		{
			name:         "rate limited then success",
			failures:     []int{http.StatusTooManyRequests, http.StatusBadGateway},
			wantRequests: 3,
		},
		{
			name:         "server errors exhaust retries",
			failures:     []int{500, 502, 503},
			wantErr:      ErrRetryExhausted,
			wantClass:    ErrorClassServer,
			wantRequests: 3,
		},
		{
			name:         "client error is not retried",
			failures:     []int{http.StatusNotFound},
			wantClass:    ErrorClassClient,
			wantRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockUpstream(testutil.Items(1, base)...)
			defer mock.Close()
			mock.FailNext(tt.failures...)
			c := newTestClient(t)

			_, err := c.Fetch(context.Background(), mock.URL())

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantClass == "" && err != nil {
				t.Errorf("Fetch() error = %v, want nil", err)
			}
			if tt.wantClass != "" {
				var ue *Error
				if !errors.As(err, &ue) {
					t.Fatalf("Fetch() error = %v, want *Error", err)
				}
				if ue.Class != tt.wantClass {
					t.Errorf("Class = %q, want %q", ue.Class, tt.wantClass)
				}
			}
			if got := mock.GetRequestCount(); got != tt.wantRequests {
				t.Errorf("requests = %d, want %d", got, tt.wantRequests)
			}
		})
	}
}

func TestClient_Fetch_NotAFeed(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	c := newTestClient(t)

	_, err := c.Fetch(context.Background(), mock.URL()+"/missing")
	var ue *Error
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusNotFound {
		t.Fatalf("Fetch() error = %v, want 404 *Error", err)
	}
}

func TestValidators_Apply(t *testing.T) {
	lastMod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name      string
		v         Validators
		wantINM   string
		wantSince string
	}{
		{"empty", Validators{}, "", ""},
		{"etag preferred", Validators{ETag: `"a"`, LastModified: lastMod}, `"a"`, ""},
		{"last modified only", Validators{LastModified: lastMod}, "", "Tue, 02 Jan 2024 03:04:05 GMT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
			tt.v.Apply(req)
			if got := req.Header.Get("If-None-Match"); got != tt.wantINM {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantINM)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantSince {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantSince)
			}
		})
	}
}
