package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookChannelPostsPayload(t *testing.T) {
	t.Parallel()

	var got webhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := NewWebhookChannel(server.URL)

	err := channel.Send(context.Background(), "dev@example.com", "Subject", "Body")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if got.Recipient != "dev@example.com" || got.Subject != "Subject" || got.Body != "Body" {
		t.Errorf("payload = %+v", got)
	}
	if got.SentAt == "" {
		t.Error("payload missing sent_at")
	}
}

func TestWebhookChannelTreatsHTTPErrorsAsFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel := NewWebhookChannel(server.URL)

	if err := channel.Send(context.Background(), "dev@example.com", "s", "b"); err == nil {
		t.Error("expected error for 502 response")
	}
}

func TestWebhookChannelHonoursContextCancellation(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	channel := NewWebhookChannel(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := channel.Send(ctx, "dev@example.com", "s", "b"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
