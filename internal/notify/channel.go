package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Channel delivers a single composed notification. Implementations must be
// safe for concurrent use; each call corresponds to one delivery attempt.
type Channel interface {
	Send(ctx context.Context, recipientEmail, subject, body string) error
}

type webhookMessage struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	SentAt    string `json:"sent_at"`
}

// WebhookChannel posts each notification as JSON to a mail-gateway webhook.
type WebhookChannel struct {
	URL    string
	Client *http.Client
}

func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		URL:    url,
		Client: &http.Client{},
	}
}

func (c *WebhookChannel) Send(ctx context.Context, recipientEmail, subject, body string) error {
	payload, err := json.Marshal(webhookMessage{
		Recipient: recipientEmail,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// LogChannel writes notifications to the process log. Used when no webhook
// URL is configured, so development setups still surface deliveries.
type LogChannel struct{}

func (LogChannel) Send(_ context.Context, recipientEmail, subject, body string) error {
	log.Printf("notification to %s: %s - %s", recipientEmail, subject, body)
	return nil
}
