// Package webhook provides an HTTP implementation of
// stores.NotificationSink for consolidation job notifications.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Sink posts JSON notifications to a configured URL. Delivery is best-effort:
// callers log failures and never retry.
type Sink struct {
	client *http.Client
	url    string
}

// New creates a webhook sink. An empty URL yields a disabled sink that warns
// once and drops messages; absence of notification config is not an error.
func New(url string) *Sink {
	if url == "" {
		log.Printf("[NOTIFY] no webhook URL configured, notifications disabled")
	}
	return &Sink{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
}

// Notify sends one message.
func (s *Sink) Notify(ctx context.Context, subject, body string) error {
	if s.url == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: status %d", resp.StatusCode)
	}
	return nil
}
