package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	fylogger "github.com/FyersDev/trading-logger-go"

	"docgen-api/internal/models"
)

// Notifier delivers completion webhooks. Delivery is fire-and-forget:
// a failed callback is logged and dropped, it never changes the
// document's outcome.
type Notifier struct {
	client *http.Client
}

func NewNotifier() *Notifier {
	return &Notifier{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	DocumentID string    `json:"document_id"`
	Status     string    `json:"status"`
	URL        string    `json:"url,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notify posts the terminal status to the callback URL in a goroutine.
func (n *Notifier) Notify(callbackURL string, rec *models.DocumentResponse) {
	if callbackURL == "" {
		return
	}

	payload := webhookPayload{
		DocumentID: rec.ID.String(),
		Status:     string(rec.Status),
		Timestamp:  time.Now().UTC(),
	}
	if rec.URL != nil {
		payload.URL = *rec.URL
	}
	if rec.Error != nil {
		payload.Error = *rec.Error
	}

	go n.deliver(callbackURL, payload)
}

func (n *Notifier) deliver(url string, payload webhookPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		fylogger.ErrorLog(ctx, "Failed to serialize webhook payload", err, nil)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Failed to build webhook request for %s", payload.DocumentID), err, nil)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Webhook delivery failed for %s", payload.DocumentID), err, nil)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Webhook for %s returned status %d", payload.DocumentID, resp.StatusCode), nil, nil)
		return
	}
	fylogger.InfoLog(ctx, fmt.Sprintf("Webhook delivered for %s", payload.DocumentID), nil)
}
