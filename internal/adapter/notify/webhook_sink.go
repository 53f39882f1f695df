package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

var ErrRejected = errors.New("push service rejected notification")

type WebhookConfig struct {
	URL           string
	Headers       map[string]string
	Timeout       time.Duration
	MaxRetries    uint64
	RetryInterval time.Duration
}

// WebhookSink posts notifications as JSON to the push service. Network
// errors and 5xx responses are retried with exponential backoff, 4xx
// responses are not.
type WebhookSink struct {
	cfg    WebhookConfig
	client *http.Client
}

func NewWebhookSink(cfg WebhookConfig) *WebhookSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	return &WebhookSink{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type webhookPayload struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	UserID   string         `json:"user_id,omitempty"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
	QueuedAt time.Time      `json:"queued_at"`
}

func (w *WebhookSink) Send(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(webhookPayload{
		ID:       n.ID,
		Kind:     string(n.Kind),
		UserID:   n.UserID,
		Title:    n.Title,
		Body:     n.Body,
		Data:     n.Metadata,
		QueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.cfg.RetryInterval
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, w.cfg.MaxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := w.post(ctx, n, payload)
		if errors.Is(err, ErrRejected) {
			return backoff.Permanent(err)
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"notification_id": n.ID,
				"attempt":         attempt,
				"error":           err,
			}).Warn("push webhook attempt failed")
		}
		return err
	}, retry)
}

func (w *WebhookSink) post(ctx context.Context, n domain.Notification, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-ID", n.ID)
	req.Header.Set("X-Notification-Kind", string(n.Kind))
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("push service returned %d: %s", resp.StatusCode, string(body))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, string(body))
	}
}
