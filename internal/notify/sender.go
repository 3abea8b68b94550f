package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/deskcore/sla-engine/internal/config"
)

// Message is one outbound notification. To carries primary recipients, Cc
// passive copies; delivery channels beyond this envelope are owned by the
// receiving system.
type Message struct {
	From     string   `json:"from,omitempty"`
	To       []string `json:"to"`
	Cc       []string `json:"cc,omitempty"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	TicketID string   `json:"ticket_id"`
	Level    string   `json:"level"`
	Track    string   `json:"track"`
}

// Sender delivers a message. Implementations return errors instead of
// panicking; the caller decides whether to retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender picks the delivery backend from configuration: a webhook POST
// when a URL is set, otherwise log-only delivery for development.
func NewSender(cfg config.NotificationConfig, logger *zap.Logger) Sender {
	if cfg.WebhookURL != "" {
		return NewWebhookSender(cfg.WebhookURL, logger)
	}
	logger.Warn("NOTIFY_WEBHOOK_URL not set, notifications will only be logged")
	return NewLogSender(logger)
}

// WebhookSender POSTs messages as JSON to a delivery gateway.
type WebhookSender struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookSender builds a webhook sender with a bounded request timeout.
func NewWebhookSender(url string, logger *zap.Logger) *WebhookSender {
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send posts the message and treats any non-2xx response as a failure.
func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}

	s.logger.Debug("notification delivered",
		zap.String("ticket_id", msg.TicketID),
		zap.String("level", msg.Level),
		zap.Int("recipients", len(msg.To)))
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message and always succeeds.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("notification (log only)",
		zap.Strings("to", msg.To),
		zap.Strings("cc", msg.Cc),
		zap.String("subject", msg.Subject),
		zap.String("ticket_id", msg.TicketID),
		zap.String("level", msg.Level),
		zap.String("track", msg.Track))
	return nil
}
