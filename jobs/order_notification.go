package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/kirana-store/kirana/internal/jobs"
)

const whatsappTimeout = 10 * time.Second

// Sender delivers a text message to a phone number. It reports false when the
// message was not handed to a provider.
type Sender interface {
	Send(ctx context.Context, to, message string) (bool, error)
	Channel() string
}

// WhatsAppSender posts messages to a generic WhatsApp HTTP API as
// {to, message, api_key}. Without a URL or key it only logs the message.
type WhatsAppSender struct {
	URL    string
	APIKey string
	Client *http.Client
	Logger *slog.Logger
}

// NewWhatsAppSender configures the sender with a 10 second timeout.
func NewWhatsAppSender(url, apiKey string, logger *slog.Logger) *WhatsAppSender {
	return &WhatsAppSender{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: whatsappTimeout},
		Logger: logger,
	}
}

// Configured reports whether messages go to a provider.
func (s *WhatsAppSender) Configured() bool {
	return s != nil && s.URL != "" && s.APIKey != ""
}

// Channel names the delivery channel for metrics.
func (s *WhatsAppSender) Channel() string {
	if s.Configured() {
		return "whatsapp"
	}
	return "log"
}

// Send implements Sender.
func (s *WhatsAppSender) Send(ctx context.Context, to, message string) (bool, error) {
	logger := s.logger()
	if !s.Configured() {
		logger.Warn("whatsapp api not configured, logging message instead")
		logger.Info("whatsapp message", slog.String("to", to), slog.String("message", message))
		return false, nil
	}
	body, err := json.Marshal(map[string]string{"to": to, "message": message, "api_key": s.APIKey})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: whatsappTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	logger.Info("whatsapp message sent", slog.String("to", to))
	return true, nil
}

func (s *WhatsAppSender) logger() *slog.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// FormatOrderMessage renders the customer-facing confirmation.
func FormatOrderMessage(p OrderNotifyPayload, storeName string) string {
	lines := make([]string, len(p.Items))
	for i, item := range p.Items {
		lines[i] = fmt.Sprintf("• %sx %s", strconv.FormatFloat(item.Quantity, 'f', -1, 64), item.ProductName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🙏 *Thank you %s for your order!*\n\n", p.CustomerName)
	fmt.Fprintf(&b, "📦 *Order Received:*\n%s\n\n", strings.Join(lines, "\n"))
	fmt.Fprintf(&b, "💰 *Total Amount: ₹%s*\n\n", decimal.NewFromFloat(p.TotalBill).StringFixed(2))
	fmt.Fprintf(&b, "📱 *Customer: %s*\n", p.CustomerName)
	fmt.Fprintf(&b, "📞 *Phone: %s*\n\n", p.PhoneNumber)
	b.WriteString("✅ *Order confirmed and being prepared!*\n")
	b.WriteString("🚚 *Delivery within 30-60 minutes*\n\n")
	fmt.Fprintf(&b, "🏪 *Thank you for choosing %s!* 🛒", storeName)
	return b.String()
}

// OrderNotificationJob sends the confirmation for TaskOrderNotify tasks.
type OrderNotificationJob struct {
	Sender    Sender
	StoreName string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewOrderNotificationJob initialises the order notification handler.
func NewOrderNotificationJob(sender Sender, storeName string, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrderNotificationJob {
	if storeName == "" {
		storeName = "Raza Wholesale and Retail"
	}
	return &OrderNotificationJob{Sender: sender, StoreName: storeName, Logger: logger, Metrics: metrics}
}

// Handle formats and sends the confirmation message.
func (j *OrderNotificationJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sender == nil {
		return errors.New("order notification: handler not configured")
	}
	var payload OrderNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.PhoneNumber == "" {
		j.logger().Warn("order notification without phone number", slog.String("order_id", payload.Reference))
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskOrderNotify)
	defer func() { err = tracker.End(err) }()

	delivered, err := j.Sender.Send(ctx, payload.PhoneNumber, FormatOrderMessage(payload, j.StoreName))
	j.Metrics.AddNotification(j.Sender.Channel(), delivered)
	if err != nil {
		j.logger().Error("order notification failed",
			slog.String("order_id", payload.Reference),
			slog.Any("error", err),
		)
		return err
	}
	j.logger().Info("order notification processed",
		slog.String("order_id", payload.Reference),
		slog.Bool("delivered", delivered),
	)
	return nil
}

func (j *OrderNotificationJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
