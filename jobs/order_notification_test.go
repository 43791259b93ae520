package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/kirana-store/kirana/internal/inventory"
	jobmetrics "github.com/kirana-store/kirana/internal/jobs"
)

func samplePayload() OrderNotifyPayload {
	return OrderNotifyPayload{
		Reference:    "ord-1",
		CustomerName: "Asha",
		PhoneNumber:  "+919800000000",
		Items: []OrderLine{
			{ProductName: "Rice", Quantity: 2},
			{ProductName: "Milk", Quantity: 1.5},
		},
		TotalBill: 85,
	}
}

func TestFormatOrderMessage(t *testing.T) {
	msg := FormatOrderMessage(samplePayload(), "Raza Wholesale and Retail")

	require.Contains(t, msg, "Thank you Asha for your order!")
	require.Contains(t, msg, "• 2x Rice\n• 1.5x Milk")
	require.Contains(t, msg, "Total Amount: ₹85.00")
	require.Contains(t, msg, "Phone: +919800000000")
	require.Contains(t, msg, "Thank you for choosing Raza Wholesale and Retail!")
}

func TestWhatsAppSenderPostsPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(srv.URL, "secret", nil)
	delivered, err := sender.Send(context.Background(), "+91", "hello")
	require.NoError(t, err)
	require.True(t, delivered)
	require.Equal(t, map[string]string{"to": "+91", "message": "hello", "api_key": "secret"}, got)
	require.Equal(t, "whatsapp", sender.Channel())
}

func TestWhatsAppSenderReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(srv.URL, "secret", nil)
	delivered, err := sender.Send(context.Background(), "+91", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
	require.False(t, delivered)
}

func TestWhatsAppSenderLogsWhenUnconfigured(t *testing.T) {
	sender := NewWhatsAppSender("", "", nil)
	delivered, err := sender.Send(context.Background(), "+91", "hello")
	require.NoError(t, err)
	require.False(t, delivered)
	require.Equal(t, "log", sender.Channel())
}

type recordingSender struct {
	to, message string
	err         error
}

func (s *recordingSender) Send(_ context.Context, to, message string) (bool, error) {
	s.to, s.message = to, message
	return s.err == nil, s.err
}

func (s *recordingSender) Channel() string { return "test" }

func TestOrderNotificationJobHandle(t *testing.T) {
	sender := &recordingSender{}
	job := NewOrderNotificationJob(sender, "", nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewOrderNotifyTask(samplePayload())
	require.NoError(t, err)
	require.Equal(t, TaskOrderNotify, task.Type())
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, "+919800000000", sender.to)
	require.Contains(t, sender.message, "Raza Wholesale and Retail")
}

func TestOrderNotificationJobSkipsBadPayload(t *testing.T) {
	job := NewOrderNotificationJob(&recordingSender{}, "", nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskOrderNotify, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	payload := samplePayload()
	payload.PhoneNumber = ""
	task, err := NewOrderNotifyTask(payload)
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestOrderPayloadFromEvent(t *testing.T) {
	placed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	payload := OrderPayloadFromEvent(inventory.OrderPlacedEvent{
		Reference:    "ord-9",
		CustomerName: "Asha",
		PhoneNumber:  "+91",
		Items:        []inventory.OrderItem{{ProductName: "Rice", Quantity: 2}},
		TotalBill:    110,
		PlacedAt:     placed,
	})

	require.Equal(t, "ord-9", payload.Reference)
	require.Equal(t, []OrderLine{{ProductName: "Rice", Quantity: 2}}, payload.Items)
	require.InDelta(t, 110, payload.TotalBill, 1e-9)
	require.Equal(t, placed, payload.PlacedAt)
}
