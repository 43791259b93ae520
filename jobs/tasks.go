package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderNotify delivers the WhatsApp confirmation for a placed order.
	TaskOrderNotify = "order:notify"
	// TaskLowStockScan lists products at or below the low-stock threshold.
	TaskLowStockScan = "stock:low_scan"
)

// OrderLine is one item of a notified order.
type OrderLine struct {
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
}

// OrderNotifyPayload carries everything the confirmation message needs.
type OrderNotifyPayload struct {
	Reference    string      `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	PhoneNumber  string      `json:"phone_number"`
	Items        []OrderLine `json:"items"`
	TotalBill    float64     `json:"total_bill"`
	PlacedAt     time.Time   `json:"placed_at"`
}

// NewOrderNotifyTask builds an order confirmation task. Delivery is retried a
// few times before giving up.
func NewOrderNotifyTask(payload OrderNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotify, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	Trigger string `json:"trigger"`
}

// NewLowStockScanTask constructs a low stock scan task.
func NewLowStockScanTask(trigger string) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}
