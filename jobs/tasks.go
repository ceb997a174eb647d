package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderConfirmation mails the customer a summary of a new order.
	TaskOrderConfirmation = "order:confirmation"
	// TaskStatsWarmup recomputes the admin dashboard aggregates into cache.
	TaskStatsWarmup = "stats:warmup"
)

// OrderConfirmationPayload carries what the confirmation mail shows.
type OrderConfirmationPayload struct {
	TransactionID int64           `json:"transaction_id"`
	Code          string          `json:"transaction_code"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewOrderConfirmationTask constructs an Asynq task.
func NewOrderConfirmationTask(payload OrderConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderConfirmation, data, asynq.MaxRetry(5)), nil
}

// NewStatsWarmupTask constructs the periodic warm-up task.
func NewStatsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskStatsWarmup, nil)
}
