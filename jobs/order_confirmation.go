package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/kedai-dimesem/storefront/internal/jobs"
	"github.com/kedai-dimesem/storefront/internal/reporting/export"
)

// OrderConfirmationJob mails the customer after checkout.
type OrderConfirmationJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOrderConfirmationJob wires dependencies for the confirmation handler.
func NewOrderConfirmationJob(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrderConfirmationJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderConfirmationJob{Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskOrderConfirmation tasks.
func (j *OrderConfirmationJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Mailer == nil {
		return errors.New("order confirmation: handler not configured")
	}
	var payload OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.CustomerEmail) == "" {
		return fmt.Errorf("order %s has no email: %w", payload.Code, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskOrderConfirmation)
	defer func() { err = tracker.End(err) }()

	if err := j.Mailer.Send(ctx, ConfirmationMessage(payload)); err != nil {
		j.Logger.Error("send order confirmation", slog.String("code", payload.Code), slog.Any("error", err))
		return err
	}
	j.Logger.Info("order confirmation sent", slog.String("code", payload.Code))
	return nil
}

// ConfirmationMessage renders the mail for payload.
func ConfirmationMessage(p OrderConfirmationPayload) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s,\n\n", p.CustomerName)
	fmt.Fprintf(&b, "Terima kasih telah memesan di Kedai Dimesem.\n")
	fmt.Fprintf(&b, "Kode transaksi: %s\n", p.Code)
	fmt.Fprintf(&b, "Total pembayaran: %s\n\n", export.Rupiah(p.TotalAmount))
	fmt.Fprintf(&b, "Pesanan Anda sedang kami proses.\n")
	return Message{
		To:      p.CustomerEmail,
		Subject: "Pesanan " + p.Code + " diterima",
		Body:    b.String(),
	}
}
