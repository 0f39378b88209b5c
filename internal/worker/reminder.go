// Package worker implements the payment reminder worker. It consumes
// expense.created events for visibility and periodically scans storage for
// splits past their due date.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/subhasmitas02/SplitSmart/internal/events"
	"github.com/subhasmitas02/SplitSmart/internal/metrics"
	"github.com/subhasmitas02/SplitSmart/internal/storage"
)

// ReminderWorker watches the ledger for overdue splits and emits payment
// reminders. Reminders are log lines today; the scan and batching are the
// part that matters.
type ReminderWorker struct {
	ledger    storage.Ledger
	batchSize int
}

func NewReminderWorker(ledger storage.Ledger, batchSize int) *ReminderWorker {
	return &ReminderWorker{
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleExpenseCreated processes one expense.created event: it looks up the
// new expense and logs the due splits so upcoming reminders are visible as
// soon as the expense lands.
func (w *ReminderWorker) HandleExpenseCreated(ctx context.Context, body []byte) error {
	msg, err := events.ExpenseCreatedMessageFromJSON(body)
	if err != nil {
		return fmt.Errorf("unmarshal expense created event: %w", err)
	}

	details, err := w.ledger.GetExpenseDetails(ctx, msg.ExpenseID)
	if err != nil {
		return fmt.Errorf("get expense %d: %w", msg.ExpenseID, err)
	}

	for _, split := range details.Splits {
		if split.IsPaid || split.DueDate.IsZero() {
			continue
		}
		slog.InfoContext(ctx, "Tracking split due date",
			"event_id", msg.EventID,
			"expense_id", details.Expense.ID,
			"expense", details.Expense.Name,
			"split_id", split.Split.ID,
			"user", split.User.Username,
			"amount_cents", split.Amount.Cents,
			"due_date", split.DueDate.Format("2006-01-02"))
	}
	return nil
}

// RemindOverdue scans for unpaid splits whose due date has passed and emits
// one reminder per split, up to the configured batch size per run.
func (w *ReminderWorker) RemindOverdue(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := w.ledger.ListOverdueSplits(ctx, asOf, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list overdue splits: %w", err)
	}

	for _, split := range overdue {
		slog.WarnContext(ctx, "Payment reminder",
			"split_id", split.Split.ID,
			"expense", split.Expense.Name,
			"user", split.User.Username,
			"amount_cents", split.Amount.Cents,
			"due_date", split.DueDate.Format("2006-01-02"),
			"days_overdue", int(asOf.Sub(split.DueDate).Hours()/24))
		metrics.RemindersSent.Inc()
	}

	if len(overdue) > 0 {
		slog.InfoContext(ctx, "Reminder scan complete", "reminders", len(overdue))
	}
	return len(overdue), nil
}

// Run drives the periodic scan until ctx is cancelled. It fires once at
// startup so a restart never delays reminders by a full interval.
func (w *ReminderWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.RemindOverdue(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Initial reminder scan failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RemindOverdue(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
			}
		}
	}
}
