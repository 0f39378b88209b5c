// Package events publishes ledger domain events over AMQP. Events are
// emitted after the owning transaction commits; consumers that need the
// full record fetch it from storage by ID.
package events

import (
	"encoding/json"
	"time"
)

// Routing keys double as queue names on the direct exchange.
const (
	RouteExpenseCreated = "expense.created"
	RouteSplitPaid      = "split.paid"
)

// ExpenseCreatedMessage announces a newly recorded expense.
type ExpenseCreatedMessage struct {
	EventID     string    `json:"eventId"`
	ExpenseID   int64     `json:"expenseId"`
	CreatedBy   int64     `json:"createdById"`
	AmountCents int64     `json:"amountCents"`
	SplitCount  int       `json:"splitCount"`
	Timestamp   time.Time `json:"timestamp"`
}

// SplitPaidMessage announces a split transitioning to paid. It is emitted
// only on the actual transition, never for repeat settle calls.
type SplitPaidMessage struct {
	EventID     string    `json:"eventId"`
	SplitID     int64     `json:"splitId"`
	ExpenseID   int64     `json:"expenseId"`
	UserID      int64     `json:"userId"`
	AmountCents int64     `json:"amountCents"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }
func (m *SplitPaidMessage) ToJSON() ([]byte, error)      { return json.Marshal(m) }

func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func SplitPaidMessageFromJSON(data []byte) (*SplitPaidMessage, error) {
	var msg SplitPaidMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
