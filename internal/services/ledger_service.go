// Package services orchestrates ledger operations across storage and the
// event bus. Handlers talk to LedgerService, never to storage directly.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/subhasmitas02/SplitSmart/internal/core"
	"github.com/subhasmitas02/SplitSmart/internal/events"
	"github.com/subhasmitas02/SplitSmart/internal/metrics"
	"github.com/subhasmitas02/SplitSmart/internal/storage"
)

// EventPublisher is the slice of the AMQP client the service needs. A nil
// publisher disables events without disabling the ledger.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, msg *events.ExpenseCreatedMessage) error
	PublishSplitPaid(ctx context.Context, msg *events.SplitPaidMessage) error
}

// LedgerService orchestrates expense recording, settlement and aggregation.
type LedgerService struct {
	ledger    storage.Ledger
	publisher EventPublisher
}

func NewLedgerService(ledger storage.Ledger, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		ledger:    ledger,
		publisher: publisher,
	}
}

// CreateExpenseInput is the unit of work for recording an expense: the
// expense itself plus how to split it. Everything persists atomically or not
// at all.
type CreateExpenseInput struct {
	Name         string
	Amount       core.Money
	Date         time.Time
	Notes        string
	CreatedBy    int64
	CategoryID   int64
	Participants []int64
	SplitType    core.AllocationMode
	SplitAmounts map[int64]core.Money
	DueDate      time.Time
}

// CreateExpenseWithSplits validates the input, computes the split shares and
// persists the whole unit in one transaction. The expense.created event is
// published after commit; a publish failure is logged but never fails the
// request.
func (s *LedgerService) CreateExpenseWithSplits(ctx context.Context, in CreateExpenseInput) (*core.ExpenseDetails, error) {
	expense := core.Expense{
		Name:       in.Name,
		Amount:     in.Amount,
		Date:       in.Date,
		Notes:      in.Notes,
		CreatedBy:  in.CreatedBy,
		CategoryID: in.CategoryID,
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.ledger.GetUser(ctx, in.CreatedBy); err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	for _, id := range in.Participants {
		if _, err := s.ledger.GetUser(ctx, id); err != nil {
			return nil, err
		}
	}

	shares, err := s.allocate(in)
	if err != nil {
		return nil, err
	}

	if !in.DueDate.IsZero() {
		for i := range shares {
			if !shares[i].IsPaid {
				shares[i].DueDate = in.DueDate
			}
		}
	}

	details, err := s.ledger.CreateExpenseWithSplits(ctx, &expense, shares)
	if err != nil {
		return nil, fmt.Errorf("persist expense: %w", err)
	}

	metrics.ExpensesCreated.WithLabelValues(string(splitTypeOf(in))).Inc()
	s.publishExpenseCreated(ctx, details)
	return details, nil
}

func (s *LedgerService) allocate(in CreateExpenseInput) ([]core.SplitShare, error) {
	switch splitTypeOf(in) {
	case core.AllocationEqual:
		return core.AllocateEqual(in.Amount, in.Participants, in.CreatedBy)
	case core.AllocationCustom:
		return core.AllocateCustom(in.Amount, in.Participants, in.SplitAmounts, in.CreatedBy)
	default:
		return nil, fmt.Errorf("%w: unknown split type %q", core.ErrValidation, in.SplitType)
	}
}

func splitTypeOf(in CreateExpenseInput) core.AllocationMode {
	if in.SplitType == "" {
		return core.AllocationEqual
	}
	return in.SplitType
}

func (s *LedgerService) publishExpenseCreated(ctx context.Context, details *core.ExpenseDetails) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping expense created event")
		return
	}
	err := s.publisher.PublishExpenseCreated(ctx, &events.ExpenseCreatedMessage{
		EventID:     uuid.NewString(),
		ExpenseID:   details.Expense.ID,
		CreatedBy:   details.Expense.CreatedBy,
		AmountCents: details.Expense.Amount.Cents,
		SplitCount:  len(details.Splits),
		Timestamp:   time.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense created event",
			"expense_id", details.Expense.ID, "error", err)
	}
}

// MarkSplitPaid settles a split. The call is idempotent: settling an
// already-paid split succeeds without emitting another event.
func (s *LedgerService) MarkSplitPaid(ctx context.Context, splitID int64) (*core.Split, error) {
	current, err := s.ledger.GetSplit(ctx, splitID)
	if err != nil {
		return nil, err
	}
	if current.IsPaid {
		return current, nil
	}

	paid, err := s.ledger.SetSplitPaid(ctx, splitID)
	if err != nil {
		return nil, err
	}

	metrics.SplitsPaid.Inc()
	s.publishSplitPaid(ctx, paid)
	return paid, nil
}

func (s *LedgerService) publishSplitPaid(ctx context.Context, split *core.Split) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping split paid event")
		return
	}
	err := s.publisher.PublishSplitPaid(ctx, &events.SplitPaidMessage{
		EventID:     uuid.NewString(),
		SplitID:     split.ID,
		ExpenseID:   split.ExpenseID,
		UserID:      split.UserID,
		AmountCents: split.Amount.Cents,
		Timestamp:   time.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish split paid event",
			"split_id", split.ID, "error", err)
	}
}

// Dashboard aggregates the user's current balance position. Everything is
// recomputed from storage on every call.
func (s *LedgerService) Dashboard(ctx context.Context, userID int64) (*core.DashboardSummary, error) {
	if _, err := s.ledger.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	expenses, err := s.ledger.ListExpenseDetailsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	splitDetails, err := s.ledger.ListSplitsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	userSplits := make([]core.Split, 0, len(splitDetails))
	for _, d := range splitDetails {
		userSplits = append(userSplits, d.Split)
	}

	// Roommates are the distinct other members sharing any of the user's
	// expenses.
	counterparties := make(map[int64]bool)
	for _, e := range expenses {
		for _, sw := range e.Splits {
			if sw.Split.UserID != userID {
				counterparties[sw.Split.UserID] = true
			}
		}
	}

	summary := core.BuildDashboard(expenses, userSplits, len(counterparties))
	return &summary, nil
}

// Report aggregates the user's expenses over a time window.
func (s *LedgerService) Report(ctx context.Context, userID int64, window core.TimeWindow, groupBy core.Grouping) (*core.Report, error) {
	if _, err := s.ledger.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	expenses, err := s.ledger.ListExpenseDetailsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report, err := core.BuildReport(expenses, window, groupBy)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// HouseholdRoommates returns every member of the household with their
// outstanding amount scoped to expenses created inside the household.
func (s *LedgerService) HouseholdRoommates(ctx context.Context, householdID int64) ([]core.RoommateView, error) {
	return s.ledger.ListHouseholdMembers(ctx, householdID)
}

// CreateUser registers a member.
func (s *LedgerService) CreateUser(ctx context.Context, u core.User) (*core.User, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return s.ledger.CreateUser(ctx, &u)
}

func (s *LedgerService) GetUser(ctx context.Context, id int64) (*core.User, error) {
	return s.ledger.GetUser(ctx, id)
}

func (s *LedgerService) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return s.ledger.GetUserByUsername(ctx, username)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.ledger.ListCategories(ctx)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (*core.Category, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return s.ledger.CreateCategory(ctx, &c)
}

func (s *LedgerService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.ledger.ListExpenses(ctx)
}

func (s *LedgerService) GetExpenseDetails(ctx context.Context, id int64) (*core.ExpenseDetails, error) {
	return s.ledger.GetExpenseDetails(ctx, id)
}

func (s *LedgerService) ListExpensesForUser(ctx context.Context, userID int64) ([]core.Expense, error) {
	if _, err := s.ledger.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.ListExpensesForUser(ctx, userID)
}

func (s *LedgerService) ListSplitsByExpense(ctx context.Context, expenseID int64) ([]core.Split, error) {
	if _, err := s.ledger.GetExpense(ctx, expenseID); err != nil {
		return nil, err
	}
	return s.ledger.ListSplitsByExpense(ctx, expenseID)
}

func (s *LedgerService) ListSplitsByUser(ctx context.Context, userID int64) ([]core.SplitDetails, error) {
	if _, err := s.ledger.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.ListSplitsByUser(ctx, userID)
}

func (s *LedgerService) ListHouseholds(ctx context.Context) ([]core.Household, error) {
	return s.ledger.ListHouseholds(ctx)
}

func (s *LedgerService) ListHouseholdsCreatedBy(ctx context.Context, userID int64) ([]core.Household, error) {
	if _, err := s.ledger.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.ListHouseholdsCreatedBy(ctx, userID)
}

func (s *LedgerService) GetHousehold(ctx context.Context, id int64) (*core.Household, error) {
	return s.ledger.GetHousehold(ctx, id)
}

func (s *LedgerService) CreateHousehold(ctx context.Context, h core.Household) (*core.Household, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetUser(ctx, h.CreatedBy); err != nil {
		return nil, err
	}
	return s.ledger.CreateHousehold(ctx, &h)
}

func (s *LedgerService) CreateMembership(ctx context.Context, m core.Membership) (*core.Membership, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetUser(ctx, m.UserID); err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetHousehold(ctx, m.HouseholdID); err != nil {
		return nil, err
	}
	return s.ledger.CreateMembership(ctx, &m)
}
