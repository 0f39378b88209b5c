// Package storage provides the ledger repository abstraction and its
// implementations. The rest of the application depends only on the Ledger
// interface, never on a concrete storage mechanism.
package storage

import (
	"context"
	"time"

	"github.com/subhasmitas02/SplitSmart/internal/core"
)

// Ledger is the persistence boundary for all ledger entities.
//
// CreateExpenseWithSplits is the one transactional contract the core relies
// on: the expense and all of its splits commit together or not at all, so a
// rejected allocation can never leave orphan splits behind.
type Ledger interface {
	// Users
	CreateUser(ctx context.Context, u *core.User) (*core.User, error)
	GetUser(ctx context.Context, id int64) (*core.User, error)
	GetUserByUsername(ctx context.Context, username string) (*core.User, error)

	// Categories
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (*core.Category, error)
	CreateCategory(ctx context.Context, c *core.Category) (*core.Category, error)

	// Expenses
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	GetExpense(ctx context.Context, id int64) (*core.Expense, error)
	GetExpenseDetails(ctx context.Context, id int64) (*core.ExpenseDetails, error)
	ListExpensesForUser(ctx context.Context, userID int64) ([]core.Expense, error)
	ListExpenseDetailsForUser(ctx context.Context, userID int64) ([]core.ExpenseDetails, error)
	CreateExpenseWithSplits(ctx context.Context, e *core.Expense, shares []core.SplitShare) (*core.ExpenseDetails, error)

	// Splits
	GetSplit(ctx context.Context, id int64) (*core.Split, error)
	ListSplitsByExpense(ctx context.Context, expenseID int64) ([]core.Split, error)
	ListSplitsByUser(ctx context.Context, userID int64) ([]core.SplitDetails, error)
	SetSplitPaid(ctx context.Context, id int64) (*core.Split, error)
	ListOverdueSplits(ctx context.Context, asOf time.Time, limit int) ([]core.SplitDetails, error)

	// Households and memberships
	ListHouseholds(ctx context.Context) ([]core.Household, error)
	GetHousehold(ctx context.Context, id int64) (*core.Household, error)
	CreateHousehold(ctx context.Context, h *core.Household) (*core.Household, error)
	ListHouseholdsCreatedBy(ctx context.Context, userID int64) ([]core.Household, error)
	CreateMembership(ctx context.Context, m *core.Membership) (*core.Membership, error)
	ListHouseholdMembers(ctx context.Context, householdID int64) ([]core.RoommateView, error)

	Close() error
}
