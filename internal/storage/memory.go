package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/subhasmitas02/SplitSmart/internal/core"
)

var _ Ledger = (*MemoryLedger)(nil)

// MemoryLedger is an in-memory Ledger. It backs the memory data backend and
// doubles as the test fake; data does not survive a restart.
type MemoryLedger struct {
	mu sync.RWMutex

	users       map[int64]core.User
	categories  map[int64]core.Category
	expenses    map[int64]core.Expense
	splits      map[int64]core.Split
	households  map[int64]core.Household
	memberships map[int64]core.Membership

	nextUserID       int64
	nextCategoryID   int64
	nextExpenseID    int64
	nextSplitID      int64
	nextHouseholdID  int64
	nextMembershipID int64
}

// NewMemoryLedger returns an empty ledger pre-seeded with the default
// category taxonomy, mirroring what migrations give the SQLite backend.
func NewMemoryLedger() *MemoryLedger {
	l := &MemoryLedger{
		users:       make(map[int64]core.User),
		categories:  make(map[int64]core.Category),
		expenses:    make(map[int64]core.Expense),
		splits:      make(map[int64]core.Split),
		households:  make(map[int64]core.Household),
		memberships: make(map[int64]core.Membership),
	}
	for _, c := range []core.Category{
		{Name: "Rent", Icon: "home", Color: "#6366f1"},
		{Name: "Utilities", Icon: "bolt", Color: "#8b5cf6"},
		{Name: "Groceries", Icon: "shopping-basket", Color: "#f97316"},
		{Name: "Internet", Icon: "wifi", Color: "#22c55e"},
		{Name: "Subscriptions", Icon: "tv", Color: "#ef4444"},
	} {
		l.nextCategoryID++
		c.ID = l.nextCategoryID
		l.categories[c.ID] = c
	}
	return l
}

func (l *MemoryLedger) Close() error { return nil }

// Users

func (l *MemoryLedger) CreateUser(_ context.Context, u *core.User) (*core.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	created := *u
	l.nextUserID++
	created.ID = l.nextUserID
	l.users[created.ID] = created
	return &created, nil
}

func (l *MemoryLedger) GetUser(_ context.Context, id int64) (*core.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	return &u, nil
}

func (l *MemoryLedger) GetUserByUsername(_ context.Context, username string) (*core.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, u := range l.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, core.ErrNotFound)
}

// Categories

func (l *MemoryLedger) ListCategories(_ context.Context) ([]core.Category, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Category, 0, len(l.categories))
	for _, c := range l.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *MemoryLedger) GetCategory(_ context.Context, id int64) (*core.Category, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return &c, nil
}

func (l *MemoryLedger) CreateCategory(_ context.Context, c *core.Category) (*core.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	created := *c
	l.nextCategoryID++
	created.ID = l.nextCategoryID
	l.categories[created.ID] = created
	return &created, nil
}

// Expenses

func (l *MemoryLedger) ListExpenses(_ context.Context) ([]core.Expense, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collectExpenses(func(core.Expense) bool { return true }), nil
}

func (l *MemoryLedger) ListExpensesForUser(_ context.Context, userID int64) ([]core.Expense, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	involved := make(map[int64]bool)
	for _, s := range l.splits {
		if s.UserID == userID {
			involved[s.ExpenseID] = true
		}
	}
	return l.collectExpenses(func(e core.Expense) bool {
		return e.CreatedBy == userID || involved[e.ID]
	}), nil
}

func (l *MemoryLedger) collectExpenses(keep func(core.Expense) bool) []core.Expense {
	var out []core.Expense
	for _, e := range l.expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *MemoryLedger) GetExpense(_ context.Context, id int64) (*core.Expense, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.expenses[id]
	if !ok {
		return nil, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return &e, nil
}

func (l *MemoryLedger) GetExpenseDetails(ctx context.Context, id int64) (*core.ExpenseDetails, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.expenses[id]
	if !ok {
		return nil, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return l.expandExpenseLocked(e)
}

func (l *MemoryLedger) ListExpenseDetailsForUser(_ context.Context, userID int64) ([]core.ExpenseDetails, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	involved := make(map[int64]bool)
	for _, s := range l.splits {
		if s.UserID == userID {
			involved[s.ExpenseID] = true
		}
	}
	expenses := l.collectExpenses(func(e core.Expense) bool {
		return e.CreatedBy == userID || involved[e.ID]
	})
	out := make([]core.ExpenseDetails, 0, len(expenses))
	for _, e := range expenses {
		d, err := l.expandExpenseLocked(e)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// expandExpenseLocked requires at least a read lock held by the caller.
func (l *MemoryLedger) expandExpenseLocked(e core.Expense) (*core.ExpenseDetails, error) {
	cat, ok := l.categories[e.CategoryID]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", e.CategoryID, core.ErrNotFound)
	}
	creator, ok := l.users[e.CreatedBy]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", e.CreatedBy, core.ErrNotFound)
	}

	var splits []core.SplitWithUser
	for _, s := range l.splits {
		if s.ExpenseID != e.ID {
			continue
		}
		owner, ok := l.users[s.UserID]
		if !ok {
			return nil, fmt.Errorf("user %d: %w", s.UserID, core.ErrNotFound)
		}
		splits = append(splits, core.SplitWithUser{Split: s, User: owner})
	}
	sort.Slice(splits, func(i, j int) bool { return splits[i].Split.ID < splits[j].Split.ID })

	return &core.ExpenseDetails{
		Expense:       e,
		Category:      cat,
		CreatedByUser: creator,
		Splits:        splits,
	}, nil
}

func (l *MemoryLedger) CreateExpenseWithSplits(_ context.Context, e *core.Expense, shares []core.SplitShare) (*core.ExpenseDetails, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	created := *e
	l.nextExpenseID++
	created.ID = l.nextExpenseID
	l.expenses[created.ID] = created

	for _, share := range shares {
		l.nextSplitID++
		l.splits[l.nextSplitID] = core.Split{
			ID:        l.nextSplitID,
			ExpenseID: created.ID,
			UserID:    share.UserID,
			Amount:    share.Amount,
			IsPaid:    share.IsPaid,
			DueDate:   share.DueDate,
		}
	}
	return l.expandExpenseLocked(created)
}

// Splits

func (l *MemoryLedger) GetSplit(_ context.Context, id int64) (*core.Split, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.splits[id]
	if !ok {
		return nil, fmt.Errorf("split %d: %w", id, core.ErrNotFound)
	}
	return &s, nil
}

func (l *MemoryLedger) ListSplitsByExpense(_ context.Context, expenseID int64) ([]core.Split, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.Split
	for _, s := range l.splits {
		if s.ExpenseID == expenseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *MemoryLedger) ListSplitsByUser(_ context.Context, userID int64) ([]core.SplitDetails, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.SplitDetails
	for _, s := range l.splits {
		if s.UserID != userID {
			continue
		}
		d, err := l.splitDetailsLocked(s)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Split.ID < out[j].Split.ID })
	return out, nil
}

func (l *MemoryLedger) splitDetailsLocked(s core.Split) (*core.SplitDetails, error) {
	e, ok := l.expenses[s.ExpenseID]
	if !ok {
		return nil, fmt.Errorf("expense %d: %w", s.ExpenseID, core.ErrNotFound)
	}
	u, ok := l.users[s.UserID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", s.UserID, core.ErrNotFound)
	}
	return &core.SplitDetails{Split: s, Expense: e, User: u}, nil
}

func (l *MemoryLedger) SetSplitPaid(_ context.Context, id int64) (*core.Split, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.splits[id]
	if !ok {
		return nil, fmt.Errorf("split %d: %w", id, core.ErrNotFound)
	}
	s.IsPaid = true
	l.splits[id] = s
	return &s, nil
}

func (l *MemoryLedger) ListOverdueSplits(_ context.Context, asOf time.Time, limit int) ([]core.SplitDetails, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var overdue []core.Split
	for _, s := range l.splits {
		if !s.IsPaid && !s.DueDate.IsZero() && !s.DueDate.After(asOf) {
			overdue = append(overdue, s)
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].DueDate.Before(overdue[j].DueDate) })
	if len(overdue) > limit {
		overdue = overdue[:limit]
	}
	out := make([]core.SplitDetails, 0, len(overdue))
	for _, s := range overdue {
		d, err := l.splitDetailsLocked(s)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// Households

func (l *MemoryLedger) ListHouseholds(_ context.Context) ([]core.Household, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collectHouseholds(func(core.Household) bool { return true }), nil
}

func (l *MemoryLedger) ListHouseholdsCreatedBy(_ context.Context, userID int64) ([]core.Household, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collectHouseholds(func(h core.Household) bool { return h.CreatedBy == userID }), nil
}

func (l *MemoryLedger) collectHouseholds(keep func(core.Household) bool) []core.Household {
	var out []core.Household
	for _, h := range l.households {
		if keep(h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *MemoryLedger) GetHousehold(_ context.Context, id int64) (*core.Household, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.households[id]
	if !ok {
		return nil, fmt.Errorf("household %d: %w", id, core.ErrNotFound)
	}
	return &h, nil
}

func (l *MemoryLedger) CreateHousehold(_ context.Context, h *core.Household) (*core.Household, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	created := *h
	l.nextHouseholdID++
	created.ID = l.nextHouseholdID
	l.households[created.ID] = created
	return &created, nil
}

func (l *MemoryLedger) CreateMembership(_ context.Context, m *core.Membership) (*core.Membership, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.households[m.HouseholdID]; !ok {
		return nil, fmt.Errorf("household %d: %w", m.HouseholdID, core.ErrNotFound)
	}
	if _, ok := l.users[m.UserID]; !ok {
		return nil, fmt.Errorf("user %d: %w", m.UserID, core.ErrNotFound)
	}
	for _, existing := range l.memberships {
		if existing.UserID == m.UserID && existing.HouseholdID == m.HouseholdID {
			return nil, core.ErrDuplicateMembership
		}
	}
	created := *m
	l.nextMembershipID++
	created.ID = l.nextMembershipID
	l.memberships[created.ID] = created
	return &created, nil
}

func (l *MemoryLedger) ListHouseholdMembers(_ context.Context, householdID int64) ([]core.RoommateView, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.households[householdID]; !ok {
		return nil, fmt.Errorf("household %d: %w", householdID, core.ErrNotFound)
	}

	fellow := make(map[int64]bool)
	for _, m := range l.memberships {
		if m.HouseholdID == householdID {
			fellow[m.UserID] = true
		}
	}

	var out []core.RoommateView
	for _, m := range l.memberships {
		if m.HouseholdID != householdID {
			continue
		}
		u, ok := l.users[m.UserID]
		if !ok {
			return nil, fmt.Errorf("user %d: %w", m.UserID, core.ErrNotFound)
		}
		var owed int64
		for _, s := range l.splits {
			if s.UserID != m.UserID || s.IsPaid {
				continue
			}
			e, ok := l.expenses[s.ExpenseID]
			if ok && fellow[e.CreatedBy] {
				owed += s.Amount.Cents
			}
		}
		out = append(out, core.RoommateView{Membership: m, User: u, OwedAmount: core.Money{Cents: owed}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Membership.ID < out[j].Membership.ID })
	return out, nil
}
