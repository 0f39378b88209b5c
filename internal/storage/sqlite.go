package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/subhasmitas02/SplitSmart/internal/core"
)

// Ensure SQLiteLedger implements Ledger
var _ Ledger = (*SQLiteLedger)(nil)

// SQLiteLedger implements Ledger on SQLite.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (creating if necessary) the database at dbPath and
// runs migrations.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// Ping reports whether the database is reachable. Backs the readiness
// probe.
func (l *SQLiteLedger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *SQLiteLedger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Users

func (l *SQLiteLedger) CreateUser(ctx context.Context, u *core.User) (*core.User, error) {
	res, err := l.db.ExecContext(ctx,
		"INSERT INTO users (username, display_name, email, avatar_initials, password) VALUES (?, ?, ?, ?, ?)",
		u.Username, u.DisplayName, u.Email, u.AvatarInitials, u.Password,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	created := *u
	created.ID = id
	return &created, nil
}

func (l *SQLiteLedger) GetUser(ctx context.Context, id int64) (*core.User, error) {
	return l.scanUser(l.db.QueryRowContext(ctx,
		"SELECT id, username, display_name, email, avatar_initials, password FROM users WHERE id = ?", id),
		fmt.Sprintf("user %d", id))
}

func (l *SQLiteLedger) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return l.scanUser(l.db.QueryRowContext(ctx,
		"SELECT id, username, display_name, email, avatar_initials, password FROM users WHERE username = ?", username),
		fmt.Sprintf("user %q", username))
}

func (l *SQLiteLedger) scanUser(row *sql.Row, what string) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.AvatarInitials, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	return &u, nil
}

// Categories

func (l *SQLiteLedger) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT id, name, icon, color FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	var c core.Category
	err := l.db.QueryRowContext(ctx,
		"SELECT id, name, icon, color FROM categories WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Icon, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &c, nil
}

func (l *SQLiteLedger) CreateCategory(ctx context.Context, c *core.Category) (*core.Category, error) {
	res, err := l.db.ExecContext(ctx,
		"INSERT INTO categories (name, icon, color) VALUES (?, ?, ?)", c.Name, c.Icon, c.Color)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("category id: %w", err)
	}
	created := *c
	created.ID = id
	return &created, nil
}

// Expenses

const expenseColumns = "id, name, amount_cents, date, notes, created_by, category_id"

func scanExpense(scanner interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	var date int64
	err := scanner.Scan(&e.ID, &e.Name, &e.Amount.Cents, &date, &e.Notes, &e.CreatedBy, &e.CategoryID)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = time.Unix(date, 0).UTC()
	return e, nil
}

func (l *SQLiteLedger) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return l.queryExpenses(ctx, "SELECT "+expenseColumns+" FROM expenses ORDER BY id")
}

func (l *SQLiteLedger) ListExpensesForUser(ctx context.Context, userID int64) ([]core.Expense, error) {
	// Created by the user, or split with them; the UNION deduplicates.
	return l.queryExpenses(ctx, `
		SELECT `+expenseColumns+` FROM expenses WHERE created_by = ?1
		UNION
		SELECT e.id, e.name, e.amount_cents, e.date, e.notes, e.created_by, e.category_id
		FROM expenses e JOIN splits s ON s.expense_id = e.id
		WHERE s.user_id = ?1
		ORDER BY id`, userID)
}

func (l *SQLiteLedger) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	e, err := scanExpense(l.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense %d: %w", id, err)
	}
	return &e, nil
}

func (l *SQLiteLedger) GetExpenseDetails(ctx context.Context, id int64) (*core.ExpenseDetails, error) {
	e, err := l.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.expandExpense(ctx, *e)
}

func (l *SQLiteLedger) ListExpenseDetailsForUser(ctx context.Context, userID int64) ([]core.ExpenseDetails, error) {
	expenses, err := l.ListExpensesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]core.ExpenseDetails, 0, len(expenses))
	for _, e := range expenses {
		d, err := l.expandExpense(ctx, e)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// expandExpense builds the details composite: category, creator, and the
// full split list with split owners.
func (l *SQLiteLedger) expandExpense(ctx context.Context, e core.Expense) (*core.ExpenseDetails, error) {
	cat, err := l.GetCategory(ctx, e.CategoryID)
	if err != nil {
		return nil, err
	}
	creator, err := l.GetUser(ctx, e.CreatedBy)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT s.id, s.expense_id, s.user_id, s.amount_cents, s.is_paid, s.due_date,
		       u.id, u.username, u.display_name, u.email, u.avatar_initials, u.password
		FROM splits s JOIN users u ON u.id = s.user_id
		WHERE s.expense_id = ? ORDER BY s.id`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("query expense splits: %w", err)
	}
	defer rows.Close()

	var splits []core.SplitWithUser
	for rows.Next() {
		var sw core.SplitWithUser
		var dueDate sql.NullInt64
		if err := rows.Scan(
			&sw.Split.ID, &sw.ExpenseID, &sw.Split.UserID, &sw.Amount.Cents, &sw.IsPaid, &dueDate,
			&sw.User.ID, &sw.User.Username, &sw.User.DisplayName, &sw.User.Email, &sw.User.AvatarInitials, &sw.User.Password,
		); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		if dueDate.Valid {
			sw.DueDate = time.Unix(dueDate.Int64, 0).UTC()
		}
		splits = append(splits, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate splits: %w", err)
	}

	return &core.ExpenseDetails{
		Expense:       e,
		Category:      *cat,
		CreatedByUser: *creator,
		Splits:        splits,
	}, nil
}

// CreateExpenseWithSplits persists the expense and its splits in a single
// transaction.
func (l *SQLiteLedger) CreateExpenseWithSplits(ctx context.Context, e *core.Expense, shares []core.SplitShare) (*core.ExpenseDetails, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO expenses (name, amount_cents, date, notes, created_by, category_id) VALUES (?, ?, ?, ?, ?, ?)",
		e.Name, e.Amount.Cents, e.Date.Unix(), e.Notes, e.CreatedBy, e.CategoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	expenseID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("expense id: %w", err)
	}

	for _, share := range shares {
		var dueDate any
		if !share.DueDate.IsZero() {
			dueDate = share.DueDate.Unix()
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO splits (expense_id, user_id, amount_cents, is_paid, due_date) VALUES (?, ?, ?, ?, ?)",
			expenseID, share.UserID, share.Amount.Cents, share.IsPaid, dueDate,
		)
		if err != nil {
			return nil, fmt.Errorf("insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", expenseID,
		"name", e.Name,
		"amount_cents", e.Amount.Cents,
		"splits", len(shares))

	created := *e
	created.ID = expenseID
	return l.expandExpense(ctx, created)
}

// Splits

func (l *SQLiteLedger) GetSplit(ctx context.Context, id int64) (*core.Split, error) {
	var s core.Split
	var dueDate sql.NullInt64
	err := l.db.QueryRowContext(ctx,
		"SELECT id, expense_id, user_id, amount_cents, is_paid, due_date FROM splits WHERE id = ?", id,
	).Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount.Cents, &s.IsPaid, &dueDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get split %d: %w", id, err)
	}
	if dueDate.Valid {
		s.DueDate = time.Unix(dueDate.Int64, 0).UTC()
	}
	return &s, nil
}

func (l *SQLiteLedger) ListSplitsByExpense(ctx context.Context, expenseID int64) ([]core.Split, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT id, expense_id, user_id, amount_cents, is_paid, due_date FROM splits WHERE expense_id = ? ORDER BY id", expenseID)
	if err != nil {
		return nil, fmt.Errorf("query splits by expense: %w", err)
	}
	defer rows.Close()
	return scanSplits(rows)
}

func scanSplits(rows *sql.Rows) ([]core.Split, error) {
	var out []core.Split
	for rows.Next() {
		var s core.Split
		var dueDate sql.NullInt64
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount.Cents, &s.IsPaid, &dueDate); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		if dueDate.Valid {
			s.DueDate = time.Unix(dueDate.Int64, 0).UTC()
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) ListSplitsByUser(ctx context.Context, userID int64) ([]core.SplitDetails, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT s.id, s.expense_id, s.user_id, s.amount_cents, s.is_paid, s.due_date,
		       e.id, e.name, e.amount_cents, e.date, e.notes, e.created_by, e.category_id,
		       u.id, u.username, u.display_name, u.email, u.avatar_initials, u.password
		FROM splits s
		JOIN expenses e ON e.id = s.expense_id
		JOIN users u ON u.id = s.user_id
		WHERE s.user_id = ? ORDER BY s.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query splits by user: %w", err)
	}
	defer rows.Close()
	return scanSplitDetails(rows)
}

func scanSplitDetails(rows *sql.Rows) ([]core.SplitDetails, error) {
	var out []core.SplitDetails
	for rows.Next() {
		var d core.SplitDetails
		var dueDate sql.NullInt64
		var expenseDate int64
		if err := rows.Scan(
			&d.Split.ID, &d.Split.ExpenseID, &d.Split.UserID, &d.Split.Amount.Cents, &d.IsPaid, &dueDate,
			&d.Expense.ID, &d.Expense.Name, &d.Expense.Amount.Cents, &expenseDate, &d.Expense.Notes, &d.Expense.CreatedBy, &d.Expense.CategoryID,
			&d.User.ID, &d.User.Username, &d.User.DisplayName, &d.User.Email, &d.User.AvatarInitials, &d.User.Password,
		); err != nil {
			return nil, fmt.Errorf("scan split details: %w", err)
		}
		if dueDate.Valid {
			d.DueDate = time.Unix(dueDate.Int64, 0).UTC()
		}
		d.Expense.Date = time.Unix(expenseDate, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// SetSplitPaid marks a split paid. Idempotent: a split that is already paid
// stays paid and the call succeeds.
func (l *SQLiteLedger) SetSplitPaid(ctx context.Context, id int64) (*core.Split, error) {
	res, err := l.db.ExecContext(ctx, "UPDATE splits SET is_paid = 1 WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("mark split paid: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("split %d: %w", id, core.ErrNotFound)
	}
	return l.GetSplit(ctx, id)
}

func (l *SQLiteLedger) ListOverdueSplits(ctx context.Context, asOf time.Time, limit int) ([]core.SplitDetails, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT s.id, s.expense_id, s.user_id, s.amount_cents, s.is_paid, s.due_date,
		       e.id, e.name, e.amount_cents, e.date, e.notes, e.created_by, e.category_id,
		       u.id, u.username, u.display_name, u.email, u.avatar_initials, u.password
		FROM splits s
		JOIN expenses e ON e.id = s.expense_id
		JOIN users u ON u.id = s.user_id
		WHERE s.is_paid = 0 AND s.due_date IS NOT NULL AND s.due_date <= ?
		ORDER BY s.due_date LIMIT ?`, asOf.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("query overdue splits: %w", err)
	}
	defer rows.Close()
	return scanSplitDetails(rows)
}

// Households

func (l *SQLiteLedger) ListHouseholds(ctx context.Context) ([]core.Household, error) {
	return l.queryHouseholds(ctx, "SELECT id, name, created_by FROM households ORDER BY id")
}

func (l *SQLiteLedger) ListHouseholdsCreatedBy(ctx context.Context, userID int64) ([]core.Household, error) {
	return l.queryHouseholds(ctx, "SELECT id, name, created_by FROM households WHERE created_by = ? ORDER BY id", userID)
}

func (l *SQLiteLedger) queryHouseholds(ctx context.Context, query string, args ...any) ([]core.Household, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query households: %w", err)
	}
	defer rows.Close()

	var out []core.Household
	for rows.Next() {
		var h core.Household
		if err := rows.Scan(&h.ID, &h.Name, &h.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) GetHousehold(ctx context.Context, id int64) (*core.Household, error) {
	var h core.Household
	err := l.db.QueryRowContext(ctx,
		"SELECT id, name, created_by FROM households WHERE id = ?", id,
	).Scan(&h.ID, &h.Name, &h.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("household %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get household %d: %w", id, err)
	}
	return &h, nil
}

func (l *SQLiteLedger) CreateHousehold(ctx context.Context, h *core.Household) (*core.Household, error) {
	res, err := l.db.ExecContext(ctx,
		"INSERT INTO households (name, created_by) VALUES (?, ?)", h.Name, h.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("household id: %w", err)
	}
	created := *h
	created.ID = id
	return &created, nil
}

func (l *SQLiteLedger) CreateMembership(ctx context.Context, m *core.Membership) (*core.Membership, error) {
	// The UNIQUE (user_id, household_id) constraint backs this up, but the
	// pre-check turns the duplicate into a validation error instead of a
	// bare driver error.
	var count int
	if err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM memberships WHERE user_id = ? AND household_id = ?",
		m.UserID, m.HouseholdID).Scan(&count); err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if count > 0 {
		return nil, core.ErrDuplicateMembership
	}

	res, err := l.db.ExecContext(ctx,
		"INSERT INTO memberships (user_id, household_id) VALUES (?, ?)", m.UserID, m.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("insert membership: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("membership id: %w", err)
	}
	created := *m
	created.ID = id
	return &created, nil
}

// ListHouseholdMembers returns each member with their outstanding amount
// scoped to the household: unpaid splits on expenses created by a fellow
// member of the same household.
func (l *SQLiteLedger) ListHouseholdMembers(ctx context.Context, householdID int64) ([]core.RoommateView, error) {
	if _, err := l.GetHousehold(ctx, householdID); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT m.id, m.user_id, m.household_id,
		       u.id, u.username, u.display_name, u.email, u.avatar_initials, u.password,
		       COALESCE((
		           SELECT SUM(s.amount_cents)
		           FROM splits s
		           JOIN expenses e ON e.id = s.expense_id
		           WHERE s.user_id = m.user_id
		             AND s.is_paid = 0
		             AND e.created_by IN (SELECT user_id FROM memberships WHERE household_id = m.household_id)
		       ), 0)
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.household_id = ?
		ORDER BY m.id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query household members: %w", err)
	}
	defer rows.Close()

	var out []core.RoommateView
	for rows.Next() {
		var v core.RoommateView
		if err := rows.Scan(
			&v.Membership.ID, &v.Membership.UserID, &v.HouseholdID,
			&v.User.ID, &v.User.Username, &v.User.DisplayName, &v.User.Email, &v.User.AvatarInitials, &v.User.Password,
			&v.OwedAmount.Cents,
		); err != nil {
			return nil, fmt.Errorf("scan household member: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
