package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error classes. Specific sentinels below wrap one of these so callers can
// branch on the class with errors.Is while still surfacing the exact
// invariant that failed.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrInvalidAmount        = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyName            = fmt.Errorf("%w: empty name", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrAmountTooSmall       = fmt.Errorf("%w: amount too small to split evenly", ErrValidation)
	ErrNoParticipants       = fmt.Errorf("%w: no participants", ErrValidation)
	ErrDuplicateParticipant = fmt.Errorf("%w: duplicate participant", ErrValidation)
	ErrDuplicateMembership  = fmt.Errorf("%w: user already a household member", ErrValidation)
	ErrMissingSplitAmount   = fmt.Errorf("%w: missing split amount for participant", ErrValidation)
	ErrUnknownParticipant   = fmt.Errorf("%w: split amount for unknown participant", ErrValidation)
	ErrSplitTotalMismatch   = fmt.Errorf("%w: split total mismatch", ErrValidation)
	ErrInvalidGrouping      = fmt.Errorf("%w: invalid report grouping", ErrValidation)
	ErrInvalidWindow        = fmt.Errorf("%w: report window end precedes start", ErrValidation)
)

type (
	// User is a household member. Password is an opaque credential carried
	// for completeness; it never leaves the server.
	User struct {
		ID             int64  `json:"id"`
		Username       string `json:"username"`
		DisplayName    string `json:"displayName"`
		Email          string `json:"email"`
		AvatarInitials string `json:"avatarInitials"`
		Password       string `json:"-"`
	}

	// Category is a static expense taxonomy entry.
	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	// Expense is a shared cost logged by one member. Amount and Date are
	// immutable after creation.
	Expense struct {
		ID         int64     `json:"id"`
		Name       string    `json:"name"`
		Amount     Money     `json:"amount"`
		Date       time.Time `json:"date"`
		Notes      string    `json:"notes,omitempty"`
		CreatedBy  int64     `json:"createdById"`
		CategoryID int64     `json:"categoryId"`
	}

	// Split is one member's owed portion of an expense. Only IsPaid ever
	// changes after creation, and only from false to true.
	Split struct {
		ID        int64     `json:"id"`
		ExpenseID int64     `json:"expenseId"`
		UserID    int64     `json:"userId"`
		Amount    Money     `json:"amount"`
		IsPaid    bool      `json:"isPaid"`
		DueDate   time.Time `json:"dueDate,omitzero"`
	}

	// Household is a named group of members.
	Household struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		CreatedBy int64  `json:"createdById"`
	}

	// Membership links a user to a household (the roommate join entity).
	Membership struct {
		ID          int64 `json:"id"`
		UserID      int64 `json:"userId"`
		HouseholdID int64 `json:"householdId"`
	}
)

// Composite read models. The ledger joins base entities into these explicitly
// rather than composing record shapes ad hoc.
type (
	SplitWithUser struct {
		Split
		User User `json:"user"`
	}

	SplitDetails struct {
		Split
		Expense Expense `json:"expense"`
		User    User    `json:"user"`
	}

	ExpenseDetails struct {
		Expense
		Category      Category        `json:"category"`
		CreatedByUser User            `json:"createdBy"`
		Splits        []SplitWithUser `json:"splits"`
	}

	// RoommateView is a household member with their outstanding amount.
	// A zero OwedAmount covers both "all settled" and "no splits yet".
	RoommateView struct {
		Membership
		User       User  `json:"user"`
		OwedAmount Money `json:"owedAmount"`
	}
)

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: empty username", ErrValidation)
	}
	if strings.TrimSpace(u.DisplayName) == "" {
		return fmt.Errorf("%w: empty display name", ErrValidation)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return fmt.Errorf("%w: name too long (max 200 characters)", ErrValidation)
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.CreatedBy <= 0 {
		return fmt.Errorf("%w: missing creator", ErrValidation)
	}
	if e.CategoryID <= 0 {
		return fmt.Errorf("%w: missing category", ErrValidation)
	}
	return nil
}

func (h Household) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}
	if h.CreatedBy <= 0 {
		return fmt.Errorf("%w: missing creator", ErrValidation)
	}
	return nil
}

func (m Membership) Validate() error {
	if m.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrValidation)
	}
	if m.HouseholdID <= 0 {
		return fmt.Errorf("%w: missing household", ErrValidation)
	}
	return nil
}
