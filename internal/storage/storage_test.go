package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/subhasmitas02/SplitSmart/internal/core"
)

// ledgerUnderTest runs the same contract against every backend.
func ledgerUnderTest(t *testing.T) map[string]Ledger {
	t.Helper()

	sqlite, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite ledger: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Ledger{
		"memory": NewMemoryLedger(),
		"sqlite": sqlite,
	}
}

func mustCreateUser(t *testing.T, ledger Ledger, username, displayName string) *core.User {
	t.Helper()
	u, err := ledger.CreateUser(context.Background(), &core.User{
		Username:       username,
		DisplayName:    displayName,
		Email:          username + "@example.com",
		AvatarInitials: "XX",
		Password:       "secret",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func TestLedgerUsers(t *testing.T) {
	for name, ledger := range ledgerUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created := mustCreateUser(t, ledger, "jamie", "Jamie")
			if created.ID == 0 {
				t.Fatal("expected assigned user id")
			}

			got, err := ledger.GetUser(ctx, created.ID)
			if err != nil {
				t.Fatalf("get user: %v", err)
			}
			if got.Username != "jamie" || got.DisplayName != "Jamie" {
				t.Errorf("got %+v", got)
			}

			byName, err := ledger.GetUserByUsername(ctx, "jamie")
			if err != nil {
				t.Fatalf("get user by username: %v", err)
			}
			if byName.ID != created.ID {
				t.Errorf("by-username id = %d, want %d", byName.ID, created.ID)
			}

			if _, err := ledger.GetUser(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("missing user error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestLedgerCategoriesSeeded(t *testing.T) {
	for name, ledger := range ledgerUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			cats, err := ledger.ListCategories(context.Background())
			if err != nil {
				t.Fatalf("list categories: %v", err)
			}
			if len(cats) != 5 {
				t.Fatalf("seeded categories = %d, want 5", len(cats))
			}
			if cats[0].Name != "Rent" {
				t.Errorf("first category = %q, want Rent", cats[0].Name)
			}

			created, err := ledger.CreateCategory(context.Background(), &core.Category{
				Name: "Cleaning", Icon: "sparkles", Color: "#14B8A6",
			})
			if err != nil {
				t.Fatalf("create category: %v", err)
			}
			got, err := ledger.GetCategory(context.Background(), created.ID)
			if err != nil {
				t.Fatalf("get category: %v", err)
			}
			if got.Name != "Cleaning" {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestLedgerCreateExpenseWithSplits(t *testing.T) {
	for name, ledger := range ledgerUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			jamie := mustCreateUser(t, ledger, "jamie", "Jamie")
			kim := mustCreateUser(t, ledger, "kim", "Kim")

			date := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			due := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)
			details, err := ledger.CreateExpenseWithSplits(ctx, &core.Expense{
				Name:       "Internet",
				Amount:     core.Money{Cents: 15688},
				Date:       date,
				CreatedBy:  jamie.ID,
				CategoryID: 4,
			}, []core.SplitShare{
				{UserID: jamie.ID, Amount: core.Money{Cents: 7844}, IsPaid: true},
				{UserID: kim.ID, Amount: core.Money{Cents: 7844}, DueDate: due},
			})
			if err != nil {
				t.Fatalf("create expense: %v", err)
			}

			if details.Expense.ID == 0 {
				t.Fatal("expected assigned expense id")
			}
			if !details.Expense.Date.Equal(date) {
				t.Errorf("date = %v, want %v", details.Expense.Date, date)
			}
			if details.Category.Name != "Internet" {
				t.Errorf("category = %q", details.Category.Name)
			}
			if details.CreatedByUser.ID != jamie.ID {
				t.Errorf("creator = %d, want %d", details.CreatedByUser.ID, jamie.ID)
			}
			if len(details.Splits) != 2 {
				t.Fatalf("splits = %d, want 2", len(details.Splits))
			}

			var sum int64
			for _, s := range details.Splits {
				sum += s.Amount.Cents
			}
			if sum != details.Expense.Amount.Cents {
				t.Errorf("split sum = %d, want %d", sum, details.Expense.Amount.Cents)
			}

			if !details.Splits[0].IsPaid {
				t.Error("creator split should start paid")
			}
			if details.Splits[1].IsPaid {
				t.Error("roommate split should start unpaid")
			}
			if !details.Splits[1].DueDate.Equal(due) {
				t.Errorf("due date = %v, want %v", details.Splits[1].DueDate, due)
			}
			if !details.Splits[0].DueDate.IsZero() {
				t.Errorf("creator due date = %v, want zero", details.Splits[0].DueDate)
			}
		})
	}
}

func TestLedgerSetSplitPaid(t *testing.T) {
	for name, ledger := range ledgerUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			jamie := mustCreateUser(t, ledger, "jamie", "Jamie")
			kim := mustCreateUser(t, ledger, "kim", "Kim")

			details, err := ledger.CreateExpenseWithSplits(ctx, &core.Expense{
				Name:       "Groceries",
				Amount:     core.Money{Cents: 4162},
				Date:       time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
				CreatedBy:  jamie.ID,
				CategoryID: 3,
			}, []core.SplitShare{
				{UserID: jamie.ID, Amount: core.Money{Cents: 2081}, IsPaid: true},
				{UserID: kim.ID, Amount: core.Money{Cents: 2081}},
			})
			if err != nil {
				t.Fatalf("create expense: %v", err)
			}
			kimSplit := details.Splits[1].Split

			paid, err := ledger.SetSplitPaid(ctx, kimSplit.ID)
			if err != nil {
				t.Fatalf("set split paid: %v", err)
			}
			if !paid.IsPaid {
				t.Error("split not marked paid")
			}

			// Idempotent on an already-paid split.
			again, err := ledger.SetSplitPaid(ctx, kimSplit.ID)
			if err != nil {
				t.Fatalf("repeat set split paid: %v", err)
			}
			if !again.IsPaid {
				t.Error("split unmarked by repeat call")
			}

			if _, err := ledger.SetSplitPaid(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("missing split error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestLedgerListForUser(t *testing.T) {
	for name, ledger := range ledgerUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			jamie := mustCreateUser(t, ledger, "jamie", "Jamie")
			kim := mustCreateUser(t, ledger, "kim", "Kim")
			mike := mustCreateUser(t, ledger, "mike", "Mike")

			// Jamie creates one expense split with Kim; Mike creates one of
			// his own with no splits for the others.
			if _, err := ledger.CreateExpenseWithSplits(ctx, &core.Expense{
				Name: "Rent", Amount: core.Money{Cents: 180000},
				Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
				CreatedBy: jamie.ID, CategoryID: 1,
			}, []core.SplitShare{
				{UserID: jamie.ID, Amount: core.Money{Cents: 90000}, IsPaid: true},
				{UserID: kim.ID, Amount: core.Money{Cents: 90000}},
			}); err != nil {
				t.Fatalf("create rent: %v", err)
			}
			if _, err := ledger.CreateExpenseWithSplits(ctx, &core.Expense{
				Name: "Snacks", Amount: core.Money{Cents: 1200},
				Date:      time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
				CreatedBy: mike.ID, CategoryID: 3,
			}, []core.SplitShare{
				{UserID: mike.ID, Amount: core.Money{Cents: 1200}, IsPaid: true},
			}); err != nil {
				t.Fatalf("create snacks: %v", err)
			}

			kimExpenses, err := ledger.ListExpensesForUser(ctx, kim.ID)
			if err != nil {
				t.Fatalf("list for kim: %v", err)
			}
			if len(kimExpenses) != 1 || kimExpenses[0].Name != "Rent" {
				t.Errorf("kim expenses = %+v, want only Rent", kimExpenses)
			}

			kimSplits, err := ledger.ListSplitsByUser(ctx, kim.ID)
			if err != nil {
				t.Fatalf("list splits for kim: %v", err)
			}
			if len(kimSplits) != 1 {
				t.Fatalf("kim splits = %d, want 1", len(kimSplits))
			}
			if kimSplits[0].Expense.Name != "Rent" || kimSplits[0].User.ID != kim.ID {
				t.Errorf("kim split details = %+v", kimSplits[0])
			}

			all, err := ledger.ListExpenses(ctx)
			if err != nil {
				t.Fatalf("list all: %v", err)
			}
			if len(all) != 2 {
				t.Errorf("all expenses = %d, want 2", len(all))
			}
		})
	}
}

func TestLedgerListOverdueSplits(t *testing.T) {
	for name, ledger := range ledgerUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			jamie := mustCreateUser(t, ledger, "jamie", "Jamie")
			kim := mustCreateUser(t, ledger, "kim", "Kim")

			asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
			overdueDue := asOf.AddDate(0, 0, -5)
			futureDue := asOf.AddDate(0, 0, 5)

			if _, err := ledger.CreateExpenseWithSplits(ctx, &core.Expense{
				Name: "Utilities", Amount: core.Money{Cents: 9000},
				Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
				CreatedBy: jamie.ID, CategoryID: 2,
			}, []core.SplitShare{
				{UserID: jamie.ID, Amount: core.Money{Cents: 4500}, IsPaid: true},
				{UserID: kim.ID, Amount: core.Money{Cents: 4500}, DueDate: overdueDue},
			}); err != nil {
				t.Fatalf("create utilities: %v", err)
			}
			if _, err := ledger.CreateExpenseWithSplits(ctx, &core.Expense{
				Name: "Internet", Amount: core.Money{Cents: 8000},
				Date:      time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
				CreatedBy: jamie.ID, CategoryID: 4,
			}, []core.SplitShare{
				{UserID: jamie.ID, Amount: core.Money{Cents: 4000}, IsPaid: true},
				{UserID: kim.ID, Amount: core.Money{Cents: 4000}, DueDate: futureDue},
			}); err != nil {
				t.Fatalf("create internet: %v", err)
			}

			overdue, err := ledger.ListOverdueSplits(ctx, asOf, 10)
			if err != nil {
				t.Fatalf("list overdue: %v", err)
			}
			if len(overdue) != 1 {
				t.Fatalf("overdue = %d, want 1", len(overdue))
			}
			if overdue[0].Expense.Name != "Utilities" {
				t.Errorf("overdue expense = %q, want Utilities", overdue[0].Expense.Name)
			}

			// Paying the split removes it from the overdue scan.
			if _, err := ledger.SetSplitPaid(ctx, overdue[0].Split.ID); err != nil {
				t.Fatalf("pay split: %v", err)
			}
			overdue, err = ledger.ListOverdueSplits(ctx, asOf, 10)
			if err != nil {
				t.Fatalf("list overdue after pay: %v", err)
			}
			if len(overdue) != 0 {
				t.Errorf("overdue after pay = %d, want 0", len(overdue))
			}
		})
	}
}

func TestLedgerHouseholds(t *testing.T) {
	for name, ledger := range ledgerUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			jamie := mustCreateUser(t, ledger, "jamie", "Jamie")
			kim := mustCreateUser(t, ledger, "kim", "Kim")
			outsider := mustCreateUser(t, ledger, "sam", "Sam")

			house, err := ledger.CreateHousehold(ctx, &core.Household{Name: "Maple St", CreatedBy: jamie.ID})
			if err != nil {
				t.Fatalf("create household: %v", err)
			}
			for _, uid := range []int64{jamie.ID, kim.ID} {
				if _, err := ledger.CreateMembership(ctx, &core.Membership{UserID: uid, HouseholdID: house.ID}); err != nil {
					t.Fatalf("create membership for %d: %v", uid, err)
				}
			}

			// A household expense: Kim owes Jamie. An outside expense from
			// Sam must not count toward Kim's household balance.
			if _, err := ledger.CreateExpenseWithSplits(ctx, &core.Expense{
				Name: "Rent", Amount: core.Money{Cents: 180000},
				Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
				CreatedBy: jamie.ID, CategoryID: 1,
			}, []core.SplitShare{
				{UserID: jamie.ID, Amount: core.Money{Cents: 90000}, IsPaid: true},
				{UserID: kim.ID, Amount: core.Money{Cents: 90000}},
			}); err != nil {
				t.Fatalf("create rent: %v", err)
			}
			if _, err := ledger.CreateExpenseWithSplits(ctx, &core.Expense{
				Name: "Concert", Amount: core.Money{Cents: 5000},
				Date:      time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
				CreatedBy: outsider.ID, CategoryID: 5,
			}, []core.SplitShare{
				{UserID: outsider.ID, Amount: core.Money{Cents: 2500}, IsPaid: true},
				{UserID: kim.ID, Amount: core.Money{Cents: 2500}},
			}); err != nil {
				t.Fatalf("create concert: %v", err)
			}

			members, err := ledger.ListHouseholdMembers(ctx, house.ID)
			if err != nil {
				t.Fatalf("list members: %v", err)
			}
			if len(members) != 2 {
				t.Fatalf("members = %d, want 2", len(members))
			}

			owed := make(map[int64]int64)
			for _, m := range members {
				owed[m.User.ID] = m.OwedAmount.Cents
			}
			if owed[jamie.ID] != 0 {
				t.Errorf("jamie owed = %d, want 0", owed[jamie.ID])
			}
			if owed[kim.ID] != 90000 {
				t.Errorf("kim owed = %d, want 90000 (household scope only)", owed[kim.ID])
			}

			mine, err := ledger.ListHouseholdsCreatedBy(ctx, jamie.ID)
			if err != nil {
				t.Fatalf("list created by: %v", err)
			}
			if len(mine) != 1 || mine[0].Name != "Maple St" {
				t.Errorf("created-by list = %+v", mine)
			}

			if _, err := ledger.ListHouseholdMembers(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("missing household error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestLedgerDuplicateMembership(t *testing.T) {
	for name, ledger := range ledgerUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			jamie := mustCreateUser(t, ledger, "jamie", "Jamie")
			house, err := ledger.CreateHousehold(ctx, &core.Household{Name: "Maple St", CreatedBy: jamie.ID})
			if err != nil {
				t.Fatalf("create household: %v", err)
			}

			if _, err := ledger.CreateMembership(ctx, &core.Membership{UserID: jamie.ID, HouseholdID: house.ID}); err != nil {
				t.Fatalf("create membership: %v", err)
			}
			_, err = ledger.CreateMembership(ctx, &core.Membership{UserID: jamie.ID, HouseholdID: house.ID})
			if !errors.Is(err, core.ErrDuplicateMembership) {
				t.Fatalf("duplicate membership error = %v, want ErrDuplicateMembership", err)
			}
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("duplicate membership should classify as validation, got %v", err)
			}

			members, err := ledger.ListHouseholdMembers(ctx, house.ID)
			if err != nil {
				t.Fatalf("list members: %v", err)
			}
			if len(members) != 1 {
				t.Fatalf("members = %d, want 1", len(members))
			}
		})
	}
}
