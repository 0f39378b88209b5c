package core

import (
	"errors"
	"testing"
	"time"
)

func reportExpenses() []ExpenseDetails {
	apr := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	may := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rent := detail(1, "May Rent", 180000, may, catRent)
	rent.Splits = []SplitWithUser{
		{Split: Split{UserID: 1, Amount: Money{Cents: 60000}, IsPaid: true}, User: User{ID: 1, DisplayName: "Jamie Smith"}},
		{Split: Split{UserID: 2, Amount: Money{Cents: 60000}}, User: User{ID: 2, DisplayName: "Kim Lee"}},
		{Split: Split{UserID: 3, Amount: Money{Cents: 60000}}, User: User{ID: 3, DisplayName: "Mike Rodriguez"}},
	}
	groceries := detail(2, "Costco Run", 15688, may.AddDate(0, 0, 17), catGroceries)
	groceries.Splits = []SplitWithUser{
		{Split: Split{UserID: 1, Amount: Money{Cents: 7844}, IsPaid: true}, User: User{ID: 1, DisplayName: "Jamie Smith"}},
		{Split: Split{UserID: 2, Amount: Money{Cents: 7844}}, User: User{ID: 2, DisplayName: "Kim Lee"}},
	}
	old := detail(3, "April Internet", 7999, apr, catInternet)
	return []ExpenseDetails{rent, groceries, old}
}

func TestBuildReportFiltersWindow(t *testing.T) {
	window := TimeWindow{
		From: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
	}
	rep, err := BuildReport(reportExpenses(), window, GroupByCategory)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if rep.Total.Cents != 195688 {
		t.Fatalf("windowed total = %d, want 195688 (April expense excluded)", rep.Total.Cents)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rep.Rows))
	}
	if rep.Rows[0].Label != "Rent" {
		t.Fatalf("rows not sorted by total desc: first is %q", rep.Rows[0].Label)
	}
}

func TestBuildReportOpenWindow(t *testing.T) {
	rep, err := BuildReport(reportExpenses(), TimeWindow{}, GroupByCategory)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if rep.Total.Cents != 195688+7999 {
		t.Fatalf("open-window total = %d, want %d", rep.Total.Cents, 195688+7999)
	}
}

func TestBuildReportByMonth(t *testing.T) {
	rep, err := BuildReport(reportExpenses(), TimeWindow{}, GroupByMonth)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("got %d month rows, want 2", len(rep.Rows))
	}
	// Month rows are chronological, not total-descending.
	if rep.Rows[0].Key != "2026-04" || rep.Rows[1].Key != "2026-05" {
		t.Fatalf("month rows out of order: %q, %q", rep.Rows[0].Key, rep.Rows[1].Key)
	}
	if rep.Rows[0].Label != "April 2026" {
		t.Fatalf("month label = %q, want %q", rep.Rows[0].Label, "April 2026")
	}
	if rep.Rows[1].Total.Cents != 195688 {
		t.Fatalf("May total = %d, want 195688", rep.Rows[1].Total.Cents)
	}
}

func TestBuildReportByMember(t *testing.T) {
	window := TimeWindow{From: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	rep, err := BuildReport(reportExpenses(), window, GroupByMember)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	totals := make(map[string]int64)
	for _, row := range rep.Rows {
		totals[row.Label] = row.Total.Cents
	}
	if totals["Jamie Smith"] != 67844 {
		t.Fatalf("Jamie's share = %d, want 67844", totals["Jamie Smith"])
	}
	if totals["Kim Lee"] != 67844 {
		t.Fatalf("Kim's share = %d, want 67844", totals["Kim Lee"])
	}
	if totals["Mike Rodriguez"] != 60000 {
		t.Fatalf("Mike's share = %d, want 60000", totals["Mike Rodriguez"])
	}
	// Member shares partition the window total exactly.
	if rep.Total.Cents != 195688 {
		t.Fatalf("member report total = %d, want 195688", rep.Total.Cents)
	}
}

func TestBuildReportInvalidInput(t *testing.T) {
	badWindow := TimeWindow{
		From: time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := BuildReport(nil, badWindow, GroupByCategory); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}
	if _, err := BuildReport(nil, TimeWindow{}, Grouping("week")); !errors.Is(err, ErrInvalidGrouping) {
		t.Fatalf("expected invalid grouping, got %v", err)
	}
}

func TestParseGrouping(t *testing.T) {
	for _, ok := range []string{"category", "member", "month"} {
		if _, err := ParseGrouping(ok); err != nil {
			t.Fatalf("ParseGrouping(%q): %v", ok, err)
		}
	}
	if _, err := ParseGrouping("week"); !errors.Is(err, ErrInvalidGrouping) {
		t.Fatalf("expected invalid grouping, got %v", err)
	}
}
