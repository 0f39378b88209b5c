package core

import (
	"math"
	"sort"
)

// CategoryTotal is one row of the dashboard's category breakdown.
//
// Percentage is round(total/grandTotal*100), rounded independently per row.
// Rows do not necessarily sum to exactly 100; that drift is accepted, not
// corrected.
type CategoryTotal struct {
	Category   Category `json:"category"`
	Total      Money    `json:"total"`
	Percentage int      `json:"percentage"`
}

// DashboardSummary is the read-side projection behind a member's dashboard.
type DashboardSummary struct {
	TotalExpenses      Money            `json:"totalExpenses"`
	UserShare          Money            `json:"userShare"`
	OutstandingAmount  Money            `json:"outstandingAmount"`
	RoommateCount      int              `json:"roommateCount"`
	RecentExpenses     []ExpenseDetails `json:"recentExpenses"`
	ExpensesByCategory []CategoryTotal  `json:"expensesByCategory"`
}

const recentExpenseLimit = 5

// BuildDashboard composes a member's summary from a snapshot of their
// associated expenses (created by them or split with them) and their own
// splits. Pure projection: it is recomputed on every call and keeps no state.
func BuildDashboard(expenses []ExpenseDetails, userSplits []Split, roommateCount int) DashboardSummary {
	expenses = dedupeByID(expenses)

	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}

	recent := make([]ExpenseDetails, len(expenses))
	copy(recent, expenses)
	// Stable sort so same-date expenses keep their listing order.
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.After(recent[j].Date)
	})
	if len(recent) > recentExpenseLimit {
		recent = recent[:recentExpenseLimit]
	}

	return DashboardSummary{
		TotalExpenses:      Money{Cents: total},
		UserShare:          TotalShare(userSplits),
		OutstandingAmount:  OutstandingAmount(userSplits),
		RoommateCount:      roommateCount,
		RecentExpenses:     recent,
		ExpensesByCategory: groupByCategory(expenses, total),
	}
}

func groupByCategory(expenses []ExpenseDetails, grandTotal int64) []CategoryTotal {
	totals := make(map[int64]*CategoryTotal)
	var order []int64
	for _, e := range expenses {
		row, ok := totals[e.Category.ID]
		if !ok {
			row = &CategoryTotal{Category: e.Category}
			totals[e.Category.ID] = row
			order = append(order, e.Category.ID)
		}
		row.Total.Cents += e.Amount.Cents
	}

	rows := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		row := *totals[id]
		if row.Total.Cents <= 0 {
			continue
		}
		row.Percentage = roundedPercentage(row.Total.Cents, grandTotal)
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.Cents > rows[j].Total.Cents
	})
	return rows
}

func roundedPercentage(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func dedupeByID(expenses []ExpenseDetails) []ExpenseDetails {
	seen := make(map[int64]bool, len(expenses))
	out := expenses[:0:0]
	for _, e := range expenses {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}
