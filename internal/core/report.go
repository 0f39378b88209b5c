package core

import (
	"sort"
	"strconv"
	"time"
)

// Grouping selects the report's aggregation key.
type Grouping string

const (
	GroupByCategory Grouping = "category"
	GroupByMember   Grouping = "member"
	GroupByMonth    Grouping = "month"
)

// ParseGrouping validates a caller-supplied grouping name.
func ParseGrouping(s string) (Grouping, error) {
	switch Grouping(s) {
	case GroupByCategory, GroupByMember, GroupByMonth:
		return Grouping(s), nil
	}
	return "", ErrInvalidGrouping
}

// TimeWindow bounds a report to expenses dated within [From, To]. A zero
// bound leaves that side open.
type TimeWindow struct {
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`
}

func (w TimeWindow) Validate() error {
	if !w.From.IsZero() && !w.To.IsZero() && w.To.Before(w.From) {
		return ErrInvalidWindow
	}
	return nil
}

func (w TimeWindow) contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// ReportRow is one aggregated bucket. Percentage follows the dashboard's
// independent-rounding rule.
type ReportRow struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Total      Money  `json:"total"`
	Percentage int    `json:"percentage"`
}

// Report is a time-windowed aggregation over a member's expenses.
type Report struct {
	Window  TimeWindow  `json:"window"`
	GroupBy Grouping    `json:"groupBy"`
	Total   Money       `json:"total"`
	Rows    []ReportRow `json:"rows"`
}

// BuildReport filters expenses to the window and aggregates them by the
// requested grouping. Category and member rows are ordered by total
// descending; month rows are chronological.
func BuildReport(expenses []ExpenseDetails, window TimeWindow, groupBy Grouping) (Report, error) {
	if err := window.Validate(); err != nil {
		return Report{}, err
	}

	filtered := make([]ExpenseDetails, 0, len(expenses))
	for _, e := range dedupeByID(expenses) {
		if window.contains(e.Date) {
			filtered = append(filtered, e)
		}
	}

	var rows []ReportRow
	switch groupBy {
	case GroupByCategory:
		rows = groupRows(filtered, func(e ExpenseDetails) (string, string, int64) {
			return strconv.FormatInt(e.Category.ID, 10), e.Category.Name, e.Amount.Cents
		})
	case GroupByMonth:
		rows = groupRows(filtered, func(e ExpenseDetails) (string, string, int64) {
			return e.Date.Format("2006-01"), e.Date.Format("January 2006"), e.Amount.Cents
		})
	case GroupByMember:
		rows = memberRows(filtered)
	default:
		return Report{}, ErrInvalidGrouping
	}

	var grand int64
	for _, r := range rows {
		grand += r.Total.Cents
	}
	for i := range rows {
		rows[i].Percentage = roundedPercentage(rows[i].Total.Cents, grand)
	}

	if groupBy == GroupByMonth {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	} else {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total.Cents > rows[j].Total.Cents })
	}

	return Report{Window: window, GroupBy: groupBy, Total: Money{Cents: grand}, Rows: rows}, nil
}

func groupRows(expenses []ExpenseDetails, bucket func(ExpenseDetails) (key, label string, cents int64)) []ReportRow {
	rows := make(map[string]*ReportRow)
	var order []string
	for _, e := range expenses {
		key, label, cents := bucket(e)
		row, ok := rows[key]
		if !ok {
			row = &ReportRow{Key: key, Label: label}
			rows[key] = row
			order = append(order, key)
		}
		row.Total.Cents += cents
	}
	out := make([]ReportRow, 0, len(order))
	for _, key := range order {
		if rows[key].Total.Cents > 0 {
			out = append(out, *rows[key])
		}
	}
	return out
}

// memberRows buckets by split owner rather than by expense, so each member's
// total is their owed share of the windowed expenses.
func memberRows(expenses []ExpenseDetails) []ReportRow {
	rows := make(map[string]*ReportRow)
	var order []string
	for _, e := range expenses {
		for _, s := range e.Splits {
			key := strconv.FormatInt(s.UserID, 10)
			row, ok := rows[key]
			if !ok {
				row = &ReportRow{Key: key, Label: s.User.DisplayName}
				rows[key] = row
				order = append(order, key)
			}
			row.Total.Cents += s.Amount.Cents
		}
	}
	out := make([]ReportRow, 0, len(order))
	for _, key := range order {
		if rows[key].Total.Cents > 0 {
			out = append(out, *rows[key])
		}
	}
	return out
}
