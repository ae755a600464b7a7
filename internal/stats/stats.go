// Package stats turns a list of expenses into dashboard figures.
package stats

import (
	"sort"

	"expense-tracker/internal/domain"
)

// TrendDateLayout buckets the trend series by calendar day.
const TrendDateLayout = "2006-01-02"

// Compute returns the total, the per-category breakdown and the daily trend of
// list. Categories appear in the order they are first seen in list; the trend is
// ascending by date. Recent is left empty, see Recent.
func Compute(list []domain.Expense) domain.Stats {
	out := domain.Stats{
		ByCategory:   []domain.CategoryTotal{},
		Recent:       []domain.Expense{},
		MonthlyTrend: []domain.DayTotal{},
	}

	catIndex := make(map[string]int)
	dayTotals := make(map[string]int64)

	for _, e := range list {
		out.Total += e.Amount

		i, ok := catIndex[e.Category]
		if !ok {
			i = len(out.ByCategory)
			catIndex[e.Category] = i
			out.ByCategory = append(out.ByCategory, domain.CategoryTotal{Category: e.Category})
		}
		out.ByCategory[i].Amount += e.Amount
		out.ByCategory[i].Count++

		dayTotals[e.Date.UTC().Format(TrendDateLayout)] += e.Amount
	}

	for day, amount := range dayTotals {
		out.MonthlyTrend = append(out.MonthlyTrend, domain.DayTotal{Date: day, Amount: amount})
	}
	sort.Slice(out.MonthlyTrend, func(i, j int) bool {
		return out.MonthlyTrend[i].Date < out.MonthlyTrend[j].Date
	})

	return out
}

// Recent returns the first n expenses of an already sorted list.
func Recent(list []domain.Expense, n int) []domain.Expense {
	switch {
	case n < 0:
		n = 0
	case n > len(list):
		n = len(list)
	}
	out := make([]domain.Expense, n)
	copy(out, list[:n])
	return out
}
