// internal/domain/models.go
package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Expense is the only persisted entity. Amount is in whole rupees.
type Expense struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Amount      int64     `json:"amount"`
	Description *string   `json:"description"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

// NewExpense is a validated draft: amount already rounded, date already set.
type NewExpense struct {
	Title       string
	Amount      int64
	Description *string
	Category    string
	Date        time.Time
}

// Filter narrows an owner's expenses. Zero fields mean "no constraint".
type Filter struct {
	Month    int
	Year     int
	Category string
}

// Match applies every set field conjunctively, on the UTC calendar.
func (f Filter) Match(e Expense) bool {
	d := e.Date.UTC()
	if f.Month != 0 && int(d.Month()) != f.Month {
		return false
	}
	if f.Year != 0 && d.Year() != f.Year {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	return true
}

// Apply returns the expenses matching f, preserving order.
func (f Filter) Apply(list []Expense) []Expense {
	out := make([]Expense, 0, len(list))
	for _, e := range list {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SortNewestFirst orders by date descending; equal dates keep insertion (id) order.
func SortNewestFirst(list []Expense) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
}

// CoerceAmount turns a raw stored amount into an integer. Anything that is not
// a number counts as zero.
func CoerceAmount(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case []byte:
		return CoerceAmount(string(n))
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

// CategoryTotal is one entry of the per-category breakdown.
type CategoryTotal struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
	Count    int    `json:"count"`
}

// DayTotal is one trend bucket; Date is YYYY-MM-DD.
type DayTotal struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// Stats is the dashboard payload.
type Stats struct {
	Total        int64           `json:"total"`
	ByCategory   []CategoryTotal `json:"byCategory"`
	Recent       []Expense       `json:"recent"`
	MonthlyTrend []DayTotal      `json:"monthlyTrend"`
}
