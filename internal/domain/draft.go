// internal/domain/draft.go
package domain

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is unvalidated expense input: no id, no owner.
type Draft struct {
	Title       string     `json:"title" validate:"required,notblank"`
	Amount      Amount     `json:"amount" validate:"gte=1,lte=1000000000000"`
	Description *string    `json:"description"`
	Category    string     `json:"category" validate:"required,expensecategory"`
	Date        *Date      `json:"date"`
}

// Amount accepts a JSON number or a numeric string, the way form inputs send it.
type Amount struct {
	decimal.Decimal
}

// AmountError is returned when an amount cannot be read as a number.
type AmountError struct {
	Raw string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("amount %q is not a number", e.Raw)
}

// NewAmount wraps a float, mostly for callers that already parsed one.
func NewAmount(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

// ParseAmount reads a decimal string, ignoring surrounding space.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, &AmountError{Raw: s}
	}
	return Amount{Decimal: d}, nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	parsed, err := ParseAmount(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Whole rounds half-up to whole rupees: 2.5 becomes 3, 2.49 becomes 2.
func (a Amount) Whole() int64 {
	return a.Round(0).IntPart()
}

// dateLayouts are tried in order. Zone-less forms are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Date accepts a full timestamp or the bare YYYY-MM-DD a date input sends.
type Date struct {
	time.Time
}

// DateOf wraps t as a Date.
func DateOf(t time.Time) *Date {
	return &Date{Time: t}
}

// ParseDate returns the RFC 3339 *time.ParseError when no layout matches.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	var first error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Date{Time: t.UTC()}, nil
		}
		if first == nil {
			first = err
		}
	}
	return Date{}, first
}

func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return &time.ParseError{Layout: time.RFC3339, Value: string(b), Message: ": date must be a JSON string"}
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
