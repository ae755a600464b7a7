// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"expense-tracker/internal/domain"
)

var (
	// ErrNotFound means no expense with that id belongs to the caller.
	ErrNotFound = errors.New("expense not found")
	// ErrTableMissing means the schema has not been migrated.
	ErrTableMissing = errors.New("expenses table does not exist")
	// ErrUnavailable means the database could not be reached.
	ErrUnavailable = errors.New("database connection failed")
)

// ExpenseStorage is the persistence adapter. Every method is scoped to userID;
// no implementation may return or touch a row owned by anyone else.
type ExpenseStorage interface {
	CreateExpense(ctx context.Context, userID string, e domain.NewExpense) (*domain.Expense, error)
	// ListExpenses returns the owner's expenses matching f, newest first.
	ListExpenses(ctx context.Context, userID string, f domain.Filter) ([]domain.Expense, error)
	GetExpense(ctx context.Context, userID string, id int64) (*domain.Expense, error)
	// DeleteExpense reports whether a row was removed. A missing or foreign id is not an error.
	DeleteExpense(ctx context.Context, userID string, id int64) (bool, error)
	Ping(ctx context.Context) error
	Close()
}
