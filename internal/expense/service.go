// internal/expense/service.go
package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/stats"
	"expense-tracker/internal/storage"
	"expense-tracker/internal/validator"
)

// RecentLimit is how many expenses the dashboard shows as "recent".
const RecentLimit = 5

// Service is the owner-scoped repository every surface talks to.
type Service struct {
	store storage.ExpenseStorage
	now   func() time.Time
}

func NewService(store storage.ExpenseStorage) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) List(ctx context.Context, owner string, f domain.Filter) ([]domain.Expense, error) {
	list, err := s.store.ListExpenses(ctx, owner, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}

// Create validates d and stores it for owner. A validation failure comes back
// as *validator.Error and nothing is written.
func (s *Service) Create(ctx context.Context, owner string, d domain.Draft) (*domain.Expense, error) {
	if err := validator.Struct(d); err != nil {
		return nil, err
	}

	date := s.now().UTC()
	if d.Date != nil {
		date = d.Date.UTC()
	}

	created, err := s.store.CreateExpense(ctx, owner, domain.NewExpense{
		Title:       strings.TrimSpace(d.Title),
		Amount:      d.Amount.Whole(),
		Description: d.Description,
		Category:    d.Category,
		Date:        date,
	})
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	slog.Info("expense created",
		"user_id", owner,
		"id", created.ID,
		"amount", created.Amount,
		"category", created.Category,
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, owner string, id int64) (*domain.Expense, error) {
	e, err := s.store.GetExpense(ctx, owner, id)
	if err != nil {
		return nil, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// Delete makes sure no expense id belongs to owner afterwards. Deleting
// a missing or foreign id succeeds without touching anything.
func (s *Service) Delete(ctx context.Context, owner string, id int64) error {
	removed, err := s.store.DeleteExpense(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if removed {
		slog.Info("expense deleted", "user_id", owner, "id", id)
	} else {
		slog.Debug("delete matched nothing", "user_id", owner, "id", id)
	}
	return nil
}

// Stats aggregates the owner's expenses for an optional month and year.
func (s *Service) Stats(ctx context.Context, owner string, month, year int) (domain.Stats, error) {
	list, err := s.store.ListExpenses(ctx, owner, domain.Filter{Month: month, Year: year})
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats: %w", err)
	}
	out := stats.Compute(list)
	out.Recent = stats.Recent(list, RecentLimit)
	return out, nil
}
