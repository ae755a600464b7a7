// internal/storage/sqlite/sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/storage"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Storage keeps expenses in a single sqlite file. Filtering and ordering
// happen in Go over the owner's rows.
type Storage struct {
	db *sql.DB
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database held on one connection.
func Open(path string) (*sql.DB, error) {
	if path != memoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return db, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_time_format=sqlite"
}

func (s *Storage) CreateExpense(ctx context.Context, userID string, e domain.NewExpense) (*domain.Expense, error) {
	date := e.Date.UTC().Round(0)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, title, amount, description, category, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, e.Title, e.Amount, e.Description, e.Category, date)
	if err != nil {
		return nil, classify(fmt.Errorf("insert expense: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &domain.Expense{
		ID:          id,
		UserID:      userID,
		Title:       e.Title,
		Amount:      e.Amount,
		Description: e.Description,
		Category:    e.Category,
		Date:        date,
	}, nil
}

func (s *Storage) ListExpenses(ctx context.Context, userID string, f domain.Filter) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, title, amount, description, category, date FROM expenses WHERE user_id = ?", userID)
	if err != nil {
		return nil, classify(fmt.Errorf("list expenses: %w", err))
	}
	defer rows.Close()

	var all []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		all = append(all, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("rows error: %w", err))
	}

	matched := f.Apply(all)
	domain.SortNewestFirst(matched)
	return matched, nil
}

func (s *Storage) GetExpense(ctx context.Context, userID string, id int64) (*domain.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, amount, description, category, date FROM expenses WHERE id = ? AND user_id = ?",
		id, userID)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, classify(fmt.Errorf("get expense: %w", err))
	}
	return e, nil
}

func (s *Storage) DeleteExpense(ctx context.Context, userID string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, classify(fmt.Errorf("delete expense: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Storage) Close() {
	s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanExpense reads amount loosely; rows written by older tools may hold text or reals.
func scanExpense(row scanner) (*domain.Expense, error) {
	var (
		e      domain.Expense
		amount any
		desc   sql.NullString
		date   time.Time
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &amount, &desc, &e.Category, &date); err != nil {
		return nil, err
	}
	e.Amount = domain.CoerceAmount(amount)
	if desc.Valid {
		e.Description = &desc.String
	}
	e.Date = date.UTC()
	return &e, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %w", storage.ErrTableMissing, err)
	}
	return err
}
