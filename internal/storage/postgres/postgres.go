// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"syscall"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const undefinedTable = "42P01"

const expenseColumns = "id, user_id, title, amount, description, category, date"

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, classify(fmt.Errorf("create pool: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, classify(fmt.Errorf("ping: %w", err))
	}
	return pool, nil
}

func (s *Storage) CreateExpense(ctx context.Context, userID string, e domain.NewExpense) (*domain.Expense, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO expenses (user_id, title, amount, description, category, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+expenseColumns,
		userID, e.Title, e.Amount, e.Description, e.Category, e.Date.UTC())

	created, err := scanExpense(row)
	if err != nil {
		return nil, classify(fmt.Errorf("insert expense: %w", err))
	}
	slog.Debug("expense inserted", "id", created.ID, "user_id", userID)
	return created, nil
}

// ListExpenses pushes every filter into the query; the calendar is UTC.
func (s *Storage) ListExpenses(ctx context.Context, userID string, f domain.Filter) ([]domain.Expense, error) {
	query, args := listQuery(userID, f)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("list expenses: %w", err))
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, classify(fmt.Errorf("scan expense: %w", err))
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("rows error: %w", err))
	}
	return expenses, nil
}

func listQuery(userID string, f domain.Filter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.Month != 0 {
		add("EXTRACT(MONTH FROM date AT TIME ZONE 'UTC') = ?", f.Month)
	}
	if f.Year != 0 {
		add("EXTRACT(YEAR FROM date AT TIME ZONE 'UTC') = ?", f.Year)
	}
	if f.Category != "" {
		add("category = ?", f.Category)
	}

	query := "SELECT " + expenseColumns + " FROM expenses WHERE " +
		strings.Join(conds, " AND ") + " ORDER BY date DESC, id ASC"
	return query, args
}

func (s *Storage) GetExpense(ctx context.Context, userID string, id int64) (*domain.Expense, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = $1 AND user_id = $2", id, userID)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, classify(fmt.Errorf("get expense: %w", err))
	}
	return e, nil
}

func (s *Storage) DeleteExpense(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := s.db.Exec(ctx, "DELETE FROM expenses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, classify(fmt.Errorf("delete expense: %w", err))
	}
	return result.RowsAffected() > 0, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return classify(s.db.Ping(ctx))
}

func (s *Storage) Close() {
	s.db.Close()
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Description, &e.Category, &e.Date); err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	return &e, nil
}

// classify tags driver errors with the storage sentinels so handlers can tell
// a missing schema from an unreachable server. The driver error stays wrapped.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %w", storage.ErrTableMissing, err)
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return err
}
