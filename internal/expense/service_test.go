package expense

import (
	"context"
	"errors"
	"testing"
	"time"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/storage"
	"expense-tracker/internal/storage/sqlite"
	"expense-tracker/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(ctx, db))
	store := sqlite.NewStorage(db)
	t.Cleanup(store.Close)
	return NewService(store)
}

func at(y int, m time.Month, d int) *domain.Date {
	return domain.DateOf(time.Date(y, m, d, 8, 30, 0, 0, time.UTC))
}

func TestCreateRoundsAndTrims(t *testing.T) {
	svc := newTestService(t)
	e, err := svc.Create(context.Background(), "alice", domain.Draft{
		Title:    "  Coffee ",
		Amount:   domain.NewAmount(2.5),
		Category: "Food",
		Date:     at(2025, time.May, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.Amount)
	assert.Equal(t, "Coffee", e.Title)
	assert.Equal(t, "alice", e.UserID)
}

func TestCreateDefaultsDateToNow(t *testing.T) {
	svc := newTestService(t)
	fixed := time.Date(2025, time.June, 7, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	e, err := svc.Create(context.Background(), "alice", domain.Draft{
		Title:    "Bus",
		Amount:   domain.NewAmount(40),
		Category: "Travel",
	})
	require.NoError(t, err)
	assert.True(t, e.Date.Equal(fixed))
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", domain.Draft{Title: "X", Amount: domain.NewAmount(0), Category: "Food"})
	var verr *validator.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Amount must be positive"}, verr.Messages)

	list, err := svc.List(ctx, "alice", domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetAndDeleteAreOwnerScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, "alice", domain.Draft{Title: "Rent", Amount: domain.NewAmount(900), Category: "Housing"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bob", e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "bob", e.ID))
	got, err := svc.Get(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, "alice", e.ID))
	_, err = svc.Get(ctx, "alice", e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// already gone
	require.NoError(t, svc.Delete(ctx, "alice", e.ID))
}

func TestStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	drafts := []domain.Draft{
		{Title: "Lunch", Amount: domain.NewAmount(100), Category: "Food", Date: at(2025, time.January, 2)},
		{Title: "Dinner", Amount: domain.NewAmount(50), Category: "Food", Date: at(2025, time.January, 2)},
		{Title: "Power", Amount: domain.NewAmount(200), Category: "Bills", Date: at(2025, time.January, 3)},
		{Title: "Old", Amount: domain.NewAmount(999), Category: "Other", Date: at(2024, time.December, 31)},
	}
	for _, d := range drafts {
		_, err := svc.Create(ctx, "alice", d)
		require.NoError(t, err)
	}

	got, err := svc.Stats(ctx, "alice", 1, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(350), got.Total)
	assert.Equal(t, []domain.CategoryTotal{
		{Category: "Bills", Amount: 200, Count: 1},
		{Category: "Food", Amount: 150, Count: 2},
	}, got.ByCategory)
	assert.Equal(t, []domain.DayTotal{
		{Date: "2025-01-02", Amount: 150},
		{Date: "2025-01-03", Amount: 200},
	}, got.MonthlyTrend)
	require.Len(t, got.Recent, 3)
	assert.Equal(t, "Power", got.Recent[0].Title)

	all, err := svc.Stats(ctx, "alice", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1349), all.Total)
}

func TestStatsRecentCapsAtFive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		_, err := svc.Create(ctx, "alice", domain.Draft{
			Title: "Item", Amount: domain.NewAmount(1), Category: "Other", Date: at(2025, time.March, i),
		})
		require.NoError(t, err)
	}

	got, err := svc.Stats(ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, got.Recent, RecentLimit)
	assert.Equal(t, 7, got.Recent[0].Date.Day())
	assert.Equal(t, int64(7), got.Total)
}

func TestStatsEmpty(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.Stats(context.Background(), "nobody", 0, 0)
	require.NoError(t, err)
	assert.Zero(t, got.Total)
	assert.NotNil(t, got.ByCategory)
	assert.NotNil(t, got.Recent)
	assert.NotNil(t, got.MonthlyTrend)
}
