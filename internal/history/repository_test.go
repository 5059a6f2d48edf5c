package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sud/internal/structures"
)

func newTestRepository(t *testing.T) RepositoryInterface {
	conf := &structures.Config{
		History: structures.HistoryConfig{
			DBPath: filepath.Join(t.TempDir(), "history.db"),
		},
	}
	repo, err := NewRepository(conf)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_AddMinutes_CreatesRow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.AddMinutes(ctx, "2026-03-10", 5))

	minutes, err := repo.Minutes(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 5, minutes)
}

func TestRepository_AddMinutes_Accumulates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.AddMinutes(ctx, "2026-03-10", 5))
	require.NoError(t, repo.AddMinutes(ctx, "2026-03-10", 3))

	minutes, err := repo.Minutes(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 8, minutes)
}

func TestRepository_Minutes_MissingDay(t *testing.T) {
	repo := newTestRepository(t)

	minutes, err := repo.Minutes(context.Background(), "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, minutes)
}

func TestRepository_Recent_NewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.AddMinutes(ctx, "2026-03-08", 10))
	require.NoError(t, repo.AddMinutes(ctx, "2026-03-09", 20))
	require.NoError(t, repo.AddMinutes(ctx, "2026-03-10", 30))

	rows, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-03-10", rows[0].Date)
	assert.Equal(t, "2026-03-09", rows[1].Date)
}

func TestRepository_BeforeAndDeleteBefore(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.AddMinutes(ctx, "2025-12-30", 10))
	require.NoError(t, repo.AddMinutes(ctx, "2025-12-31", 20))
	require.NoError(t, repo.AddMinutes(ctx, "2026-03-09", 30))
	require.NoError(t, repo.AddMinutes(ctx, "2026-03-10", 40))

	old, err := repo.Before(ctx, "2026-01-01")
	require.NoError(t, err)
	require.Len(t, old, 2)
	assert.Equal(t, "2025-12-30", old[0].Date)
	assert.Equal(t, "2025-12-31", old[1].Date)

	deleted, err := repo.DeleteBefore(ctx, "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepository_Count(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, repo.AddMinutes(ctx, "2026-03-10", 1))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_NoopWithoutPath(t *testing.T) {
	repo, err := NewRepository(&structures.Config{})
	require.NoError(t, err)

	_, ok := repo.(*noopRepository)
	assert.True(t, ok)

	ctx := context.Background()
	assert.NoError(t, repo.AddMinutes(ctx, "2026-03-10", 5))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
