package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-matcher/internal/jobs"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	ctx := context.Background()
	store, err := OpenSQL(ctx, DriverSQLite, filepath.Join(t.TempDir(), "jobs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrations must be idempotent")

	store.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return store
}

func samplePosting(title, posted string) *jobs.Posting {
	return &jobs.Posting{
		Title:            title,
		Company:          "Acme",
		Department:       "Engineering",
		Location:         "Remote",
		Type:             "Full-time",
		Level:            "senior",
		Salary:           jobs.Salary{Min: 100, Max: 200},
		Description:      "Build things.",
		Requirements:     []string{"5+ years"},
		Responsibilities: []string{"Ship"},
		Skills:           []string{"Go", "SQL"},
		PostedDate:       posted,
		Remote:           true,
	}
}

func TestSQLStoreInsertAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newSQLiteStore(t)

	inserted, err := store.Insert(ctx, samplePosting("Backend Engineer", ""))
	require.NoError(t, err)
	require.NotEmpty(t, inserted.ID)
	assert.Equal(t, "2025-03-01", inserted.PostedDate)
	assert.Equal(t, jobs.LevelSenior, inserted.Level)

	got, err := store.Get(ctx, inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, inserted, got)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreRejectsInvalidPosting(t *testing.T) {
	t.Parallel()

	store := newSQLiteStore(t)

	bad := samplePosting("Backend Engineer", "")
	bad.Salary = jobs.Salary{Min: 300, Max: 100}

	_, err := store.Insert(context.Background(), bad)
	require.Error(t, err)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLStoreAllNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newSQLiteStore(t)

	for _, p := range []*jobs.Posting{
		samplePosting("Old", "2024-01-01"),
		samplePosting("New", "2025-01-01"),
		samplePosting("Middle", "2024-06-01"),
	} {
		_, err := store.Insert(ctx, p)
		require.NoError(t, err)
	}

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, all.Len())

	titles := []string{all.Items[0].Title, all.Items[1].Title, all.Items[2].Title}
	assert.Equal(t, []string{"New", "Middle", "Old"}, titles)
	assert.Equal(t, []string{"Go", "SQL"}, all.Items[0].Skills)
	assert.True(t, all.Items[0].Remote)
}

func TestSQLStoreImportIsAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newSQLiteStore(t)

	invalid := samplePosting("", "2025-01-01")
	_, err := store.Import(ctx, jobs.NewPostings(samplePosting("A", "2025-01-01"), invalid))
	require.Error(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	imported, err := store.Import(ctx, jobs.NewPostings(samplePosting("A", "2025-01-01"), samplePosting("B", "2025-01-02")))
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := &SQLStore{placeholder: func(n int) string { return "$" + string(rune('0'+n)) }}
	assert.Equal(t, "SELECT * FROM jobs WHERE id = $1 AND level = $2", pg.rebind("SELECT * FROM jobs WHERE id = ? AND level = ?"))

	lite := &SQLStore{placeholder: func(int) string { return "?" }}
	assert.Equal(t, "WHERE id = ?", lite.rebind("WHERE id = ?"))
}

func TestOpenSQLUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenSQL(context.Background(), "oracle", "dsn", nil)
	assert.Error(t, err)
}
