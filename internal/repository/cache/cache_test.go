package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, path, producer string) *BoltRepository {
	t.Helper()

	repo, err := Open(context.Background(), path, producer)
	require.NoError(t, err)

	return repo
}

// TestRepository_PutGet stores and returns a payload.
func TestRepository_PutGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTemp(t, filepath.Join(t.TempDir(), "cache.db"), "excel-form-extractor/1.0.0")

	defer func() {
		require.NoError(t, repo.Close())
	}()

	stored := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return stored }

	key := Key([]byte("workbook"), []string{"Amazon"})

	_, err := repo.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Put(ctx, key, []byte(`{"buyer_details":null}`)))

	entry, err := repo.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `{"buyer_details":null}`, string(entry.Payload))
	require.Equal(t, "excel-form-extractor/1.0.0", entry.Producer)
	require.True(t, stored.Equal(entry.StoredAt))
}

// TestRepository_ProducerMismatch treats entries of another version as misses.
func TestRepository_ProducerMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	key := Key([]byte("workbook"), nil)

	old := openTemp(t, path, "excel-form-extractor/0.9.0")
	require.NoError(t, old.Put(ctx, key, []byte("{}")))
	require.NoError(t, old.Close())

	current := openTemp(t, path, "excel-form-extractor/1.0.0")

	defer func() {
		require.NoError(t, current.Close())
	}()

	_, err := current.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	removed, err := current.Prune(ctx, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}

// TestRepository_Prune drops entries older than the cutoff.
func TestRepository_Prune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTemp(t, filepath.Join(t.TempDir(), "cache.db"), "p")

	defer func() {
		require.NoError(t, repo.Close())
	}()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Put(ctx, []byte("old"), []byte("1")))

	repo.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, repo.Put(ctx, []byte("new"), []byte("2")))

	removed, err := repo.Prune(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get(ctx, []byte("old"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Get(ctx, []byte("new"))
	require.NoError(t, err)
}

// TestOpen_RecoversInvalidFile replaces a corrupt cache file.
func TestOpen_RecoversInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, os.WriteFile(path, make([]byte, 64<<10), 0o600))

	repo := openTemp(t, path, "p")

	defer func() {
		require.NoError(t, repo.Close())
	}()

	require.NoError(t, repo.Put(context.Background(), []byte("k"), []byte("v")))
}

// TestKey ignores company name order and duplicates.
func TestKey(t *testing.T) {
	t.Parallel()

	a := Key([]byte("wb"), []string{"Amazon", "Amazon Inc"})
	b := Key([]byte("wb"), []string{"Amazon Inc", "Amazon", "Amazon"})
	c := Key([]byte("wb"), []string{"Amazon"})
	d := Key([]byte("other"), []string{"Amazon", "Amazon Inc"})

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.NotEqual(t, a, d)
	require.Len(t, a, 64)
}
