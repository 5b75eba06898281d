package artifacts

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// TestStore_WriteOnce tests the create, read back and duplicate guard.
func TestStore_WriteOnce(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	w, err := store.Create(ctx, "job-1")
	require.NoError(t, err)
	_, err = w.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = store.Create(ctx, "job-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	r, err := store.Open(ctx, "job-1")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "payload", string(data))

	assert.Contains(t, store.Path("job-1"), "job-1.out")
}

// TestStore_OpenMissing tests the not-found mapping.
func TestStore_OpenMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestStore_Remove tests removal and its idempotence.
func TestStore_Remove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	w, err := store.Create(ctx, "job-2")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, store.Remove(ctx, "job-2"))
	require.NoError(t, store.Remove(ctx, "job-2"))

	_, err = store.Open(ctx, "job-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
