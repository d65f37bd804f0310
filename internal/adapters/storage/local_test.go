package storage_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStorage(t.TempDir(), helpers.TestLogger())

	key := storage.ImportKey("restock.xlsx", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	assert.Contains(t, key, "imports/2025/03/01/")
	assert.Contains(t, key, ".xlsx")

	_, err := store.Upload(ctx, key, bytes.NewReader([]byte("payload")), "")
	require.NoError(t, err)

	data, err := store.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Download(ctx, key)
	assert.Error(t, err)

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	store := storage.NewLocalStorage(t.TempDir(), helpers.TestLogger())

	for _, key := range []string{"../outside", "a/../../b", ""} {
		_, err := store.Upload(context.Background(), key, bytes.NewReader(nil), "")
		assert.ErrorIs(t, err, storage.ErrInvalidKey, key)
	}
}
