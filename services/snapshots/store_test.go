package snapshots

import (
	"context"
	"testing"
	"time"

	"raspbot-backend/lib/testutil"
	"raspbot-backend/services/snapshots/db"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	require.Equal(
		t,
		"subscriber-1_ИС1-231-ОТ_2025-11-03",
		Key("subscriber-1", "ИС1-231-ОТ", "2025-11-03"),
	)
}

func TestStore(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/snapshots",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewStore(setup.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	key := Key("subscriber-1", "ИС1-231-ОТ", "2025-11-03")

	{
		_, ok, err := store.GetHash(ctx, key)
		require.NoError(t, err)
		require.False(t, ok)
	}
	{
		err := store.SaveHash(ctx, key, "deadbeef")
		require.NoError(t, err)

		hash, ok, err := store.GetHash(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "deadbeef", hash)
	}
	{
		// an empty hash is a legitimate value: it means the portal had
		// no pages, and it must round-trip distinguishably from unseen
		err := store.SaveHash(ctx, key, "")
		require.NoError(t, err)

		hash, ok, err := store.GetHash(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "", hash)
	}
	{
		err := store.SaveHash(ctx, key, "cafebabe")
		require.NoError(t, err)

		hash, ok, err := store.GetHash(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "cafebabe", hash)
	}
	{
		other := Key("subscriber-2", "ИС1-231-ОТ", "2025-11-03")
		_, ok, err := store.GetHash(ctx, other)
		require.NoError(t, err)
		require.False(t, ok)
	}
}
