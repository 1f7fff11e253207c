//go:build integration

package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2dat/internal/npcdata"
	"github.com/udisondev/la2dat/internal/testutil"
)

func setupStore(tb testing.TB) *Store {
	tb.Helper()
	ctx := testutil.ContextWithTimeout(tb, time.Minute)

	store, err := New(ctx, testutil.SetupTestDB(tb))
	if err != nil {
		tb.Fatalf("connecting to test db: %v", err)
	}
	tb.Cleanup(store.Close)

	if err := store.Migrate(ctx); err != nil {
		tb.Fatalf("running migrations: %v", err)
	}
	return store
}

func TestStore_SaveAndSnapshot(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	set := npcdata.Set{
		29001: {
			ID:   29001,
			Name: "Queen Ant",
			Type: npcdata.TypeGrandBoss,
			Stats: npcdata.Stats{
				Level: 40, HP: 229898, MP: 667, Exp: 1128519, SP: 100000,
				PAtk: 1250, PDef: 590, MAtk: 856, MDef: 430, Aggressive: true,
			},
			Drops: []npcdata.DropEntry{
				{ItemID: 57, Min: 40000, Max: 60000, Chance: 1, Name: "Adena"},
				{ItemID: 6660, Min: 1, Max: 1, Chance: 0.0005, Name: "Ring of Queen Ant"},
			},
			Spoils: []npcdata.DropEntry{},
		},
		20001: {
			ID:     20001,
			Name:   "Gremlin",
			Type:   npcdata.TypeMonster,
			Stats:  npcdata.Stats{Level: 2, Herbs: true},
			Drops:  []npcdata.DropEntry{},
			Spoils: []npcdata.DropEntry{{ItemID: 1869, Min: 1, Max: 2, Chance: 0.125, Name: "Iron Ore"}},
		},
	}

	require.NoError(t, store.Save(ctx, set))

	got, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, set, got)

	// Save replaces the previous set.
	delete(set, 29001)
	require.NoError(t, store.Save(ctx, set))
	got, err = store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int32{20001}, got.IDs())
}

func TestStore_MigrateIdempotent(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.Migrate(context.Background()))
}
