package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

func TestMemoryGetAbsentPlate(t *testing.T) {
	store := NewMemory()

	_, err := store.Get(context.Background(), "ABC123")
	assert.ErrorIs(t, err, toll.ErrPlateNotFound)
}

func TestMemoryUpsertAndGet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	rec := toll.PlateRecord{
		Plate:      "ABC123",
		Status:     toll.StatusInside,
		EntryPoint: 9,
		EntryAt:    time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	rec.Status = toll.StatusOutside
	rec.LastExitPoint = 4
	require.NoError(t, store.Upsert(ctx, rec))

	got, err = store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestMemoryClose(t *testing.T) {
	assert.NoError(t, NewMemory().Close())
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"memory":  {cfg: Config{Type: StoreTypeMemory}},
		"default": {cfg: Config{}},
		"unknown": {cfg: Config{Type: "etcd"}, wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			store, err := New(test.cfg)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, &Memory{}, store)
		})
	}
}
