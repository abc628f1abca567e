package toll_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminclauss/tollgate/internal/ledger"
	"github.com/benjaminclauss/tollgate/internal/toll"
)

func TestMachineEntryThenExit(t *testing.T) {
	store := ledger.NewMemory()
	machine := toll.NewMachine(store)
	ctx := context.Background()

	entryAt := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	entered, err := machine.Apply(ctx, "ABC123", "ENTRY", "9", entryAt)
	require.NoError(t, err)
	assert.Equal(t, toll.Entry, entered.Action)
	assert.Equal(t, "ABC123", entered.Plate)
	assert.Equal(t, 9, entered.Point)
	assert.Equal(t, 9, entered.EntryPoint)
	assert.Equal(t, entryAt, entered.EntryAt)

	rec, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, toll.StatusInside, rec.Status)
	assert.Equal(t, 9, rec.EntryPoint)
	assert.Equal(t, entryAt, rec.EntryAt)

	exitAt := entryAt.Add(42 * time.Minute)
	exited, err := machine.Apply(ctx, "ABC123", "EXIT", "4", exitAt)
	require.NoError(t, err)
	assert.Equal(t, toll.Exit, exited.Action)
	assert.Equal(t, 4, exited.Point)
	// The exit transition carries the entry it closes.
	assert.Equal(t, 9, exited.EntryPoint)
	assert.Equal(t, entryAt, exited.EntryAt)

	rec, err = store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, toll.StatusOutside, rec.Status)
	assert.Equal(t, 4, rec.LastExitPoint)
	assert.Equal(t, exitAt, rec.LastExitAt)
	assert.Zero(t, rec.EntryPoint)
	assert.True(t, rec.EntryAt.IsZero())
}

func TestMachineValidation(t *testing.T) {
	tests := map[string]struct {
		plate    string
		action   string
		point    string
		expected *toll.RequestError
	}{
		"empty plate":               {"", "ENTRY", "3", toll.ErrInvalidPlate},
		"whitespace plate":          {"   ", "ENTRY", "3", toll.ErrInvalidPlate},
		"punctuated plate":          {"AB-12", "ENTRY", "3", toll.ErrInvalidPlate},
		"unknown action":            {"ABC123", "HONK", "3", toll.ErrInvalidAction},
		"lowercase action":          {"ABC123", "entry", "3", toll.ErrInvalidAction},
		"non-numeric point":         {"ABC123", "ENTRY", "abc", toll.ErrInvalidPoint},
		"negative point":            {"ABC123", "ENTRY", "-1", toll.ErrInvalidPoint},
		"fractional point":          {"ABC123", "ENTRY", "9.5", toll.ErrInvalidPoint},
		"plate checked first":       {"", "HONK", "abc", toll.ErrInvalidPlate},
		"action checked over point": {"ABC123", "HONK", "abc", toll.ErrInvalidAction},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			store := ledger.NewMemory()
			machine := toll.NewMachine(store)

			transition, err := machine.Apply(context.Background(), test.plate, test.action, test.point, time.Now())
			assert.Nil(t, transition)
			var reqErr *toll.RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, test.expected.Kind, reqErr.Kind)
			assert.Equal(t, test.expected.Msg, reqErr.Msg)

			// Rejected requests never touch the ledger.
			_, err = store.Get(context.Background(), toll.NormalizePlate(test.plate))
			assert.ErrorIs(t, err, toll.ErrPlateNotFound)
		})
	}
}

func TestMachineExitWithoutEntry(t *testing.T) {
	store := ledger.NewMemory()
	machine := toll.NewMachine(store)

	transition, err := machine.Apply(context.Background(), "XYZ999", "EXIT", "1", time.Now())
	assert.Nil(t, transition)
	require.ErrorIs(t, err, toll.ErrVehicleNotInside)
	assert.Equal(t, "vehicle not currently inside", err.Error())

	_, err = store.Get(context.Background(), "XYZ999")
	assert.ErrorIs(t, err, toll.ErrPlateNotFound)
}

func TestMachineDoubleEntry(t *testing.T) {
	store := ledger.NewMemory()
	machine := toll.NewMachine(store)
	ctx := context.Background()

	firstAt := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	_, err := machine.Apply(ctx, "ABC123", "ENTRY", "9", firstAt)
	require.NoError(t, err)

	transition, err := machine.Apply(ctx, "ABC123", "ENTRY", "2", firstAt.Add(time.Minute))
	assert.Nil(t, transition)
	require.ErrorIs(t, err, toll.ErrVehicleInside)
	assert.Equal(t, "vehicle already inside", err.Error())

	// The original entry is untouched.
	rec, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, toll.StatusInside, rec.Status)
	assert.Equal(t, 9, rec.EntryPoint)
	assert.Equal(t, firstAt, rec.EntryAt)
}

func TestMachineDoubleExit(t *testing.T) {
	store := ledger.NewMemory()
	machine := toll.NewMachine(store)
	ctx := context.Background()

	_, err := machine.Apply(ctx, "ABC123", "ENTRY", "9", time.Now())
	require.NoError(t, err)
	_, err = machine.Apply(ctx, "ABC123", "EXIT", "4", time.Now())
	require.NoError(t, err)

	_, err = machine.Apply(ctx, "ABC123", "EXIT", "4", time.Now())
	assert.ErrorIs(t, err, toll.ErrVehicleNotInside)
}

func TestMachineReentryAfterExit(t *testing.T) {
	store := ledger.NewMemory()
	machine := toll.NewMachine(store)
	ctx := context.Background()

	for cycle := 0; cycle < 3; cycle++ {
		_, err := machine.Apply(ctx, "ABC123", "ENTRY", "1", time.Now())
		require.NoError(t, err)
		_, err = machine.Apply(ctx, "ABC123", "EXIT", "7", time.Now())
		require.NoError(t, err)
	}
}

func TestMachineNormalizesPlates(t *testing.T) {
	store := ledger.NewMemory()
	machine := toll.NewMachine(store)
	ctx := context.Background()

	entered, err := machine.Apply(ctx, "abc123", "ENTRY", "9", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ABC123", entered.Plate)

	// Any casing of the same plate addresses the same record.
	_, err = machine.Apply(ctx, "Abc123", "ENTRY", "2", time.Now())
	assert.ErrorIs(t, err, toll.ErrVehicleInside)

	_, err = machine.Apply(ctx, "ABC123", "EXIT", "4", time.Now())
	require.NoError(t, err)
}

func TestMachinePointZero(t *testing.T) {
	machine := toll.NewMachine(ledger.NewMemory())

	entered, err := machine.Apply(context.Background(), "ABC123", "ENTRY", "0", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, entered.Point)
}

func TestMachineConcurrentEntries(t *testing.T) {
	machine := toll.NewMachine(ledger.NewMemory())

	const attempts = 25
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = machine.Apply(context.Background(), "RACE99", "ENTRY", "5", time.Now())
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, toll.ErrVehicleInside):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
}

type failingLedger struct {
	err error
}

func (f *failingLedger) Get(context.Context, string) (toll.PlateRecord, error) {
	return toll.PlateRecord{}, f.err
}

func (f *failingLedger) Upsert(context.Context, toll.PlateRecord) error { return f.err }

func (f *failingLedger) Close() error { return nil }

func TestMachineLedgerFailure(t *testing.T) {
	machine := toll.NewMachine(&failingLedger{err: errors.New("connection refused")})

	transition, err := machine.Apply(context.Background(), "ABC123", "ENTRY", "9", time.Now())
	assert.Nil(t, transition)
	require.Error(t, err)

	// Storage failures are not request errors.
	var reqErr *toll.RequestError
	assert.False(t, errors.As(err, &reqErr))
}
