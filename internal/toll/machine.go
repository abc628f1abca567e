package toll

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// A Machine validates toll requests against the ledger and applies the
// resulting transitions.
//
// Per plate the machine has two states, outside and inside, cycling
// indefinitely: entry is only legal from outside, exit only from inside.
// Apply runs read-decide-mutate as a single critical section so concurrent
// requests for the same plate cannot both observe the same starting state.
type Machine struct {
	mu     sync.Mutex
	ledger Ledger
}

func NewMachine(ledger Ledger) *Machine {
	return &Machine{ledger: ledger}
}

// Apply validates one request and, when legal, transitions the plate.
//
// The raw wire fields are validated in order: plate first, then action,
// then point. On any validation or transition failure the returned error is
// a *RequestError and the ledger is untouched; any other error is a storage
// failure. now stamps the transition.
func (m *Machine) Apply(ctx context.Context, plate, action, point string, now time.Time) (*Transition, error) {
	normalized := NormalizePlate(plate)
	if !ValidPlate(normalized) {
		return nil, ErrInvalidPlate
	}
	act := Action(action)
	if act != Entry && act != Exit {
		return nil, ErrInvalidAction
	}
	p, err := strconv.Atoi(point)
	if err != nil || p < 0 {
		return nil, ErrInvalidPoint
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.ledger.Get(ctx, normalized)
	if errors.Is(err, ErrPlateNotFound) {
		// First sighting. An unseen plate is outside.
		rec = PlateRecord{Plate: normalized, Status: StatusOutside}
	} else if err != nil {
		return nil, fmt.Errorf("ledger get %s: %w", normalized, err)
	}

	t := &Transition{Action: act, Plate: normalized, Point: p, At: now}
	switch act {
	case Entry:
		if rec.Status == StatusInside {
			return nil, ErrVehicleInside
		}
		rec.Status = StatusInside
		rec.EntryPoint, rec.EntryAt = p, now
		t.EntryPoint, t.EntryAt = p, now
	case Exit:
		if rec.Status != StatusInside {
			return nil, ErrVehicleNotInside
		}
		t.EntryPoint, t.EntryAt = rec.EntryPoint, rec.EntryAt
		rec.Status = StatusOutside
		rec.LastExitPoint, rec.LastExitAt = p, now
		rec.EntryPoint, rec.EntryAt = 0, time.Time{}
	}

	if err := m.ledger.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("ledger upsert %s: %w", normalized, err)
	}
	return t, nil
}

// NormalizePlate maps a raw plate token to its canonical ledger key:
// surrounding whitespace removed, letters upper-cased.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// ValidPlate reports whether a normalized plate is usable as a ledger key:
// non-empty, letters and digits only.
func ValidPlate(plate string) bool {
	if plate == "" {
		return false
	}
	for _, r := range plate {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
