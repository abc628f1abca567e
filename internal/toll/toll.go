// Package toll models vehicle toll-gate state: which plates are currently
// inside the tolled network, where they entered, and the transitions that
// move them in and out.
package toll

import (
	"context"
	"errors"
	"time"
)

// An Action is one of the two interactions a vehicle can report at a toll
// point. Actions are matched case-sensitively: "entry" is not an Action.
type Action string

const (
	// Entry opens a trip: the vehicle passed an entry gate.
	Entry Action = "ENTRY"
	// Exit closes the open trip: the vehicle passed an exit gate.
	Exit Action = "EXIT"
)

// Status is a vehicle's position relative to the tolled road network.
type Status string

const (
	// StatusOutside means the plate has no open entry. Plates never seen
	// before are implicitly outside.
	StatusOutside Status = "outside"
	// StatusInside means the plate entered and has not exited yet.
	StatusInside Status = "inside"
)

// A PlateRecord is one vehicle's toll state, keyed by its normalized plate.
//
// The record is inside exactly when EntryPoint/EntryAt are set; an exit
// clears them and retains the completed exit for audit.
type PlateRecord struct {
	Plate         string    `json:"plate"`
	Status        Status    `json:"status"`
	EntryPoint    int       `json:"entry_point"`
	EntryAt       time.Time `json:"entry_at"`
	LastExitPoint int       `json:"last_exit_point"`
	LastExitAt    time.Time `json:"last_exit_at"`
}

// ErrPlateNotFound is returned by Ledger.Get for plates never recorded.
// The machine treats it as an implicit outside record, not as a failure.
var ErrPlateNotFound = errors.New("toll: plate not found")

// A Ledger stores one PlateRecord per plate. It is pure storage: no
// validation, no transition logic. The Machine is its only writer.
//
// Get returns ErrPlateNotFound for absent plates. Implementations must be
// safe for concurrent use.
type Ledger interface {
	Get(ctx context.Context, plate string) (PlateRecord, error)
	Upsert(ctx context.Context, rec PlateRecord) error
	Close() error
}

// A Transition is the outcome of a successfully applied action.
//
// EntryPoint/EntryAt describe the trip the transition belongs to: for an
// entry they repeat Point/At, for an exit they carry the entry being closed,
// so an observer can reconstruct the whole trip from a single transition.
type Transition struct {
	Action     Action    `json:"action"`
	Plate      string    `json:"plate"`
	Point      int       `json:"point"`
	At         time.Time `json:"at"`
	EntryPoint int       `json:"entry_point"`
	EntryAt    time.Time `json:"entry_at"`
}

// An Event is a Transition with an identifier, as fanned out to the stats
// collector and the event feed.
type Event struct {
	ID string `json:"id"`
	Transition
}
