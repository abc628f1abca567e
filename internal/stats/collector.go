// Package stats accumulates road usage totals from transition events.
package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

// DefaultReportInterval is how often Run logs the totals when no interval is
// configured.
const DefaultReportInterval = 5 * time.Second

// A Collector tracks how many vehicles are inside right now, how many trips
// completed, and the fees those trips earned.
//
// A trip's fee is |exit point - entry point| times the rate. Totals are
// process-local and reset on restart even when the ledger is persistent.
type Collector struct {
	mu     sync.Mutex
	rate   float64
	inside int
	trips  int
	fees   float64
}

// NewCollector returns a Collector charging rate per unit of toll point
// distance.
func NewCollector(rate float64) *Collector {
	return &Collector{rate: rate}
}

// Observe folds one transition event into the totals.
func (c *Collector) Observe(ev toll.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Action {
	case toll.Entry:
		c.inside++
	case toll.Exit:
		// A vehicle that entered before a restart exits without a
		// matching observed entry.
		if c.inside > 0 {
			c.inside--
		}
		c.trips++
		c.fees += c.fee(ev)
	}
}

func (c *Collector) fee(ev toll.Event) float64 {
	distance := ev.Point - ev.EntryPoint
	if distance < 0 {
		distance = -distance
	}
	return float64(distance) * c.rate
}

// A Snapshot is a point-in-time copy of the totals.
type Snapshot struct {
	VehiclesInside int
	TripsCompleted int
	FeesCollected  float64
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{VehiclesInside: c.inside, TripsCompleted: c.trips, FeesCollected: c.fees}
}

// Run logs the totals every interval until ctx is cancelled.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := c.Snapshot()
			slog.Info("road usage",
				"vehicles_inside", s.VehiclesInside,
				"trips_completed", s.TripsCompleted,
				"fees_collected", s.FeesCollected,
			)
		}
	}
}
