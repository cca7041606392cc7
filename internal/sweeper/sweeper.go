// Package sweeper runs the periodic reclamation of expired rooms and
// messages. It is purely a memory backstop: reads stay correct regardless
// of sweep timing because the store filters at read time.
package sweeper

import (
	"context"
	"log"
	"time"
)

// Store is the slice of the session store the sweeper needs.
type Store interface {
	SweepExpired()
}

// Sweeper invokes SweepExpired on a fixed interval.
type Sweeper struct {
	Store    Store
	Interval time.Duration
}

// New creates a sweeper over the given store.
func New(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{Store: store, Interval: interval}
}

// Run blocks, sweeping once per interval until the context is cancelled.
// Sweeps are called from this single goroutine, so two sweeps can never
// overlap; a slow sweep simply delays the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("Expiry sweeper started (interval %s)", s.Interval)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Store.SweepExpired()
		case <-ctx.Done():
			log.Println("Expiry sweeper stopped.")
			return
		}
	}
}
