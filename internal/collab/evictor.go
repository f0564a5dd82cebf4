package collab

import (
	"context"
	"time"
)

// Evictor periodically snapshots and drops sessions that have seen no
// activity, keeping memory bounded on long-running nodes. Evicted sessions
// are rehydrated from their snapshot on the next access.
type Evictor struct {
	store    *SessionStore
	maxIdle  time.Duration
	interval time.Duration
}

func NewEvictor(store *SessionStore, maxIdle, interval time.Duration) *Evictor {
	return &Evictor{
		store:    store,
		maxIdle:  maxIdle,
		interval: interval,
	}
}

func (e *Evictor) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.store.EvictIdle(ctx, e.maxIdle)
		}
	}
}
