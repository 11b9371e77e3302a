package expense

import (
	"log/slog"
	"sync"
	"time"
)

// Snapshot is a consistent view of the collection at one point in logical
// time: the ordered record list together with the summary derived from it.
// The two are always exposed as a single unit, never mixed across updates.
type Snapshot struct {
	Records []Record `json:"expenses"`
	Summary Summary  `json:"summary"`
}

// Summarize buckets records by status and sums amounts per bucket in a
// single pass. Unrecognized statuses are excluded from every bucket and
// logged as a data-integrity warning. Rejected records are recognized but
// kept out of the dashboard totals. Pure function of its input.
func Summarize(records []Record) Summary {
	summary := ZeroSummary()
	for _, r := range records {
		switch r.Status {
		case StatusDraft:
			summary.Draft = summary.Draft.Add(r.Amount)
		case StatusSubmitted:
			summary.Submitted = summary.Submitted.Add(r.Amount)
		case StatusApproved:
			summary.Approved = summary.Approved.Add(r.Amount)
		case StatusRejected:
			// Excluded from dashboard totals
		default:
			slog.Warn("Record has unrecognized status, excluded from totals",
				"id", r.ID,
				"status", string(r.Status),
			)
		}
	}
	return summary
}

// Reconciler subscribes to the record store's change feed and maintains the
// live snapshot plus its derived summary. It never writes to the store.
type Reconciler struct {
	store RecordStore

	mu       sync.Mutex
	current  Snapshot
	degraded bool
	subs     map[int]chan Snapshot
	nextID   int
	closed   bool

	cancelFeed func()
	done       chan struct{}

	// retryInterval is the pause before resubscribing after a feed failure
	retryInterval time.Duration
}

// NewReconciler creates a Reconciler and starts consuming the store's feed
func NewReconciler(store RecordStore) *Reconciler {
	return NewReconcilerWithRetry(store, time.Second)
}

// NewReconcilerWithRetry creates a Reconciler with a custom resubscription
// pause, for testing
func NewReconcilerWithRetry(store RecordStore, retryInterval time.Duration) *Reconciler {
	r := &Reconciler{
		store:         store,
		current:       Snapshot{Records: []Record{}, Summary: ZeroSummary()},
		subs:          make(map[int]chan Snapshot),
		done:          make(chan struct{}),
		retryInterval: retryInterval,
	}

	feed, cancel := store.Subscribe()
	r.cancelFeed = cancel
	go r.run(feed)
	return r
}

// run consumes snapshots until Close. A closed feed outside of shutdown
// marks the reconciler degraded and triggers resubscription, since live
// totals are the whole point of the dashboard.
func (r *Reconciler) run(feed <-chan []Record) {
	defer close(r.done)

	for {
		records, ok := <-feed
		if !ok {
			r.mu.Lock()
			closed := r.closed
			if !closed {
				r.degraded = true
			}
			r.mu.Unlock()
			if closed {
				return
			}

			slog.Warn("Record store feed closed unexpectedly, resubscribing")
			time.Sleep(r.retryInterval)

			r.mu.Lock()
			if r.closed {
				r.mu.Unlock()
				return
			}
			feed, r.cancelFeed = r.store.Subscribe()
			r.mu.Unlock()
			continue
		}

		r.apply(records)
	}
}

// apply swaps in a new snapshot as one unit and fans it out to subscribers
func (r *Reconciler) apply(records []Record) {
	snapshot := Snapshot{
		Records: records,
		Summary: Summarize(records),
	}

	r.mu.Lock()
	r.current = snapshot
	r.degraded = false
	for _, ch := range r.subs {
		select {
		case ch <- snapshot:
		default:
			// Replace a stale pending snapshot rather than block
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
	r.mu.Unlock()
}

// Snapshot returns the current consistent (records, summary) pair
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Degraded reports whether the live feed is currently broken and the
// exposed snapshot may be stale
func (r *Reconciler) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// Subscribe registers a live snapshot feed for a presentation client.
// The current snapshot is delivered immediately.
func (r *Reconciler) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	ch <- r.current
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if _, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Close releases the store subscription and stops the reconciler. No
// snapshot is observed or delivered after Close returns.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	cancel := r.cancelFeed
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
	r.mu.Unlock()

	cancel()
	<-r.done
	return nil
}
