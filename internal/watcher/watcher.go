// Package watcher keeps a local view of one remote conversion job fresh by
// polling the server until the job settles.
//
// A Watcher owns one polling lifecycle at a time. Observe points it at a job
// id: the job is fetched immediately and then on every tick until a terminal
// status comes back. Observing a different id retires the previous cycle
// completely, a result that arrives for a retired id is dropped. A failed
// fetch keeps the last good snapshot and records the error, polling carries
// on so transient server trouble heals on a later tick.
//
// Results are applied in arrival order. The single in-flight fetch per
// instance makes that identical to issuance order for one id; across an id
// switch the generation check discards the older id's result, so no
// reordering buffer is needed.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/vrsandeep/speedread-go/internal/models"
)

// DefaultInterval is the delay between periodic fetches.
const DefaultInterval = 2 * time.Second

// JobGetter is the single call the watcher needs from the API client.
type JobGetter interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
}

// State is a point-in-time snapshot of the watcher. Job is the last snapshot
// that was fetched successfully and survives later fetch failures, it is nil
// only before the first success. Err holds the most recent fetch failure and
// is cleared by the next success.
type State struct {
	JobID   string
	Job     *models.Job
	Err     error
	Polling bool
}

// Watcher polls one job until it reaches a terminal status. All methods are
// safe for concurrent use.
type Watcher struct {
	client   JobGetter
	interval time.Duration

	mu       sync.Mutex
	jobID    string
	gen      uint64 // Bumped on Observe and Close, stamps every fetch
	job      *models.Job
	err      error
	polling  bool
	inFlight bool
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	updates  chan State
}

// New creates a watcher that polls through client every DefaultInterval.
func New(client JobGetter) *Watcher {
	return NewWithInterval(client, DefaultInterval)
}

// NewWithInterval creates a watcher with a custom polling interval.
func NewWithInterval(client JobGetter, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		client:   client,
		interval: interval,
		updates:  make(chan State, 1),
	}
}

// Observe points the watcher at a job id and starts polling it: one fetch
// right away, then one per interval until the job settles. Whatever the
// watcher was doing before is retired first, an in-flight result for the old
// id can no longer change state once Observe returns. The empty string stops
// polling without closing the watcher. Observing the current id again is a
// no-op.
func (w *Watcher) Observe(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || id == w.jobID {
		return
	}
	w.retireLocked()
	w.jobID = id
	w.job = nil
	w.err = nil
	if id == "" {
		w.polling = false
		return
	}
	w.polling = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	go w.run(w.ctx, id, w.gen)
}

// Refetch asks for one immediate fetch outside the periodic cycle, for
// example to confirm a settled job is still there. The periodic timer is not
// reset. If a fetch is already in flight the call is a no-op rather than a
// second concurrent request.
func (w *Watcher) Refetch() {
	w.mu.Lock()
	if w.closed || w.jobID == "" || w.inFlight {
		w.mu.Unlock()
		return
	}
	ctx := w.ctx
	if !w.polling || ctx == nil {
		// Settled, the poll context is gone. The generation check still
		// discards the result if the watcher moves on mid-request.
		ctx = context.Background()
	}
	id, gen := w.jobID, w.gen
	w.mu.Unlock()
	go w.poll(ctx, id, gen, false)
}

// State returns the current snapshot. The contained job is a copy, callers
// may hold on to it.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

// Updates returns the subscription channel. One state is delivered per
// completed fetch, success or failure. The channel holds a single element
// and newer states replace undelivered ones, so a slow reader always wakes
// up to the latest state. Close closes the channel.
func (w *Watcher) Updates() <-chan State {
	return w.updates
}

// Close retires the watcher for good: polling stops, in-flight results are
// dropped, the updates channel is closed. Calling Close again does nothing.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.retireLocked()
	w.closed = true
	w.jobID = ""
	w.job = nil
	w.err = nil
	w.polling = false
	close(w.updates)
}

// retireLocked invalidates all outstanding work for the current generation:
// the poll loop, any fetch on the wire and any undelivered update.
func (w *Watcher) retireLocked() {
	w.gen++
	w.inFlight = false
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	select {
	case <-w.updates:
	default:
	}
}

func (w *Watcher) run(ctx context.Context, id string, gen uint64) {
	if !w.poll(ctx, id, gen, true) {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.poll(ctx, id, gen, true) {
				return
			}
		}
	}
}

// poll performs one fetch for the given generation and applies the result.
// It returns false once this loop has no more work to do: the watcher moved
// on to a new generation or the job reached a terminal status. A periodic
// tick additionally bails once polling stopped, so a tick racing the
// settling refetch cannot fetch again; a manual refetch of a settled job is
// allowed through.
func (w *Watcher) poll(ctx context.Context, id string, gen uint64, periodic bool) bool {
	w.mu.Lock()
	if w.gen != gen || (periodic && !w.polling) {
		w.mu.Unlock()
		return false
	}
	if w.inFlight {
		// The previous fetch has not resolved yet, skip this tick instead
		// of stacking a second request.
		w.mu.Unlock()
		return true
	}
	w.inFlight = true
	w.mu.Unlock()

	job, err := w.client.GetJob(ctx, id)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		// Superseded while the request was on the wire. The result belongs
		// to a retired observation, drop it without touching state.
		return false
	}
	w.inFlight = false
	if err != nil {
		// Keep the last good snapshot, a stale view beats a blank one.
		w.err = err
	} else {
		w.job = job
		w.err = nil
		if job.Status.Terminal() {
			// Stop the periodic loop too. A manual refetch can be the one
			// that observes the terminal status between ticks, and the loop
			// must not fetch a settled job again.
			w.polling = false
			if w.cancel != nil {
				w.cancel()
				w.cancel = nil
			}
		}
	}
	w.emitLocked()
	return w.polling
}

func (w *Watcher) stateLocked() State {
	return State{
		JobID:   w.jobID,
		Job:     w.job.Clone(),
		Err:     w.err,
		Polling: w.polling,
	}
}

// emitLocked publishes the current state to the updates channel, replacing
// an undelivered older state if the reader has not caught up yet.
func (w *Watcher) emitLocked() {
	if w.closed {
		return
	}
	s := w.stateLocked()
	select {
	case w.updates <- s:
		return
	default:
	}
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- s:
	default:
	}
}
