package galaxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultSettle is the debounce window between the last commit and the
// regeneration it triggers.
const DefaultSettle = 150 * time.Millisecond

// RegeneratorOption configures a Regenerator.
type RegeneratorOption func(*Regenerator)

// WithSettle sets the debounce window. Zero applies commits immediately.
func WithSettle(d time.Duration) RegeneratorOption {
	return func(r *Regenerator) {
		if d >= 0 {
			r.settle = d
		}
	}
}

// OnResult registers fn to receive the result of every regeneration the
// worker applies. fn runs on the worker goroutine.
func OnResult(fn func(Result)) RegeneratorOption {
	return func(r *Regenerator) {
		r.onResult = fn
	}
}

// Regenerator applies committed parameters to an instance on a single
// background goroutine. Commits arriving within the settle window collapse
// into one regeneration, and a commit arriving mid-generation cancels the
// generation in flight. The last settled commit wins.
type Regenerator struct {
	inst     *Instance
	settle   time.Duration
	onResult func(Result)

	ctx  context.Context
	stop context.CancelFunc
	wake chan struct{}
	done chan struct{}

	mu         sync.Mutex
	pending    *Parameters
	lastCommit time.Time
	commits    uint64
	applied    uint64
	inflight   context.CancelFunc
	changed    chan struct{}
	closed     bool
}

// NewRegenerator starts the worker for inst.
func NewRegenerator(inst *Instance, opts ...RegeneratorOption) *Regenerator {
	ctx, stop := context.WithCancel(context.Background())
	r := &Regenerator{
		inst:    inst,
		settle:  DefaultSettle,
		ctx:     ctx,
		stop:    stop,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Instance returns the instance being driven.
func (r *Regenerator) Instance() *Instance { return r.inst }

// Commit records p as the latest settled parameters. Any generation in
// flight is cancelled.
func (r *Regenerator) Commit(p Parameters) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.pending = &p
	r.commits++
	r.lastCommit = time.Now()
	if r.inflight != nil {
		r.inflight()
	}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending reports whether committed parameters have not yet been applied.
func (r *Regenerator) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied < r.commits
}

// Flush blocks until every commit made before the call has been applied,
// the regenerator is closed, or ctx is done.
func (r *Regenerator) Flush(ctx context.Context) error {
	r.mu.Lock()
	target := r.commits
	r.mu.Unlock()

	for {
		r.mu.Lock()
		if r.applied >= target || r.closed {
			r.mu.Unlock()
			return nil
		}
		ch := r.changed
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Close stops the worker, cancelling any generation in flight. The
// instance itself is left open.
func (r *Regenerator) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	r.notifyLocked()
	r.mu.Unlock()

	r.stop()
	<-r.done
}

func (r *Regenerator) run() {
	defer close(r.done)

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.wake:
		}

		if !r.waitSettled() {
			return
		}

		r.mu.Lock()
		p := r.pending
		seq := r.commits
		r.pending = nil
		ctx, cancel := context.WithCancel(r.ctx)
		r.inflight = cancel
		r.mu.Unlock()

		if p == nil {
			cancel()
			continue
		}

		r.inst.SetParams(*p)
		res := r.inst.regenerate(ctx)
		cancel()

		r.mu.Lock()
		r.inflight = nil
		newer := r.commits > seq
		r.applied = seq
		r.notifyLocked()
		r.mu.Unlock()

		if res.Err != nil && newer && errors.Is(res.Err, context.Canceled) {
			res.Err = fmt.Errorf("%w: %w", ErrSuperseded, res.Err)
		}
		if r.onResult != nil {
			r.onResult(res)
		}
	}
}

// waitSettled sleeps until no commit has arrived for the settle window.
// It returns false if the regenerator stopped meanwhile.
func (r *Regenerator) waitSettled() bool {
	for {
		r.mu.Lock()
		wait := r.settle - time.Since(r.lastCommit)
		r.mu.Unlock()
		if wait <= 0 {
			return true
		}

		t := time.NewTimer(wait)
		select {
		case <-r.ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}

func (r *Regenerator) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}
