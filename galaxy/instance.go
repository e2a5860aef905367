package galaxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by operations on an instance after Close.
var ErrClosed = errors.New("galaxy instance closed")

// NodeID identifies a node in the host's scene graph.
type NodeID string

// ResourceID identifies a renderable.
type ResourceID string

// Material carries the point-rendering settings derived from Parameters.
type Material struct {
	Size            float32
	SizeAttenuation bool
	DepthWrite      bool
	Additive        bool
	VertexColors    bool
}

// MaterialFor derives the point material for p. Points are drawn with
// additive blending, per-vertex colors and no depth writes.
func MaterialFor(p Parameters) Material {
	return Material{
		Size:            p.ParticleSize,
		SizeAttenuation: true,
		DepthWrite:      false,
		Additive:        true,
		VertexColors:    true,
	}
}

// Renderable is the drawable built from one generation. Once attached it is
// read-only; it is replaced as a whole, never edited in place.
type Renderable struct {
	ID       ResourceID
	Owner    string
	Seq      uint64
	Buffer   *Buffer
	Material Material
}

// Graph is the scene mutation surface available inside Host.Commit.
type Graph interface {
	AddNode(parent NodeID) (NodeID, error)
	RemoveNode(id NodeID) error
	Attach(r *Renderable, parent NodeID) error
	Detach(id ResourceID) error
}

// Host owns the scene graph. Commit applies fn atomically with respect to
// rendering. Release hands a detached renderable back so its resources can
// be freed.
type Host interface {
	Commit(fn func(Graph) error) error
	Release(r *Renderable)
}

// State is the lifecycle stage of an instance.
type State int32

const (
	StateUninitialized State = iota
	StateGenerating
	StateAttached
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateGenerating:
		return "generating"
	case StateAttached:
		return "attached"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Timings breaks a regeneration down into its phases.
type Timings struct {
	Generate time.Duration
	Build    time.Duration
	Swap     time.Duration
	Release  time.Duration
}

// Total returns the sum of all phases.
func (t Timings) Total() time.Duration {
	return t.Generate + t.Build + t.Swap + t.Release
}

// Result describes one generation attempt.
type Result struct {
	Instance string
	Seq      uint64
	Params   Parameters
	Buffer   *Buffer // nil unless the result was installed
	Timings  Timings
	Err      error
}

// Option configures an Instance.
type Option func(*Instance)

// WithLogger sets the instance logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(in *Instance) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithGenerator supplies the generator used for every regeneration.
func WithGenerator(g *Generator) Option {
	return func(in *Instance) {
		if g != nil {
			in.gen = g
		}
	}
}

// WithObserver registers fn to receive every generation result, including
// the initial one. fn runs on the regenerating goroutine.
func WithObserver(fn func(Result)) Option {
	return func(in *Instance) {
		in.observer = fn
	}
}

// Instance is one galaxy in the scene. It owns an anchor node under a
// parent group and at most one attached renderable, which is only ever
// replaced through a single host commit.
type Instance struct {
	name     string
	host     Host
	anchor   NodeID
	gen      *Generator
	logger   *slog.Logger
	observer func(Result)

	genMu sync.Mutex // serializes generation and installation

	mu        sync.Mutex
	params    Parameters
	current   *Renderable
	installed uint64
	nextSeq   uint64
	state     State
	closed    bool
}

// NewInstance creates an anchor node under parent and runs the first
// generation. If that generation fails nothing stays attached and the
// anchor is removed again.
func NewInstance(ctx context.Context, name string, p Parameters, host Host, parent NodeID, opts ...Option) (*Instance, error) {
	in := &Instance{
		name:   name,
		host:   host,
		params: p,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.gen == nil {
		in.gen = NewGenerator(0)
	}

	err := host.Commit(func(g Graph) error {
		id, err := g.AddNode(parent)
		if err != nil {
			return err
		}
		in.anchor = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create anchor for %s: %w", name, err)
	}

	if err := in.Regenerate(ctx); err != nil {
		if rmErr := host.Commit(func(g Graph) error { return g.RemoveNode(in.anchor) }); rmErr != nil {
			in.logger.Warn("anchor_cleanup_failed", "galaxy", name, "error", rmErr)
		}
		return nil, err
	}
	return in, nil
}

// Name returns the instance name.
func (in *Instance) Name() string { return in.name }

// Anchor returns the node the renderable is attached to. Animation drives
// its transform.
func (in *Instance) Anchor() NodeID { return in.anchor }

// Params returns the current parameters.
func (in *Instance) Params() Parameters {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.params
}

// SetParams replaces the parameters used by the next regeneration. It does
// not regenerate.
func (in *Instance) SetParams(p Parameters) {
	in.mu.Lock()
	in.params = p
	in.mu.Unlock()
}

// State reports the lifecycle stage.
func (in *Instance) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Current returns the attached renderable, or nil.
func (in *Instance) Current() *Renderable {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current
}

// Buffer returns the attached renderable's buffer, or nil.
func (in *Instance) Buffer() *Buffer {
	if r := in.Current(); r != nil {
		return r.Buffer
	}
	return nil
}

// Regenerate generates from the parameters current at the time of the call
// and swaps the result into the scene. On error the attached renderable is
// left as it was.
func (in *Instance) Regenerate(ctx context.Context) error {
	return in.regenerate(ctx).Err
}

func (in *Instance) regenerate(ctx context.Context) Result {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return in.report(Result{Instance: in.name, Err: ErrClosed})
	}
	in.nextSeq++
	res := Result{Instance: in.name, Seq: in.nextSeq, Params: in.params}
	in.mu.Unlock()

	in.genMu.Lock()
	defer in.genMu.Unlock()

	if err := in.checkCurrent(res.Seq); err != nil {
		res.Err = err
		return in.report(res)
	}

	in.setState(StateGenerating)
	defer in.settleState()

	start := time.Now()
	buf, err := in.gen.Generate(ctx, res.Params)
	res.Timings.Generate = time.Since(start)
	if err != nil {
		res.Err = fmt.Errorf("generate %s: %w", in.name, err)
		return in.report(res)
	}

	start = time.Now()
	next := &Renderable{
		ID:       ResourceID(uuid.NewString()),
		Owner:    in.name,
		Seq:      res.Seq,
		Buffer:   buf,
		Material: MaterialFor(res.Params),
	}
	res.Timings.Build = time.Since(start)

	// A newer call may have queued while this one generated.
	if err := in.checkCurrent(res.Seq); err != nil {
		res.Err = err
		return in.report(res)
	}

	in.mu.Lock()
	old := in.current
	in.mu.Unlock()

	start = time.Now()
	err = in.host.Commit(func(g Graph) error {
		if err := g.Attach(next, in.anchor); err != nil {
			return err
		}
		if old == nil {
			return nil
		}
		if err := g.Detach(old.ID); err != nil {
			_ = g.Detach(next.ID)
			return err
		}
		return nil
	})
	res.Timings.Swap = time.Since(start)
	if err != nil {
		res.Err = fmt.Errorf("swap %s: %w", in.name, err)
		return in.report(res)
	}

	in.mu.Lock()
	in.current = next
	in.installed = res.Seq
	in.mu.Unlock()

	start = time.Now()
	if old != nil {
		in.host.Release(old)
	}
	res.Timings.Release = time.Since(start)

	res.Buffer = buf
	return in.report(res)
}

// checkCurrent reports ErrSuperseded when a call newer than seq has been
// issued or installed.
func (in *Instance) checkCurrent(seq uint64) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrClosed
	}
	if seq < in.nextSeq || seq <= in.installed {
		return fmt.Errorf("%w: %s seq %d, latest %d", ErrSuperseded, in.name, seq, in.nextSeq)
	}
	return nil
}

func (in *Instance) setState(s State) {
	in.mu.Lock()
	in.state = s
	in.mu.Unlock()
}

func (in *Instance) settleState() {
	in.mu.Lock()
	if in.current != nil {
		in.state = StateAttached
	} else {
		in.state = StateUninitialized
	}
	in.mu.Unlock()
}

func (in *Instance) report(res Result) Result {
	switch {
	case res.Err == nil:
		in.logger.Info("galaxy_regenerated",
			"galaxy", in.name,
			"seq", res.Seq,
			"particles", res.Buffer.Len(),
			"duration_ms", float64(res.Timings.Total().Microseconds())/1000,
		)
	case errors.Is(res.Err, ErrSuperseded):
		in.logger.Debug("regeneration_superseded", "galaxy", in.name, "seq", res.Seq)
	case errors.Is(res.Err, context.Canceled), errors.Is(res.Err, context.DeadlineExceeded):
		in.logger.Debug("regeneration_cancelled", "galaxy", in.name, "seq", res.Seq)
	default:
		in.logger.Warn("regeneration_failed", "galaxy", in.name, "seq", res.Seq, "error", res.Err)
	}
	if in.observer != nil {
		in.observer(res)
	}
	return res
}

// Close detaches and releases the current renderable and removes the
// anchor node. Further regenerations return ErrClosed.
func (in *Instance) Close() error {
	in.genMu.Lock()
	defer in.genMu.Unlock()

	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	old := in.current
	in.mu.Unlock()

	detached := false
	err := in.host.Commit(func(g Graph) error {
		if old != nil {
			if err := g.Detach(old.ID); err != nil {
				return err
			}
			detached = true
		}
		return g.RemoveNode(in.anchor)
	})

	// A renderable that is still attached must not be released.
	if old != nil && detached {
		in.host.Release(old)
		in.mu.Lock()
		in.current = nil
		in.mu.Unlock()
	}
	in.mu.Lock()
	in.state = StateUninitialized
	in.mu.Unlock()
	if err != nil {
		return fmt.Errorf("close %s: %w", in.name, err)
	}
	return nil
}
