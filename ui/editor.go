package ui

import (
	"math"

	"github.com/pthm-cable/galaxy/galaxy"
)

// Committer receives settled parameter sets. *galaxy.Regenerator
// implements it.
type Committer interface {
	Commit(galaxy.Parameters) error
}

// Editor holds the draft parameters of one galaxy. Slider drags only
// change the draft; Release sends it to the committer, so a regeneration
// happens once per drag rather than once per frame.
type Editor struct {
	name   string
	target Committer

	draft galaxy.Parameters
	dirty bool
	err   error
}

// NewEditor creates an editor starting from p.
func NewEditor(name string, p galaxy.Parameters, target Committer) *Editor {
	return &Editor{name: name, target: target, draft: p}
}

// Name returns the galaxy name.
func (e *Editor) Name() string { return e.name }

// Draft returns the parameters as currently edited.
func (e *Editor) Draft() galaxy.Parameters { return e.draft }

// Dirty reports whether the draft has uncommitted changes.
func (e *Editor) Dirty() bool { return e.dirty }

// Err returns the error from the last commit, if any.
func (e *Editor) Err() error { return e.err }

// Set applies a slider value to the draft.
func (e *Editor) Set(s Slider, v float32) {
	v = float32(math.Max(float64(s.Min), math.Min(float64(s.Max), float64(v))))
	if s.Integer {
		v = float32(math.Round(float64(v)))
	}
	if s.Get(e.draft) == v {
		return
	}
	s.Set(&e.draft, v)
	e.dirty = true
}

// Release commits the draft if it changed.
func (e *Editor) Release() error {
	if !e.dirty {
		return nil
	}
	return e.Regenerate()
}

// Regenerate commits the draft whether or not it changed, which redraws
// the random scatter.
func (e *Editor) Regenerate() error {
	e.dirty = false
	e.err = e.target.Commit(e.draft)
	return e.err
}

// Reset replaces the draft without committing, for parameters that were
// committed elsewhere (config reload).
func (e *Editor) Reset(p galaxy.Parameters) {
	e.draft = p
	e.dirty = false
	e.err = nil
}
