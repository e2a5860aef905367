package animation

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/galaxy/galaxy"
	"github.com/pthm-cable/galaxy/scene"
)

func newDriver(t *testing.T, settings Settings) (*scene.Scene, galaxy.NodeID, *Driver) {
	t.Helper()
	s := scene.New()
	group, err := s.NewGroup(s.Root())
	require.NoError(t, err)
	d, err := New(s, group, settings)
	require.NoError(t, err)
	return s, group, d
}

func TestSpinsAnchors(t *testing.T) {
	s, group, d := newDriver(t, Settings{SpinSpeed: 0.1})

	a, err := s.NewGroup(group)
	require.NoError(t, err)
	b, err := s.NewGroup(group)
	require.NoError(t, err)
	d.AddAnchor(a)
	d.AddAnchor(b)

	require.NoError(t, d.Update(1.5))
	require.NoError(t, d.Update(0.5))

	for _, id := range []galaxy.NodeID{a, b} {
		tr, err := s.Transform(id)
		require.NoError(t, err)
		assert.InDelta(t, 0.2, tr.Rotation.Y(), 1e-6)
		assert.Equal(t, float32(0), tr.Rotation.X())
	}

	// The group itself does not spin.
	tr, err := s.Transform(group)
	require.NoError(t, err)
	assert.Equal(t, float32(0), tr.Rotation.Y())
}

func TestScrollTrackImmediate(t *testing.T) {
	s, group, d := newDriver(t, Settings{
		ScrollStep:     0.1,
		ScrollRotation: mgl32.Vec3{math.Pi / 4, 3 * math.Pi / 4, 0},
		ScrollPosition: mgl32.Vec3{0, math.Pi, math.Pi},
	})

	d.Scroll(5)
	require.NoError(t, d.Update(1.0/60))
	assert.InDelta(t, 0.5, d.Progress(), 1e-6)

	tr, err := s.Transform(group)
	require.NoError(t, err)
	assert.True(t, tr.Rotation.ApproxEqual(mgl32.Vec3{math.Pi / 8, 3 * math.Pi / 8, 0}), "rotation %v", tr.Rotation)
	assert.True(t, tr.Position.ApproxEqual(mgl32.Vec3{0, math.Pi / 2, math.Pi / 2}), "position %v", tr.Position)

	// Progress is clamped at the end of the track.
	d.Scroll(100)
	require.NoError(t, d.Update(1.0/60))
	assert.Equal(t, float32(1), d.Progress())
	tr, err = s.Transform(group)
	require.NoError(t, err)
	assert.True(t, tr.Position.ApproxEqual(mgl32.Vec3{0, math.Pi, math.Pi}))

	d.Scroll(-100)
	require.NoError(t, d.Update(1.0/60))
	assert.Equal(t, float32(0), d.Progress())
}

func TestScrollLag(t *testing.T) {
	_, _, d := newDriver(t, Settings{ScrollLag: 1})

	d.SetScrollTarget(1)
	require.NoError(t, d.Update(1))
	assert.InDelta(t, 1-math.Exp(-1), d.Progress(), 1e-5)

	for i := 0; i < 20; i++ {
		require.NoError(t, d.Update(1))
	}
	assert.InDelta(t, 1, d.Progress(), 1e-5)
}

func TestRemovedAnchorIsDropped(t *testing.T) {
	s, group, d := newDriver(t, Settings{SpinSpeed: 1})

	a, err := s.NewGroup(group)
	require.NoError(t, err)
	d.AddAnchor(a)
	require.NoError(t, s.Commit(func(g galaxy.Graph) error { return g.RemoveNode(a) }))

	require.NoError(t, d.Update(0.1))
	assert.Empty(t, d.anchors)
}

func TestNewUnknownGroup(t *testing.T) {
	_, err := New(scene.New(), "nope", Settings{})
	assert.ErrorIs(t, err, scene.ErrUnknownNode)
}
