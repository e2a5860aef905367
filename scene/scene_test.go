package scene

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/galaxy/components"
	"github.com/pthm-cable/galaxy/galaxy"
)

func testParams(count int) galaxy.Parameters {
	return galaxy.Parameters{
		ParticleCount:   count,
		ParticleSize:    0.01,
		Radius:          5,
		InnerRadius:     0.3,
		Branches:        2,
		Spin:            2.75,
		Randomness:      0.25,
		RandomnessPower: 3,
		InsideColor:     galaxy.MustParseColor("#7d0f25"),
		OutsideColor:    galaxy.MustParseColor("#1b3984"),
	}
}

func newInstance(t *testing.T, s *Scene, parent galaxy.NodeID, name string, count int) *galaxy.Instance {
	t.Helper()
	in, err := galaxy.NewInstance(context.Background(), name, testParams(count), s, parent,
		galaxy.WithGenerator(galaxy.NewGenerator(1)))
	require.NoError(t, err)
	return in
}

func TestNewSceneHasRoot(t *testing.T) {
	s := New()

	n, err := s.ChildCount(s.Root())
	require.NoError(t, err)
	assert.Zero(t, n)

	m, err := s.WorldMatrix(s.Root())
	require.NoError(t, err)
	assert.True(t, m.ApproxEqual(mgl32.Ident4()))
}

func TestRegenerateKeepsOneCloudPerAnchor(t *testing.T) {
	s := New()
	group, err := s.NewGroup(s.Root())
	require.NoError(t, err)

	in := newInstance(t, s, group, "primary", 300)
	first := in.Current()

	require.NoError(t, in.Regenerate(context.Background()))
	require.NoError(t, in.Regenerate(context.Background()))

	n, err := s.ChildCount(in.Anchor())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.CloudCount())

	attached, err := s.Attached(in.Anchor())
	require.NoError(t, err)
	require.Len(t, attached, 1)
	assert.Same(t, in.Current(), attached[0])

	released := s.DrainReleased()
	require.Len(t, released, 2)
	assert.Same(t, first, released[0])
	assert.Empty(t, s.DrainReleased())
}

func TestSiblingsShareGroup(t *testing.T) {
	s := New()
	group, err := s.NewGroup(s.Root())
	require.NoError(t, err)

	a := newInstance(t, s, group, "primary", 200)
	b := newInstance(t, s, group, "core", 100)

	n, err := s.ChildCount(group)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "group holds the two anchors")

	bCur := b.Current()
	require.NoError(t, a.Regenerate(context.Background()))
	assert.Same(t, bCur, b.Current())
	assert.Equal(t, 2, s.CloudCount())
}

func TestRegenerateLeavesAnchorTransform(t *testing.T) {
	s := New()
	in := newInstance(t, s, s.Root(), "primary", 100)

	want := components.Transform{
		Position: mgl32.Vec3{0, 1, 2},
		Rotation: mgl32.Vec3{0, 1.25, 0},
		Scale:    mgl32.Vec3{1, 1, 1},
	}
	require.NoError(t, s.SetTransform(in.Anchor(), want))
	require.NoError(t, in.Regenerate(context.Background()))

	got, err := s.Transform(in.Anchor())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWorldMatrixComposesParents(t *testing.T) {
	s := New()
	group, err := s.NewGroup(s.Root())
	require.NoError(t, err)
	child, err := s.NewGroup(group)
	require.NoError(t, err)

	require.NoError(t, s.SetTransform(group, components.Transform{
		Position: mgl32.Vec3{0, math.Pi, math.Pi},
		Rotation: mgl32.Vec3{0, math.Pi / 2, 0},
		Scale:    mgl32.Vec3{1, 1, 1},
	}))
	require.NoError(t, s.SetTransform(child, components.Transform{
		Position: mgl32.Vec3{1, 0, 0},
		Scale:    mgl32.Vec3{2, 2, 2},
	}))

	m, err := s.WorldMatrix(child)
	require.NoError(t, err)

	// The child's origin sits one unit along the group's rotated x axis,
	// which a quarter turn about y maps to -z.
	origin := mgl32.TransformCoordinate(mgl32.Vec3{}, m)
	assert.True(t, origin.ApproxEqualThreshold(mgl32.Vec3{0, math.Pi, math.Pi - 1}, 1e-5), "origin %v", origin)

	// A unit point in the child's space is scaled by 2 first.
	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, m)
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec3{0, math.Pi, math.Pi - 3}, 1e-5), "point %v", p)
}

func TestPointCloudsVisitsEveryCloud(t *testing.T) {
	s := New()
	group, err := s.NewGroup(s.Root())
	require.NoError(t, err)
	a := newInstance(t, s, group, "primary", 50)
	b := newInstance(t, s, group, "core", 60)

	shift := components.Identity()
	shift.Position = mgl32.Vec3{3, 0, 0}
	require.NoError(t, s.SetTransform(b.Anchor(), shift))

	seen := map[galaxy.ResourceID]mgl32.Mat4{}
	s.PointClouds(func(r *galaxy.Renderable, world mgl32.Mat4) {
		seen[r.ID] = world
	})

	require.Len(t, seen, 2)
	assert.True(t, seen[a.Current().ID].ApproxEqual(mgl32.Ident4()))
	assert.True(t, seen[b.Current().ID].ApproxEqual(mgl32.Translate3D(3, 0, 0)))
}

func TestGraphErrors(t *testing.T) {
	s := New()
	r := &galaxy.Renderable{ID: "cloud-1"}

	_, err := s.NewGroup("missing")
	assert.ErrorIs(t, err, ErrUnknownNode)

	err = s.Commit(func(g galaxy.Graph) error { return g.Attach(r, "missing") })
	assert.ErrorIs(t, err, ErrUnknownNode)

	err = s.Commit(func(g galaxy.Graph) error { return g.Detach(r.ID) })
	assert.ErrorIs(t, err, ErrNotAttached)

	require.NoError(t, s.Commit(func(g galaxy.Graph) error { return g.Attach(r, s.Root()) }))
	err = s.Commit(func(g galaxy.Graph) error { return g.Attach(r, s.Root()) })
	assert.ErrorIs(t, err, ErrAlreadyAttached)

	err = s.Commit(func(g galaxy.Graph) error { return g.RemoveNode(s.Root()) })
	assert.ErrorIs(t, err, ErrRootNode)

	assert.ErrorIs(t, s.SetTransform("missing", components.Identity()), ErrUnknownNode)
}

func TestRemoveNodeReleasesSubtree(t *testing.T) {
	s := New()
	group, err := s.NewGroup(s.Root())
	require.NoError(t, err)
	newInstance(t, s, group, "primary", 40)
	newInstance(t, s, group, "core", 40)
	s.DrainReleased()

	require.NoError(t, s.Commit(func(g galaxy.Graph) error { return g.RemoveNode(group) }))

	assert.Zero(t, s.CloudCount())
	assert.Len(t, s.DrainReleased(), 2)
	n, err := s.ChildCount(s.Root())
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = s.Transform(group)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestInstanceCloseRemovesAnchor(t *testing.T) {
	s := New()
	in := newInstance(t, s, s.Root(), "primary", 40)
	cur := in.Current()

	require.NoError(t, in.Close())

	n, err := s.ChildCount(s.Root())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []*galaxy.Renderable{cur}, s.DrainReleased())
}
