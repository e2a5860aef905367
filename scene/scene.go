// Package scene is the ECS-backed scene graph that galaxy instances attach
// their point clouds to.
//
// All ark access happens under the scene lock. Read paths go through
// component maps and the scene's own indexes instead of ark queries, which
// are not safe to run from several readers at once.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/galaxy/components"
	"github.com/pthm-cable/galaxy/galaxy"
)

var (
	ErrUnknownNode     = errors.New("unknown scene node")
	ErrNotAttached     = errors.New("renderable not attached")
	ErrAlreadyAttached = errors.New("renderable already attached")
	ErrRootNode        = errors.New("cannot remove the root node")
)

// Scene owns the ark world holding nodes and point clouds. It implements
// galaxy.Host.
type Scene struct {
	mu sync.RWMutex

	world *ecs.World

	rootMapper  *ecs.Map2[components.Node, components.Transform]
	nodeMapper  *ecs.Map3[components.Node, components.Parent, components.Transform]
	cloudMapper *ecs.Map2[components.PointCloud, components.Parent]

	nodeMap      *ecs.Map[components.Node]
	parentMap    *ecs.Map[components.Parent]
	transformMap *ecs.Map[components.Transform]
	cloudMap     *ecs.Map[components.PointCloud]

	root   galaxy.NodeID
	nodes  map[galaxy.NodeID]ecs.Entity
	clouds map[galaxy.ResourceID]ecs.Entity

	relMu    sync.Mutex
	released []*galaxy.Renderable
}

// New creates a scene containing only the root node.
func New() *Scene {
	world := ecs.NewWorld()

	s := &Scene{
		world:        world,
		rootMapper:   ecs.NewMap2[components.Node, components.Transform](world),
		nodeMapper:   ecs.NewMap3[components.Node, components.Parent, components.Transform](world),
		cloudMapper:  ecs.NewMap2[components.PointCloud, components.Parent](world),
		nodeMap:      ecs.NewMap[components.Node](world),
		parentMap:    ecs.NewMap[components.Parent](world),
		transformMap: ecs.NewMap[components.Transform](world),
		cloudMap:     ecs.NewMap[components.PointCloud](world),
		nodes:        make(map[galaxy.NodeID]ecs.Entity),
		clouds:       make(map[galaxy.ResourceID]ecs.Entity),
	}

	node := components.Node{ID: galaxy.NodeID(uuid.NewString())}
	tr := components.Identity()
	e := s.rootMapper.NewEntity(&node, &tr)
	s.root = node.ID
	s.nodes[node.ID] = e

	return s
}

// Root returns the root node.
func (s *Scene) Root() galaxy.NodeID { return s.root }

// Commit runs fn with exclusive access to the graph. Renderers never
// observe a partially applied fn.
func (s *Scene) Commit(fn func(galaxy.Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(graph{s})
}

// Release queues r for the render thread to free. See DrainReleased.
func (s *Scene) Release(r *galaxy.Renderable) {
	if r == nil {
		return
	}
	s.relMu.Lock()
	s.released = append(s.released, r)
	s.relMu.Unlock()
}

// DrainReleased returns and clears the renderables released since the last
// call. GPU-side copies must be freed on the thread that owns the GL
// context, so the renderer calls this once per frame.
func (s *Scene) DrainReleased() []*galaxy.Renderable {
	s.relMu.Lock()
	defer s.relMu.Unlock()
	out := s.released
	s.released = nil
	return out
}

// NewGroup adds an empty node under parent.
func (s *Scene) NewGroup(parent galaxy.NodeID) (galaxy.NodeID, error) {
	var id galaxy.NodeID
	err := s.Commit(func(g galaxy.Graph) error {
		var err error
		id, err = g.AddNode(parent)
		return err
	})
	return id, err
}

// SetTransform replaces a node's local transform.
func (s *Scene) SetTransform(id galaxy.NodeID, t components.Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	*s.transformMap.Get(e) = t
	return nil
}

// Transform returns a node's local transform.
func (s *Scene) Transform(id galaxy.NodeID) (components.Transform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return components.Transform{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return *s.transformMap.Get(e), nil
}

// WorldMatrix composes the local transforms from the root down to id.
func (s *Scene) WorldMatrix(id galaxy.NodeID) (mgl32.Mat4, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return mgl32.Ident4(), fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return s.worldMatrix(e), nil
}

func (s *Scene) worldMatrix(e ecs.Entity) mgl32.Mat4 {
	m := s.transformMap.Get(e).Matrix()
	for s.parentMap.Has(e) {
		e = s.parentMap.Get(e).Entity
		m = s.transformMap.Get(e).Matrix().Mul4(m)
	}
	return m
}

// ChildCount returns how many nodes and point clouds hang directly under id.
func (s *Scene) ChildCount(id galaxy.NodeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return len(s.children(e)), nil
}

// Attached returns the renderables hanging directly under id.
func (s *Scene) Attached(id galaxy.NodeID) ([]*galaxy.Renderable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	var out []*galaxy.Renderable
	for _, c := range s.clouds {
		if s.parentMap.Get(c).Entity == e {
			out = append(out, s.cloudMap.Get(c).Renderable)
		}
	}
	return out, nil
}

// PointClouds calls fn for every attached renderable with the world matrix
// of the node it hangs under. fn runs under the read lock and must not call
// back into the scene.
func (s *Scene) PointClouds(fn func(r *galaxy.Renderable, world mgl32.Mat4)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clouds {
		parent := s.parentMap.Get(c).Entity
		fn(s.cloudMap.Get(c).Renderable, s.worldMatrix(parent))
	}
}

// CloudCount returns the number of attached renderables.
func (s *Scene) CloudCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clouds)
}

func (s *Scene) children(e ecs.Entity) []ecs.Entity {
	var out []ecs.Entity
	for _, n := range s.nodes {
		if s.parentMap.Has(n) && s.parentMap.Get(n).Entity == e {
			out = append(out, n)
		}
	}
	for _, c := range s.clouds {
		if s.parentMap.Get(c).Entity == e {
			out = append(out, c)
		}
	}
	return out
}

// graph is the galaxy.Graph handed to Commit callbacks. Its methods assume
// the write lock is held.
type graph struct {
	s *Scene
}

func (g graph) AddNode(parent galaxy.NodeID) (galaxy.NodeID, error) {
	pe, ok := g.s.nodes[parent]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, parent)
	}
	node := components.Node{ID: galaxy.NodeID(uuid.NewString())}
	link := components.Parent{Entity: pe}
	tr := components.Identity()
	g.s.nodes[node.ID] = g.s.nodeMapper.NewEntity(&node, &link, &tr)
	return node.ID, nil
}

// RemoveNode removes a node and everything below it. Point clouds removed
// this way are queued for release.
func (g graph) RemoveNode(id galaxy.NodeID) error {
	if id == g.s.root {
		return ErrRootNode
	}
	e, ok := g.s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	g.removeSubtree(e)
	return nil
}

func (g graph) removeSubtree(e ecs.Entity) {
	for _, c := range g.s.children(e) {
		if g.s.cloudMap.Has(c) {
			r := g.s.cloudMap.Get(c).Renderable
			delete(g.s.clouds, r.ID)
			g.s.world.RemoveEntity(c)
			g.s.Release(r)
			continue
		}
		g.removeSubtree(c)
	}
	delete(g.s.nodes, g.s.nodeMap.Get(e).ID)
	g.s.world.RemoveEntity(e)
}

func (g graph) Attach(r *galaxy.Renderable, parent galaxy.NodeID) error {
	pe, ok := g.s.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, parent)
	}
	if _, ok := g.s.clouds[r.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, r.ID)
	}
	cloud := components.PointCloud{Renderable: r}
	link := components.Parent{Entity: pe}
	g.s.clouds[r.ID] = g.s.cloudMapper.NewEntity(&cloud, &link)
	return nil
}

func (g graph) Detach(id galaxy.ResourceID) error {
	e, ok := g.s.clouds[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, id)
	}
	delete(g.s.clouds, id)
	g.s.world.RemoveEntity(e)
	return nil
}
