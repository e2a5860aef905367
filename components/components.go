// Package components defines the ECS components of the scene graph.
package components

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/galaxy/galaxy"
)

// Node marks an entity as an addressable scene node.
type Node struct {
	ID galaxy.NodeID
}

// Parent links a node or point cloud to the node it hangs under.
// The root node has no Parent.
type Parent struct {
	Entity ecs.Entity
}

// PointCloud holds an attached renderable. Point-cloud entities carry a
// Parent but no Node or Transform; they draw in their parent's space.
type PointCloud struct {
	Renderable *galaxy.Renderable
}
