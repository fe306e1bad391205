// Package scene holds the node graph that map geometry is assembled into.
// Nodes carry optional mesh and material slots; anything with both is drawn.
package scene

import (
	"image"

	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// Mesh is an indexed triangle list with two UV channels.
type Mesh struct {
	Indices   []uint32
	Positions []math.Vec3
	UV1       []math.Vec2 // material texture space
	UV2       []math.Vec2 // lightmap atlas space
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// Material binds the lightmap atlas for one group of faces.
type Material struct {
	Name     string
	Lightmap *image.RGBA
}

// Node is one element of the scene graph.
type Node struct {
	Name     string
	Position math.Vec3
	Scale    math.Vec3
	Parent   *Node
	Children []*Node

	Mesh     *Mesh
	Material *Material
}

// NewNode creates a node with unit scale.
func NewNode(name string) *Node {
	return &Node{Name: name, Scale: math.Vec3{X: 1, Y: 1, Z: 1}}
}

// SetParent moves the node under parent. A nil parent detaches it.
func (n *Node) SetParent(parent *Node) {
	if n.Parent != nil {
		siblings := n.Parent.Children
		for i, c := range siblings {
			if c == n {
				n.Parent.Children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	n.Parent = parent
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
}

// SetPosition sets the local translation.
func (n *Node) SetPosition(p math.Vec3) { n.Position = p }

// SetScale sets the local scale.
func (n *Node) SetScale(s math.Vec3) { n.Scale = s }

// SetUniformScale sets the same scale on all three axes.
func (n *Node) SetUniformScale(s float32) { n.Scale = math.Vec3{X: s, Y: s, Z: s} }

// LocalMatrix returns Translate(Position) * Scale(Scale).
func (n *Node) LocalMatrix() math.Mat4 {
	return math.Translate(n.Position).Mul(math.Scale(n.Scale))
}

// WorldPosition returns the sum of positions along the parent chain.
func (n *Node) WorldPosition() math.Vec3 {
	p := n.Position
	for a := n.Parent; a != nil; a = a.Parent {
		p = p.Add(a.Position)
	}
	return p
}

// WorldScale returns the product of scales along the parent chain.
func (n *Node) WorldScale() math.Vec3 {
	s := n.Scale
	for a := n.Parent; a != nil; a = a.Parent {
		s = s.Mul(a.Scale)
	}
	return s
}

// WorldMatrix composes translation and scale separately along the parent
// chain: positions add, scales multiply. A parent's scale applies to the
// geometry of its descendants but not to their positions, which are already
// in world units.
func (n *Node) WorldMatrix() math.Mat4 {
	return math.Translate(n.WorldPosition()).Mul(math.Scale(n.WorldScale()))
}

// Renderable reports whether the node has both a mesh and a material.
func (n *Node) Renderable() bool {
	return n.Mesh != nil && n.Material != nil
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree, including n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Bounds returns the world-space box around all mesh vertices under n.
// ok is false when the subtree has no vertices.
func (n *Node) Bounds() (minB, maxB math.Vec3, ok bool) {
	n.Walk(func(c *Node) bool {
		if c.Mesh == nil || len(c.Mesh.Positions) == 0 {
			return true
		}
		m := c.WorldMatrix()
		for _, p := range c.Mesh.Positions {
			w := m.TransformPoint(p)
			if !ok {
				minB, maxB, ok = w, w, true
				continue
			}
			minB = minB.Min(w)
			maxB = maxB.Max(w)
		}
		return true
	})
	return minB, maxB, ok
}
