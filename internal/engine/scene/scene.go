// Package scene holds the loaded model as a node hierarchy of meshes and
// materials.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Material is the surface description the renderer reads every frame.
// Version is bumped by the single writer whenever a value changes so the
// renderer can skip re-uploading unchanged materials.
type Material struct {
	Color     colorful.Color
	Roughness float64
	Metalness float64
	Version   uint64
}

// MarkDirty flags the material for re-upload.
func (m *Material) MarkDirty() {
	m.Version++
}

// Geometry is indexed triangle data in the mesh's local space.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
	Bounds    Box
}

// NewGeometry builds geometry and computes its bounds.
func NewGeometry(positions, normals []mgl32.Vec3, indices []uint32) *Geometry {
	g := &Geometry{
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
		Bounds:    EmptyBox(),
	}
	for _, p := range positions {
		g.Bounds = g.Bounds.Expand(p)
	}
	return g
}

// Mesh is a renderable surface.
type Mesh struct {
	Name          string
	Geometry      *Geometry
	Material      *Material
	CastShadow    bool
	ReceiveShadow bool
}

// Node is a transform in the hierarchy, optionally carrying a mesh.
type Node struct {
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Children []*Node
	Mesh     *Mesh

	parent *Node
}

// NewNode creates a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Add attaches child to n.
func (n *Node) Add(child *Node) {
	child.parent = n
	n.Children = append(n.Children, child)
}

// Parent returns the node's parent, nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// LocalMatrix returns T * R * S.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := n.Rotation.Mat4()
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix composes local matrices up to the root.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// Scene is a loaded model.
type Scene struct {
	Name string
	Root *Node
}

// New creates an empty scene with a root node.
func New(name string) *Scene {
	return &Scene{Name: name, Root: NewNode("root")}
}

// Traverse visits every node depth-first, parents before children.
func (s *Scene) Traverse(fn func(*Node)) {
	var walk func(*Node)
	walk = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	if s.Root != nil {
		walk(s.Root)
	}
}

// Meshes returns the nodes that carry a mesh, in traversal order.
func (s *Scene) Meshes() []*Node {
	var out []*Node
	s.Traverse(func(n *Node) {
		if n.Mesh != nil {
			out = append(out, n)
		}
	})
	return out
}

// Bounds returns the world-space box around all mesh geometry.
func (s *Scene) Bounds() Box {
	box := EmptyBox()
	for _, n := range s.Meshes() {
		if n.Mesh.Geometry == nil || n.Mesh.Geometry.Bounds.Empty() {
			continue
		}
		box = box.Union(n.Mesh.Geometry.Bounds.Transform(n.WorldMatrix()))
	}
	return box
}
