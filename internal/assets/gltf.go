package assets

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/beanbag/internal/engine/scene"
)

// Decode reads a glTF or GLB document and builds its default scene.
// Buffers must be embedded (GLB or data URIs).
func Decode(r io.Reader, name string) (*scene.Scene, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, err
	}
	return BuildScene(doc, name)
}

// BuildScene converts the document's default scene into a scene graph.
// Primitives become one mesh each; non-triangle primitives are skipped.
func BuildScene(doc *gltf.Document, name string) (*scene.Scene, error) {
	sc := scene.New(name)

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		// No scenes: treat every node as a root.
		for i := range doc.Nodes {
			roots = append(roots, i)
		}
	}

	b := &builder{doc: doc, visiting: make(map[int]bool)}
	for _, idx := range roots {
		n, err := b.node(idx)
		if err != nil {
			return nil, err
		}
		sc.Root.Add(n)
	}
	if len(sc.Meshes()) == 0 {
		return nil, ErrNoScene
	}
	return sc, nil
}

type builder struct {
	doc      *gltf.Document
	visiting map[int]bool
}

func (b *builder) node(idx int) (*scene.Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if b.visiting[idx] {
		return nil, fmt.Errorf("node %d is part of a cycle", idx)
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.doc.Nodes[idx]
	n := scene.NewNode(src.Name)
	applyTransform(n, src)

	if src.Mesh != nil {
		if err := b.mesh(n, *src.Mesh); err != nil {
			return nil, err
		}
	}
	for _, c := range src.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

// mesh attaches the primitives of mesh idx to n: a single primitive goes on
// n itself, several become child nodes.
func (b *builder) mesh(n *scene.Node, idx int) error {
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", idx)
	}
	src := b.doc.Meshes[idx]
	name := src.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", idx)
	}

	var meshes []*scene.Mesh
	for i, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		geo, err := b.geometry(prim)
		if err != nil {
			return fmt.Errorf("mesh %s primitive %d: %w", name, i, err)
		}
		meshes = append(meshes, &scene.Mesh{
			Name:          name,
			Geometry:      geo,
			Material:      &scene.Material{},
			CastShadow:    true,
			ReceiveShadow: true,
		})
	}

	if len(meshes) == 1 {
		n.Mesh = meshes[0]
		return nil
	}
	for i, m := range meshes {
		m.Name = fmt.Sprintf("%s_%d", name, i)
		child := scene.NewNode(m.Name)
		child.Mesh = m
		n.Add(child)
	}
	return nil
}

func (b *builder) geometry(prim *gltf.Primitive) (*scene.Geometry, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok || posIdx >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("missing POSITION attribute")
	}
	rawPos, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	positions := make([]mgl32.Vec3, len(rawPos))
	for i, p := range rawPos {
		positions[i] = mgl32.Vec3(p)
	}

	var normals []mgl32.Vec3
	if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok && nIdx < len(b.doc.Accessors) {
		rawNorm, err := modeler.ReadNormal(b.doc, b.doc.Accessors[nIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		normals = make([]mgl32.Vec3, len(rawNorm))
		for i, v := range rawNorm {
			normals[i] = mgl32.Vec3(v)
		}
	}

	var indices []uint32
	if prim.Indices != nil && *prim.Indices < len(b.doc.Accessors) {
		indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, i := range indices {
		if int(i) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range (%d vertices)", i, len(positions))
		}
	}

	return scene.NewGeometry(positions, normals, indices), nil
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// applyTransform copies a glTF node transform. An explicit matrix is
// decomposed into translation, rotation and scale.
func applyTransform(n *scene.Node, src *gltf.Node) {
	if src.Matrix != ([16]float64{}) && src.Matrix != identityMatrix {
		var m mgl32.Mat4
		for i, v := range src.Matrix {
			m[i] = float32(v)
		}
		n.Position = m.Col(3).Vec3()
		sx := m.Col(0).Vec3().Len()
		sy := m.Col(1).Vec3().Len()
		sz := m.Col(2).Vec3().Len()
		n.Scale = mgl32.Vec3{sx, sy, sz}
		if sx != 0 && sy != 0 && sz != 0 {
			rot := mgl32.Mat4FromCols(
				m.Col(0).Mul(1/sx),
				m.Col(1).Mul(1/sy),
				m.Col(2).Mul(1/sz),
				mgl32.Vec4{0, 0, 0, 1},
			)
			n.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
		}
		return
	}

	t := src.TranslationOrDefault()
	r := src.RotationOrDefault()
	s := src.ScaleOrDefault()
	n.Position = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
	n.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	n.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
}
