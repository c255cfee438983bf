// Package renderer draws the loaded model with OpenGL.
package renderer

import (
	"fmt"

	"github.com/Faultbox/beanbag/internal/engine/camera"
	"github.com/Faultbox/beanbag/internal/engine/lighting"
	"github.com/Faultbox/beanbag/internal/engine/scene"
	"github.com/Faultbox/beanbag/internal/engine/shader"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

// gpuMesh is a mesh uploaded to the GPU plus the material values last read
// from it.
type gpuMesh struct {
	node       *scene.Node
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32

	synced    bool
	version   uint64
	color     mgl32.Vec3
	roughness float32
	metalness float32
}

// Renderer draws one scene.
type Renderer struct {
	log    *zap.Logger
	width  int
	height int

	program uint32

	locModel        int32
	locViewProj     int32
	locNormalMatrix int32
	locBaseColor    int32
	locRoughness    int32
	locMetalness    int32
	locCameraPos    int32
	locLightDir     int32
	locLightColor   int32
	locAmbient      int32

	scene  *scene.Scene
	meshes []*gpuMesh

	Background colorful.Color
	Light      lighting.Rig

	// materialReads counts material changes picked up since the last upload.
	materialReads int
}

// New creates a renderer. It must be called after the OpenGL context exists.
func New(width, height int, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{
		log:        log,
		width:      width,
		height:     height,
		Background: colorful.Color{R: 0.93, G: 0.93, B: 0.91},
		Light:      lighting.Studio(35, 55),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)

	program, err := shader.CompileProgram(shader.MeshVertexShader, shader.MeshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	r.program = program
	r.locModel = shader.MustGetUniform(program, "uModel")
	r.locViewProj = shader.MustGetUniform(program, "uViewProj")
	r.locNormalMatrix = shader.GetUniform(program, "uNormalMatrix")
	r.locBaseColor = shader.MustGetUniform(program, "uBaseColor")
	r.locRoughness = shader.GetUniform(program, "uRoughness")
	r.locMetalness = shader.GetUniform(program, "uMetalness")
	r.locCameraPos = shader.GetUniform(program, "uCameraPos")
	r.locLightDir = shader.GetUniform(program, "uLightDir")
	r.locLightColor = shader.GetUniform(program, "uLightColor")
	r.locAmbient = shader.GetUniform(program, "uAmbient")

	gl.Viewport(0, 0, int32(width), int32(height))
	return r, nil
}

// SetScene replaces the drawn scene, uploading its meshes once.
func (r *Renderer) SetScene(sc *scene.Scene) {
	r.release()
	r.scene = sc
	if sc == nil {
		return
	}
	for _, n := range sc.Meshes() {
		if n.Mesh.Geometry == nil || len(n.Mesh.Geometry.Positions) == 0 {
			continue
		}
		r.meshes = append(r.meshes, upload(n))
	}
	r.materialReads = 0
	r.log.Debug("scene uploaded", zap.String("scene", sc.Name), zap.Int("meshes", len(r.meshes)))
}

func upload(n *scene.Node) *gpuMesh {
	g := n.Mesh.Geometry
	vertices := interleave(g)
	indices := g.Indices

	m := &gpuMesh{node: n, indexCount: int32(len(indices))}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)

	gl.BindVertexArray(0)
	return m
}

func (r *Renderer) release() {
	for _, m := range r.meshes {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
	}
	r.meshes = nil
	r.scene = nil
}

// Resize updates the viewport to a drawable size in pixels.
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Render draws the scene from cam.
func (r *Renderer) Render(cam *camera.OrbitCamera) {
	bg := r.Background
	gl.ClearColor(float32(bg.R), float32(bg.G), float32(bg.B), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if len(r.meshes) == 0 {
		return
	}

	aspect := float32(1)
	if r.height > 0 {
		aspect = float32(r.width) / float32(r.height)
	}
	viewProj := cam.ProjectionMatrix(aspect).Mul4(cam.ViewMatrix())
	camPos := cam.Position()

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.locViewProj, 1, false, &viewProj[0])
	gl.Uniform3fv(r.locCameraPos, 1, &camPos[0])
	gl.Uniform3fv(r.locLightDir, 1, &r.Light.Direction[0])
	gl.Uniform3fv(r.locLightColor, 1, &r.Light.Color[0])
	gl.Uniform3fv(r.locAmbient, 1, &r.Light.Ambient[0])

	for _, m := range r.meshes {
		r.syncMaterial(m)

		model := m.node.WorldMatrix()
		normal := normalMatrix(model)
		gl.UniformMatrix4fv(r.locModel, 1, false, &model[0])
		gl.UniformMatrix3fv(r.locNormalMatrix, 1, false, &normal[0])
		gl.Uniform3fv(r.locBaseColor, 1, &m.color[0])
		gl.Uniform1f(r.locRoughness, m.roughness)
		gl.Uniform1f(r.locMetalness, m.metalness)

		gl.BindVertexArray(m.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
	}
	gl.BindVertexArray(0)
}

// syncMaterial re-reads a material only when its version moved.
func (r *Renderer) syncMaterial(m *gpuMesh) {
	mat := m.node.Mesh.Material
	if mat == nil || (m.synced && mat.Version == m.version) {
		return
	}
	m.synced = true
	m.version = mat.Version
	m.color = lighting.Linear(mat.Color)
	m.roughness = float32(mat.Roughness)
	m.metalness = float32(mat.Metalness)
	r.materialReads++
}

// MaterialReads returns how many material changes were picked up since the
// scene was uploaded.
func (r *Renderer) MaterialReads() int {
	return r.materialReads
}

// ReadPixels returns the last rendered frame as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	pixels := make([]byte, r.width*r.height*4)
	if len(pixels) == 0 {
		return pixels, r.width, r.height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, r.width, r.height
}

// Close releases GPU resources.
func (r *Renderer) Close() {
	r.log.Debug("closing renderer")
	r.release()
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
}
