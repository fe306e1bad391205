// Package renderer draws assembled map scenes with OpenGL.
package renderer

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/vbsp-viewer/internal/engine/scene"
	"github.com/Faultbox/vbsp-viewer/internal/engine/shader"
	"github.com/Faultbox/vbsp-viewer/internal/engine/shaders"
	"github.com/Faultbox/vbsp-viewer/internal/logger"
	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	// ShowGrid overlays a faint checker in material texture space.
	ShowGrid bool
	// Multisample enables MSAA resolve on a multisampled framebuffer.
	Multisample bool
}

// gpuMesh is the GPU copy of one renderable node.
type gpuMesh struct {
	vao        uint32
	vbo        [3]uint32 // positions, uv1, uv2
	ebo        uint32
	indexCount int32
	lightmap   uint32
}

// Renderer owns the map shader program and the GPU resources of uploaded nodes.
// It must be created and used on the thread that owns the GL context.
type Renderer struct {
	config  Config
	program *shader.Program
	meshes  map[*scene.Node]*gpuMesh
}

// New initializes OpenGL and compiles the map shader.
// Must be called after the OpenGL context is created.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	// Map faces wind clockwise seen from the front.
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CW)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	if cfg.Multisample {
		gl.Enable(gl.MULTISAMPLE)
	}

	program, err := shader.New(shaders.MapVertexShader, shaders.MapFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("map shader: %w", err)
	}

	r := &Renderer{
		config:  cfg,
		program: program,
		meshes:  make(map[*scene.Node]*gpuMesh),
	}
	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// SetShowGrid toggles the material-space checker overlay.
func (r *Renderer) SetShowGrid(show bool) {
	r.config.ShowGrid = show
}

// ShowGrid reports whether the checker overlay is on.
func (r *Renderer) ShowGrid() bool {
	return r.config.ShowGrid
}

// Resize updates the viewport.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Upload copies every renderable node under root to the GPU.
// Nodes already uploaded are skipped.
func (r *Renderer) Upload(root *scene.Node) {
	uploaded, indices := 0, 0
	root.Walk(func(n *scene.Node) bool {
		if !n.Renderable() || len(n.Mesh.Indices) == 0 {
			return true
		}
		if _, ok := r.meshes[n]; ok {
			return true
		}
		r.meshes[n] = uploadMesh(n.Mesh, n.Material)
		uploaded++
		indices += len(n.Mesh.Indices)
		return true
	})
	logger.Info("scene uploaded", zap.Int("meshes", uploaded), zap.Int("indices", indices))
}

func uploadMesh(m *scene.Mesh, mat *scene.Material) *gpuMesh {
	g := &gpuMesh{indexCount: int32(len(m.Indices))}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)
	gl.GenBuffers(3, &g.vbo[0])

	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo[0])
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Positions)*12, unsafe.Pointer(&m.Positions[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 12, 0)
	gl.EnableVertexAttribArray(0)

	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo[1])
	gl.BufferData(gl.ARRAY_BUFFER, len(m.UV1)*8, unsafe.Pointer(&m.UV1[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 8, 0)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo[2])
	gl.BufferData(gl.ARRAY_BUFFER, len(m.UV2)*8, unsafe.Pointer(&m.UV2[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, 8, 0)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	g.lightmap = uploadLightmap(mat.Lightmap)
	return g
}

// uploadLightmap creates a texture without mipmaps; atlas neighbours would
// bleed into each other at lower levels.
func uploadLightmap(img *image.RGBA) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	if img == nil || img.Bounds().Empty() {
		white := [4]uint8{255, 255, 255, 255}
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&white[0]))
	} else {
		b := img.Bounds()
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(b.Dx()), int32(b.Dy()),
			0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[img.PixOffset(b.Min.X, b.Min.Y)]))
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	}

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// Begin clears the frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Draw renders every uploaded node under root.
func (r *Renderer) Draw(root *scene.Node, view, proj math.Mat4) {
	r.program.Use()
	r.program.SetMat4("uView", view)
	r.program.SetMat4("uProjection", proj)
	r.program.SetInt("uLightmap", 0)
	r.program.SetBool("uShowGrid", r.config.ShowGrid)
	gl.ActiveTexture(gl.TEXTURE0)

	root.Walk(func(n *scene.Node) bool {
		g, ok := r.meshes[n]
		if !ok {
			return true
		}
		r.program.SetMat4("uModel", n.WorldMatrix())
		gl.BindTexture(gl.TEXTURE_2D, g.lightmap)
		gl.BindVertexArray(g.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_INT, 0)
		return true
	})

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// ReadPixels returns the current framebuffer as RGBA rows, bottom row first.
func (r *Renderer) ReadPixels() []byte {
	pixels := make([]byte, r.config.Width*r.config.Height*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.ReadPixels(0, 0, int32(r.config.Width), int32(r.config.Height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}

// Release frees the GPU resources of every uploaded node.
func (r *Renderer) Release() {
	for n, g := range r.meshes {
		gl.DeleteVertexArrays(1, &g.vao)
		gl.DeleteBuffers(3, &g.vbo[0])
		gl.DeleteBuffers(1, &g.ebo)
		gl.DeleteTextures(1, &g.lightmap)
		delete(r.meshes, n)
	}
}

// Close frees all GPU resources including the shader program.
func (r *Renderer) Close() {
	logger.Debug("closing renderer")
	r.Release()
	r.program.Delete()
}
