// Package renderer implements the GPU device on OpenGL 4.1 core: mesh and
// texture uploads, the shader programs and the draw calls.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/arplace/internal/engine/gpu"
	"github.com/Faultbox/arplace/internal/engine/renderer/shaders"
	"github.com/Faultbox/arplace/internal/engine/shader"
	"github.com/Faultbox/arplace/internal/logger"
	"github.com/Faultbox/arplace/pkg/math"
)

// ErrGL wraps errors reported by glGetError.
var ErrGL = errors.New("GL error")

const (
	floatSize = 4
	indexSize = 2
)

type litProgram struct {
	id          uint32
	mvp         int32
	modelView   int32
	light       int32
	color       int32
	textureUnit int32
}

type materialProgram struct {
	id          uint32
	mvp         int32
	ka, kd, ks  int32
	textureUnit int32
}

type lineProgram struct {
	id    uint32
	mvp   int32
	color int32
}

// Device issues GL calls against the current context. It must be created and
// used on the thread that owns the context.
type Device struct {
	lit      litProgram
	material materialProgram
	line     lineProgram

	lineVAO uint32
	lineVBO uint32
	lineCap int
}

// NewDevice loads GL function pointers and compiles the shader programs.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	d := &Device{}
	if err := d.compile(); err != nil {
		d.Close()
		return nil, err
	}

	gl.GenVertexArrays(1, &d.lineVAO)
	gl.GenBuffers(1, &d.lineVBO)
	gl.BindVertexArray(d.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.lineVBO)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*floatSize, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	return d, checkError("device setup")
}

func (d *Device) compile() error {
	id, err := shader.CompileProgram(shaders.ObjectVertexShader, shaders.ObjectFragmentShader)
	if err != nil {
		return fmt.Errorf("object shader: %w", err)
	}
	d.lit.id = id
	locs, err := shader.Locate(id, "uMVP", "uModelView", "uLight", "uColor", "uTexture")
	if err != nil {
		return fmt.Errorf("object shader: %w", err)
	}
	d.lit.mvp, d.lit.modelView, d.lit.light = locs["uMVP"], locs["uModelView"], locs["uLight"]
	d.lit.color, d.lit.textureUnit = locs["uColor"], locs["uTexture"]

	id, err = shader.CompileProgram(shaders.MaterialVertexShader, shaders.MaterialFragmentShader)
	if err != nil {
		return fmt.Errorf("material shader: %w", err)
	}
	d.material.id = id
	locs, err = shader.Locate(id, "uMVP", "uKa", "uKd", "uKs", "uTexture")
	if err != nil {
		return fmt.Errorf("material shader: %w", err)
	}
	d.material.mvp = locs["uMVP"]
	d.material.ka, d.material.kd, d.material.ks = locs["uKa"], locs["uKd"], locs["uKs"]
	d.material.textureUnit = locs["uTexture"]

	id, err = shader.CompileProgram(shaders.LineVertexShader, shaders.LineFragmentShader)
	if err != nil {
		return fmt.Errorf("line shader: %w", err)
	}
	d.line.id = id
	locs, err = shader.Locate(id, "uMVP", "uColor")
	if err != nil {
		return fmt.Errorf("line shader: %w", err)
	}
	d.line.mvp, d.line.color = locs["uMVP"], locs["uColor"]
	return nil
}

// UploadMesh copies the mesh into one vertex buffer (positions, then
// texcoords, then normals) and one 16-bit index buffer.
func (d *Device) UploadMesh(data gpu.MeshData) (gpu.Mesh, error) {
	if err := data.Validate(); err != nil {
		return gpu.Mesh{}, err
	}
	m := gpu.Mesh{
		Layout:     gpu.NewLayout(len(data.Positions) / 3),
		IndexCount: int32(len(data.Indices)),
	}

	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, m.Layout.TotalBytes, nil, gl.STATIC_DRAW)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(data.Positions)*floatSize, unsafe.Pointer(&data.Positions[0]))
	gl.BufferSubData(gl.ARRAY_BUFFER, m.Layout.TexCoordOffset, len(data.TexCoords)*floatSize, unsafe.Pointer(&data.TexCoords[0]))
	gl.BufferSubData(gl.ARRAY_BUFFER, m.Layout.NormalOffset, len(data.Normals)*floatSize, unsafe.Pointer(&data.Normals[0]))

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 0, uintptr(m.Layout.TexCoordOffset))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 3, gl.FLOAT, false, 0, uintptr(m.Layout.NormalOffset))
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &m.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*indexSize, unsafe.Pointer(&data.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	if err := checkError("upload mesh"); err != nil {
		d.ReleaseMesh(m)
		return gpu.Mesh{}, err
	}
	return m, nil
}

// UploadTexture uploads an RGBA image with mipmaps.
func (d *Device) UploadTexture(img *image.RGBA) (gpu.Texture, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("upload texture: empty image")
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := checkError("upload texture"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}
	return gpu.Texture(id), nil
}

// ReleaseMesh deletes the mesh's GL objects. Zero handles are skipped.
func (d *Device) ReleaseMesh(m gpu.Mesh) {
	if m.EBO != 0 {
		gl.DeleteBuffers(1, &m.EBO)
	}
	if m.VBO != 0 {
		gl.DeleteBuffers(1, &m.VBO)
	}
	if m.VAO != 0 {
		gl.DeleteVertexArrays(1, &m.VAO)
	}
}

// ReleaseTexture deletes a texture.
func (d *Device) ReleaseTexture(t gpu.Texture) {
	if t == 0 {
		return
	}
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

// DrawLit draws the whole mesh with the textured-lit program.
func (d *Device) DrawLit(m gpu.Mesh, tex gpu.Texture, p gpu.LitParams) error {
	gl.UseProgram(d.lit.id)
	gl.UniformMatrix4fv(d.lit.mvp, 1, false, p.MVP.Ptr())
	gl.UniformMatrix4fv(d.lit.modelView, 1, false, p.ModelView.Ptr())
	gl.Uniform4f(d.lit.light, p.Light[0], p.Light[1], p.Light[2], p.Light[3])
	gl.Uniform4f(d.lit.color, p.Color[0], p.Color[1], p.Color[2], p.Color[3])

	bindTexture(d.lit.textureUnit, tex)
	drawElements(m, 0, int(m.IndexCount))
	return checkError("draw lit")
}

// DrawMaterial draws one index range of the mesh with the material program.
func (d *Device) DrawMaterial(m gpu.Mesh, tex gpu.Texture, r gpu.Range, p gpu.MaterialParams) error {
	if r.Start < 0 || r.Count <= 0 || r.Start+r.Count > int(m.IndexCount) {
		return fmt.Errorf("draw material: range %d+%d outside %d indices", r.Start, r.Count, m.IndexCount)
	}
	gl.UseProgram(d.material.id)
	gl.UniformMatrix4fv(d.material.mvp, 1, false, p.MVP.Ptr())
	gl.Uniform3f(d.material.ka, p.Ambient[0], p.Ambient[1], p.Ambient[2])
	gl.Uniform3f(d.material.kd, p.Diffuse[0], p.Diffuse[1], p.Diffuse[2])
	gl.Uniform3f(d.material.ks, p.Specular[0], p.Specular[1], p.Specular[2])

	bindTexture(d.material.textureUnit, tex)
	drawElements(m, r.Start, r.Count)
	return checkError("draw material")
}

// DrawLines draws a GL_LINES list of xyz vertices in a flat color.
func (d *Device) DrawLines(vertices []float32, mvp math.Mat4, color [4]float32) error {
	if len(vertices) == 0 {
		return nil
	}
	gl.UseProgram(d.line.id)
	gl.UniformMatrix4fv(d.line.mvp, 1, false, mvp.Ptr())
	gl.Uniform4f(d.line.color, color[0], color[1], color[2], color[3])

	gl.BindVertexArray(d.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.lineVBO)
	size := len(vertices) * floatSize
	if size > d.lineCap {
		gl.BufferData(gl.ARRAY_BUFFER, size, unsafe.Pointer(&vertices[0]), gl.DYNAMIC_DRAW)
		d.lineCap = size
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, unsafe.Pointer(&vertices[0]))
	}
	gl.DrawArrays(gl.LINES, 0, int32(len(vertices)/3))
	gl.BindVertexArray(0)
	return checkError("draw lines")
}

// BeginFrame sets the viewport and clears color and depth.
func (d *Device) BeginFrame(width, height int, clear [4]float32) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(clear[0], clear[1], clear[2], clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (d *Device) ReadPixels(width, height int) ([]byte, error) {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	if err := checkError("read pixels"); err != nil {
		return nil, err
	}
	return pixels, nil
}

// Close deletes the programs and the line buffers.
func (d *Device) Close() {
	for _, id := range []uint32{d.lit.id, d.material.id, d.line.id} {
		if id != 0 {
			gl.DeleteProgram(id)
		}
	}
	if d.lineVBO != 0 {
		gl.DeleteBuffers(1, &d.lineVBO)
	}
	if d.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &d.lineVAO)
	}
	*d = Device{}
}

func bindTexture(loc int32, tex gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	gl.Uniform1i(loc, 0)
}

func drawElements(m gpu.Mesh, start, count int) {
	gl.BindVertexArray(m.VAO)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(count), gl.UNSIGNED_SHORT, uintptr(start*indexSize))
	gl.BindVertexArray(0)
}

// checkError drains the GL error queue and reports the first error.
func checkError(op string) error {
	var first uint32
	for {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: %w 0x%04x", op, ErrGL, first)
	}
	return nil
}
