// Package glview uploads mesh3 buffers to OpenGL and draws them lit by a
// single point light. The GL context is expected to be created with
// glgl.InitWithCurrentWindow33, which loads the v4.6-core bindings used here.
// Everything except AttribPointers requires a current context.
package glview

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/gogpu/gputypes"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/mesh3"
)

// shaderAttribs lists the vertex inputs of the mesh shader by location.
// Names are null terminated as glgl requires.
var shaderAttribs = []struct {
	Location uint32
	Name     string
}{
	{mesh3.LocationPosition, "aPosition\x00"},
	{mesh3.LocationNormal, "aNormal\x00"},
}

func attribName(location uint32) (string, bool) {
	for _, a := range shaderAttribs {
		if a.Location == location {
			return a.Name, true
		}
	}
	return "", false
}

// AttribPointer describes how one vertex attribute is read from the vertex buffer.
type AttribPointer struct {
	Location uint32
	// Name is the null terminated shader input bound at Location.
	Name   string
	Size   int32
	Type   uint32
	Offset int
}

// AttribPointers translates the layout of format into OpenGL vertex
// attribute pointers and the buffer stride.
func AttribPointers(format mesh3.Format) ([]AttribPointer, int32, error) {
	layout := format.Layout()
	ptrs := make([]AttribPointer, len(layout.Attributes))
	for i, attr := range layout.Attributes {
		var size int32
		switch attr.Format {
		case gputypes.VertexFormatFloat32:
			size = 1
		case gputypes.VertexFormatFloat32x2:
			size = 2
		case gputypes.VertexFormatFloat32x3:
			size = 3
		case gputypes.VertexFormatFloat32x4:
			size = 4
		default:
			return nil, 0, fmt.Errorf("glview: unsupported vertex format %v", attr.Format)
		}
		name, ok := attribName(attr.ShaderLocation)
		if !ok {
			return nil, 0, fmt.Errorf("glview: no shader input at location %d", attr.ShaderLocation)
		}
		ptrs[i] = AttribPointer{
			Location: attr.ShaderLocation,
			Name:     name,
			Size:     size,
			Type:     gl.FLOAT,
			Offset:   int(attr.Offset),
		}
	}
	return ptrs, int32(layout.ArrayStride), nil
}

// constantAttribs returns the shader input locations not supplied by ptrs.
// These read the current generic attribute value instead of the buffer.
func constantAttribs(ptrs []AttribPointer) []uint32 {
	var missing []uint32
outer:
	for _, a := range shaderAttribs {
		for _, p := range ptrs {
			if p.Location == a.Location {
				continue outer
			}
		}
		missing = append(missing, a.Location)
	}
	return missing
}

// Mesh is a mesh resident in OpenGL buffers.
type Mesh struct {
	vao glgl.VertexArray
	// vaoID is kept for deletion, which glgl does not provide.
	vaoID       uint32
	vbo         glgl.VertexBuffer
	ebo         glgl.IndexBuffer
	indexed     bool
	constant    []uint32
	indexCount  int32
	vertexCount int32
}

// Upload creates a vertex array object for b with vertices encoded in format
// and binds its attributes to the inputs of prog. Inputs the format does not
// supply, such as normals of mesh3.PositionFormat, are drawn as
// mesh3.DefaultNormal.
func Upload(prog *Program, b mesh3.Buffers, format mesh3.Format) (*Mesh, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(b.Vertices) == 0 {
		return nil, errors.New("glview: mesh has no vertices")
	}
	ptrs, stride, err := AttribPointers(format)
	if err != nil {
		return nil, err
	}
	m := &Mesh{
		constant:    constantAttribs(ptrs),
		indexCount:  int32(len(b.Indices)),
		vertexCount: int32(len(b.Vertices)),
	}
	m.vao = glgl.NewVAO()
	var id int32
	gl.GetIntegerv(gl.VERTEX_ARRAY_BINDING, &id)
	m.vaoID = uint32(id)
	defer m.vao.Unbind()

	m.vbo, err = glgl.NewVertexBuffer(glgl.StaticDraw, format.AppendVertices(nil, b.Vertices))
	if err != nil {
		m.Delete()
		return nil, fmt.Errorf("glview: vertex buffer: %w", err)
	}
	for _, p := range ptrs {
		err = m.vao.AddAttribute(m.vbo, glgl.AttribLayout{
			Program: prog.prog,
			Type:    glgl.Type(p.Type),
			Name:    p.Name,
			Packing: int(p.Size),
			Stride:  int(stride),
			Offset:  p.Offset,
		})
		if err != nil {
			m.Delete()
			return nil, fmt.Errorf("glview: attribute %s: %w", p.Name[:len(p.Name)-1], err)
		}
	}
	if len(b.Indices) > 0 {
		m.ebo, err = glgl.NewIndexBuffer(b.Indices)
		if err != nil {
			m.Delete()
			return nil, fmt.Errorf("glview: index buffer: %w", err)
		}
		m.indexed = true
	}
	mesh3.Logger().Debug("uploaded GL mesh", "vertices", m.vertexCount, "indices", m.indexCount,
		"constant", len(m.constant))
	return m, nil
}

// Draw issues the draw call for the mesh with the currently bound program.
// Meshes without faces are drawn as points.
func (m *Mesh) Draw() {
	m.vao.Bind()
	for _, loc := range m.constant {
		n := mesh3.DefaultNormal
		gl.VertexAttrib3f(loc, n.X, n.Y, n.Z)
	}
	if m.indexed {
		gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	} else {
		gl.DrawArrays(gl.POINTS, 0, m.vertexCount)
	}
	m.vao.Unbind()
}

// Delete releases the OpenGL objects of the mesh.
func (m *Mesh) Delete() {
	if m.indexed {
		m.ebo.Delete()
		m.indexed = false
	}
	m.vbo.Delete()
	if m.vaoID != 0 {
		gl.DeleteVertexArrays(1, &m.vaoID)
		m.vaoID = 0
	}
}
