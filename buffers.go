package mesh3

import (
	"fmt"

	"github.com/soypat/glgl/math/ms3"
)

// Buffers is a reconciled triangle mesh ready for upload: a vertex stream
// and a triangle list of indices into it.
type Buffers struct {
	Vertices []Vertex
	Indices  []uint32
}

// IndexCount returns the number of indices to draw.
func (b Buffers) IndexCount() uint32 { return uint32(len(b.Indices)) }

// TriangleCount returns the number of triangles in the index stream.
func (b Buffers) TriangleCount() int { return len(b.Indices) / 3 }

// Validate checks the index stream is a triangle list whose indices are
// all in range of the vertex stream.
func (b Buffers) Validate() error {
	if len(b.Indices)%3 != 0 {
		return fmt.Errorf("index count %d not a multiple of 3", len(b.Indices))
	}
	nv := uint32(len(b.Vertices))
	for i, idx := range b.Indices {
		if idx >= nv {
			return fmt.Errorf("index %d at position %d out of range of %d vertices", idx, i, nv)
		}
	}
	return nil
}

// Bounds returns the axis aligned bounding box of all vertex positions.
// It returns the zero Box for a mesh with no vertices.
func (b Buffers) Bounds() ms3.Box {
	if len(b.Vertices) == 0 {
		return ms3.Box{}
	}
	bb := ms3.Box{Min: b.Vertices[0].Position, Max: b.Vertices[0].Position}
	for _, v := range b.Vertices[1:] {
		bb.Min = ms3.MinElem(bb.Min, v.Position)
		bb.Max = ms3.MaxElem(bb.Max, v.Position)
	}
	return bb
}

// Triangles expands the index stream into triangles. Validate should be
// called beforehand for meshes from untrusted sources.
func (b Buffers) Triangles() []ms3.Triangle {
	tris := make([]ms3.Triangle, b.TriangleCount())
	for i := range tris {
		tris[i] = ms3.Triangle{
			b.Vertices[b.Indices[3*i]].Position,
			b.Vertices[b.Indices[3*i+1]].Position,
			b.Vertices[b.Indices[3*i+2]].Position,
		}
	}
	return tris
}
