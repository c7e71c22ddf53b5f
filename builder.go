package mesh3

import (
	"errors"
	"fmt"

	"github.com/soypat/glgl/math/ms3"
)

// maxRecordedLines caps the amount of skipped line numbers kept in Diagnostics.
const maxRecordedLines = 16

// Diagnostics reports recoverable problems found while building a mesh.
// None of them prevent a mesh from being produced.
type Diagnostics struct {
	// Lines is the number of lines consumed.
	Lines int
	// Unknown counts lines with an unrecognized directive. These are ignored
	// and are not considered malformed.
	Unknown int
	// Skipped* count malformed lines under a recognized directive.
	SkippedVertices int
	SkippedNormals  int
	SkippedFaces    int
	// SkippedLines holds the 1-based line numbers of the first malformed lines.
	SkippedLines []int
	// RawVertices and RawNormals are the amount of parsed v and vn lines.
	RawVertices int
	RawNormals  int
	// DroppedFaces counts faces referencing a vertex that was not emitted.
	DroppedFaces int
}

// Skipped returns the total amount of malformed lines.
func (d Diagnostics) Skipped() int {
	return d.SkippedVertices + d.SkippedNormals + d.SkippedFaces
}

// NormalMismatch reports whether normals were declared but their count
// differs from the vertex count. Reconciliation is then truncated to the
// shorter sequence.
func (d Diagnostics) NormalMismatch() bool {
	return d.RawNormals != 0 && d.RawNormals != d.RawVertices
}

// Err returns a non-nil error summarizing the diagnostics if any line was
// skipped, normals mismatched or faces were dropped.
func (d Diagnostics) Err() error {
	var errs []error
	if n := d.Skipped(); n > 0 {
		errs = append(errs, fmt.Errorf("%d malformed lines skipped (v=%d vn=%d f=%d), first at %v",
			n, d.SkippedVertices, d.SkippedNormals, d.SkippedFaces, d.SkippedLines))
	}
	if d.NormalMismatch() {
		errs = append(errs, fmt.Errorf("%d normals for %d vertices", d.RawNormals, d.RawVertices))
	}
	if d.DroppedFaces > 0 {
		errs = append(errs, fmt.Errorf("%d faces reference missing vertices", d.DroppedFaces))
	}
	return errors.Join(errs...)
}

// Builder accumulates raw mesh attributes for a single load and reconciles
// them into Buffers. The zero value is ready to use.
type Builder struct {
	positions []ms3.Vec
	normals   []ms3.Vec
	faces     [][3]uint32
	diag      Diagnostics
}

// AddLine classifies and parses one line of a text mesh. Malformed lines
// are recorded in the diagnostics and otherwise ignored.
func (b *Builder) AddLine(line string) {
	b.diag.Lines++
	dir, payload := Classify(line)
	var ok bool
	switch dir {
	case DirectiveVertex:
		var v ms3.Vec
		if v, ok = parseVec(payload); ok {
			b.AddVertex(v)
		} else {
			b.diag.SkippedVertices++
		}
	case DirectiveNormal:
		var n ms3.Vec
		if n, ok = parseVec(payload); ok {
			b.AddNormal(n)
		} else {
			b.diag.SkippedNormals++
		}
	case DirectiveFace:
		var f [3]uint32
		if f, ok = parseFace(payload); ok {
			b.AddFace(f)
		} else {
			b.diag.SkippedFaces++
		}
	default:
		b.diag.Unknown++
		return
	}
	if !ok {
		if len(b.diag.SkippedLines) < maxRecordedLines {
			b.diag.SkippedLines = append(b.diag.SkippedLines, b.diag.Lines)
		}
		logger().Debug("skipped malformed line", "line", b.diag.Lines, "directive", dir.String())
	}
}

// AddVertex appends a raw vertex position.
func (b *Builder) AddVertex(v ms3.Vec) { b.positions = append(b.positions, v) }

// AddNormal appends a raw vertex normal. Normals pair with vertices by position.
func (b *Builder) AddNormal(n ms3.Vec) { b.normals = append(b.normals, n) }

// AddFace appends a triangle of 0-based vertex indices.
func (b *Builder) AddFace(f [3]uint32) { b.faces = append(b.faces, f) }

// Build reconciles the accumulated attributes into GPU ready buffers.
//
// Without normals every vertex gets DefaultNormal. With normals, vertex i
// is paired with normal i and vertices beyond the shorter sequence are not
// emitted. Faces referencing vertices that were not emitted are dropped so
// every index in the result is valid.
func (b *Builder) Build() (Buffers, Diagnostics) {
	diag := b.diag
	diag.RawVertices = len(b.positions)
	diag.RawNormals = len(b.normals)

	var vertices []Vertex
	if len(b.normals) == 0 {
		vertices = make([]Vertex, len(b.positions))
		for i, p := range b.positions {
			vertices[i] = Vertex{Position: p, Normal: DefaultNormal}
		}
	} else {
		n := min(len(b.positions), len(b.normals))
		vertices = make([]Vertex, n)
		for i := range vertices {
			vertices[i] = Vertex{Position: b.positions[i], Normal: b.normals[i]}
		}
	}

	nv := uint32(len(vertices))
	indices := make([]uint32, 0, 3*len(b.faces))
	for _, f := range b.faces {
		if f[0] >= nv || f[1] >= nv || f[2] >= nv {
			diag.DroppedFaces++
			continue
		}
		indices = append(indices, f[0], f[1], f[2])
	}

	if diag.NormalMismatch() {
		logger().Warn("vertex and normal counts differ, truncating mesh",
			"vertices", diag.RawVertices, "normals", diag.RawNormals, "emitted", len(vertices))
	}
	if diag.DroppedFaces > 0 {
		logger().Warn("dropped faces referencing missing vertices", "faces", diag.DroppedFaces)
	}
	if len(diag.SkippedLines) > 0 {
		diag.SkippedLines = append([]int(nil), diag.SkippedLines...)
	}
	return Buffers{Vertices: vertices, Indices: indices}, diag
}
