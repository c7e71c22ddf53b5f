package mesh3

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/soypat/glgl/math/ms3"
)

// DefaultNormal is assigned to every vertex of a mesh that declares no normals.
var DefaultNormal = ms3.Vec{X: 0, Y: 1, Z: 0}

// Vertex is the GPU-facing vertex record: position followed by normal,
// both three float32 components with no padding in between.
type Vertex struct {
	Position ms3.Vec
	Normal   ms3.Vec
}

// PosVertex is a position-only vertex record.
type PosVertex struct {
	Position ms3.Vec
}

// Shader locations of vertex attributes.
const (
	LocationPosition = 0
	LocationNormal   = 1
)

const (
	vec3Size       = 12
	posVertexSize  = vec3Size
	vertexSize     = 2 * vec3Size
	offsetPosition = 0
	offsetNormal   = vec3Size
)

// Format describes how a vertex stream is laid out in a GPU buffer.
// The set of formats is closed: PositionFormat and PositionNormalFormat.
type Format interface {
	// Layout returns the vertex buffer layout consumed by the render pipeline.
	Layout() gputypes.VertexBufferLayout
	// Stride is the size in bytes of a single vertex in the buffer.
	Stride() int
	// AppendVertices encodes vertices in little-endian byte order and appends
	// them to dst.
	AppendVertices(dst []byte, vertices []Vertex) []byte

	format()
}

// PositionFormat stores positions only. Normals are discarded on encoding.
type PositionFormat struct{}

// PositionNormalFormat stores interleaved positions and normals as in [Vertex].
type PositionNormalFormat struct{}

var (
	_ Format = PositionFormat{}
	_ Format = PositionNormalFormat{}
)

func (PositionFormat) format()       {}
func (PositionNormalFormat) format() {}

func (PositionFormat) Stride() int       { return posVertexSize }
func (PositionNormalFormat) Stride() int { return vertexSize }

func (PositionFormat) Layout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: posVertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{
				Format:         gputypes.VertexFormatFloat32x3,
				Offset:         offsetPosition,
				ShaderLocation: LocationPosition,
			},
		},
	}
}

func (PositionNormalFormat) Layout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: vertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{
				Format:         gputypes.VertexFormatFloat32x3,
				Offset:         offsetPosition,
				ShaderLocation: LocationPosition,
			},
			{
				Format:         gputypes.VertexFormatFloat32x3,
				Offset:         offsetNormal,
				ShaderLocation: LocationNormal,
			},
		},
	}
}

func (PositionFormat) AppendVertices(dst []byte, vertices []Vertex) []byte {
	dst = grow(dst, len(vertices)*posVertexSize)
	for i := range vertices {
		dst = appendVec(dst, vertices[i].Position)
	}
	return dst
}

func (PositionNormalFormat) AppendVertices(dst []byte, vertices []Vertex) []byte {
	dst = grow(dst, len(vertices)*vertexSize)
	for i := range vertices {
		dst = appendVec(dst, vertices[i].Position)
		dst = appendVec(dst, vertices[i].Normal)
	}
	return dst
}

// AppendIndices encodes indices as little-endian uint32 and appends them to dst.
func AppendIndices(dst []byte, indices []uint32) []byte {
	dst = grow(dst, 4*len(indices))
	for _, idx := range indices {
		dst = binary.LittleEndian.AppendUint32(dst, idx)
	}
	return dst
}

func appendVec(b []byte, v ms3.Vec) []byte {
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.X))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Y))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Z))
	return b
}

func grow(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b
	}
	nb := make([]byte, len(b), len(b)+n)
	copy(nb, b)
	return nb
}
