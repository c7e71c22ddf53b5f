// Package upload copies mesh3 buffers into GPU-resident vertex and index
// buffers through the WebGPU hardware abstraction layer.
package upload

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/soypat/mesh3"
)

// ErrEmpty is returned when asked to upload an empty vertex or index slice.
var ErrEmpty = errors.New("upload: empty buffer")

// Uploader creates GPU buffers on a device and fills them through its queue.
// Uploads are synchronous with respect to the calling goroutine.
type Uploader struct {
	device hal.Device
	queue  hal.Queue
	format mesh3.Format
	// scratch is reused between uploads to encode vertex and index data.
	scratch []byte
}

// New returns an Uploader that encodes vertices with the given format.
// A nil format selects mesh3.PositionNormalFormat.
func New(device hal.Device, queue hal.Queue, format mesh3.Format) *Uploader {
	if format == nil {
		format = mesh3.PositionNormalFormat{}
	}
	return &Uploader{device: device, queue: queue, format: format}
}

// Format returns the vertex format used to encode vertex buffers.
func (u *Uploader) Format() mesh3.Format { return u.format }

// UploadVertices creates a vertex buffer holding vertices.
func (u *Uploader) UploadVertices(vertices []mesh3.Vertex) (hal.Buffer, error) {
	if len(vertices) == 0 {
		return nil, ErrEmpty
	}
	u.scratch = u.format.AppendVertices(u.scratch[:0], vertices)
	return u.createAndUploadBuffer("mesh3_vertices", u.scratch,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
}

// UploadIndices creates an index buffer of 32-bit indices.
func (u *Uploader) UploadIndices(indices []uint32) (hal.Buffer, error) {
	if len(indices) == 0 {
		return nil, ErrEmpty
	}
	u.scratch = mesh3.AppendIndices(u.scratch[:0], indices)
	return u.createAndUploadBuffer("mesh3_indices", u.scratch,
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
}

// Upload validates b and uploads its vertex and index streams. A mesh
// without indices yields a Model with a nil IndexBuffer which is drawn
// non-indexed.
func (u *Uploader) Upload(b mesh3.Buffers) (*Model, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	vbuf, err := u.UploadVertices(b.Vertices)
	if err != nil {
		return nil, err
	}
	m := &Model{
		VertexBuffer: vbuf,
		VertexCount:  uint32(len(b.Vertices)),
		IndexCount:   b.IndexCount(),
		Layout:       u.format.Layout(),
	}
	if len(b.Indices) > 0 {
		m.IndexBuffer, err = u.UploadIndices(b.Indices)
		if err != nil {
			u.device.DestroyBuffer(vbuf)
			return nil, err
		}
	}
	mesh3.Logger().Debug("uploaded mesh", "vertices", m.VertexCount, "indices", m.IndexCount,
		"stride", u.format.Stride())
	return m, nil
}

// createAndUploadBuffer creates a GPU buffer and writes data to it.
func (u *Uploader) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := u.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: create %s: %w", label, err)
	}
	if err := u.queue.WriteBuffer(buf, 0, data); err != nil {
		u.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload: write %s: %w", label, err)
	}
	return buf, nil
}

// Model holds the GPU buffers of an uploaded mesh and what the render
// pipeline needs to draw them.
type Model struct {
	VertexBuffer hal.Buffer
	// IndexBuffer is nil for meshes without faces.
	IndexBuffer hal.Buffer
	VertexCount uint32
	IndexCount  uint32
	Layout      gputypes.VertexBufferLayout
}

// Indexed reports whether the model should be drawn with its index buffer.
func (m *Model) Indexed() bool { return m.IndexBuffer != nil }

// Destroy releases the model's GPU buffers on device.
func (m *Model) Destroy(device hal.Device) {
	if m.VertexBuffer != nil {
		device.DestroyBuffer(m.VertexBuffer)
		m.VertexBuffer = nil
	}
	if m.IndexBuffer != nil {
		device.DestroyBuffer(m.IndexBuffer)
		m.IndexBuffer = nil
	}
}
