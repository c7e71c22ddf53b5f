package upload

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/soypat/mesh3"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// recordingDevice records buffer descriptors and destroyed buffers.
type recordingDevice struct {
	hal.Device
	created   []hal.BufferDescriptor
	destroyed int
	failOn    int // fail the n-th CreateBuffer call, 1-based. 0 never fails.
}

var errDeviceLost = errors.New("device lost")

func (d *recordingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.created = append(d.created, *desc)
	if len(d.created) == d.failOn {
		return nil, errDeviceLost
	}
	return d.Device.CreateBuffer(desc)
}

func (d *recordingDevice) DestroyBuffer(buf hal.Buffer) {
	d.destroyed++
	d.Device.DestroyBuffer(buf)
}

func decodeQuad(t *testing.T) mesh3.Buffers {
	t.Helper()
	b, _, err := mesh3.Decode(strings.NewReader("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3\nf 1 3 4\n"))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestUpload(t *testing.T) {
	device, queue := createNoopDevice(t)
	rec := &recordingDevice{Device: device}
	u := New(rec, queue, nil)
	model, err := u.Upload(decodeQuad(t))
	if err != nil {
		t.Fatal(err)
	}
	defer model.Destroy(rec)
	if model.VertexBuffer == nil || !model.Indexed() {
		t.Fatal("expected vertex and index buffers")
	}
	if model.VertexCount != 4 || model.IndexCount != 6 {
		t.Errorf("got %d vertices %d indices", model.VertexCount, model.IndexCount)
	}
	if model.Layout.ArrayStride != (mesh3.PositionNormalFormat{}).Layout().ArrayStride {
		t.Error("model layout does not match uploader format")
	}
	if len(rec.created) != 2 {
		t.Fatalf("got %d buffers created, want 2", len(rec.created))
	}
	vdesc, idesc := rec.created[0], rec.created[1]
	if vdesc.Size != 4*24 || vdesc.Usage&gputypes.BufferUsageVertex == 0 {
		t.Errorf("bad vertex buffer descriptor %+v", vdesc)
	}
	if idesc.Size != 6*4 || idesc.Usage&gputypes.BufferUsageIndex == 0 {
		t.Errorf("bad index buffer descriptor %+v", idesc)
	}
}

func TestUploadPositionFormat(t *testing.T) {
	device, queue := createNoopDevice(t)
	rec := &recordingDevice{Device: device}
	u := New(rec, queue, mesh3.PositionFormat{})
	buf, err := u.UploadVertices(decodeQuad(t).Vertices)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.DestroyBuffer(buf)
	if rec.created[0].Size != 4*12 {
		t.Errorf("got vertex buffer size %d, want %d", rec.created[0].Size, 4*12)
	}
}

func TestUploadNoFaces(t *testing.T) {
	device, queue := createNoopDevice(t)
	u := New(device, queue, nil)
	b, _, err := mesh3.Decode(strings.NewReader("v 0 0 0\nv 1 0 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	model, err := u.Upload(b)
	if err != nil {
		t.Fatal(err)
	}
	defer model.Destroy(device)
	if model.Indexed() || model.IndexCount != 0 || model.VertexCount != 2 {
		t.Errorf("unexpected model %+v", model)
	}
}

func TestUploadErrors(t *testing.T) {
	device, queue := createNoopDevice(t)
	u := New(device, queue, nil)
	if _, err := u.UploadVertices(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("got %v, want ErrEmpty", err)
	}
	if _, err := u.UploadIndices(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("got %v, want ErrEmpty", err)
	}
	if _, err := u.Upload(mesh3.Buffers{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("got %v, want ErrEmpty", err)
	}
	bad := mesh3.Buffers{Vertices: make([]mesh3.Vertex, 2), Indices: []uint32{0, 1, 2}}
	if _, err := u.Upload(bad); err == nil {
		t.Error("expected validation error")
	}

	// Index upload failure must release the vertex buffer.
	rec := &recordingDevice{Device: device, failOn: 2}
	u = New(rec, queue, nil)
	_, err := u.Upload(decodeQuad(t))
	if !errors.Is(err, errDeviceLost) {
		t.Errorf("got %v, want device lost", err)
	}
	if rec.destroyed != 1 {
		t.Errorf("got %d destroyed buffers, want 1", rec.destroyed)
	}
}

// failingQueue rejects every buffer write.
type failingQueue struct{ hal.Queue }

func (failingQueue) WriteBuffer(hal.Buffer, uint64, []byte) error { return errDeviceLost }

func TestUploadWriteFailure(t *testing.T) {
	device, queue := createNoopDevice(t)
	rec := &recordingDevice{Device: device}
	u := New(rec, failingQueue{queue}, nil)
	_, err := u.UploadVertices(decodeQuad(t).Vertices)
	if !errors.Is(err, errDeviceLost) {
		t.Errorf("got %v, want device lost", err)
	}
	if len(rec.created) != 1 || rec.destroyed != 1 {
		t.Errorf("got %d created and %d destroyed buffers, want 1 each", len(rec.created), rec.destroyed)
	}
}
