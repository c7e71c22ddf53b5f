package mesh3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// ErrNormalMismatch is returned alongside a valid mesh by ReadBinarySTL when
// facet normals do not agree with the triangle winding. For high resolution
// models this may be returned for a correct file.
var ErrNormalMismatch = errors.New("STL facet normal not approximately equal to normal calculated from vertices")

var errNoTriangles = errors.New("mesh has no triangles")

const stlFacetSize = 50

// WriteBinarySTL writes the triangles of b to w in binary STL format.
// Facet normals are calculated from the triangle winding.
func WriteBinarySTL(w io.Writer, b Buffers) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	nt := int64(b.TriangleCount()) // int64 cast so that next line works correctly on 32bit machines.
	if nt == 0 {
		return 0, errNoTriangles
	} else if nt > math.MaxUint32 {
		return 0, errors.New("amount of triangles in model exceeds STL design limits")
	}
	header := stlHeader{
		Count: uint32(nt),
	}

	var buf [84]byte
	header.put(buf[:])
	n, err := w.Write(buf[:84])
	if err != nil {
		return n, err
	} else if n != len(buf) {
		return n, io.ErrShortWrite
	}
	for _, tri := range b.Triangles() {
		facet := stlFacet{Normal: ms3.Unit(tri.Normal()), Tri: tri}
		facet.put(buf[:])
		ngot, err := w.Write(buf[:stlFacetSize])
		n += ngot
		if err != nil {
			return n, err
		} else if ngot != stlFacetSize {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}

// ReadBinarySTL reads a binary STL from r. Every facet contributes three
// vertices carrying the facet normal, so the vertex count is three times
// the triangle count. Zero facet normals are replaced by the normal of the
// triangle winding.
//
// If ErrNormalMismatch is returned the mesh is still valid.
func ReadBinarySTL(r io.Reader) (output Buffers, readErr error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Buffers{}, errors.New("encountered EOF while reading STL header")
		}
		return Buffers{}, errors.New("STL header read failed: " + err.Error())
	}
	if header.Count == 0 {
		return Buffers{}, errors.New("STL header indicates 0 triangles present")
	}
	var (
		buf            [stlFacetSize]byte
		d              stlFacet
		i              int
		normMismatches int
	)
	defer func() {
		if readErr != nil && !errors.Is(readErr, ErrNormalMismatch) {
			readErr = fmt.Errorf("%d/%d STL triangles read: %w", i+1, header.Count, readErr)
		}
	}()
	prealloc := 3 * min(int(header.Count), 1<<20) // Header count is not trusted.
	output.Vertices = make([]Vertex, 0, prealloc)
	output.Indices = make([]uint32, 0, prealloc)
	for i = 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Buffers{}, err
		}
		d.get(buf[:])
		if err := d.validate(); err != nil {
			if !errors.Is(err, ErrNormalMismatch) {
				return Buffers{}, err
			}
			normMismatches++
			readErr = err
		}
		normal := d.Normal
		if normal == (ms3.Vec{}) {
			normal = d.windingNormal()
		}
		base := uint32(len(output.Vertices))
		output.Vertices = append(output.Vertices,
			Vertex{Position: d.Tri[0], Normal: normal},
			Vertex{Position: d.Tri[1], Normal: normal},
			Vertex{Position: d.Tri[2], Normal: normal},
		)
		output.Indices = append(output.Indices, base, base+1, base+2)
	}
	if normMismatches > 0 {
		logger().Debug("STL normal mismatches", "count", normMismatches, "triangles", header.Count)
	}
	return output, readErr
}

// stlHeader is the 84 byte binary STL header: 80 ignored bytes followed
// by the facet count.
type stlHeader struct {
	_     [80]uint8
	Count uint32
}

func (h stlHeader) put(b []byte) {
	_ = b[83]
	binary.LittleEndian.PutUint32(b[80:], h.Count)
}

// stlFacet is a 50 byte binary STL facet record. The trailing attribute
// byte count is written as zero and ignored on read.
type stlFacet struct {
	Normal ms3.Vec
	Tri    ms3.Triangle
}

func (f stlFacet) put(b []byte) {
	_ = b[stlFacetSize-1]
	putVec(b, f.Normal)
	for i, v := range f.Tri {
		putVec(b[12*(i+1):], v)
	}
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (f *stlFacet) get(b []byte) {
	_ = b[stlFacetSize-1]
	f.Normal = getVec(b)
	for i := range f.Tri {
		f.Tri[i] = getVec(b[12*(i+1):])
	}
}

func putVec(b []byte, v ms3.Vec) {
	_ = b[11]
	binary.LittleEndian.PutUint32(b, math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
}

func getVec(b []byte) ms3.Vec {
	_ = b[11]
	return ms3.Vec{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b)),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

func finite(v ms3.Vec) bool {
	for _, c := range [3]float32{v.X, v.Y, v.Z} {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// validate rejects non-finite and degenerate facets. A facet normal that
// does not match the winding in either orientation yields ErrNormalMismatch.
// A zero normal is accepted and recalculated by the reader.
func (f stlFacet) validate() error {
	const (
		degenerateTol = 1e-12
		normalTol     = 5e-2
	)
	switch {
	case !finite(f.Normal):
		return errors.New("inf/NaN STL facet normal")
	case !finite(f.Tri[0]) || !finite(f.Tri[1]) || !finite(f.Tri[2]):
		return errors.New("inf/NaN STL facet vertex")
	case f.Tri.IsDegenerate(degenerateTol):
		return errors.New("degenerate STL facet")
	case f.Normal == (ms3.Vec{}):
		return nil
	}
	want := f.windingNormal()
	if approxEqual(want, f.Normal, normalTol) || approxEqual(ms3.Scale(-1, want), f.Normal, normalTol) {
		return nil
	}
	return ErrNormalMismatch
}

// windingNormal is the unit normal of the facet's counter-clockwise winding.
// Vertices are scaled up first so small facets keep precision.
func (f stlFacet) windingNormal() ms3.Vec {
	a := ms3.Scale(10, f.Tri[0])
	e1 := ms3.Sub(ms3.Scale(10, f.Tri[1]), a)
	e2 := ms3.Sub(ms3.Scale(10, f.Tri[2]), a)
	return ms3.Unit(ms3.Cross(e1, e2))
}

func approxEqual(a, b ms3.Vec, tol float32) bool {
	d := ms3.AbsElem(ms3.Sub(a, b))
	return d.X <= tol && d.Y <= tol && d.Z <= tol
}
