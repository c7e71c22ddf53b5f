// Package preview renders mesh3 buffers offscreen on the CPU and saves the
// result as an image.
package preview

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/mesh3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config configures an offscreen render. The mesh is fit in a bi-unit cube
// centered at the origin before rendering so camera placement does not
// depend on mesh size.
type Config struct {
	Width, Height int
	// Scale is the supersampling factor. The image is rendered at
	// Scale times the output size and downsampled for antialiasing.
	Scale int
	// FovY is the vertical field of view in degrees.
	FovY       float64
	Near, Far  float64
	Eye        r3.Vec // camera position
	LookAt     r3.Vec // view center position
	Up         r3.Vec // up vector
	Light      r3.Vec // light direction, normalized on use
	Color      string // object color as hex
	Background string // clear color as hex
	// FacetNormals shades with the normal of each triangle's winding instead
	// of the vertex normals. Useful for meshes loaded without normals, whose
	// vertices all carry mesh3.DefaultNormal.
	FacetNormals bool
}

// DefaultConfig returns a 800x600 configuration viewing the mesh from the
// front-right.
func DefaultConfig() Config {
	return Config{
		Width:      800,
		Height:     600,
		Scale:      2,
		FovY:       30,
		Near:       1,
		Far:        10,
		Eye:        r3.Vec{X: 3, Y: 1.5, Z: 3},
		Up:         r3.Vec{Y: 1},
		Light:      r3.Vec{X: -0.75, Y: 1, Z: 0.25},
		Color:      "#468966",
		Background: "#FFF8E3",
	}
}

// Render draws the triangles of b with a Phong shader.
func Render(b mesh3.Buffers, cfg Config) (image.Image, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("preview: non-positive image size")
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(b.Indices) == 0 {
		return nil, errors.New("preview: mesh has no triangles")
	}
	mesh := fauxglMesh(b, cfg.FacetNormals)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()

	var (
		eye    = vec(cfg.Eye)
		center = vec(cfg.LookAt)
		up     = vec(cfg.Up)
		light  = vec(cfg.Light).Normalize()
	)
	context := fauxgl.NewContext(cfg.Width*cfg.Scale, cfg.Height*cfg.Scale)
	context.ClearColorBufferWith(fauxgl.HexColor(cfg.Background))
	aspect := float64(cfg.Width) / float64(cfg.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(cfg.FovY, aspect, cfg.Near, cfg.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(cfg.Color)
	context.Shader = shader
	context.DrawMesh(mesh)

	img := context.Image()
	if cfg.Scale > 1 {
		// downsample image for antialiasing
		img = resize.Resize(uint(cfg.Width), uint(cfg.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePNG writes img to path in PNG format.
func SavePNG(path string, img image.Image) error {
	return fauxgl.SavePNG(path, img)
}

func fauxglMesh(b mesh3.Buffers, facetNormals bool) *fauxgl.Mesh {
	tris := make([]*fauxgl.Triangle, 0, b.TriangleCount())
	for i := 0; i+2 < len(b.Indices); i += 3 {
		v1 := b.Vertices[b.Indices[i]]
		v2 := b.Vertices[b.Indices[i+1]]
		v3 := b.Vertices[b.Indices[i+2]]
		p1, p2, p3 := r3From(v1.Position), r3From(v2.Position), r3From(v3.Position)
		n1, n2, n3 := r3From(v1.Normal), r3From(v2.Normal), r3From(v3.Normal)
		if facetNormals {
			n := r3.Cross(r3.Sub(p2, p1), r3.Sub(p3, p1))
			if r3.Norm(n) == 0 {
				continue // degenerate triangle.
			}
			n = r3.Unit(n)
			n1, n2, n3 = n, n, n
		}
		tris = append(tris, fauxgl.NewTriangle(
			fauxgl.Vertex{Position: vec(p1), Normal: vec(n1)},
			fauxgl.Vertex{Position: vec(p2), Normal: vec(n2)},
			fauxgl.Vertex{Position: vec(p3), Normal: vec(n3)},
		))
	}
	return fauxgl.NewTriangleMesh(tris)
}

func vec(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }

func r3From(v ms3.Vec) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}
