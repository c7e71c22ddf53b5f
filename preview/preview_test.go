package preview_test

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/mesh3"
	"github.com/soypat/mesh3/preview"
	"gonum.org/v1/plot/cmpimg"
)

const (
	// imgDelta a normalized imgDelta parameter to describe how close the matching
	// should be performed (imgDelta=0: perfect match, imgDelta=1, loose match)
	imgDelta = 0
)

const cube = `v -1 -1 -1
v 1 -1 -1
v 1 1 -1
v -1 1 -1
v -1 -1 1
v 1 -1 1
v 1 1 1
v -1 1 1
f 1 3 2
f 1 4 3
f 5 6 7
f 5 7 8
f 1 2 6
f 1 6 5
f 4 7 3
f 4 8 7
f 1 5 8
f 1 8 4
f 2 3 7
f 2 7 6
`

func smallConfig() preview.Config {
	cfg := preview.DefaultConfig()
	cfg.Width, cfg.Height = 64, 48
	cfg.FacetNormals = true
	return cfg
}

func TestRenderDeterministic(t *testing.T) {
	b, _, err := mesh3.Decode(strings.NewReader(cube))
	if err != nil {
		t.Fatal(err)
	}
	cfg := smallConfig()
	var encoded [2][]byte
	for i := range encoded {
		img, err := preview.Render(b, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if bounds := img.Bounds(); bounds.Dx() != cfg.Width || bounds.Dy() != cfg.Height {
			t.Fatalf("got image size %v", bounds)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		encoded[i] = buf.Bytes()
	}
	equal, err := cmpimg.EqualApprox("png", encoded[0], encoded[1], imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("renders of the same mesh differ")
	}
}

func TestRenderDrawsMesh(t *testing.T) {
	b, _, err := mesh3.Decode(strings.NewReader(cube))
	if err != nil {
		t.Fatal(err)
	}
	cfg := smallConfig()
	cfg.Scale = 1
	img, err := preview.Render(b, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Center pixel must be covered by the cube, not the background.
	bg, _, _, _ := img.At(0, 0).RGBA()
	c, _, _, _ := img.At(cfg.Width/2, cfg.Height/2).RGBA()
	if bg == c {
		t.Error("center pixel has background color")
	}
}

func TestRenderErrors(t *testing.T) {
	cfg := smallConfig()
	if _, err := preview.Render(mesh3.Buffers{}, cfg); err == nil {
		t.Error("expected error for empty mesh")
	}
	b, _, err := mesh3.Decode(strings.NewReader(cube))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Width = 0
	if _, err := preview.Render(b, cfg); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestSavePNG(t *testing.T) {
	b, _, err := mesh3.Decode(strings.NewReader(cube))
	if err != nil {
		t.Fatal(err)
	}
	img, err := preview.Render(b, smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "cube.png")
	if err := preview.SavePNG(path, img); err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	if _, err := png.Decode(fp); err != nil {
		t.Fatal(err)
	}
}
