package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

const tol = 1e-4

func TestViewMovesEyeToOrigin(t *testing.T) {
	cam := Fit(ms3.Box{Min: ms3.Vec{X: -1, Y: -2, Z: -3}, Max: ms3.Vec{X: 3, Y: 2, Z: 1}})
	cam.Rotate(0.3, -0.2)
	got := Transform(cam.View(), cam.Eye())
	if !equalVec(got, ms3.Vec{}, tol) {
		t.Errorf("eye in view space at %v, want origin", got)
	}
	// Target is straight ahead along -Z.
	got = Transform(cam.View(), cam.Target)
	want := ms3.Vec{Z: -cam.Distance}
	if !equalVec(got, want, tol*cam.Distance) {
		t.Errorf("target in view space at %v, want %v", got, want)
	}
}

func TestViewProjCentersTarget(t *testing.T) {
	cam := Fit(ms3.Box{Min: ms3.Vec{X: 10, Y: 10, Z: 10}, Max: ms3.Vec{X: 12, Y: 14, Z: 11}})
	ndc := Transform(cam.ViewProj(16.0/9), cam.Target)
	if math32.Abs(ndc.X) > tol || math32.Abs(ndc.Y) > tol {
		t.Errorf("target not centered: %v", ndc)
	}
	if ndc.Z <= -1 || ndc.Z >= 1 {
		t.Errorf("target clipped by depth range: %v", ndc)
	}
}

func TestRotateClampsPitch(t *testing.T) {
	var cam Orbit
	cam.Rotate(0, 10)
	if cam.Pitch != maxPitch {
		t.Errorf("got pitch %v, want %v", cam.Pitch, maxPitch)
	}
	cam.Rotate(0, -20)
	if cam.Pitch != -maxPitch {
		t.Errorf("got pitch %v, want %v", cam.Pitch, -maxPitch)
	}
}

func TestZoom(t *testing.T) {
	cam := Orbit{Distance: 4, Near: 1, Far: 8}
	cam.Zoom(0.5)
	cam.Zoom(-1)
	if cam.Distance != 2 || cam.Near != 0.5 || cam.Far != 4 {
		t.Errorf("got distance %v near %v far %v, want 2, 0.5, 4", cam.Distance, cam.Near, cam.Far)
	}
}

func TestZoomOutKeepsTargetInDepthRange(t *testing.T) {
	cam := Fit(ms3.Box{Max: ms3.Vec{X: 1, Y: 1, Z: 1}})
	for i := 0; i < 40; i++ {
		cam.Zoom(1 / 0.9)
		ndc := Transform(cam.ViewProj(1), cam.Target)
		if ndc.Z <= -1 || ndc.Z >= 1 {
			t.Fatalf("target clipped after %d zoom steps: %v", i+1, ndc)
		}
	}
}

func TestFitEmptyBox(t *testing.T) {
	cam := Fit(ms3.Box{})
	if cam.Distance <= 0 || cam.Near <= 0 || cam.Far <= cam.Near {
		t.Errorf("degenerate camera %+v", cam)
	}
}

func equalVec(a, b ms3.Vec, tol float32) bool {
	return math32.Abs(a.X-b.X) <= tol && math32.Abs(a.Y-b.Y) <= tol && math32.Abs(a.Z-b.Z) <= tol
}
