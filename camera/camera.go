// Package camera implements an orbit camera producing column-major
// view and projection matrices for OpenGL style clip space.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/glgl/math/ms3"
)

const maxPitch = 89 * math32.Pi / 180

// Orbit is a camera that looks at Target from Distance away. Yaw rotates
// about the Y axis and Pitch raises the camera above the XZ plane, both in
// radians.
type Orbit struct {
	Target   ms3.Vec
	Distance float32
	Yaw      float32
	Pitch    float32
	// FovY is the vertical field of view in radians.
	FovY      float32
	Near, Far float32
}

// Fit returns a camera looking at the center of bb from a distance at which
// the whole box is in view.
func Fit(bb ms3.Box) Orbit {
	center := ms3.Scale(0.5, ms3.Add(bb.Min, bb.Max))
	radius := 0.5 * ms3.Norm(ms3.Sub(bb.Max, bb.Min))
	if radius == 0 {
		radius = 1
	}
	fovy := mgl32.DegToRad(45)
	dist := radius / math32.Sin(fovy/2)
	return Orbit{
		Target:   center,
		Distance: dist,
		Yaw:      math32.Pi / 4,
		Pitch:    math32.Pi / 8,
		FovY:     fovy,
		Near:     dist / 100,
		Far:      dist * 4,
	}
}

// Rotate changes yaw and pitch by the given amounts. Pitch is clamped short
// of the poles so the up vector stays well defined.
func (o *Orbit) Rotate(dyaw, dpitch float32) {
	o.Yaw = math32.Mod(o.Yaw+dyaw, 2*math32.Pi)
	o.Pitch = mgl32.Clamp(o.Pitch+dpitch, -maxPitch, maxPitch)
}

// Zoom scales the distance to the target by factor. The clipping planes
// scale along so the target stays in the depth range. Non-positive factors
// are ignored.
func (o *Orbit) Zoom(factor float32) {
	if factor > 0 {
		o.Distance *= factor
		o.Near *= factor
		o.Far *= factor
	}
}

// Eye returns the camera position.
func (o Orbit) Eye() ms3.Vec {
	sy, cy := math32.Sincos(o.Yaw)
	sp, cp := math32.Sincos(o.Pitch)
	offset := ms3.Vec{X: o.Distance * cp * sy, Y: o.Distance * sp, Z: o.Distance * cp * cy}
	return ms3.Add(o.Target, offset)
}

// View returns the view matrix.
func (o Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(vec3(o.Eye()), vec3(o.Target), mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective projection for aspect ratio width/height.
func (o Orbit) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(o.FovY, aspect, o.Near, o.Far)
}

// ViewProj returns Projection(aspect) * View().
func (o Orbit) ViewProj(aspect float32) mgl32.Mat4 {
	return o.Projection(aspect).Mul4(o.View())
}

// Transform applies m to point p and returns the result after perspective division.
func Transform(m mgl32.Mat4, p ms3.Vec) ms3.Vec {
	v := mgl32.TransformCoordinate(vec3(p), m)
	return ms3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func vec3(v ms3.Vec) mgl32.Vec3 { return mgl32.Vec3{v.X, v.Y, v.Z} }
