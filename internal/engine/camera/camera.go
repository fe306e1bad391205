// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// FlyCamera is a free-look camera in Y-up world space.
// Yaw 0 looks down -Z; positive pitch looks up.
type FlyCamera struct {
	Position math.Vec3
	Yaw      float32 // radians
	Pitch    float32 // radians

	Speed       float32 // units per second
	Sensitivity float32 // radians per pixel of mouse motion
	MaxPitch    float32

	FOV       float32 // vertical, degrees
	Near, Far float32
}

// NewFlyCamera creates a fly camera at the origin.
func NewFlyCamera() *FlyCamera {
	return &FlyCamera{
		Speed:       8,
		Sensitivity: 0.004,
		MaxPitch:    1.55,
		FOV:         70,
		Near:        0.05,
		Far:         1000,
	}
}

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cp := float32(gomath.Cos(float64(c.Pitch)))
	return math.Vec3{
		X: cp * float32(gomath.Sin(float64(c.Yaw))),
		Y: float32(gomath.Sin(float64(c.Pitch))),
		Z: -cp * float32(gomath.Cos(float64(c.Yaw))),
	}
}

// Right returns the unit right direction on the horizontal plane.
func (c *FlyCamera) Right() math.Vec3 {
	return math.Vec3{
		X: float32(gomath.Cos(float64(c.Yaw))),
		Z: float32(gomath.Sin(float64(c.Yaw))),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position, c.Position.Add(c.Forward()), up)
}

// ProjectionMatrix returns a perspective projection for the given aspect ratio.
func (c *FlyCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	return math.Perspective(c.FOV*gomath.Pi/180, aspect, c.Near, c.Far)
}

// HandleLook turns the camera by a mouse delta in pixels.
func (c *FlyCamera) HandleLook(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch -= dy * c.Sensitivity
	c.Pitch = min(max(c.Pitch, -c.MaxPitch), c.MaxPitch)
}

// HandleMovement moves along the view direction, the right axis and world up.
// Inputs are in [-1, 1]; dt is in seconds.
func (c *FlyCamera) HandleMovement(forward, right, up, dt float32) {
	step := c.Speed * dt
	delta := c.Forward().Scale(forward * step).
		Add(c.Right().Scale(right * step)).
		Add(math.Vec3{Y: up * step})
	c.Position = c.Position.Add(delta)
}

// HandleZoom scales the movement speed by wheel steps.
func (c *FlyCamera) HandleZoom(steps int) {
	for ; steps > 0; steps-- {
		c.Speed *= 1.25
	}
	for ; steps < 0; steps++ {
		c.Speed /= 1.25
	}
	c.Speed = min(max(c.Speed, 0.25), 500)
}

// FitToBounds places the camera outside the box looking at its center.
func (c *FlyCamera) FitToBounds(minB, maxB math.Vec3) {
	center := minB.Add(maxB).Scale(0.5)
	radius := maxB.Sub(minB).Length() * 0.5
	if radius == 0 {
		radius = 1
	}

	c.Yaw = 0
	c.Pitch = -0.5
	dist := radius / float32(gomath.Tan(float64(c.FOV*gomath.Pi/360)))
	c.Position = center.Sub(c.Forward().Scale(dist))
	c.Far = max(c.Far, dist+radius*2)
}
