// Package physics holds the small kinematics helpers shared by the movement
// components: frame-rate independent damping, bounded turning and planar
// vector conversions.
//
// The world is Y-up. Movement happens on the XZ plane, which is represented
// as an mgl64.Vec2 of (X, Z). A yaw of zero faces +Z.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the world up axis.
var Up = mgl64.Vec3{0, 1, 0}

// Blend returns 1 - e^(-k*dt), the fraction of the remaining distance covered
// in one step of exponential approach.
func Blend(k, dt float64) float64 {
	if !(k > 0) || !(dt > 0) {
		return 0
	}
	return 1 - math.Exp(-k*dt)
}

// Decay returns e^(-k*dt), the fraction of a value that survives one step of
// exponential decay.
func Decay(k, dt float64) float64 {
	if !(k > 0) || !(dt > 0) {
		return 1
	}
	return math.Exp(-k * dt)
}

// Approach2 moves v toward target by Blend(k, dt).
func Approach2(v, target mgl64.Vec2, k, dt float64) mgl64.Vec2 {
	return v.Add(target.Sub(v).Mul(Blend(k, dt)))
}

// Decay2 shrinks v by Decay(k, dt) and snaps it to exactly zero once its
// length drops below epsilon. The result never changes sign.
func Decay2(v mgl64.Vec2, k, dt, epsilon float64) mgl64.Vec2 {
	v = v.Mul(Decay(k, dt))
	if v.Len() < epsilon {
		return mgl64.Vec2{}
	}
	return v
}

// Damp3 moves current toward target by Blend(k, dt) and snaps to target
// within snap distance.
func Damp3(current, target mgl64.Vec3, k, dt, snap float64) mgl64.Vec3 {
	next := current.Add(target.Sub(current).Mul(Blend(k, dt)))
	if next.Sub(target).Len() <= snap {
		return target
	}
	return next
}

// WrapAngle maps a into (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	switch {
	case a > math.Pi:
		a -= 2 * math.Pi
	case a <= -math.Pi:
		a += 2 * math.Pi
	}
	return a
}

// TurnToward rotates current toward target along the shorter arc by at most
// maxStep radians. The result is wrapped.
func TurnToward(current, target, maxStep float64) float64 {
	diff := WrapAngle(target - current)
	if maxStep < 0 {
		maxStep = 0
	}
	if math.Abs(diff) <= maxStep {
		return WrapAngle(target)
	}
	return WrapAngle(current + math.Copysign(maxStep, diff))
}

// YawQuat is the rotation of yaw radians about the up axis.
func YawQuat(yaw float64) mgl64.Quat {
	return mgl64.QuatRotate(yaw, Up)
}

// Yaw extracts the heading of q: the angle of its rotated +Z axis on the XZ
// plane.
func Yaw(q mgl64.Quat) float64 {
	f := q.Rotate(mgl64.Vec3{0, 0, 1})
	return math.Atan2(f.X(), f.Z())
}

// Heading returns the yaw that faces along planar direction d. The zero
// vector faces +Z.
func Heading(d mgl64.Vec2) float64 {
	if d.X() == 0 && d.Y() == 0 {
		return 0
	}
	return math.Atan2(d.X(), d.Y())
}

// Planar projects v onto the XZ plane.
func Planar(v mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{v.X(), v.Z()}
}

// Lift places planar p at height y.
func Lift(p mgl64.Vec2, y float64) mgl64.Vec3 {
	return mgl64.Vec3{p.X(), y, p.Y()}
}

// Distance2 is the Euclidean distance between two planar points.
func Distance2(a, b mgl64.Vec2) float64 {
	return math.Hypot(b.X()-a.X(), b.Y()-a.Y())
}

// Clamp3 clamps every axis of v into [lo, hi]. Inverted axes are reordered.
func Clamp3(v, lo, hi mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		a, b := lo[i], hi[i]
		if a > b {
			a, b = b, a
		}
		out[i] = mgl64.Clamp(v[i], a, b)
	}
	return out
}

// LookRotation returns the rotation that turns +Z onto direction d with no
// roll. The zero vector yields the identity.
func LookRotation(d mgl64.Vec3) mgl64.Quat {
	if d.Len() == 0 {
		return mgl64.QuatIdent()
	}
	d = d.Normalize()
	pitch := -math.Asin(mgl64.Clamp(d.Y(), -1, 1))
	yaw := math.Atan2(d.X(), d.Z())
	return YawQuat(yaw).Mul(mgl64.QuatRotate(pitch, mgl64.Vec3{1, 0, 0}))
}
