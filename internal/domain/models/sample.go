package models

// Vec3 is a tri-axis sensor reading in device coordinates.
type Vec3 [3]float64

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Sample is one calibrated-rate IMU reading. TimeMS is monotonic milliseconds
// since session start; samples are immutable once recorded.
type Sample struct {
	TimeMS  int64 `json:"t"`
	AccelG  Vec3  `json:"a"` // accelerometer, g
	GyroDPS Vec3  `json:"g"` // gyroscope, deg/s
}

// GravityVector is the per-session static gravity estimate in g, computed once
// from a stationary calibration span and never recomputed mid-session.
type GravityVector struct {
	Vec     Vec3
	Samples int // size of the calibration span
}

// GravityToMS2 converts gravity-corrected acceleration from g to m/s^2.
const GravityToMS2 = 9.8

// Corrected returns the gravity-corrected acceleration of s in m/s^2.
func (gv GravityVector) Corrected(s Sample) Vec3 {
	return s.AccelG.Sub(gv.Vec).Scale(GravityToMS2)
}

// MotionAxis is the per-session unit vector of maximum acceleration variance.
// Projecting corrected acceleration onto it yields an orientation-invariant
// scalar step signal regardless of how the device is mounted.
type MotionAxis struct {
	Axis Vec3
}

// Project returns the scalar projection of a corrected acceleration vector.
func (m MotionAxis) Project(a Vec3) float64 {
	return a.Dot(m.Axis)
}
