package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// Basic explanation: Imagine a 3d cartesian grid centered at 0,0,0, and a sphere of radius 1 centered at
// that same point. An orientation can be expressed by first specifying an axis, i.e. a line from the origin
// to a point on that sphere, represented by (rx, ry, rz), and a rotation around that axis, theta.
// These four numbers can be used as-is (R4), or they can be converted to R3, where theta is multiplied by each of
// the unit sphere components to give a vector whose length is theta and whose direction is the original axis.
// The R3 form is what pose solvers usually call a rotation vector.

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an empty R4AA struct.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// ToR3 converts an R4 angle axis to R3.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// ToQuat converts an R4 axis angle to a unit quaternion
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/angleToQuaternion/index.htm
func (r4 *R4AA) ToQuat() quat.Number {
	sinA := math.Sin(r4.Theta / 2)
	// Ensure that point xyz is on the unit sphere
	r4.Normalize()

	// Get the unit-sphere components
	ax := r4.RX * sinA
	ay := r4.RY * sinA
	az := r4.RZ * sinA
	w := math.Cos(r4.Theta / 2)
	return quat.Number{Real: w, Imag: ax, Jmag: ay, Kmag: az}
}

// RotationMatrix returns the 3x3 rotation matrix of the axis angle.
func (r4 *R4AA) RotationMatrix() *mat.Dense {
	return quatToMatrix(r4.ToQuat())
}

// Normalize scales the x, y, and z components of a R4 axis angle to be on the unit sphere.
// A zero axis is replaced by the z axis, which only happens together with a zero angle.
func (r4 *R4AA) Normalize() {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0.0 {
		r4.RX, r4.RY, r4.RZ = 0, 0, 1
		return
	}
	r4.RX /= norm
	r4.RY /= norm
	r4.RZ /= norm
}

// R3ToR4 converts an R3 angle axis to R4.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return NewR4AA()
	}
	return &R4AA{theta, aa.X / theta, aa.Y / theta, aa.Z / theta}
}

// RotationMatrixFromVector returns the rotation matrix of a rotation vector (axis scaled by angle).
func RotationMatrixFromVector(v r3.Vector) *mat.Dense {
	return R3ToR4(v).RotationMatrix()
}

// RotationVectorFromMatrix returns the rotation vector of a 3x3 rotation matrix. The input is assumed
// to be orthonormal; see NearestRotation.
func RotationVectorFromMatrix(m mat.Matrix) r3.Vector {
	trace := m.At(0, 0) + m.At(1, 1) + m.At(2, 2)
	cosTheta := math.Max(-1, math.Min(1, (trace-1)/2))
	theta := math.Acos(cosTheta)
	skew := r3.Vector{
		X: m.At(2, 1) - m.At(1, 2),
		Y: m.At(0, 2) - m.At(2, 0),
		Z: m.At(1, 0) - m.At(0, 1),
	}

	const nearZero = 1e-12
	switch {
	case theta < nearZero:
		// first order expansion around the identity
		return skew.Mul(0.5)
	case math.Pi-theta < 1e-6:
		// sin(theta) vanishes, recover the axis from the symmetric part
		axis := r3.Vector{
			X: math.Sqrt(math.Max(0, (m.At(0, 0)+1)/2)),
			Y: math.Sqrt(math.Max(0, (m.At(1, 1)+1)/2)),
			Z: math.Sqrt(math.Max(0, (m.At(2, 2)+1)/2)),
		}
		switch {
		case axis.X >= axis.Y && axis.X >= axis.Z:
			axis.Y = math.Copysign(axis.Y, m.At(0, 1)+m.At(1, 0))
			axis.Z = math.Copysign(axis.Z, m.At(0, 2)+m.At(2, 0))
		case axis.Y >= axis.Z:
			axis.X = math.Copysign(axis.X, m.At(0, 1)+m.At(1, 0))
			axis.Z = math.Copysign(axis.Z, m.At(1, 2)+m.At(2, 1))
		default:
			axis.X = math.Copysign(axis.X, m.At(0, 2)+m.At(2, 0))
			axis.Y = math.Copysign(axis.Y, m.At(1, 2)+m.At(2, 1))
		}
		return axis.Normalize().Mul(theta)
	default:
		return skew.Mul(theta / (2 * math.Sin(theta)))
	}
}

// quatToMatrix converts a unit quaternion to a rotation matrix.
func quatToMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}
