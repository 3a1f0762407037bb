package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// rigidTolerance bounds how far from orthonormal a rotation block may be when a transform is built
// from user supplied numbers.
const rigidTolerance = 1e-6

// Transform is a 4x4 rigid transform [R | t; 0 0 0 1] acting on homogeneous points. The zero value
// holds no matrix; build transforms with NewIdentityTransform, NewTransform or NewTransformFromMatrix.
type Transform struct {
	m *mat.Dense
}

// IsValid reports whether t holds a matrix.
func (t *Transform) IsValid() bool {
	return t != nil && t.m != nil
}

// NewIdentityTransform returns the identity transform.
func NewIdentityTransform() *Transform {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &Transform{m: m}
}

// NewTransform builds [R | t; 0 0 0 1] from a 3x3 rotation and a translation.
func NewTransform(rotation mat.Matrix, translation r3.Vector) (*Transform, error) {
	if r, c := rotation.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("rotation must be 3x3, got %dx%d", r, c)
	}
	if !IsRotation(rotation, rigidTolerance) {
		return nil, errors.New("rotation block is not orthonormal with determinant 1")
	}
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rotation.At(i, j))
		}
	}
	m.Set(0, 3, translation.X)
	m.Set(1, 3, translation.Y)
	m.Set(2, 3, translation.Z)
	m.Set(3, 3, 1)
	return &Transform{m: m}, nil
}

// NewTransformFromMatrix validates a 4x4 matrix as a rigid transform.
func NewTransformFromMatrix(m mat.Matrix) (*Transform, error) {
	if r, c := m.Dims(); r != 4 || c != 4 {
		return nil, errors.Errorf("transform must be 4x4, got %dx%d", r, c)
	}
	bottom := []float64{m.At(3, 0), m.At(3, 1), m.At(3, 2), m.At(3, 3)}
	if bottom[0] != 0 || bottom[1] != 0 || bottom[2] != 0 || bottom[3] != 1 {
		return nil, errors.Errorf("transform bottom row must be [0 0 0 1], got %v", bottom)
	}
	return NewTransform(
		mat.DenseCopyOf(m).Slice(0, 3, 0, 3),
		r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)},
	)
}

// Apply returns T * p.
func (t *Transform) Apply(p Point) Point {
	var out mat.VecDense
	out.MulVec(t.m, p.VecDense())
	return Point{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2), W: out.AtVec(3)}
}

// Inverse returns the inverse transform [Rᵀ | -Rᵀt; 0 0 0 1].
func (t *Transform) Inverse() *Transform {
	rt := mat.DenseCopyOf(t.Rotation().T())
	tr := t.Translation()
	var negT mat.VecDense
	negT.MulVec(rt, mat.NewVecDense(3, []float64{-tr.X, -tr.Y, -tr.Z}))

	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rt.At(i, j))
		}
		m.Set(i, 3, negT.AtVec(i))
	}
	m.Set(3, 3, 1)
	return &Transform{m: m}
}

// Compose returns t * other, i.e. other is applied first.
func (t *Transform) Compose(other *Transform) *Transform {
	var m mat.Dense
	m.Mul(t.m, other.m)
	return &Transform{m: &m}
}

// Rotation returns a copy of the 3x3 rotation block.
func (t *Transform) Rotation() *mat.Dense {
	return mat.DenseCopyOf(t.m.Slice(0, 3, 0, 3))
}

// Translation returns the translation column.
func (t *Transform) Translation() r3.Vector {
	return r3.Vector{X: t.m.At(0, 3), Y: t.m.At(1, 3), Z: t.m.At(2, 3)}
}

// Matrix returns a copy of the 4x4 matrix.
func (t *Transform) Matrix() *mat.Dense {
	return mat.DenseCopyOf(t.m)
}

// ApproxEqual compares two transforms element-wise.
func (t *Transform) ApproxEqual(other *Transform, tol float64) bool {
	return mat.EqualApprox(t.m, other.m, tol)
}

// IsRotation reports whether m is a 3x3 orthonormal matrix with determinant +1, within tol.
func IsRotation(m mat.Matrix, tol float64) bool {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return false
	}
	var rtr mat.Dense
	rtr.Mul(m.T(), m)
	identity := mat.NewDiagDense(3, []float64{1, 1, 1})
	if !mat.EqualApprox(&rtr, identity, tol) {
		return false
	}
	return math.Abs(mat.Det(m)-1) <= tol
}

// NearestRotation returns the rotation matrix closest to m in the Frobenius norm.
func NearestRotation(m mat.Matrix) (*mat.Dense, error) {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("expected a 3x3 matrix, got %dx%d", r, c)
	}
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize rotation estimate")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var rot mat.Dense
	rot.Mul(&u, v.T())
	if mat.Det(&rot) < 0 {
		// flip the direction of least variance to leave a proper rotation
		d := mat.NewDiagDense(3, []float64{1, 1, -1})
		var ud mat.Dense
		ud.Mul(&u, d)
		rot.Mul(&ud, v.T())
	}
	return &rot, nil
}
