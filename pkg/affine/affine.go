// Package affine provides the 4x4 homogeneous matrices used to reorient a volume:
// the rotation and translation builders and the multiply/invert primitives the
// viewer relies on.
package affine

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a matrix has no inverse.
var ErrSingular = errors.New("matrix is singular")

// Mat4 is a row-major 4x4 matrix
type Mat4 [4][4]float64

// Axis labels a gesture rotation axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis converts "x", "y" or "z" (either case) into an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", s)
}

// Identity returns the 4x4 identity matrix
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// RotXY turns the x axis toward y by a radians.
func RotXY(a float64) Mat4 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat4{
		{c, -s, 0, 0},
		{s, c, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// RotXZ turns the x axis toward z by a radians.
func RotXZ(a float64) Mat4 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat4{
		{c, 0, -s, 0},
		{0, 1, 0, 0},
		{s, 0, c, 0},
		{0, 0, 0, 1},
	}
}

// RotYZ turns the y axis toward z by a radians.
func RotYZ(a float64) Mat4 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat4{
		{1, 0, 0, 0},
		{0, c, -s, 0},
		{0, s, c, 0},
		{0, 0, 0, 1},
	}
}

// Rotation returns the rotation for an axis label as the viewer has always
// named them: x turns the x-y plane, y the x-z plane and z the y-z plane.
func Rotation(axis Axis, a float64) Mat4 {
	switch axis {
	case AxisX:
		return RotXY(a)
	case AxisY:
		return RotXZ(a)
	default:
		return RotYZ(a)
	}
}

// Translation returns the identity with its translation column set.
func Translation(dx, dy, dz float64) Mat4 {
	m := Identity()
	m[0][3] = dx
	m[1][3] = dy
	m[2][3] = dz
	return m
}

// Flat returns the matrix as 16 values in row-major order.
func (m Mat4) Flat() []float64 {
	out := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		out = append(out, m[i][:]...)
	}
	return out
}

// FromFlat builds a matrix from 16 row-major values.
func FromFlat(v []float64) (Mat4, error) {
	var m Mat4
	if len(v) != 16 {
		return m, fmt.Errorf("expected 16 values, got %d", len(v))
	}
	for i := 0; i < 4; i++ {
		copy(m[i][:], v[i*4:i*4+4])
	}
	return m, nil
}

func (m Mat4) dense() *mat.Dense {
	return mat.NewDense(4, 4, m.Flat())
}

func fromDense(d mat.Matrix) Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// Mul returns a·b.
func Mul(a, b Mat4) Mat4 {
	var out mat.Dense
	out.Mul(a.dense(), b.dense())
	return fromDense(&out)
}

// Inverse returns the inverse of m, or ErrSingular when m cannot be inverted.
func Inverse(m Mat4) (Mat4, error) {
	for _, v := range m.Flat() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Mat4{}, fmt.Errorf("%w: non-finite entry", ErrSingular)
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(m.dense()); err != nil {
		// gonum reports near-singular input with a Condition error but still
		// fills the result; treat anything it flags as unusable.
		return Mat4{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return fromDense(&inv), nil
}

// Apply transforms the point v (w = 1) and drops the homogeneous coordinate.
func (m Mat4) Apply(v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2] + m[i][3]
	}
	return out
}

// Equal reports whether every entry of m is within tol of o.
func (m Mat4) Equal(o Mat4, tol float64) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(m[i][j]-o[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// Distance is the Frobenius norm of m-o.
func (m Mat4) Distance(o Mat4) float64 {
	sum := 0.0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			d := m[i][j] - o[i][j]
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}
