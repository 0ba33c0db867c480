package affine

import (
	"errors"
	"math"
	"testing"
)

const tol = 1e-12

// TestIdentity verifies that the identity builder returns the exact identity
func TestIdentity(t *testing.T) {
	expected := Mat4{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	for i := 0; i < 3; i++ {
		if got := Identity(); got != expected {
			t.Errorf("Expected identity, got %v", got)
		}
	}
}

// TestRotationsAtZero verifies that every builder collapses to the identity at angle 0
func TestRotationsAtZero(t *testing.T) {
	for name, build := range map[string]func(float64) Mat4{"xy": RotXY, "xz": RotXZ, "yz": RotYZ} {
		if got := build(0); !got.Equal(Identity(), tol) {
			t.Errorf("Rot%s(0): expected identity, got %v", name, got)
		}
	}
}

// TestRotationsAtRightAngle checks the permutation/sign pattern of each builder at pi/2
func TestRotationsAtRightAngle(t *testing.T) {
	cases := []struct {
		name     string
		got      Mat4
		expected Mat4
	}{
		{"xy", RotXY(math.Pi / 2), Mat4{{0, -1, 0, 0}, {1, 0, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}},
		{"xz", RotXZ(math.Pi / 2), Mat4{{0, 0, -1, 0}, {0, 1, 0, 0}, {1, 0, 0, 0}, {0, 0, 0, 1}}},
		{"yz", RotYZ(math.Pi / 2), Mat4{{1, 0, 0, 0}, {0, 0, -1, 0}, {0, 1, 0, 0}, {0, 0, 0, 1}}},
	}
	for _, c := range cases {
		if d := c.got.Distance(c.expected); d > 1e-6 {
			t.Errorf("Rot%s(pi/2): distance %g from expected %v", c.name, d, c.expected)
		}
	}
}

// TestRotationInverse verifies that R(a)·R(-a) is the identity for a spread of angles
func TestRotationInverse(t *testing.T) {
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		for a := -2 * math.Pi; a <= 2*math.Pi; a += 0.37 {
			p := Mul(Rotation(axis, a), Rotation(axis, -a))
			if !p.Equal(Identity(), 1e-9) {
				t.Fatalf("axis %s angle %f: R(a)R(-a) != I: %v", axis, a, p)
			}
		}
	}
}

func TestRotationAxisLabels(t *testing.T) {
	a := 0.3
	if Rotation(AxisX, a) != RotXY(a) || Rotation(AxisY, a) != RotXZ(a) || Rotation(AxisZ, a) != RotYZ(a) {
		t.Error("Rotation does not dispatch to the expected plane builders")
	}

	for _, s := range []string{"x", "Y", "z"} {
		if _, err := ParseAxis(s); err != nil {
			t.Errorf("ParseAxis(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseAxis("w"); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

func TestTranslation(t *testing.T) {
	m := Translation(1, -2, 3)
	p := m.Apply([3]float64{10, 10, 10})
	if p != [3]float64{11, 8, 13} {
		t.Errorf("Expected (11,8,13), got %v", p)
	}
}

func TestMulAndInverse(t *testing.T) {
	m := Mul(Translation(5, 6, 7), Mul(RotXY(0.4), Mat4{{2, 0, 0, 0}, {0, 3, 0, 0}, {0, 0, 0.5, 0}, {0, 0, 0, 1}}))
	inv, err := Inverse(m)
	if err != nil {
		t.Fatalf("Inverse failed: %v", err)
	}
	if p := Mul(m, inv); !p.Equal(Identity(), 1e-9) {
		t.Errorf("m·inv(m) != I: %v", p)
	}
	if p := Mul(inv, m); !p.Equal(Identity(), 1e-9) {
		t.Errorf("inv(m)·m != I: %v", p)
	}
}

func TestInverseSingular(t *testing.T) {
	var zero Mat4
	if _, err := Inverse(zero); !errors.Is(err, ErrSingular) {
		t.Errorf("Expected ErrSingular for zero matrix, got %v", err)
	}

	m := Identity()
	m[1][1] = math.NaN()
	if _, err := Inverse(m); !errors.Is(err, ErrSingular) {
		t.Errorf("Expected ErrSingular for NaN entry, got %v", err)
	}
}

func TestFlatRoundTrip(t *testing.T) {
	m := Mul(RotYZ(1.1), Translation(1, 2, 3))
	back, err := FromFlat(m.Flat())
	if err != nil {
		t.Fatalf("FromFlat failed: %v", err)
	}
	if back != m {
		t.Errorf("Expected %v, got %v", m, back)
	}
	if _, err := FromFlat(make([]float64, 12)); err == nil {
		t.Error("Expected error for 12 values, got nil")
	}
}
