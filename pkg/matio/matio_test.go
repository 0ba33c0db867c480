package matio

import (
	"errors"
	"math"
	"strings"
	"testing"

	"reorient/internal/models"
	"reorient/pkg/affine"
)

// TestMatrixRoundTrip verifies that a saved matrix reloads to the same values
func TestMatrixRoundTrip(t *testing.T) {
	m := affine.Mul(affine.RotYZ(math.Pi/7), affine.Translation(1.25, -3.5, 1e-9))
	m[0][0] = 0.1 + 0.2

	back, err := ParseMatrix(strings.NewReader(FormatMatrix(m)))
	if err != nil {
		t.Fatalf("ParseMatrix failed: %v", err)
	}
	if back != m {
		t.Errorf("Expected %v, got %v", m, back)
	}
}

func TestParseMatrixLayout(t *testing.T) {
	text := "1 0 0 -90\n0 1 0 -126\n0 0 1 -72\n"
	m, err := ParseMatrix(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ParseMatrix failed: %v", err)
	}
	if m[0][3] != -90 || m[1][3] != -126 || m[2][3] != -72 {
		t.Errorf("Unexpected translation column: %v", m)
	}
	if m[3] != [4]float64{0, 0, 0, 1} {
		t.Errorf("Expected implicit last row 0 0 0 1, got %v", m[3])
	}

	// rows past the fourth are ignored, blank lines skipped
	text = "\n2 0 0 0\n\n0 2 0 0\n0 0 2 0\n0 0 0 1\nnot a row\n"
	m, err = ParseMatrix(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ParseMatrix failed: %v", err)
	}
	if m[2][2] != 2 {
		t.Errorf("Expected m[2][2] = 2, got %f", m[2][2])
	}
}

func TestParseMatrixErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		line int
		col  int
	}{
		{"non-numeric", "1 0 0 0\n0 1 x 0\n0 0 1 0\n", 2, 3},
		{"short row", "1 0 0 0\n0 1 0\n0 0 1 0\n", 2, 0},
		{"too few rows", "1 0 0 0\n0 1 0 0\n", 3, 0},
		{"empty", "", 1, 0},
		{"nan", "NaN 0 0 0\n0 1 0 0\n0 0 1 0\n", 1, 1},
		{"infinite", "1 0 0 0\n0 1 0 +Inf\n0 0 1 0\n", 2, 4},
	}
	for _, c := range cases {
		_, err := ParseMatrix(strings.NewReader(c.text))
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%s: expected *ParseError, got %v", c.name, err)
			continue
		}
		if pe.Line != c.line || pe.Column != c.col {
			t.Errorf("%s: expected line %d column %d, got %d/%d (%v)", c.name, c.line, c.col, pe.Line, pe.Column, pe)
		}
	}
}

// TestSelectionRoundTrip verifies that a saved crop box reloads to identical values
func TestSelectionRoundTrip(t *testing.T) {
	box := models.CropBox{
		Min: models.Vec3{X: -30, Y: -12.5, Z: 0},
		Max: models.Vec3{X: 30, Y: 41, Z: 30.75},
	}
	text := FormatSelection(box)
	if text != "-30 -12.5 0\n30 41 30.75" {
		t.Errorf("Unexpected selection text %q", text)
	}

	back, err := ParseSelection(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ParseSelection failed: %v", err)
	}
	if back != box {
		t.Errorf("Expected %+v, got %+v", box, back)
	}
}

func TestParseSelectionErrors(t *testing.T) {
	for _, text := range []string{
		"1 2 3\n",
		"1 2 3\n4 5 6\n7 8 9\n",
		"1 2\n4 5 6\n",
		"1 2 3\n4 five 6\n",
		"NaN 0 0\n1 1 1\n",
		"0 0 0\n1 Inf 1\n",
		"-inf 0 0\n1 1 1\n",
	} {
		var pe *ParseError
		if _, err := ParseSelection(strings.NewReader(text)); !errors.As(err, &pe) {
			t.Errorf("%q: expected *ParseError, got %v", text, err)
		}
	}
}

func TestDataURI(t *testing.T) {
	uri := DataURI("1 0\n0 +1")
	expected := "data:text/plain;charset=utf-8,1%200%0A0%20%2B1"
	if uri != expected {
		t.Errorf("Expected %s, got %s", expected, uri)
	}
}
