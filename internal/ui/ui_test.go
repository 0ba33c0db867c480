package ui

import (
	"strings"
	"testing"

	"reorient/internal/models"
	"reorient/pkg/affine"
	"reorient/pkg/session"
)

func TestToPrecision(t *testing.T) {
	cases := []struct {
		v        float64
		expected string
	}{
		{1, "1.0"},
		{2.21, "2.2"},
		{0, "0.0"},
		{-0.5, "-0.50"},
		{9.96, "10"},
		{12.3, "12"},
		{123, "1.2e+2"},
		{0.000123, "0.00012"},
		{0.00000012, "1.2e-7"},
		{-126, "-1.3e+2"},
	}
	for _, c := range cases {
		if got := ToPrecision(c.v, 2); got != c.expected {
			t.Errorf("ToPrecision(%v, 2): expected %q, got %q", c.v, c.expected, got)
		}
	}
}

func TestMatrixString(t *testing.T) {
	m := affine.Mat4{{1, 2.21, 3, 4}, {5, 6, 7, 8}, {9, 0, 1, 2}, {3, 4, 5, 6}}
	expected := " 1.0, 2.2, 3.0, 4.0\n 5.0, 6.0, 7.0, 8.0\n 9.0, 0.0, 1.0, 2.0\n 3.0, 4.0, 5.0, 6.0"
	if got := MatrixString(m); got != expected {
		t.Errorf("Expected\n%s\ngot\n%s", expected, got)
	}

	if got := MatrixString(affine.Translation(-1, 0, 0)); !strings.HasPrefix(got, " 1.0, 0.0, 0.0,-1.0") {
		t.Errorf("Unexpected negative formatting: %q", got)
	}
}

func TestInfoPanels(t *testing.T) {
	info := session.Info{
		FileName: "bear_uchar.nii.gz",
		Dim:      [3]int{225, 328, 210},
		Mm2Vox:   affine.Identity(),
		Vox2Mm:   affine.Identity(),
		CropBox:  models.DefaultCropBox(),
		Tool:     models.Rotate,
	}

	plain := PlainInfo(info)
	for _, want := range []string{"bear_uchar.nii.gz", "225x328x210", "(-30,-30,0)\n(30,30,30)", " 1.0, 0.0, 0.0, 0.0"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Plain info missing %q:\n%s", want, plain)
		}
	}

	rendered := RenderInfo(info)
	for _, want := range []string{"Rotate", "225x328x210", "Selection"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Rendered info missing %q", want)
		}
	}
}
