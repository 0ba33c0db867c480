package models

import (
	"fmt"
	"image"
)

// Plane identifies one of the three orthogonal views of the volume
type Plane int

const (
	Sagittal Plane = iota
	Coronal
	Axial
)

// Planes lists the views in the order they are laid out on screen.
var Planes = [3]Plane{Sagittal, Coronal, Axial}

func (p Plane) String() string {
	switch p {
	case Sagittal:
		return "sag"
	case Coronal:
		return "cor"
	case Axial:
		return "axi"
	}
	return fmt.Sprintf("Plane(%d)", int(p))
}

// ParsePlane accepts the short names (sag, cor, axi) and the long ones.
func ParsePlane(s string) (Plane, error) {
	switch s {
	case "sag", "sagittal":
		return Sagittal, nil
	case "cor", "coronal":
		return Coronal, nil
	case "axi", "axial":
		return Axial, nil
	}
	return 0, fmt.Errorf("invalid plane: %s (must be sag, cor, or axi)", s)
}

// Tool controls how mouse drags are interpreted
type Tool int

const (
	Translate Tool = iota
	Rotate
	Select
)

func (t Tool) String() string {
	switch t {
	case Translate:
		return "Translate"
	case Rotate:
		return "Rotate"
	case Select:
		return "Select"
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool converts a tool button label into a Tool.
func ParseTool(s string) (Tool, error) {
	switch s {
	case "Translate", "translate":
		return Translate, nil
	case "Rotate", "rotate":
		return Rotate, nil
	case "Select", "select":
		return Select, nil
	}
	return 0, fmt.Errorf("invalid tool: %s (must be Translate, Rotate, or Select)", s)
}

// Vec3 is a point in world millimetres
type Vec3 struct {
	X, Y, Z float64
}

// Array returns v as [x, y, z].
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// CropBox is the axis-aligned world-space region selected for export
type CropBox struct {
	// Min is the lower corner in millimetres
	Min Vec3

	// Max is the upper corner in millimetres
	Max Vec3
}

// DefaultCropBox returns the symmetric selection shown when a volume is opened.
func DefaultCropBox() CropBox {
	return CropBox{
		Min: Vec3{X: -30, Y: -30, Z: 0},
		Max: Vec3{X: 30, Y: 30, Z: 30},
	}
}

// Rect is a rectangle in screen pixels
type Rect struct {
	Left, Top, Width, Height float64
}

// Canvas describes a view's drawing surface
type Canvas struct {
	// Width and Height are the intrinsic resolution of the canvas
	Width, Height int

	// Bounds is the rectangle the canvas occupies on screen
	Bounds Rect
}

// View is one orthogonal viewing pane
type View struct {
	Plane  Plane
	Canvas Canvas

	// Last is the last known mouse position in canvas pixels
	Last image.Point
}
