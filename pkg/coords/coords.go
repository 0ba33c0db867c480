// Package coords converts between mouse positions, canvas pixels, overlay
// rectangles and world millimetres.
package coords

import (
	"fmt"
	"image"
	"math"

	"reorient/internal/models"
)

// ScreenToCanvas maps a mouse position in client coordinates to integer canvas
// pixels, scaling by the canvas' intrinsic-to-displayed ratio. A canvas that
// has not been laid out yet maps everything to the origin.
func ScreenToCanvas(clientX, clientY float64, canvas models.Canvas) image.Point {
	r := canvas.Bounds
	if r.Width == 0 || r.Height == 0 {
		return image.Point{}
	}
	sx := float64(canvas.Width) / r.Width
	sy := float64(canvas.Height) / r.Height
	return image.Point{
		X: int((clientX - r.Left) * sx),
		Y: int((clientY - r.Top) * sy),
	}
}

// Scale returns screen pixels per millimetre for a view displayed refWidth
// pixels wide showing extent millimetres.
func Scale(refWidth, extent float64) float64 {
	if extent == 0 {
		return 0
	}
	return refWidth / extent
}

// Overlay is a crop rectangle positioned relative to the centre of a view, in
// screen pixels. Left and Top are offsets from the centre.
type Overlay struct {
	Plane  models.Plane
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Resolve returns the overlay as an absolute rectangle in a view of the given size.
func (o Overlay) Resolve(width, height float64) models.Rect {
	return models.Rect{
		Left:   width/2 + o.Left,
		Top:    height/2 + o.Top,
		Width:  o.Width,
		Height: o.Height,
	}
}

// CSS returns the style properties a web host applies to the overlay element.
func (o Overlay) CSS() map[string]string {
	return map[string]string{
		"left":   fmt.Sprintf("calc( 50%% + (%spx) )", num(o.Left)),
		"top":    fmt.Sprintf("calc( 50%% + (%spx) )", num(o.Top)),
		"width":  num(o.Width) + "px",
		"height": num(o.Height) + "px",
	}
}

func num(v float64) string {
	return fmt.Sprintf("%g", v)
}

// OverlayFromCropBox places the crop box on one view. The vertical world axis
// grows upward while screen rows grow downward, hence top = -max.
func OverlayFromCropBox(plane models.Plane, box models.CropBox, scale float64) Overlay {
	lo, hi := box.Min, box.Max
	o := Overlay{Plane: plane}
	switch plane {
	case models.Sagittal:
		o.Left, o.Top = lo.Y*scale, -hi.Z*scale
		o.Width, o.Height = (hi.Y-lo.Y)*scale, (hi.Z-lo.Z)*scale
	case models.Coronal:
		o.Left, o.Top = lo.X*scale, -hi.Z*scale
		o.Width, o.Height = (hi.X-lo.X)*scale, (hi.Z-lo.Z)*scale
	case models.Axial:
		o.Left, o.Top = lo.X*scale, -hi.Y*scale
		o.Width, o.Height = (hi.X-lo.X)*scale, (hi.Y-lo.Y)*scale
	}
	return o
}

// Overlays places the crop box on all three views.
func Overlays(box models.CropBox, scale float64) [3]Overlay {
	var out [3]Overlay
	for i, p := range models.Planes {
		out[i] = OverlayFromCropBox(p, box, scale)
	}
	return out
}

// roundHalfUp rounds like JavaScript's Math.round: halves go toward +Inf.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// CropBoxFromOverlay updates the two axes of box shown on plane from an overlay
// rectangle dragged to rect inside a view displayed at bounds. Results are
// rounded to whole millimetres.
func CropBoxFromOverlay(plane models.Plane, rect, bounds models.Rect, extent float64, box models.CropBox) models.CropBox {
	if bounds.Width == 0 {
		return box
	}
	g := extent / bounds.Width
	lo := roundHalfUp(g * (rect.Left - bounds.Width/2))
	hi := roundHalfUp(g * (rect.Width + rect.Left - bounds.Width/2))
	bottom := roundHalfUp(g * (bounds.Height/2 - rect.Top - rect.Height))
	top := roundHalfUp(g * (bounds.Height/2 - rect.Top))

	switch plane {
	case models.Sagittal:
		box.Min.Y, box.Max.Y = lo, hi
		box.Min.Z, box.Max.Z = bottom, top
	case models.Coronal:
		box.Min.X, box.Max.X = lo, hi
		box.Min.Z, box.Max.Z = bottom, top
	case models.Axial:
		box.Min.X, box.Max.X = lo, hi
		box.Min.Y, box.Max.Y = bottom, top
	}
	return box
}
