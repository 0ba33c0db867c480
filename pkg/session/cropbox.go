package session

import (
	"fmt"
	"io"

	"reorient/internal/models"
	"reorient/pkg/coords"
	"reorient/pkg/matio"
)

// CropBox returns the current selection.
func (s *Session) CropBox() models.CropBox {
	return s.crop
}

// SetCropBox replaces the selection.
func (s *Session) SetCropBox(box models.CropBox) {
	s.crop = box
	s.updateOverlays()
	s.refresh()
}

// ResetCropBox restores the default selection.
func (s *Session) ResetCropBox() {
	s.SetCropBox(models.DefaultCropBox())
}

// scale is screen pixels per millimetre. All views share the sagittal view's size.
func (s *Session) scale() float64 {
	return coords.Scale(s.views[models.Sagittal].Canvas.Bounds.Width, s.vol.AbsoluteExtent())
}

// Overlays returns the crop rectangles for the three views.
func (s *Session) Overlays() [3]coords.Overlay {
	return coords.Overlays(s.crop, s.scale())
}

func (s *Session) updateOverlays() {
	if s.opts.Overlays != nil {
		s.opts.Overlays(s.Overlays())
	}
}

// DragOverlay takes the rectangle an overlay was dragged to on a view, in
// pixels relative to the view, and updates the two crop axes that view shows.
func (s *Session) DragOverlay(p models.Plane, rect models.Rect) {
	bounds := s.views[p].Canvas.Bounds
	s.crop = coords.CropBoxFromOverlay(p, rect, bounds, s.vol.AbsoluteExtent(), s.crop)
	s.updateOverlays()
	s.printInfo()
}

// LoadSelection replaces the crop box with one read from a selection file.
func (s *Session) LoadSelection(r io.Reader) error {
	box, err := matio.ParseSelection(r)
	if err != nil {
		return fmt.Errorf("failed to load selection: %w", err)
	}
	s.SetCropBox(box)
	return nil
}

// SaveSelection writes the crop box as a selection file.
func (s *Session) SaveSelection(w io.Writer) error {
	return matio.WriteSelection(w, s.crop)
}
