package session

import (
	"fmt"

	"reorient/pkg/affine"
)

// applyDelta composes delta with the gesture snapshot and installs the result.
// Within a drag the snapshot is the Mm2Vox seen by the first delta, so every
// move replaces the previous one instead of stacking on it. Outside a drag the
// live matrix is used once and not retained.
func (s *Session) applyDelta(delta affine.Mat4) error {
	base := s.vol.Mm2Vox()
	if s.gesture.state == GestureDragging {
		if !s.gesture.captured {
			s.gesture.snapshot = base
			s.gesture.captured = true
		}
		base = s.gesture.snapshot
	}

	if err := s.vol.SetTransform(affine.Mul(base, delta)); err != nil {
		return fmt.Errorf("failed to apply transform: %w", err)
	}
	return nil
}

// Rotate turns the volume by angle radians using the rotation labelled axis.
func (s *Session) Rotate(axis affine.Axis, angle float64) error {
	if err := s.applyDelta(affine.Rotation(axis, angle)); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// Translate shifts the volume by (dx, dy, dz) pixels. The shift is scaled by
// the spacing of the first axis; spacing is assumed uniform.
func (s *Session) Translate(dx, dy, dz float64) error {
	pix := s.vol.Pixdim()[0]
	if err := s.applyDelta(affine.Translation(dx*pix, dy*pix, dz*pix)); err != nil {
		return err
	}
	s.refresh()
	return nil
}
