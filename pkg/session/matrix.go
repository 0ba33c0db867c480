package session

import (
	"fmt"
	"io"

	"reorient/pkg/affine"
	"reorient/pkg/matio"
)

// LoadMatrix replaces the volume's voxel-to-world matrix with one read from r.
// Nothing changes if the file does not parse.
func (s *Session) LoadMatrix(r io.Reader) error {
	v2m, err := matio.ParseMatrix(r)
	if err != nil {
		return fmt.Errorf("failed to load matrix: %w", err)
	}
	return s.setVoxelToWorld(v2m)
}

// AppendMatrix composes the matrix read from r with the current voxel-to-world matrix.
func (s *Session) AppendMatrix(r io.Reader) error {
	m, err := matio.ParseMatrix(r)
	if err != nil {
		return fmt.Errorf("failed to append matrix: %w", err)
	}
	return s.setVoxelToWorld(affine.Mul(s.vol.Vox2Mm(), m))
}

func (s *Session) setVoxelToWorld(v2m affine.Mat4) error {
	if _, err := affine.Inverse(v2m); err != nil {
		return fmt.Errorf("voxel-to-world matrix: %w", err)
	}
	s.vol.SetSform(v2m)
	mm2vox, err := s.vol.SformMm2Vox()
	if err != nil {
		return fmt.Errorf("voxel-to-world matrix: %w", err)
	}

	s.gesture = gesture{}
	if err := s.vol.SetTransform(mm2vox); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// SaveMatrix writes the voxel-to-world matrix, the inverse of the displayed
// world-to-voxel one, so the file can be loaded back with LoadMatrix.
func (s *Session) SaveMatrix(w io.Writer) error {
	return matio.WriteMatrix(w, s.vol.Vox2Mm())
}

// ResetMatrix restores the matrix the volume had when the session opened.
func (s *Session) ResetMatrix() error {
	s.gesture = gesture{}
	s.logger.Printf("reset matrix (%.3g from original)", s.vol.Mm2Vox().Distance(s.orig))
	if err := s.vol.SetTransform(s.orig); err != nil {
		return err
	}
	s.refresh()
	return nil
}
