package session

import (
	"reorient/internal/models"
	"reorient/pkg/affine"
)

// Info is what the viewer's info panel shows
type Info struct {
	FileName string
	Dim      [3]int
	Mm2Vox   affine.Mat4
	Vox2Mm   affine.Mat4
	CropBox  models.CropBox
	Tool     models.Tool
	Gesture  GestureState
}

// Info returns a snapshot of the session for display.
func (s *Session) Info() Info {
	return Info{
		FileName: s.vol.Name(),
		Dim:      s.vol.Dim(),
		Mm2Vox:   s.vol.Mm2Vox(),
		Vox2Mm:   s.vol.Vox2Mm(),
		CropBox:  s.crop,
		Tool:     s.tool,
		Gesture:  s.gesture.state,
	}
}
