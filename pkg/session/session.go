// Package session holds the interactive state of one reorientation viewer: the
// selected tool, the crop box, the three views and the drag gesture in
// progress. Hosts forward mouse events, overlay drags and file contents to a
// Session; it updates the volume's transform and reports back through hooks.
//
// A Session is not safe for concurrent use. Hosts deliver events from a single
// goroutine, the way a browser delivers them from its event loop.
package session

import (
	"io"
	"log"

	"reorient/internal/models"
	"reorient/pkg/affine"
	"reorient/pkg/coords"
)

// Volume is the loaded image as the session sees it. *nifti.Image satisfies it.
type Volume interface {
	Name() string
	Dim() [3]int
	Pixdim() [3]float64

	// Mm2Vox and Vox2Mm are kept mutually inverse by SetTransform
	Mm2Vox() affine.Mat4
	Vox2Mm() affine.Mat4
	SetTransform(mm2vox affine.Mat4) error

	// SetSform writes the header voxel-to-world rows; SformMm2Vox reads them back inverted
	SetSform(v2m affine.Mat4)
	SformMm2Vox() (affine.Mat4, error)

	SampleWorld(w [3]float64) float64
	AbsoluteExtent() float64
}

// Options configures a new session. Zero values fall back to defaults.
type Options struct {
	Tool    models.Tool
	CropBox *models.CropBox

	// Canvas is applied to all three views
	Canvas models.Canvas

	Logger *log.Logger

	// Workers bounds the goroutines ExportCrop samples with; 0 means one per CPU
	Workers int

	// Draw is called whenever the views need repainting
	Draw func()

	// Info is called with a fresh summary after every change
	Info func(Info)

	// Overlays is called with the three crop rectangles whenever the crop box changes
	Overlays func([3]coords.Overlay)
}

// Session is one viewer instance
type Session struct {
	vol     Volume
	orig    affine.Mat4
	tool    models.Tool
	crop    models.CropBox
	views   [3]models.View
	gesture gesture
	opts    Options
	logger  *log.Logger
}

// New opens a session on a loaded volume. The volume's current Mm2Vox is kept
// as the matrix ResetMatrix returns to.
func New(vol Volume, opts Options) *Session {
	s := &Session{
		vol:    vol,
		orig:   vol.Mm2Vox(),
		tool:   opts.Tool,
		crop:   models.DefaultCropBox(),
		opts:   opts,
		logger: opts.Logger,
	}
	if opts.CropBox != nil {
		s.crop = *opts.CropBox
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	for i, p := range models.Planes {
		s.views[i] = models.View{Plane: p, Canvas: opts.Canvas}
	}
	s.updateOverlays()
	s.printInfo()
	return s
}

// Volume returns the volume the session edits.
func (s *Session) Volume() Volume { return s.vol }

// Tool returns the selected tool.
func (s *Session) Tool() models.Tool { return s.tool }

// SetTool switches the drag interpretation for subsequent gestures.
func (s *Session) SetTool(t models.Tool) {
	s.tool = t
	s.logger.Printf("tool %s", t)
}

// OverlaysVisible reports whether crop overlays should be shown.
func (s *Session) OverlaysVisible() bool {
	return s.tool == models.Select
}

// View returns the view for a plane.
func (s *Session) View(p models.Plane) models.View {
	return s.views[p]
}

// SetCanvas updates a view's canvas size and on-screen bounds, e.g. after a resize.
func (s *Session) SetCanvas(p models.Plane, c models.Canvas) {
	s.views[p].Canvas = c
	if p == models.Sagittal {
		s.updateOverlays()
	}
}

func (s *Session) draw() {
	if s.opts.Draw != nil {
		s.opts.Draw()
	}
}

func (s *Session) printInfo() {
	if s.opts.Info != nil {
		s.opts.Info(s.Info())
	}
}

// refresh repaints and republishes the info panel after a transform change.
func (s *Session) refresh() {
	s.draw()
	s.printInfo()
}
