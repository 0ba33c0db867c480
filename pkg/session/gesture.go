package session

import (
	"image"
	"math"

	"reorient/internal/models"
	"reorient/pkg/affine"
	"reorient/pkg/coords"
)

// GestureState is the drag state machine: Idle until mouse down, Dragging until mouse up.
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureDragging
)

func (g GestureState) String() string {
	if g == GestureDragging {
		return "Dragging"
	}
	return "Idle"
}

// gesture is one mouse-down..mouse-up interaction. The snapshot exists only
// while Dragging and is captured by the first delta.
type gesture struct {
	state    GestureState
	plane    models.Plane
	origin   image.Point
	captured bool
	snapshot affine.Mat4
}

// MouseEvent is a pointer position in client (page) coordinates.
type MouseEvent struct {
	ClientX, ClientY float64
}

// translation axes per plane for a screen delta (dx, dy)
func planeTranslation(p models.Plane, dx, dy float64) [3]float64 {
	switch p {
	case models.Sagittal:
		return [3]float64{0, -dx, dy}
	case models.Coronal:
		return [3]float64{-dx, 0, dy}
	default:
		return [3]float64{-dx, dy, 0}
	}
}

func planeRotationAxis(p models.Plane) affine.Axis {
	switch p {
	case models.Sagittal:
		return affine.AxisZ
	case models.Coronal:
		return affine.AxisY
	default:
		return affine.AxisX
	}
}

// gestureAngle is the signed angle from vector from to vector to, measured in
// a frame whose first axis points along from.
func gestureAngle(from, to image.Point) (float64, bool) {
	n := math.Hypot(float64(from.X), float64(from.Y))
	if n == 0 {
		return 0, false
	}
	ix, iy := float64(from.X)/n, float64(from.Y)/n
	jx, jy := -iy, ix
	x := float64(to.X)*ix + float64(to.Y)*iy
	y := float64(to.X)*jx + float64(to.Y)*jy
	return math.Atan2(y, x), true
}

// Gesture returns the current drag state.
func (s *Session) Gesture() GestureState {
	return s.gesture.state
}

// MouseDown starts a drag on a view.
func (s *Session) MouseDown(p models.Plane, ev MouseEvent) {
	pt := coords.ScreenToCanvas(ev.ClientX, ev.ClientY, s.views[p].Canvas)
	s.views[p].Last = pt
	s.gesture = gesture{state: GestureDragging, plane: p, origin: pt}
	s.logger.Printf("down on %s (%d,%d)", p, pt.X, pt.Y)
}

// MouseMove applies the selected tool for the displacement since mouse down.
// Moves while idle, or over a view other than the one the drag started on,
// are ignored.
func (s *Session) MouseMove(p models.Plane, ev MouseEvent) error {
	if s.gesture.state != GestureDragging || p != s.gesture.plane {
		return nil
	}
	pt := coords.ScreenToCanvas(ev.ClientX, ev.ClientY, s.views[p].Canvas)
	s.views[p].Last = pt
	origin := s.gesture.origin

	switch s.tool {
	case models.Translate:
		d := planeTranslation(p, float64(pt.X-origin.X), float64(pt.Y-origin.Y))
		return s.Translate(d[0], d[1], d[2])
	case models.Rotate:
		angle, ok := gestureAngle(origin, pt)
		if !ok {
			return nil
		}
		return s.Rotate(planeRotationAxis(p), angle)
	}
	// Select: overlay drags arrive through DragOverlay
	return nil
}

// MouseUp ends the drag and drops the snapshot.
func (s *Session) MouseUp(p models.Plane) {
	s.gesture = gesture{}
}
