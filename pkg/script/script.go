// Package script replays recorded viewer interactions against a session. A
// script is a YAML document with a list of steps:
//
//	steps:
//	  - op: tool
//	    tool: Rotate
//	  - op: down
//	    view: axi
//	    x: 60
//	    y: 50
//	  - op: move
//	    view: axi
//	    x: 50
//	    y: 60
//	  - op: up
//	    view: axi
//
// Discrete steps (rotate, translate, reset, resetCrop) and overlay drags are
// also supported so a whole reorientation can be reproduced without a browser.
package script

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"reorient/internal/models"
	"reorient/pkg/affine"
	"reorient/pkg/session"
)

// Step operations
const (
	OpTool      = "tool"
	OpDown      = "down"
	OpMove      = "move"
	OpUp        = "up"
	OpOverlay   = "overlay"
	OpRotate    = "rotate"
	OpTranslate = "translate"
	OpReset     = "reset"
	OpResetCrop = "resetCrop"
)

// Step is one recorded interaction. Only the fields its Op needs are read.
type Step struct {
	Op   string `yaml:"op"`
	Tool string `yaml:"tool,omitempty"`
	View string `yaml:"view,omitempty"`

	// X and Y are client coordinates for down and move
	X float64 `yaml:"x,omitempty"`
	Y float64 `yaml:"y,omitempty"`

	// Rect is the dragged overlay as left, top, width, height
	Rect [4]float64 `yaml:"rect,omitempty"`

	// Axis and Angle (radians) describe a rotate step
	Axis  string  `yaml:"axis,omitempty"`
	Angle float64 `yaml:"angle,omitempty"`

	// Delta is a translate step in pixels
	Delta [3]float64 `yaml:"delta,omitempty"`
}

// Script is a parsed script file
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Load parses a script and checks every step names a known operation.
func Load(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}

	sc := &Script{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("error parsing script: %w", err)
	}

	for i, st := range sc.Steps {
		switch st.Op {
		case OpTool, OpDown, OpMove, OpUp, OpOverlay, OpRotate, OpTranslate, OpReset, OpResetCrop:
		default:
			return nil, fmt.Errorf("step %d: unknown op %q", i, st.Op)
		}
	}
	return sc, nil
}

// Run replays steps in order and stops at the first failure.
func Run(s *session.Session, steps []Step) error {
	for i, st := range steps {
		if err := apply(s, st); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, st.Op, err)
		}
	}
	return nil
}

func apply(s *session.Session, st Step) error {
	switch st.Op {
	case OpTool:
		t, err := models.ParseTool(st.Tool)
		if err != nil {
			return err
		}
		s.SetTool(t)
		return nil
	case OpRotate:
		axis, err := affine.ParseAxis(st.Axis)
		if err != nil {
			return err
		}
		return s.Rotate(axis, st.Angle)
	case OpTranslate:
		return s.Translate(st.Delta[0], st.Delta[1], st.Delta[2])
	case OpReset:
		return s.ResetMatrix()
	case OpResetCrop:
		s.ResetCropBox()
		return nil
	}

	// the rest happen on a view
	p, err := models.ParsePlane(st.View)
	if err != nil {
		return err
	}
	switch st.Op {
	case OpDown:
		s.MouseDown(p, session.MouseEvent{ClientX: st.X, ClientY: st.Y})
	case OpMove:
		return s.MouseMove(p, session.MouseEvent{ClientX: st.X, ClientY: st.Y})
	case OpUp:
		s.MouseUp(p)
	case OpOverlay:
		s.DragOverlay(p, models.Rect{Left: st.Rect[0], Top: st.Rect[1], Width: st.Rect[2], Height: st.Rect[3]})
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}
