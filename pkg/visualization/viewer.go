package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"reorient/internal/models"
)

// Volume is what the viewer needs from a loaded image
type Volume interface {
	Pixdim() [3]float64
	SampleWorld(w [3]float64) float64
	AbsoluteExtent() float64
	Range() (float64, float64)
}

// Viewer renders the three orthogonal planes of a volume through its current
// world-to-voxel transform, so reorientation edits show up immediately.
type Viewer struct {
	// vol is sampled in world millimetres
	vol Volume

	// width and height of the canvas renders are scaled to
	width  int
	height int
}

// NewViewer creates a viewer drawing canvases of the given size
func NewViewer(vol Volume, width, height int) *Viewer {
	return &Viewer{
		vol:    vol,
		width:  width,
		height: height,
	}
}

// nativeSize is the number of voxels across the displayed extent.
func (v *Viewer) nativeSize() int {
	pix := v.vol.Pixdim()
	step := math.Min(math.Abs(pix[0]), math.Min(math.Abs(pix[1]), math.Abs(pix[2])))
	if step == 0 {
		step = 1
	}
	n := int(math.Ceil(v.vol.AbsoluteExtent() / step))
	if n < 1 {
		n = 1
	}
	return n
}

// planePoint places screen-plane coordinates (a, b) and the plane offset in
// world space. Screen x runs along a, screen up along b.
func planePoint(plane models.Plane, a, b, offset float64) [3]float64 {
	switch plane {
	case models.Sagittal:
		return [3]float64{offset, a, b}
	case models.Coronal:
		return [3]float64{a, offset, b}
	default:
		return [3]float64{a, b, offset}
	}
}

// RenderPlaneAt samples a plane offset millimetres from the world origin at
// voxel resolution and scales it to the canvas size.
func (v *Viewer) RenderPlaneAt(plane models.Plane, offset float64) (image.Image, error) {
	if v.width <= 0 || v.height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", v.width, v.height)
	}

	n := v.nativeSize()
	g := v.vol.AbsoluteExtent() / float64(n)
	lo, hi := v.vol.Range()
	span := hi - lo
	if span == 0 {
		span = 1
	}

	native := image.NewGray(image.Rect(0, 0, n, n))
	half := float64(n) / 2
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a := (float64(x) - half) * g
			b := (half - float64(y)) * g
			val := v.vol.SampleWorld(planePoint(plane, a, b, offset))
			level := math.Max(0, math.Min(255, (val-lo)/span*255))
			native.SetGray(x, y, color.Gray{Y: uint8(math.Round(level))})
		}
	}

	if n == v.width && n == v.height {
		return native, nil
	}
	canvas := image.NewGray(image.Rect(0, 0, v.width, v.height))
	draw.BiLinear.Scale(canvas, canvas.Bounds(), native, native.Bounds(), draw.Src, nil)
	return canvas, nil
}

// RenderPlane renders a plane through the world origin.
func (v *Viewer) RenderPlane(plane models.Plane) (image.Image, error) {
	return v.RenderPlaneAt(plane, 0)
}

// SaveSlice saves a rendered plane as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SavePlanes renders the sagittal, coronal and axial planes into outputDir.
func (v *Viewer) SavePlanes(outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for _, p := range models.Planes {
		img, err := v.RenderPlane(p)
		if err != nil {
			return files, err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("view_%s.jpg", p))
		if err := v.SaveSlice(img, filename); err != nil {
			return files, err
		}
		files = append(files, filename)
	}
	return files, nil
}

// SavePlaneSequence renders count planes evenly spaced across the volume extent.
func (v *Viewer) SavePlaneSequence(plane models.Plane, count int, outputDir string) error {
	if count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	extent := v.vol.AbsoluteExtent()
	step := extent / float64(count)
	for i := 0; i < count; i++ {
		offset := -extent/2 + (float64(i)+0.5)*step
		img, err := v.RenderPlaneAt(plane, offset)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", plane, i))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
