package session

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"reorient/pkg/affine"
	"reorient/pkg/nifti"
)

// maxExportVoxels caps the cropped volume at 1 GiB of float32 samples.
const maxExportVoxels = 1 << 28

// ExportCrop resamples the crop box through the current transform into a new
// float32 volume. Output voxel (i,j,k) is sampled at world
// ((min.x+i)*p0, (min.y+j)*p1, (min.z+k)*p2) and the output's voxel-to-world
// matrix is the spacing diagonal translated to the crop origin.
func (s *Session) ExportCrop() (*nifti.Image, error) {
	box := s.crop
	pix := s.vol.Pixdim()
	lo, hi := box.Min.Array(), box.Max.Array()

	var dim [3]int
	total := 1
	for i := range dim {
		extent := math.Ceil(hi[i] - lo[i])
		switch {
		case math.IsNaN(extent) || extent <= 0:
			return nil, fmt.Errorf("crop box is empty along axis %d", i)
		case extent > math.MaxInt16:
			return nil, fmt.Errorf("crop box is too large along axis %d: %g voxels (max %d)", i, extent, math.MaxInt16)
		}
		dim[i] = int(extent)
		total *= dim[i]
	}
	if total > maxExportVoxels {
		return nil, fmt.Errorf("crop box has %d voxels (max %d)", total, maxExportVoxels)
	}
	s.logger.Printf("crop volume dimensions: %v", dim)

	data := make([]float32, dim[0]*dim[1]*dim[2])

	// Slabs of k are independent; SampleWorld only reads the volume
	var wg sync.WaitGroup
	numCores := s.opts.Workers
	if numCores <= 0 {
		numCores = runtime.NumCPU()
	}
	slabsPerCore := (dim[2] + numCores - 1) / numCores

	for c := 0; c < numCores; c++ {
		start := c * slabsPerCore
		end := min(start+slabsPerCore, dim[2])
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for k := start; k < end; k++ {
				for j := 0; j < dim[1]; j++ {
					for i := 0; i < dim[0]; i++ {
						w := [3]float64{
							(box.Min.X + float64(i)) * pix[0],
							(box.Min.Y + float64(j)) * pix[1],
							(box.Min.Z + float64(k)) * pix[2],
						}
						data[k*dim[1]*dim[0]+j*dim[0]+i] = float32(s.vol.SampleWorld(w))
					}
				}
			}
		}(start, end)
	}
	wg.Wait()

	v2m := affine.Mat4{
		{pix[0], 0, 0, box.Min.X * pix[0]},
		{0, pix[1], 0, box.Min.Y * pix[1]},
		{0, 0, pix[2], box.Min.Z * pix[2]},
		{0, 0, 0, 1},
	}
	img, err := nifti.Create(dim, pix, v2m, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create cropped volume: %w", err)
	}
	return img, nil
}
