// Package nifti reads and writes NIfTI-1 volumes and exposes the voxel/world
// transform pair the reorientation session manipulates.
package nifti

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"reorient/pkg/affine"
)

// Image is a loaded 3D volume together with its world/voxel transforms
type Image struct {
	// FileName is the base name the volume was loaded from
	FileName string

	// Header holds the raw header fields; srow_x/y/z are rewritten on matrix import
	Header Header

	// Data holds scaled voxel intensities, x fastest, then y, then z
	Data []float64

	// MatrixMm2Vox maps world millimetres to voxel indices
	MatrixMm2Vox affine.Mat4

	// MatrixVox2Mm is always the inverse of MatrixMm2Vox
	MatrixVox2Mm affine.Mat4
}

// Name returns the file name the volume was loaded from.
func (img *Image) Name() string { return img.FileName }

// Dim returns the three spatial dimensions.
func (img *Image) Dim() [3]int {
	return [3]int{int(img.Header.Dim[1]), int(img.Header.Dim[2]), int(img.Header.Dim[3])}
}

// Pixdim returns the three voxel spacings in millimetres.
func (img *Image) Pixdim() [3]float64 {
	return [3]float64{float64(img.Header.Pixdim[1]), float64(img.Header.Pixdim[2]), float64(img.Header.Pixdim[3])}
}

// Datatype returns the header datatype code.
func (img *Image) Datatype() int {
	return int(img.Header.Datatype)
}

// Mm2Vox returns the world-to-voxel matrix.
func (img *Image) Mm2Vox() affine.Mat4 { return img.MatrixMm2Vox }

// Vox2Mm returns the voxel-to-world matrix.
func (img *Image) Vox2Mm() affine.Mat4 { return img.MatrixVox2Mm }

// SetTransform replaces Mm2Vox and recomputes Vox2Mm from it.
func (img *Image) SetTransform(mm2vox affine.Mat4) error {
	vox2mm, err := affine.Inverse(mm2vox)
	if err != nil {
		return err
	}
	img.MatrixMm2Vox = mm2vox
	img.MatrixVox2Mm = vox2mm
	return nil
}

// SetSform writes a voxel-to-world matrix into the header srow fields.
func (img *Image) SetSform(v2m affine.Mat4) {
	img.Header.SetSform(v2m)
}

// SformMm2Vox recomputes the world-to-voxel matrix from the header.
func (img *Image) SformMm2Vox() (affine.Mat4, error) {
	return affine.Inverse(img.Header.VoxelToWorld())
}

// AbsoluteExtent is the edge of the cube, in millimetres, that encloses the
// volume in every orientation the viewer displays.
func (img *Image) AbsoluteExtent() float64 {
	dim, pix := img.Dim(), img.Pixdim()
	ext := 0.0
	for i := 0; i < 3; i++ {
		ext = math.Max(ext, float64(dim[i])*math.Abs(pix[i]))
	}
	return ext
}

// Voxel returns the intensity at integer voxel indices, or 0 outside the volume.
func (img *Image) Voxel(i, j, k int) float64 {
	dim := img.Dim()
	if i < 0 || j < 0 || k < 0 || i >= dim[0] || j >= dim[1] || k >= dim[2] {
		return 0
	}
	return img.Data[k*dim[1]*dim[0]+j*dim[0]+i]
}

// SampleWorld returns the nearest voxel to a world coordinate under the current Mm2Vox.
func (img *Image) SampleWorld(w [3]float64) float64 {
	v := img.MatrixMm2Vox.Apply(w)
	return img.Voxel(int(math.Round(v[0])), int(math.Round(v[1])), int(math.Round(v[2])))
}

// Range returns the minimum and maximum intensity.
func (img *Image) Range() (float64, float64) {
	if len(img.Data) == 0 {
		return 0, 0
	}
	return floats.Min(img.Data), floats.Max(img.Data)
}

// Stats returns the intensity mean and standard deviation.
func (img *Image) Stats() (mean, std float64) {
	if len(img.Data) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(img.Data, nil)
}

// Load reads a .nii or .nii.gz file.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open volume: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	img.FileName = filepath.Base(path)
	return img, nil
}

// Decode reads a single-file NIfTI-1 volume, gunzipping it when needed.
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume: %w", err)
	}

	var src io.Reader = br
	if magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	hdr, order, err := readHeader(src)
	if err != nil {
		return nil, err
	}

	if hdr.Dim[0] < 3 {
		return nil, fmt.Errorf("expected at least 3 dimensions, got %d", hdr.Dim[0])
	}
	n := 1
	for i := 1; i <= 3; i++ {
		if hdr.Dim[i] <= 0 {
			return nil, fmt.Errorf("invalid dimension %d: %d", i, hdr.Dim[i])
		}
		n *= int(hdr.Dim[i])
	}
	bpv, err := bytesPerVoxel(hdr.Datatype)
	if err != nil {
		return nil, err
	}

	// skip extensions between the header and vox_offset
	if skip := int64(hdr.VoxOffset) - HeaderSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, src, skip); err != nil {
			return nil, fmt.Errorf("failed to skip to voxel data: %w", err)
		}
	}

	raw := make([]byte, n*bpv)
	if _, err := io.ReadFull(src, raw); err != nil {
		return nil, fmt.Errorf("failed to read voxel data: %w", err)
	}

	img := &Image{Header: *hdr, Data: decodeVoxels(raw, hdr.Datatype, order, n)}
	if slope := float64(hdr.SclSlope); slope != 0 && !math.IsNaN(slope) {
		inter := float64(hdr.SclInter)
		for i := range img.Data {
			img.Data[i] = img.Data[i]*slope + inter
		}
	}

	mm2vox, err := img.SformMm2Vox()
	if err != nil {
		return nil, fmt.Errorf("voxel-to-world matrix: %w", err)
	}
	if err := img.SetTransform(mm2vox); err != nil {
		return nil, err
	}
	return img, nil
}

func decodeVoxels(raw []byte, datatype int16, order binary.ByteOrder, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		switch datatype {
		case DTUint8:
			out[i] = float64(raw[i])
		case DTInt8:
			out[i] = float64(int8(raw[i]))
		case DTInt16:
			out[i] = float64(int16(order.Uint16(raw[i*2:])))
		case DTUint16:
			out[i] = float64(order.Uint16(raw[i*2:]))
		case DTInt32:
			out[i] = float64(int32(order.Uint32(raw[i*4:])))
		case DTUint32:
			out[i] = float64(order.Uint32(raw[i*4:]))
		case DTFloat32:
			out[i] = float64(math.Float32frombits(order.Uint32(raw[i*4:])))
		case DTFloat64:
			out[i] = math.Float64frombits(order.Uint64(raw[i*8:]))
		}
	}
	return out
}

// Create builds a float32 volume from dimensions, spacing, a voxel-to-world
// matrix and a flat x-fastest buffer.
func Create(dim [3]int, pixdim [3]float64, v2m affine.Mat4, data []float32) (*Image, error) {
	for i, d := range dim {
		if d <= 0 || d > math.MaxInt16 {
			return nil, fmt.Errorf("dimension %d out of range: %d", i, d)
		}
	}
	n := dim[0] * dim[1] * dim[2]
	if len(data) != n {
		return nil, fmt.Errorf("data has %d voxels, dimensions need %d", len(data), n)
	}

	hdr := Header{
		SizeofHdr: HeaderSize,
		Datatype:  DTFloat32,
		Bitpix:    32,
		VoxOffset: DataOffset,
		SclSlope:  1,
		XyztUnits: 2, // millimetres
		SformCode: 2,
	}
	hdr.Dim[0] = 3
	hdr.Pixdim[0] = 1
	for i := 0; i < 3; i++ {
		hdr.Dim[i+1] = int16(dim[i])
		hdr.Pixdim[i+1] = float32(pixdim[i])
	}
	for i := 4; i < 8; i++ {
		hdr.Dim[i] = 1
	}
	setString(hdr.Magic[:], "n+1")
	setString(hdr.Descrip[:], "reorient")
	hdr.SetSform(v2m)

	img := &Image{Header: hdr, Data: make([]float64, n)}
	for i, v := range data {
		img.Data[i] = float64(v)
	}
	if len(img.Data) > 0 {
		lo, hi := img.Range()
		hdr.CalMin, hdr.CalMax = float32(lo), float32(hi)
		img.Header = hdr
	}

	mm2vox, err := affine.Inverse(v2m)
	if err != nil {
		return nil, fmt.Errorf("voxel-to-world matrix: %w", err)
	}
	if err := img.SetTransform(mm2vox); err != nil {
		return nil, err
	}
	return img, nil
}

// Encode writes the volume as a single-file little-endian NIfTI-1 image,
// gzip-compressed when compress is set.
func Encode(w io.Writer, img *Image, compress bool) error {
	var buf bytes.Buffer
	hdr := img.Header
	hdr.SizeofHdr = HeaderSize
	hdr.VoxOffset = DataOffset
	setString(hdr.Magic[:], "n+1")
	if _, err := bytesPerVoxel(hdr.Datatype); err != nil {
		return err
	}

	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	// empty extension block
	buf.Write([]byte{0, 0, 0, 0})

	slope, inter := float64(hdr.SclSlope), float64(hdr.SclInter)
	if slope == 0 {
		slope, inter = 1, 0
	}
	if err := encodeVoxels(&buf, img.Data, hdr.Datatype, slope, inter); err != nil {
		return err
	}

	if !compress {
		_, err := w.Write(buf.Bytes())
		return err
	}
	zw := gzip.NewWriter(w)
	if _, err := zw.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to compress volume: %w", err)
	}
	return zw.Close()
}

func encodeVoxels(w io.Writer, data []float64, datatype int16, slope, inter float64) error {
	le := binary.LittleEndian
	b := make([]byte, 8)
	for _, v := range data {
		raw := (v - inter) / slope
		var n int
		switch datatype {
		case DTUint8:
			b[0], n = uint8(math.Round(raw)), 1
		case DTInt8:
			b[0], n = byte(int8(math.Round(raw))), 1
		case DTInt16:
			le.PutUint16(b, uint16(int16(math.Round(raw))))
			n = 2
		case DTUint16:
			le.PutUint16(b, uint16(math.Round(raw)))
			n = 2
		case DTInt32:
			le.PutUint32(b, uint32(int32(math.Round(raw))))
			n = 4
		case DTUint32:
			le.PutUint32(b, uint32(math.Round(raw)))
			n = 4
		case DTFloat32:
			le.PutUint32(b, math.Float32bits(float32(raw)))
			n = 4
		case DTFloat64:
			le.PutUint64(b, math.Float64bits(raw))
			n = 8
		}
		if _, err := w.Write(b[:n]); err != nil {
			return fmt.Errorf("failed to write voxel data: %w", err)
		}
	}
	return nil
}

// Save writes the volume to path, compressing when the name ends in .gz.
func Save(img *Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create volume file: %w", err)
	}
	if err := Encode(f, img, strings.HasSuffix(path, ".gz")); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
