package nifti

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"reorient/pkg/affine"
)

// HeaderSize is the size of a NIfTI-1 header in bytes.
const HeaderSize = 348

// DataOffset is where voxel data starts in a single-file (.nii) image.
const DataOffset = 352

// Datatype codes
const (
	DTUint8   = 2
	DTInt16   = 4
	DTInt32   = 8
	DTFloat32 = 16
	DTFloat64 = 64
	DTInt8    = 256
	DTUint16  = 512
	DTUint32  = 768
)

// Header mirrors the on-disk NIfTI-1 header field by field.
type Header struct {
	SizeofHdr     int32
	DataType      [10]byte
	DbName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

func bytesPerVoxel(datatype int16) (int, error) {
	switch datatype {
	case DTUint8, DTInt8:
		return 1, nil
	case DTInt16, DTUint16:
		return 2, nil
	case DTInt32, DTUint32, DTFloat32:
		return 4, nil
	case DTFloat64:
		return 8, nil
	}
	return 0, fmt.Errorf("unsupported datatype %d", datatype)
}

// readHeader decodes a header, detecting byte order from sizeof_hdr.
func readHeader(r io.Reader) (*Header, binary.ByteOrder, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(raw[:4]) == HeaderSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(raw[:4]) == HeaderSize:
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("not a NIfTI-1 file: sizeof_hdr is %d", binary.LittleEndian.Uint32(raw[:4]))
	}

	hdr := &Header{}
	if err := binary.Read(bytes.NewReader(raw), order, hdr); err != nil {
		return nil, nil, fmt.Errorf("failed to decode header: %w", err)
	}
	if string(hdr.Magic[:3]) != "n+1" && string(hdr.Magic[:3]) != "ni1" {
		return nil, nil, fmt.Errorf("bad magic %q", hdr.Magic[:3])
	}
	return hdr, order, nil
}

// Sform returns the voxel-to-world matrix stored in the srow fields.
func (h *Header) Sform() affine.Mat4 {
	var m affine.Mat4
	for j := 0; j < 4; j++ {
		m[0][j] = float64(h.SrowX[j])
		m[1][j] = float64(h.SrowY[j])
		m[2][j] = float64(h.SrowZ[j])
	}
	m[3][3] = 1
	return m
}

// SetSform writes the first three rows of v2m into the srow fields.
func (h *Header) SetSform(v2m affine.Mat4) {
	for j := 0; j < 4; j++ {
		h.SrowX[j] = float32(v2m[0][j])
		h.SrowY[j] = float32(v2m[1][j])
		h.SrowZ[j] = float32(v2m[2][j])
	}
	if h.SformCode == 0 {
		h.SformCode = 2
	}
}

// Qform returns the voxel-to-world matrix described by the quaternion fields.
func (h *Header) Qform() affine.Mat4 {
	b, c, d := float64(h.QuaternB), float64(h.QuaternC), float64(h.QuaternD)
	a := 1 - (b*b + c*c + d*d)
	if a < 1e-7 {
		n := math.Sqrt(b*b + c*c + d*d)
		b, c, d = b/n, c/n, d/n
		a = 0
	} else {
		a = math.Sqrt(a)
	}

	qfac := 1.0
	if h.Pixdim[0] < 0 {
		qfac = -1
	}
	dx, dy, dz := float64(h.Pixdim[1]), float64(h.Pixdim[2]), float64(h.Pixdim[3])*qfac

	return affine.Mat4{
		{(a*a + b*b - c*c - d*d) * dx, 2 * (b*c - a*d) * dy, 2 * (b*d + a*c) * dz, float64(h.QoffsetX)},
		{2 * (b*c + a*d) * dx, (a*a + c*c - b*b - d*d) * dy, 2 * (c*d - a*b) * dz, float64(h.QoffsetY)},
		{2 * (b*d - a*c) * dx, 2 * (c*d + a*b) * dy, (a*a + d*d - c*c - b*b) * dz, float64(h.QoffsetZ)},
		{0, 0, 0, 1},
	}
}

// VoxelToWorld picks sform, then qform, then a plain pixdim scaling.
func (h *Header) VoxelToWorld() affine.Mat4 {
	switch {
	case h.SformCode > 0:
		return h.Sform()
	case h.QformCode > 0:
		return h.Qform()
	}
	m := affine.Identity()
	for i := 0; i < 3; i++ {
		m[i][i] = float64(h.Pixdim[i+1])
	}
	return m
}

func setString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}
