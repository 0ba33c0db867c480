package nifti

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"reorient/pkg/affine"
)

// newUint8Volume builds a small uint8 volume whose voxels hold (x+y+z) mod 256
func newUint8Volume(dim [3]int, pix float32) *Image {
	hdr := Header{
		SizeofHdr: HeaderSize,
		Datatype:  DTUint8,
		Bitpix:    8,
		VoxOffset: DataOffset,
		SformCode: 1,
	}
	hdr.Dim[0] = 3
	for i := 0; i < 3; i++ {
		hdr.Dim[i+1] = int16(dim[i])
		hdr.Pixdim[i+1] = pix
	}
	copy(hdr.Magic[:], "n+1")
	hdr.SrowX = [4]float32{pix, 0, 0, -10}
	hdr.SrowY = [4]float32{0, pix, 0, -20}
	hdr.SrowZ = [4]float32{0, 0, pix, -5}

	data := make([]float64, dim[0]*dim[1]*dim[2])
	for z := 0; z < dim[2]; z++ {
		for y := 0; y < dim[1]; y++ {
			for x := 0; x < dim[0]; x++ {
				data[z*dim[0]*dim[1]+y*dim[0]+x] = float64((x + y + z) % 256)
			}
		}
	}
	return &Image{Header: hdr, Data: data}
}

// TestLoadReportsHeader verifies that a saved test volume reloads with its declared dimensions and datatype
func TestLoadReportsHeader(t *testing.T) {
	dim := [3]int{9, 12, 7}
	path := filepath.Join(t.TempDir(), "bear_uchar.nii.gz")
	if err := Save(newUint8Volume(dim, 2), path); err != nil {
		t.Fatalf("Failed to save volume: %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load volume: %v", err)
	}

	if img.Dim() != dim {
		t.Errorf("Expected dimensions %v, got %v", dim, img.Dim())
	}
	if img.Datatype() != DTUint8 {
		t.Errorf("Expected datatype %d, got %d", DTUint8, img.Datatype())
	}
	if img.FileName != "bear_uchar.nii.gz" {
		t.Errorf("Expected file name bear_uchar.nii.gz, got %s", img.FileName)
	}
	if img.Pixdim() != [3]float64{2, 2, 2} {
		t.Errorf("Expected pixdim 2, got %v", img.Pixdim())
	}
	if v := img.Voxel(3, 4, 5); v != 12 {
		t.Errorf("Expected voxel (3,4,5) = 12, got %f", v)
	}

	v2m := img.Vox2Mm()
	if v2m[0][0] != 2 || v2m[1][3] != -20 {
		t.Errorf("Unexpected voxel-to-world matrix %v", v2m)
	}
	if p := affine.Mul(img.Mm2Vox(), img.Vox2Mm()); !p.Equal(affine.Identity(), 1e-9) {
		t.Errorf("Mm2Vox and Vox2Mm are not inverse: %v", p)
	}
}

func TestDecodeUncompressed(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, newUint8Volume([3]int{4, 3, 2}, 1), false); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if buf.Len() != DataOffset+4*3*2 {
		t.Errorf("Expected %d bytes, got %d", DataOffset+24, buf.Len())
	}

	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Voxel(3, 2, 1) != 6 {
		t.Errorf("Expected voxel (3,2,1) = 6, got %f", img.Voxel(3, 2, 1))
	}
	if img.Voxel(4, 0, 0) != 0 {
		t.Error("Expected 0 outside the volume")
	}
}

func TestDecodeBigEndianInt16(t *testing.T) {
	hdr := Header{SizeofHdr: HeaderSize, Datatype: DTInt16, Bitpix: 16, VoxOffset: DataOffset, SclSlope: 2, SclInter: 1}
	hdr.Dim = [8]int16{3, 2, 1, 1, 1, 1, 1, 1}
	hdr.Pixdim = [8]float32{1, 1.5, 1.5, 1.5}
	copy(hdr.Magic[:], "n+1")

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, &hdr)
	buf.Write([]byte{0, 0, 0, 0})
	binary.Write(&buf, binary.BigEndian, []int16{-3, 7})

	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Data[0] != -5 || img.Data[1] != 15 {
		t.Errorf("Expected scaled values [-5 15], got %v", img.Data)
	}
	// no sform or qform: spacing on the diagonal
	if img.Vox2Mm()[0][0] != 1.5 {
		t.Errorf("Expected pixdim diagonal, got %v", img.Vox2Mm())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader(make([]byte, 400))); err == nil {
		t.Error("Expected error for zeroed header, got nil")
	}

	hdr := newUint8Volume([3]int{2, 2, 2}, 1).Header
	hdr.Datatype = 1234
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &hdr)
	buf.Write(make([]byte, 16))
	if _, err := Decode(&buf); err == nil {
		t.Error("Expected error for unsupported datatype, got nil")
	}
}

func TestQform(t *testing.T) {
	img := newUint8Volume([3]int{2, 2, 2}, 1)
	h := img.Header
	h.SformCode = 0
	h.QformCode = 1
	// 90 degrees about z: b=c=0, d=sin(45)
	h.QuaternD = float32(math.Sin(math.Pi / 4))
	h.QoffsetX = 3
	m := h.VoxelToWorld()
	expected := affine.Mat4{{0, -1, 0, 3}, {1, 0, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	if !m.Equal(expected, 1e-6) {
		t.Errorf("Expected %v, got %v", expected, m)
	}
}

func TestCreateAndSampleWorld(t *testing.T) {
	dim := [3]int{3, 2, 2}
	data := make([]float32, 12)
	for i := range data {
		data[i] = float32(i)
	}
	v2m := affine.Mat4{{2, 0, 0, -2}, {0, 2, 0, 0}, {0, 0, 2, 0}, {0, 0, 0, 1}}
	img, err := Create(dim, [3]float64{2, 2, 2}, v2m, data)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// world (2,2,2) -> voxel (2,1,1) -> index 2 + 3 + 6
	if v := img.SampleWorld([3]float64{2, 2, 2}); v != 11 {
		t.Errorf("Expected 11, got %f", v)
	}
	if v := img.SampleWorld([3]float64{100, 0, 0}); v != 0 {
		t.Errorf("Expected 0 outside the volume, got %f", v)
	}
	if img.AbsoluteExtent() != 6 {
		t.Errorf("Expected extent 6, got %f", img.AbsoluteExtent())
	}
	lo, hi := img.Range()
	if lo != 0 || hi != 11 {
		t.Errorf("Expected range [0, 11], got [%f, %f]", lo, hi)
	}
	mean, std := img.Stats()
	if mean != 5.5 || math.Abs(std-math.Sqrt(13)) > 1e-9 {
		t.Errorf("Expected mean 5.5 and std %f, got %f and %f", math.Sqrt(13), mean, std)
	}

	if _, err := Create(dim, [3]float64{1, 1, 1}, v2m, data[:5]); err == nil {
		t.Error("Expected error for short buffer, got nil")
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, true); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if back.Datatype() != DTFloat32 || back.Dim() != dim {
		t.Errorf("Unexpected datatype %d / dims %v", back.Datatype(), back.Dim())
	}
	if !back.Vox2Mm().Equal(v2m, 1e-6) {
		t.Errorf("Expected v2m %v, got %v", v2m, back.Vox2Mm())
	}
}
