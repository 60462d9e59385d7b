package utils

import (
	"encoding/binary"
	"fmt"
	"os"

	gotiff "github.com/google/tiff"
)

// TIFF tag IDs the verifier cares about.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagSamplesPerPixel = 277
	tagXResolution     = 282
	tagResolutionUnit  = 296
	tagICCProfile      = 34675
)

// TIFFInfo is the readback of a written output file, used to verify that an
// output reopens with the geometry, depth and embedded profile the pipeline
// produced.
type TIFFInfo struct {
	Width           int
	Height          int
	BitsPerSample   []int
	SamplesPerPixel int
	Photometric     int
	Compression     int
	XResolution     float64
	ResolutionUnit  int
	ICCProfile      []byte
}

// ReadTIFFInfo parses the first IFD of the file at path.
func ReadTIFFInfo(path string) (*TIFFInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tiff %s: %w", path, err)
	}
	defer f.Close()

	t, err := gotiff.Parse(f, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("parse tiff %s: %w", path, err)
	}
	ifds := t.IFDs()
	if len(ifds) == 0 {
		return nil, fmt.Errorf("tiff %s has no IFD", path)
	}

	info := &TIFFInfo{}
	for _, field := range ifds[0].Fields() {
		switch field.Tag().ID() {
		case tagImageWidth:
			info.Width = int(firstUint(field))
		case tagImageLength:
			info.Height = int(firstUint(field))
		case tagBitsPerSample:
			info.BitsPerSample = allUints(field)
		case tagCompression:
			info.Compression = int(firstUint(field))
		case tagPhotometric:
			info.Photometric = int(firstUint(field))
		case tagSamplesPerPixel:
			info.SamplesPerPixel = int(firstUint(field))
		case tagXResolution:
			info.XResolution = firstRational(field)
		case tagResolutionUnit:
			info.ResolutionUnit = int(firstUint(field))
		case tagICCProfile:
			raw := field.Value().Bytes()
			info.ICCProfile = make([]byte, len(raw))
			copy(info.ICCProfile, raw)
		}
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("tiff %s: missing geometry tags", path)
	}
	return info, nil
}

func firstUint(f gotiff.Field) uint64 {
	vals := allUints(f)
	if len(vals) == 0 {
		return 0
	}
	return uint64(vals[0])
}

// allUints decodes a SHORT or LONG field's values in the file's byte order.
func allUints(f gotiff.Field) []int {
	raw := f.Value().Bytes()
	order := f.Value().Order()
	count := int(f.Count())
	var out []int
	switch f.Type().Size() {
	case 2:
		for i := 0; i+2 <= len(raw) && len(out) < count; i += 2 {
			out = append(out, int(order.Uint16(raw[i:i+2])))
		}
	case 4:
		for i := 0; i+4 <= len(raw) && len(out) < count; i += 4 {
			out = append(out, int(order.Uint32(raw[i:i+4])))
		}
	}
	return out
}

func firstRational(f gotiff.Field) float64 {
	raw := f.Value().Bytes()
	if len(raw) < 8 {
		return 0
	}
	var order binary.ByteOrder = f.Value().Order()
	num := order.Uint32(raw[0:4])
	den := order.Uint32(raw[4:8])
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
