package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// GetImageDPI reads the horizontal resolution recorded in an image file's
// metadata: EXIF for TIFF/JPEG, the pHYs chunk for PNG. Returns an error when
// the file carries no resolution metadata.
func GetImageDPI(filePath string) (float64, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return 0, err
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return pngDPI(data)
	case ".tif", ".tiff", ".jpg", ".jpeg":
		return exifDPI(data)
	default:
		if dpi, err := exifDPI(data); err == nil {
			return dpi, nil
		}
		return 0, fmt.Errorf("no resolution metadata in %s", filePath)
	}
}

func exifDPI(data []byte) (float64, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 0, fmt.Errorf("EXIF not found: %v", err)
	}

	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return 0, err
	}

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return 0, err
	}

	tag, err := index.RootIfd.FindTagWithName("XResolution")
	if err != nil {
		return 0, fmt.Errorf("XResolution tag absent: %v", err)
	}
	val, err := tag[0].Value()
	if err != nil {
		return 0, err
	}
	rats, ok := val.([]exifcommon.Rational)
	if !ok || len(rats) == 0 || rats[0].Denominator == 0 {
		return 0, fmt.Errorf("XResolution tag malformed")
	}
	dpi := float64(rats[0].Numerator) / float64(rats[0].Denominator)

	// ResolutionUnit 3 means centimeters.
	if tag, err := index.RootIfd.FindTagWithName("ResolutionUnit"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			if units, ok := val.([]uint16); ok && len(units) > 0 && units[0] == 3 {
				dpi *= 2.54
			} else if u, ok := val.(uint16); ok && u == 3 {
				dpi *= 2.54
			}
		}
	}
	return dpi, nil
}

// pngDPI scans PNG chunks for pHYs and converts pixels-per-meter to DPI.
func pngDPI(data []byte) (float64, error) {
	const pngSignature = "\x89PNG\r\n\x1a\n"
	if !bytes.HasPrefix(data, []byte(pngSignature)) {
		return 0, fmt.Errorf("not a PNG file")
	}

	buf := bytes.NewReader(data[len(pngSignature):])
	for {
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			break
		}
		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(buf, chunkType); err != nil {
			break
		}

		if string(chunkType) == "pHYs" {
			var pxPerUnitX, pxPerUnitY uint32
			var unit byte
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitX); err != nil {
				return 0, err
			}
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitY); err != nil {
				return 0, err
			}
			if err := binary.Read(buf, binary.BigEndian, &unit); err != nil {
				return 0, err
			}
			if unit != 1 {
				return 0, fmt.Errorf("pHYs unit is not meters")
			}
			return float64(pxPerUnitX) * 0.0254, nil
		}

		// skip chunk data + CRC
		if _, err := buf.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			break
		}
	}
	return 0, fmt.Errorf("no pHYs chunk")
}
