//go:build cgo
// +build cgo

// Package tiff_writer writes 16-bit CMYK TIFFs through libtiff with the
// destination ICC profile embedded.
package tiff_writer

/*
#cgo LDFLAGS: -ltiff

#include <stdlib.h>
#include <stdint.h>
#include <tiffio.h>

// write_cmyk16 writes a dense row-major 16-bit CMYK buffer as an
// uncompressed, contiguous, top-left oriented TIFF. The ICC profile bytes go
// into the ICCProfile tag (34675).
static int write_cmyk16(const char* path,
                        uint32_t width, uint32_t height,
                        const uint16_t* pix,
                        const unsigned char* icc, uint32_t icc_len,
                        float dpi)
{
    TIFF* out = TIFFOpen(path, "w");
    if (!out) return -1;

    TIFFSetField(out, TIFFTAG_IMAGEWIDTH, width);
    TIFFSetField(out, TIFFTAG_IMAGELENGTH, height);
    TIFFSetField(out, TIFFTAG_SAMPLESPERPIXEL, 4);
    TIFFSetField(out, TIFFTAG_BITSPERSAMPLE, 16);
    TIFFSetField(out, TIFFTAG_ORIENTATION, ORIENTATION_TOPLEFT);
    TIFFSetField(out, TIFFTAG_PLANARCONFIG, PLANARCONFIG_CONTIG);
    TIFFSetField(out, TIFFTAG_PHOTOMETRIC, PHOTOMETRIC_SEPARATED);
    TIFFSetField(out, TIFFTAG_INKSET, INKSET_CMYK);
    TIFFSetField(out, TIFFTAG_COMPRESSION, COMPRESSION_NONE);
    TIFFSetField(out, TIFFTAG_XRESOLUTION, dpi);
    TIFFSetField(out, TIFFTAG_YRESOLUTION, dpi);
    TIFFSetField(out, TIFFTAG_RESOLUTIONUNIT, RESUNIT_INCH);
    TIFFSetField(out, TIFFTAG_ROWSPERSTRIP, height);
    if (icc_len > 0) {
        TIFFSetField(out, TIFFTAG_ICCPROFILE, icc_len, icc);
    }

    for (uint32_t row = 0; row < height; row++) {
        if (TIFFWriteScanline(out, (void*)(pix + (size_t)row * width * 4), row, 0) < 0) {
            TIFFClose(out);
            return -2;
        }
    }

    TIFFClose(out);
    return 0;
}
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

// WriteCMYK16 writes pix (len = width*height*4, interleaved C,M,Y,K 16-bit
// samples) to path. The file is written to a .tmp sibling first and renamed
// into place once libtiff has closed it cleanly.
func WriteCMYK16(path string, width, height int, pix []uint16, icc []byte, dpi float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("tiff_writer: invalid dimensions %dx%d", width, height)
	}
	if want := width * height * 4; len(pix) != want {
		return fmt.Errorf("tiff_writer: pixel buffer holds %d samples, need %d", len(pix), want)
	}
	if len(icc) == 0 {
		return fmt.Errorf("tiff_writer: refusing to write without an ICC profile")
	}
	if dpi <= 0 {
		return fmt.Errorf("tiff_writer: invalid resolution %f", dpi)
	}

	tmpPath := path + ".tmp"
	cPath := C.CString(tmpPath)
	defer C.free(unsafe.Pointer(cPath))

	rc := C.write_cmyk16(cPath,
		C.uint32_t(width), C.uint32_t(height),
		(*C.uint16_t)(unsafe.Pointer(&pix[0])),
		(*C.uchar)(unsafe.Pointer(&icc[0])), C.uint32_t(len(icc)),
		C.float(dpi))
	switch rc {
	case 0:
	case -1:
		return fmt.Errorf("tiff_writer: cannot create %s", tmpPath)
	case -2:
		os.Remove(tmpPath)
		return fmt.Errorf("tiff_writer: scanline write failed for %s", tmpPath)
	default:
		os.Remove(tmpPath)
		return fmt.Errorf("tiff_writer: write failed with code %d", int(rc))
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return fmt.Errorf("tiff_writer: stat %s: %w", tmpPath, err)
	}
	if info.Size() == 0 {
		os.Remove(tmpPath)
		return fmt.Errorf("tiff_writer: wrote empty file %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("tiff_writer: rename into place: %w", err)
	}
	return nil
}
