//go:build cgo
// +build cgo

package tiff_writer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"img2cmyk/lcms"
	"img2cmyk/utils"
)

func TestWriteCMYK16Validation(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.tif")
	pix := make([]uint16, 2*2*4)
	icc := []byte("fake-profile")

	t.Run("bad dimensions", func(t *testing.T) {
		if err := WriteCMYK16(out, 0, 2, pix, icc, 300); err == nil {
			t.Error("zero width should be rejected")
		}
	})
	t.Run("short buffer", func(t *testing.T) {
		if err := WriteCMYK16(out, 3, 3, pix, icc, 300); err == nil {
			t.Error("mismatched buffer length should be rejected")
		}
	})
	t.Run("no profile", func(t *testing.T) {
		if err := WriteCMYK16(out, 2, 2, pix, nil, 300); err == nil {
			t.Error("missing ICC profile should be rejected")
		}
	})
	t.Run("bad dpi", func(t *testing.T) {
		if err := WriteCMYK16(out, 2, 2, pix, icc, 0); err == nil {
			t.Error("zero dpi should be rejected")
		}
	})
}

func TestWriteCMYK16RoundTrip(t *testing.T) {
	ctx, err := lcms.NewContext(nil)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	defer ctx.Close()

	// Any serialized profile works for the container round-trip; the
	// built-in sRGB one avoids binary testdata.
	p, err := ctx.NewSRGBProfile()
	if err != nil {
		t.Fatalf("NewSRGBProfile failed: %v", err)
	}
	defer p.Close()
	icc, err := p.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	const w, h = 3, 2
	pix := make([]uint16, w*h*4)
	for i := range pix {
		pix[i] = uint16(i * 1000)
	}

	out := filepath.Join(t.TempDir(), "roundtrip.tif")
	if err := WriteCMYK16(out, w, h, pix, icc, 300); err != nil {
		t.Fatalf("WriteCMYK16 failed: %v", err)
	}

	if _, err := os.Stat(out + ".tmp"); err == nil {
		t.Error("temporary file should not survive a successful write")
	}

	info, err := utils.ReadTIFFInfo(out)
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	if info.Width != w || info.Height != h {
		t.Errorf("geometry: got %dx%d, want %dx%d", info.Width, info.Height, w, h)
	}
	if info.SamplesPerPixel != 4 {
		t.Errorf("samples per pixel: got %d, want 4", info.SamplesPerPixel)
	}
	if info.Photometric != 5 {
		t.Errorf("photometric: got %d, want 5 (separated)", info.Photometric)
	}
	if info.Compression != 1 {
		t.Errorf("compression: got %d, want 1 (none)", info.Compression)
	}
	if info.XResolution != 300 {
		t.Errorf("resolution: got %f, want 300", info.XResolution)
	}
	if !bytes.Equal(info.ICCProfile, icc) {
		t.Errorf("embedded profile: %d bytes read back, %d written", len(info.ICCProfile), len(icc))
	}
}
