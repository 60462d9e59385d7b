package converter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"img2cmyk/contracts"
	"img2cmyk/lcms"
	"img2cmyk/utils"
)

func TestWidenTo16(t *testing.T) {
	cases := []struct {
		in   uint8
		want uint16
	}{
		{0, 0},
		{1, 257},
		{128, 32896},
		{255, 65535},
	}
	for _, tc := range cases {
		got := widenTo16([]uint8{tc.in})
		if got[0] != tc.want {
			t.Errorf("widenTo16(%d): got %d, want %d", tc.in, got[0], tc.want)
		}
	}
}

func TestConvertBeforeInitialize(t *testing.T) {
	p := NewPipeline(contracts.PipelineOptions{})
	defer p.Cleanup()

	_, err := p.Convert("in.png", "out.tif")
	if err == nil {
		t.Fatal("Convert before Initialize must fail")
	}
	t.Logf("got expected error: %v", err)
}

func TestCleanupIdempotent(t *testing.T) {
	t.Run("zero value", func(t *testing.T) {
		var p Pipeline
		p.Cleanup()
		p.Cleanup()
	})

	t.Run("after failed initialize", func(t *testing.T) {
		p := NewPipeline(contracts.PipelineOptions{})
		if err := p.Initialize("/no/such/rgb.icc", "/no/such/cmyk.icc"); err == nil {
			t.Fatal("Initialize with missing profiles should fail")
		}
		if p.ctx != nil || p.srcProfile != nil || p.dstProfile != nil || p.transform != nil {
			t.Error("failed Initialize must leave all handles nil")
		}
		p.Cleanup()
		p.Cleanup()
	})
}

func TestInitializeRejectsUnknownIntent(t *testing.T) {
	p := NewPipeline(contracts.PipelineOptions{Intent: "vivid"})
	defer p.Cleanup()

	if err := p.Initialize("rgb.icc", "cmyk.icc"); err == nil {
		t.Fatal("unknown intent should be rejected before any file access")
	}
}

// writeSRGBProfile serializes the built-in sRGB profile to dir.
func writeSRGBProfile(t *testing.T, dir string) string {
	t.Helper()

	ctx, err := lcms.NewContext(nil)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	defer ctx.Close()

	p, err := ctx.NewSRGBProfile()
	if err != nil {
		t.Fatalf("NewSRGBProfile failed: %v", err)
	}
	defer p.Close()

	data, err := p.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	path := filepath.Join(dir, "srgb.icc")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestInitializeRejectsMismatchedProfilePair(t *testing.T) {
	dir := t.TempDir()
	srgb := writeSRGBProfile(t, dir)

	p := NewPipeline(contracts.PipelineOptions{})
	defer p.Cleanup()

	// An RGB profile offered as the CMYK destination must be refused.
	err := p.Initialize(srgb, srgb)
	if err == nil {
		t.Fatal("sRGB profile should not be accepted as destination")
	}
	t.Logf("got expected error: %v", err)
	if p.transform != nil {
		t.Error("no transform should survive a rejected Initialize")
	}
}

// cmykProfile returns the CMYK test profile, skipping when the fixture is not
// checked out (it is press-vendor data and not committed).
func cmykProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join("testdata", "cmyk.icc")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("CMYK test profile not available: %v", err)
	}
	return path
}

func writeWhitePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, "white.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	cmyk := cmykProfile(t)
	dir := t.TempDir()
	srgb := writeSRGBProfile(t, dir)
	input := writeWhitePNG(t, dir, 3, 2)
	output := filepath.Join(dir, "white.tif")

	p := NewPipeline(contracts.PipelineOptions{})
	defer p.Cleanup()

	if err := p.Initialize(srgb, cmyk); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	res, err := p.Convert(input, output)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if res.Width != 3 || res.Height != 2 {
		t.Errorf("result size: got %dx%d, want 3x2", res.Width, res.Height)
	}

	info, err := utils.ReadTIFFInfo(output)
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	if info.Width != 3 || info.Height != 2 {
		t.Errorf("output geometry: got %dx%d, want 3x2", info.Width, info.Height)
	}
	if info.SamplesPerPixel != 4 {
		t.Errorf("samples per pixel: got %d, want 4", info.SamplesPerPixel)
	}
	for _, bits := range info.BitsPerSample {
		if bits != 16 {
			t.Errorf("bits per sample: got %v, want all 16", info.BitsPerSample)
			break
		}
	}
	if info.Compression != 1 {
		t.Errorf("compression: got %d, want 1 (none)", info.Compression)
	}
	if info.Photometric != 5 {
		t.Errorf("photometric: got %d, want 5 (separated)", info.Photometric)
	}
	if info.XResolution != DefaultDPI {
		t.Errorf("resolution: got %f, want %f", info.XResolution, DefaultDPI)
	}

	t.Run("embedded profile round-trips", func(t *testing.T) {
		want, err := p.ProfileData()
		if err != nil {
			t.Fatalf("ProfileData failed: %v", err)
		}
		if !bytes.Equal(info.ICCProfile, want) {
			t.Errorf("embedded profile differs: %d bytes embedded, %d serialized",
				len(info.ICCProfile), len(want))
		}
	})

	t.Run("second initialize succeeds after cleanup", func(t *testing.T) {
		p.Cleanup()
		if err := p.Initialize(srgb, cmyk); err != nil {
			t.Fatalf("re-Initialize failed: %v", err)
		}
	})
}

func TestDecodeRGB(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.NRGBA{R: 0, G: 0, B: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, "two.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}

	got, err := DecodeRGB(path)
	if err != nil {
		t.Fatalf("DecodeRGB failed: %v", err)
	}
	if got.Width != 2 || got.Height != 1 {
		t.Fatalf("size: got %dx%d, want 2x1", got.Width, got.Height)
	}
	want := []uint8{255, 0, 0, 0, 0, 255}
	if !bytes.Equal(got.Pix, want) {
		t.Errorf("pixels: got %v, want %v", got.Pix, want)
	}
}

func TestDecodeRGBMissingFile(t *testing.T) {
	if _, err := DecodeRGB(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing input")
	}
}
