package pdf_writer

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestPageSizeMM(t *testing.T) {
	cases := []struct {
		name       string
		wPx, hPx   int
		dpi        float64
		wMM, hMM   float64
	}{
		{"letter at 300", 2550, 3300, 300, 215.9, 279.4},
		{"one inch at 300", 300, 300, 300, 25.4, 25.4},
		{"one inch at 72", 72, 72, 72, 25.4, 25.4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := pageSizeMM(tc.wPx, tc.hPx, tc.dpi)
			if diff := w - tc.wMM; diff < -0.01 || diff > 0.01 {
				t.Errorf("width: got %f, want %f", w, tc.wMM)
			}
			if diff := h - tc.hMM; diff < -0.01 || diff > 0.01 {
				t.Errorf("height: got %f, want %f", h, tc.hMM)
			}
		})
	}
}

func solidPreview(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestWriteProofSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof.pdf")
	pages := []ProofPage{
		{Name: "a", Preview: solidPreview(30, 20, color.RGBA{R: 200, A: 255}), Width: 30, Height: 20, DPI: 300},
		{Name: "b", Preview: nil, Width: 10, Height: 10, DPI: 300}, // skipped
		{Name: "c", Preview: solidPreview(10, 10, color.White), Width: 10, Height: 10, DPI: 72},
	}

	if err := WriteProofSheet(path, pages); err != nil {
		t.Fatalf("WriteProofSheet failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat proof sheet: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("proof sheet is empty")
	}
	t.Logf("proof sheet: %d bytes", info.Size())
}

func TestWriteProofSheetNoPreviews(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof.pdf")
	err := WriteProofSheet(path, []ProofPage{{Name: "x", Width: 5, Height: 5}})
	if err == nil {
		t.Fatal("expected error when no page has a preview")
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("no file should be written when every page is skipped")
	}
}
