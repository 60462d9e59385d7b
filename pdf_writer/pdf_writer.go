// Package pdf_writer assembles a soft-proof contact sheet: one PDF page per
// converted image, at the image's physical size, showing the RGB rendering of
// the converted CMYK data.
package pdf_writer

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/phpdave11/gofpdf"
)

const mmPerInch = 25.4

type ProofPage struct {
	Name    string
	Preview image.Image
	Width   int // pixels
	Height  int // pixels
	DPI     float64
}

// pageSizeMM converts pixel dimensions at a given resolution into the page
// size in millimeters.
func pageSizeMM(widthPx, heightPx int, dpi float64) (float64, float64) {
	return float64(widthPx) / dpi * mmPerInch, float64(heightPx) / dpi * mmPerInch
}

// WriteProofSheet writes the pages to a single PDF at pdfPath. Pages without
// a preview are skipped; an error is returned only when nothing could be
// written or the output itself fails.
func WriteProofSheet(pdfPath string, pages []ProofPage) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "mm"})
	pdf.SetMargins(0, 0, 0)

	written := 0
	for i, page := range pages {
		if page.Preview == nil {
			continue
		}
		dpi := page.DPI
		if dpi <= 0 {
			dpi = 300
		}
		wMM, hMM := pageSizeMM(page.Width, page.Height, dpi)

		var buf bytes.Buffer
		if err := png.Encode(&buf, page.Preview); err != nil {
			return fmt.Errorf("encode preview for %s: %w", page.Name, err)
		}

		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: wMM, Ht: hMM})

		imageID := fmt.Sprintf("proof_%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(imageID, opts, &buf)
		pdf.ImageOptions(imageID, 0, 0, wMM, hMM, false, opts, 0, "")
		written++
	}

	if written == 0 {
		return fmt.Errorf("no previews to write into %s", pdfPath)
	}
	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return fmt.Errorf("save proof sheet %s: %w", pdfPath, err)
	}
	return nil
}
