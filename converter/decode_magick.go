//go:build magick
// +build magick

package converter

import (
	"fmt"

	"gopkg.in/gographics/imagick.v2/imagick"
)

// The magick build trades the pure-Go decoder for ImageMagick, which covers
// formats outside the Go registry (PSD, HEIC, JPEG 2000, ...).

func InitDecoder()     { imagick.Initialize() }
func ShutdownDecoder() { imagick.Terminate() }

func DecodeRGB(path string) (*RGBImage, error) {
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}

	w := int(mw.GetImageWidth())
	h := int(mw.GetImageHeight())
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image %s has empty bounds", path)
	}

	raw, err := mw.ExportImagePixels(0, 0, uint(w), uint(h), "RGB", imagick.PIXEL_CHAR)
	if err != nil {
		return nil, fmt.Errorf("export pixels from %s: %w", path, err)
	}
	pix, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected pixel storage %T from %s", raw, path)
	}
	return &RGBImage{Width: w, Height: h, Pix: pix}, nil
}
