//go:build !magick
// +build !magick

package converter

import (
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// InitDecoder and ShutdownDecoder are no-ops here; the magick build replaces
// them with ImageMagick genesis/terminus.
func InitDecoder()     {}
func ShutdownDecoder() {}

// DecodeRGB decodes any image format registered above and flattens it to a
// dense 8-bit RGB buffer, dropping alpha.
func DecodeRGB(path string) (*RGBImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image %s has empty bounds", path)
	}

	out := &RGBImage{Width: w, Height: h, Pix: make([]uint8, w*h*3)}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out.Pix[i+0] = uint8(r >> 8)
			out.Pix[i+1] = uint8(g >> 8)
			out.Pix[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return out, nil
}
