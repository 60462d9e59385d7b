package converter

// RGBImage is a dense row-major 8-bit RGB pixel buffer, the common decode
// result handed to the transform stage.
type RGBImage struct {
	Width  int
	Height int
	Pix    []uint8 // len = Width * Height * 3
}

// widenTo16 scales 8-bit samples to the full 16-bit range. 257 is the exact
// factor mapping [0,255] onto [0,65535].
func widenTo16(src []uint8) []uint16 {
	dst := make([]uint16, len(src))
	for i, v := range src {
		dst[i] = uint16(v) * 257
	}
	return dst
}
