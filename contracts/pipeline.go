package contracts

import "image"

// Rendering intents accepted on the command line. The pipeline maps
// these onto the matching LittleCMS intent codes.
const (
	IntentPerceptual           = "perceptual"
	IntentRelativeColorimetric = "relative"
	IntentSaturation           = "saturation"
	IntentAbsoluteColorimetric = "absolute"
)

type PipelineOptions struct {
	Intent string
	// DPI written into the output resolution tags.
	DPI float64
	// KeepDPI reuses the input file's resolution metadata when present,
	// falling back to DPI.
	KeepDPI bool
	// KeepPreview retains an RGB soft-proof rendering of the converted
	// pixels on the ConvertedImage, for the proof-sheet writer.
	KeepPreview bool
	// DisableBlackPointCompensation drops cmsFLAGS_BLACKPOINTCOMPENSATION
	// from the transform.
	DisableBlackPointCompensation bool
	// DisableHighResPrecalc drops cmsFLAGS_HIGHRESPRECALC from the
	// transform.
	DisableHighResPrecalc bool
}

type ConvertedImage struct {
	InputPath  string
	OutputPath string
	Width      int
	Height     int
	DPI        float64
	// ProfileBytes is the size of the ICC profile embedded in the output.
	ProfileBytes int
	// Preview is only set when PipelineOptions.KeepPreview is true.
	Preview image.Image
}
