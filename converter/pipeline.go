// Package converter runs the color-managed conversion: two ICC profiles in,
// one rendering-intent transform between them, RGB pixels widened to 16 bit,
// transformed to CMYK, written as a tagged TIFF with the destination profile
// embedded.
package converter

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"img2cmyk/contracts"
	"img2cmyk/icc_info"
	"img2cmyk/lcms"
	"img2cmyk/tiff_writer"
	"img2cmyk/utils"
)

const DefaultDPI = 300.0

// Pipeline owns one CMM context, two profile handles and one transform.
// Lifecycle: Initialize → Convert (repeatedly) → Cleanup, with Cleanup legal
// from any state. A Pipeline is not safe for concurrent use; batch callers
// run one Pipeline per worker.
type Pipeline struct {
	opts contracts.PipelineOptions
	log  *logrus.Entry

	ctx        *lcms.Context
	srcProfile *lcms.Profile
	dstProfile *lcms.Profile
	transform  *lcms.Transform
}

func NewPipeline(opts contracts.PipelineOptions) *Pipeline {
	if opts.Intent == "" {
		opts.Intent = contracts.IntentPerceptual
	}
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	return &Pipeline{
		opts: opts,
		log:  logrus.WithField("component", "pipeline"),
	}
}

func intentCode(name string) (lcms.Intent, error) {
	switch name {
	case contracts.IntentPerceptual:
		return lcms.IntentPerceptual, nil
	case contracts.IntentRelativeColorimetric:
		return lcms.IntentRelativeColorimetric, nil
	case contracts.IntentSaturation:
		return lcms.IntentSaturation, nil
	case contracts.IntentAbsoluteColorimetric:
		return lcms.IntentAbsoluteColorimetric, nil
	}
	return 0, fmt.Errorf("unknown rendering intent %q", name)
}

func (p *Pipeline) flags() lcms.Flags {
	var f lcms.Flags
	if !p.opts.DisableBlackPointCompensation {
		f |= lcms.FlagBlackPointCompensation
	}
	if !p.opts.DisableHighResPrecalc {
		f |= lcms.FlagHighResPrecalc
	}
	return f
}

// Initialize loads both profiles and builds the RGB16 → CMYK16 transform.
// Any partial failure releases whatever was acquired and leaves every handle
// nil, so a later Initialize starts clean.
func (p *Pipeline) Initialize(rgbProfilePath, cmykProfilePath string) error {
	p.Cleanup()

	intent, err := intentCode(p.opts.Intent)
	if err != nil {
		return err
	}

	if _, err := icc_info.ExpectColorSpace(rgbProfilePath, "RGB"); err != nil {
		return fmt.Errorf("source profile: %w", err)
	}
	if _, err := icc_info.ExpectColorSpace(cmykProfilePath, "CMYK"); err != nil {
		return fmt.Errorf("destination profile: %w", err)
	}

	ctx, err := lcms.NewContext(func(code uint32, msg string) {
		p.log.WithField("code", code).Error(msg)
	})
	if err != nil {
		return err
	}
	p.ctx = ctx

	src, err := p.ctx.OpenProfileFile(rgbProfilePath)
	if err != nil {
		p.Cleanup()
		return fmt.Errorf("load RGB profile: %w", err)
	}
	p.srcProfile = src

	dst, err := p.ctx.OpenProfileFile(cmykProfilePath)
	if err != nil {
		p.Cleanup()
		return fmt.Errorf("load CMYK profile: %w", err)
	}
	p.dstProfile = dst

	tr, err := p.ctx.NewTransform(p.srcProfile, p.dstProfile,
		lcms.FormatRGB16, lcms.FormatCMYK16, intent, p.flags())
	if err != nil {
		p.Cleanup()
		return fmt.Errorf("create transform: %w", err)
	}
	p.transform = tr

	p.log.WithFields(logrus.Fields{
		"rgb_profile":  rgbProfilePath,
		"cmyk_profile": cmykProfilePath,
		"intent":       p.opts.Intent,
	}).Debug("pipeline initialized")
	return nil
}

// Convert decodes inputPath, transforms it and writes outputPath. Each stage
// failure comes back as a distinct wrapped error.
func (p *Pipeline) Convert(inputPath, outputPath string) (contracts.ConvertedImage, error) {
	if p.transform == nil {
		return contracts.ConvertedImage{}, fmt.Errorf("pipeline is not initialized")
	}

	img, err := DecodeRGB(inputPath)
	if err != nil {
		return contracts.ConvertedImage{}, err
	}
	pixels := img.Width * img.Height

	rgb16 := widenTo16(img.Pix)
	cmyk := make([]uint16, pixels*4)
	if err := p.transform.Apply16(rgb16, cmyk, pixels); err != nil {
		return contracts.ConvertedImage{}, fmt.Errorf("apply transform to %s: %w", inputPath, err)
	}

	icc, err := p.dstProfile.Save()
	if err != nil {
		return contracts.ConvertedImage{}, fmt.Errorf("serialize destination profile: %w", err)
	}

	dpi := p.opts.DPI
	if p.opts.KeepDPI {
		if d, err := utils.GetImageDPI(inputPath); err == nil && d > 0 {
			dpi = d
		}
	}

	if err := tiff_writer.WriteCMYK16(outputPath, img.Width, img.Height, cmyk, icc, dpi); err != nil {
		return contracts.ConvertedImage{}, fmt.Errorf("encode %s: %w", outputPath, err)
	}

	result := contracts.ConvertedImage{
		InputPath:    inputPath,
		OutputPath:   outputPath,
		Width:        img.Width,
		Height:       img.Height,
		DPI:          dpi,
		ProfileBytes: len(icc),
	}
	if p.opts.KeepPreview {
		preview, err := p.previewRGB(cmyk, img.Width, img.Height)
		if err != nil {
			p.log.WithError(err).Warn("soft-proof preview failed")
		} else {
			result.Preview = preview
		}
	}

	p.log.WithFields(logrus.Fields{
		"input":  inputPath,
		"output": outputPath,
		"size":   fmt.Sprintf("%dx%d", img.Width, img.Height),
		"dpi":    dpi,
	}).Debug("converted")
	return result, nil
}

// previewRGB renders the CMYK buffer back into the source RGB space through a
// scoped reverse transform, for the proof sheet.
func (p *Pipeline) previewRGB(cmyk []uint16, w, h int) (image.Image, error) {
	intent, err := intentCode(p.opts.Intent)
	if err != nil {
		return nil, err
	}
	tr, err := p.ctx.NewTransform(p.dstProfile, p.srcProfile,
		lcms.FormatCMYK16, lcms.FormatRGB8, intent, p.flags())
	if err != nil {
		return nil, err
	}
	defer tr.Close()

	rgb := make([]uint8, w*h*3)
	if err := tr.Apply16To8(cmyk, rgb, w*h); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = rgb[i*3+0]
		img.Pix[i*4+1] = rgb[i*3+1]
		img.Pix[i*4+2] = rgb[i*3+2]
		img.Pix[i*4+3] = 0xFF
	}
	return img, nil
}

// ProfileData returns the serialized destination profile, for verification
// against the bytes embedded in an output file.
func (p *Pipeline) ProfileData() ([]byte, error) {
	if p.dstProfile == nil {
		return nil, fmt.Errorf("pipeline is not initialized")
	}
	return p.dstProfile.Save()
}

// Cleanup releases everything in reverse-acquisition order: the transform
// references both profiles, so it goes first. Idempotent and safe on a
// partially initialized pipeline.
func (p *Pipeline) Cleanup() {
	p.transform.Close()
	p.transform = nil
	p.dstProfile.Close()
	p.dstProfile = nil
	p.srcProfile.Close()
	p.srcProfile = nil
	p.ctx.Close()
	p.ctx = nil
}
