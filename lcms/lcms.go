//go:build cgo
// +build cgo

// Package lcms is a thin cgo binding over LittleCMS (liblcms2) covering the
// pieces the conversion pipeline needs: contexts with scoped error handlers,
// profile handles, and pixel transforms. Every handle type has an idempotent
// Close; ordering (transform before its profiles) is the caller's job.
package lcms

/*
#cgo LDFLAGS: -llcms2

#include <stdlib.h>
#include <stdint.h>
#include <lcms2.h>

// Pixel format encodings straight out of lcms2.h. Kept as C constants so the
// Go side never re-derives the bit layout.
const cmsUInt32Number kFormatRGB8   = TYPE_RGB_8;
const cmsUInt32Number kFormatRGB16  = TYPE_RGB_16;
const cmsUInt32Number kFormatCMYK16 = TYPE_CMYK_16;
const cmsUInt32Number kFormatLab16  = TYPE_Lab_16;

extern void goLcmsErrorHandler(cmsContext ContextID, cmsUInt32Number ErrorCode, const char *Text);

// new_context creates a context carrying an opaque token as user data and
// routes its error log into the Go handler. The token keys the Go-side
// registry, so errors land on the owning Context and nowhere else.
static cmsContext new_context(uintptr_t token) {
	cmsContext ctx = cmsCreateContext(NULL, (void*)token);
	if (ctx != NULL) {
		cmsSetLogErrorHandlerTHR(ctx, goLcmsErrorHandler);
	}
	return ctx;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

type PixelFormat uint32

var (
	FormatRGB8   = PixelFormat(C.kFormatRGB8)
	FormatRGB16  = PixelFormat(C.kFormatRGB16)
	FormatCMYK16 = PixelFormat(C.kFormatCMYK16)
	FormatLab16  = PixelFormat(C.kFormatLab16)
)

// Channels extracts the channel count from the format encoding
// (CHANNELS_SH in lcms2.h).
func (f PixelFormat) Channels() int {
	return int((f >> 3) & 15)
}

// BytesPerSample extracts the sample width in bytes (BYTES_SH).
func (f PixelFormat) BytesPerSample() int {
	return int(f & 7)
}

type Intent uint32

const (
	IntentPerceptual           Intent = C.INTENT_PERCEPTUAL
	IntentRelativeColorimetric Intent = C.INTENT_RELATIVE_COLORIMETRIC
	IntentSaturation           Intent = C.INTENT_SATURATION
	IntentAbsoluteColorimetric Intent = C.INTENT_ABSOLUTE_COLORIMETRIC
)

type Flags uint32

const (
	FlagBlackPointCompensation Flags = C.cmsFLAGS_BLACKPOINTCOMPENSATION
	FlagHighResPrecalc         Flags = C.cmsFLAGS_HIGHRESPRECALC
	FlagNoOptimize             Flags = C.cmsFLAGS_NOOPTIMIZE
)

// ErrorFunc receives the error code and text LittleCMS reports through the
// context's log handler.
type ErrorFunc func(code uint32, msg string)

var (
	registryMu sync.Mutex
	registry   = map[uintptr]*Context{}
	nextToken  uintptr
)

// Context wraps a cmsContext. All profile and transform constructors hang off
// a Context so errors from the library are observable per instance instead of
// through a process-wide handler.
type Context struct {
	ctx     unsafe.Pointer // cmsContext
	token   uintptr
	onError ErrorFunc

	mu      sync.Mutex
	lastErr error
}

func NewContext(onError ErrorFunc) (*Context, error) {
	registryMu.Lock()
	nextToken++
	token := nextToken
	registryMu.Unlock()

	c := &Context{token: token, onError: onError}

	registryMu.Lock()
	registry[token] = c
	registryMu.Unlock()

	ctx := C.new_context(C.uintptr_t(token))
	if ctx == nil {
		registryMu.Lock()
		delete(registry, token)
		registryMu.Unlock()
		return nil, errors.New("lcms: cmsCreateContext failed")
	}
	c.ctx = unsafe.Pointer(ctx)
	return c, nil
}

// Close releases the context. Idempotent.
func (c *Context) Close() {
	if c == nil || c.ctx == nil {
		return
	}
	C.cmsDeleteContext(C.cmsContext(c.ctx))
	c.ctx = nil
	registryMu.Lock()
	delete(registry, c.token)
	registryMu.Unlock()
}

func (c *Context) note(code uint32, msg string) {
	c.mu.Lock()
	c.lastErr = fmt.Errorf("lcms: error %d: %s", code, msg)
	c.mu.Unlock()
	if c.onError != nil {
		c.onError(code, msg)
	}
}

// TakeError returns and clears the last error the library reported on this
// context. cmsDoTransform has no return code, so transform failures are only
// visible here.
func (c *Context) TakeError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.lastErr
	c.lastErr = nil
	return err
}

func (c *Context) clearError() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

// takeErrorOr returns the handler-reported error if there is one, otherwise
// an error built from fallback.
func (c *Context) takeErrorOr(fallback string) error {
	if err := c.TakeError(); err != nil {
		return err
	}
	return errors.New(fallback)
}

type ColorSpace uint32

const (
	SpaceRGB  ColorSpace = C.cmsSigRgbData
	SpaceCMYK ColorSpace = C.cmsSigCmykData
	SpaceGray ColorSpace = C.cmsSigGrayData
	SpaceLab  ColorSpace = C.cmsSigLabData
)

func (s ColorSpace) String() string {
	switch s {
	case SpaceRGB:
		return "RGB"
	case SpaceCMYK:
		return "CMYK"
	case SpaceGray:
		return "Gray"
	case SpaceLab:
		return "Lab"
	}
	return fmt.Sprintf("0x%08x", uint32(s))
}

// Profile wraps a cmsHPROFILE.
type Profile struct {
	h unsafe.Pointer // cmsHPROFILE
}

// OpenProfileFile loads an ICC profile from disk.
func (c *Context) OpenProfileFile(path string) (*Profile, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	cMode := C.CString("r")
	defer C.free(unsafe.Pointer(cMode))

	c.clearError()
	h := C.cmsOpenProfileFromFileTHR(C.cmsContext(c.ctx), cPath, cMode)
	if h == nil {
		return nil, fmt.Errorf("lcms: open profile %s: %w", path, c.takeErrorOr("profile rejected"))
	}
	return &Profile{h: unsafe.Pointer(h)}, nil
}

// OpenProfileMem loads an ICC profile from a byte buffer.
func (c *Context) OpenProfileMem(data []byte) (*Profile, error) {
	if len(data) == 0 {
		return nil, errors.New("lcms: empty profile data")
	}
	c.clearError()
	h := C.cmsOpenProfileFromMemTHR(C.cmsContext(c.ctx), unsafe.Pointer(&data[0]), C.cmsUInt32Number(len(data)))
	if h == nil {
		return nil, fmt.Errorf("lcms: open profile from memory: %w", c.takeErrorOr("profile rejected"))
	}
	return &Profile{h: unsafe.Pointer(h)}, nil
}

// Close releases the profile handle. Idempotent and nil-safe. Must not be
// called while a Transform built on this profile is still open.
func (p *Profile) Close() {
	if p == nil || p.h == nil {
		return
	}
	C.cmsCloseProfile(C.cmsHPROFILE(p.h))
	p.h = nil
}

func (p *Profile) ColorSpace() ColorSpace {
	if p == nil || p.h == nil {
		return 0
	}
	return ColorSpace(C.cmsGetColorSpace(C.cmsHPROFILE(p.h)))
}

// Description returns the profile's description tag text, or "" if absent.
func (p *Profile) Description() string {
	if p == nil || p.h == nil {
		return ""
	}
	cLang := C.CString("en")
	defer C.free(unsafe.Pointer(cLang))
	cCountry := C.CString("US")
	defer C.free(unsafe.Pointer(cCountry))

	var buf [256]C.char
	n := C.cmsGetProfileInfoASCII(C.cmsHPROFILE(p.h), C.cmsInfoDescription,
		cLang, cCountry, &buf[0], C.cmsUInt32Number(len(buf)))
	if n == 0 {
		return ""
	}
	return C.GoString(&buf[0])
}

// Save serializes the profile to ICC bytes. Two passes over
// cmsSaveProfileToMem: the first obtains the required size, the second fills
// the buffer. The passes fail distinctly.
func (p *Profile) Save() ([]byte, error) {
	if p == nil || p.h == nil {
		return nil, errors.New("lcms: save on closed profile")
	}
	var size C.cmsUInt32Number
	if C.cmsSaveProfileToMem(C.cmsHPROFILE(p.h), nil, &size) == 0 {
		return nil, errors.New("lcms: profile size query failed")
	}
	if size == 0 {
		return nil, errors.New("lcms: profile serializes to zero bytes")
	}
	buf := make([]byte, int(size))
	if C.cmsSaveProfileToMem(C.cmsHPROFILE(p.h), unsafe.Pointer(&buf[0]), &size) == 0 {
		return nil, errors.New("lcms: profile data fill failed")
	}
	return buf[:int(size)], nil
}

// Transform wraps a cmsHTRANSFORM. A Transform is only valid while both
// profiles it was built from remain open, and is not safe for concurrent use.
type Transform struct {
	h   unsafe.Pointer // cmsHTRANSFORM
	ctx *Context

	srcFormat PixelFormat
	dstFormat PixelFormat
}

func (c *Context) NewTransform(src, dst *Profile, srcFmt, dstFmt PixelFormat, intent Intent, flags Flags) (*Transform, error) {
	if src == nil || src.h == nil || dst == nil || dst.h == nil {
		return nil, errors.New("lcms: transform requires two open profiles")
	}
	c.clearError()
	h := C.cmsCreateTransformTHR(C.cmsContext(c.ctx),
		C.cmsHPROFILE(src.h), C.cmsUInt32Number(srcFmt),
		C.cmsHPROFILE(dst.h), C.cmsUInt32Number(dstFmt),
		C.cmsUInt32Number(intent), C.cmsUInt32Number(flags))
	if h == nil {
		return nil, fmt.Errorf("lcms: create transform: %w", c.takeErrorOr("transform rejected"))
	}
	return &Transform{h: unsafe.Pointer(h), ctx: c, srcFormat: srcFmt, dstFormat: dstFmt}, nil
}

// Close releases the transform. Idempotent and nil-safe.
func (t *Transform) Close() {
	if t == nil || t.h == nil {
		return
	}
	C.cmsDeleteTransform(C.cmsHTRANSFORM(t.h))
	t.h = nil
}

// Apply16 runs the transform over pixels 16-bit samples. src and dst must be
// dense row-major buffers sized pixels * channels for their formats. Failure
// is reported through the context's error handler, not a return code, so the
// context's pending error is checked after the call.
func (t *Transform) Apply16(src, dst []uint16, pixels int) error {
	if t == nil || t.h == nil {
		return errors.New("lcms: apply on closed transform")
	}
	if want := pixels * t.srcFormat.Channels(); len(src) < want {
		return fmt.Errorf("lcms: source buffer holds %d samples, need %d", len(src), want)
	}
	if want := pixels * t.dstFormat.Channels(); len(dst) < want {
		return fmt.Errorf("lcms: destination buffer holds %d samples, need %d", len(dst), want)
	}
	t.ctx.clearError()
	C.cmsDoTransform(C.cmsHTRANSFORM(t.h), unsafe.Pointer(&src[0]), unsafe.Pointer(&dst[0]), C.cmsUInt32Number(pixels))
	return t.ctx.TakeError()
}

// Apply16To8 runs a transform whose destination format has 8-bit samples
// (used for soft-proof previews).
func (t *Transform) Apply16To8(src []uint16, dst []uint8, pixels int) error {
	if t == nil || t.h == nil {
		return errors.New("lcms: apply on closed transform")
	}
	if want := pixels * t.srcFormat.Channels(); len(src) < want {
		return fmt.Errorf("lcms: source buffer holds %d samples, need %d", len(src), want)
	}
	if want := pixels * t.dstFormat.Channels(); len(dst) < want {
		return fmt.Errorf("lcms: destination buffer holds %d samples, need %d", len(dst), want)
	}
	t.ctx.clearError()
	C.cmsDoTransform(C.cmsHTRANSFORM(t.h), unsafe.Pointer(&src[0]), unsafe.Pointer(&dst[0]), C.cmsUInt32Number(pixels))
	return t.ctx.TakeError()
}
