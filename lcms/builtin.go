//go:build cgo
// +build cgo

package lcms

/*
#include <lcms2.h>
*/
import "C"

import (
	"errors"
	"unsafe"
)

// NewSRGBProfile builds the library's built-in sRGB profile. Used by tests
// and by -describe; real conversions load profiles from disk.
func (c *Context) NewSRGBProfile() (*Profile, error) {
	h := C.cmsCreate_sRGBProfileTHR(C.cmsContext(c.ctx))
	if h == nil {
		return nil, errors.New("lcms: create sRGB profile failed")
	}
	return &Profile{h: unsafe.Pointer(h)}, nil
}

// NewLabProfile builds a D50 Lab v4 profile.
func (c *Context) NewLabProfile() (*Profile, error) {
	h := C.cmsCreateLab4ProfileTHR(C.cmsContext(c.ctx), nil)
	if h == nil {
		return nil, errors.New("lcms: create Lab profile failed")
	}
	return &Profile{h: unsafe.Pointer(h)}, nil
}
