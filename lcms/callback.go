//go:build cgo
// +build cgo

package lcms

/*
#include <lcms2.h>
*/
import "C"

//export goLcmsErrorHandler
func goLcmsErrorHandler(id C.cmsContext, code C.cmsUInt32Number, text *C.char) {
	token := uintptr(C.cmsGetContextUserData(id))

	registryMu.Lock()
	c := registry[token]
	registryMu.Unlock()
	if c == nil {
		return
	}

	msg := "unknown error"
	if text != nil {
		msg = C.GoString(text)
	}
	c.note(uint32(code), msg)
}
