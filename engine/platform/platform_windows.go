//go:build windows && !headless

package platform

import "unsafe"

// NativeHandle returns the HWND of the window, or 0 without one.
func (p *Platform) NativeHandle() uintptr {
	if p.Window == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(p.Window.GetWin32Window()))
}
