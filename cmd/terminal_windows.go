//go:build windows

package cmd

import (
	"syscall"
	"unsafe"
)

var procGetConsoleScreenBufferInfo = syscall.NewLazyDLL("kernel32.dll").NewProc("GetConsoleScreenBufferInfo")

type consoleInfo struct {
	Size                     [2]int16
	CursorPosition           [2]int16
	Attributes               uint16
	Left, Top, Right, Bottom int16
	MaximumWindowSize        [2]int16
}

// getTerminalSize returns the visible console window, or zeros when the
// console cannot be queried.
func getTerminalSize() (int, int) {
	if c, r, ok := sizeFromEnv(); ok {
		return c, r
	}

	var info consoleInfo
	ret, _, _ := procGetConsoleScreenBufferInfo.Call(uintptr(syscall.Stdout), uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0, 0
	}
	w := int(info.Right-info.Left) + 1
	h := int(info.Bottom-info.Top) + 1
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return w, h
}
