//go:build windows

package main

import "syscall"

const utf8CodePage = 65001

func init() {
	// titles and transcripts are UTF-8 in both directions
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	for _, name := range []string{"SetConsoleOutputCP", "SetConsoleCP"} {
		_, _, _ = kernel32.NewProc(name).Call(uintptr(utf8CodePage))
	}
}
