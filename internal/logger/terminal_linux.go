//go:build linux

package logger

import (
	"os"
	"syscall"
	"unsafe"
)

// tcgets reads terminal attributes. The ioctl fails with ENOTTY on pipes
// and regular files.
const tcgets = 0x5401

func isTerminal(f *os.File) bool {
	var tio syscall.Termios
	_, _, errno := syscall.Syscall6(
		syscall.SYS_IOCTL, f.Fd(), tcgets,
		uintptr(unsafe.Pointer(&tio)), 0, 0, 0,
	)
	return errno == 0
}
