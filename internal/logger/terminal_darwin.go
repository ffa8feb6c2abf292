//go:build darwin

package logger

import (
	"os"
	"syscall"
	"unsafe"
)

func isTerminal(f *os.File) bool {
	var tio syscall.Termios
	_, _, errno := syscall.Syscall6(
		syscall.SYS_IOCTL, f.Fd(), syscall.TIOCGETA,
		uintptr(unsafe.Pointer(&tio)), 0, 0, 0,
	)
	return errno == 0
}
