//go:build !windows

package commands

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// stopProcess signals the server process: SIGTERM for a graceful stop,
// SIGKILL when force is set.
func stopProcess(process *os.Process, pid int, force bool) error {
	sig := syscall.SIGTERM
	name := "SIGTERM"
	if force {
		sig = syscall.SIGKILL
		name = "SIGKILL"
	}

	fmt.Printf("Sending %s to process %d...\n", name, pid)

	switch err := process.Signal(sig); {
	case errors.Is(err, os.ErrProcessDone):
		return errProcessDone
	case err != nil:
		return fmt.Errorf("failed to send signal: %w", err)
	}
	return nil
}
