//go:build !windows

package commands

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// isProcessRunning reports whether the process recorded in pidPath is still
// alive, and returns its PID when it is. A missing, malformed, or stale PID
// file counts as not running.
func isProcessRunning(pidPath string) (int, bool) {
	pid, err := readPidFile(pidPath)
	if err != nil {
		return 0, false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}

	// Signal 0 probes for existence without delivering anything.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}

	return pid, true
}

// startDaemon re-execs the current binary with --foreground and detaches it
// from the terminal session, leaving a PID file behind for stop and status.
func startDaemon() error {
	if err := os.MkdirAll(GetDefaultStateDir(), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	logPath := logFile
	if logPath == "" {
		logPath = GetDefaultLogFile()
	}

	if pid, running := isProcessRunning(pidPath); running {
		return fmt.Errorf("NestFS is already running (PID %d)\nUse 'nestfs stop' to stop the running instance", pid)
	}
	_ = os.Remove(pidPath)

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"start", "--foreground", "--pid-file", pidPath}
	if GetConfigFile() != "" {
		args = append(args, "--config", GetConfigFile())
	}

	logOut, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logOut.Close()

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logOut
	cmd.Stderr = logOut
	// A fresh session keeps the daemon alive after the terminal goes away.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("NestFS started in background (PID %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Println("\nUse 'nestfs stop' to stop the server")
	fmt.Println("Use 'nestfsctl status' to check server status")

	return nil
}
