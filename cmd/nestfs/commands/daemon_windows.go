//go:build windows

package commands

import "errors"

// startDaemon has no Windows implementation; run the server with --foreground
// under a service manager instead.
func startDaemon() error {
	return errors.New("daemon mode is not supported on Windows, use --foreground")
}
