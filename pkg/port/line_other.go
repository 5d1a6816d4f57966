//go:build !linux

package port

import "os"

// setLineSpeed is a no-op where termios speed flags are not wired up.
func setLineSpeed(f *os.File, baud int) error {
	return nil
}
