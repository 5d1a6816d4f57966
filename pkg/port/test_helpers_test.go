package port

import (
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"
)

func requirePTY(t *testing.T, link string, baud int) *PTYPort {
	t.Helper()
	p, err := OpenPTY(link, baud, 50*time.Millisecond)
	if err != nil {
		if ptyUnavailable(err) {
			t.Skipf("PTY unavailable: %v", err)
		}
		t.Fatalf("OpenPTY() failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func ptyUnavailable(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "ptmx") && !strings.Contains(msg, "pty") {
		return false
	}

	if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.ENODEV) {
		return true
	}
	if errors.Is(err, syscall.ENOENT) && strings.Contains(msg, "ptmx") {
		return true
	}
	return strings.Contains(msg, "permission denied") || strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "no such device") || strings.Contains(msg, "not supported")
}

// readUntil polls r until want bytes arrived or the deadline passes.
func readUntil(t *testing.T, r interface{ Read([]byte) (int, error) }, want int, within time.Duration) []byte {
	t.Helper()
	deadline := time.Now().Add(within)
	var got []byte
	buf := make([]byte, 64)
	for len(got) < want && time.Now().Before(deadline) {
		n, err := r.Read(buf)
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	return got
}
