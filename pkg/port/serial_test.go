package port

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"retrochat/pkg/config"

	"github.com/creack/pty"
)

func TestOpenSerial_MissingDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyNOPE")

	_, err := OpenSerial(path, 9600, 100*time.Millisecond)
	if err == nil {
		t.Fatal("Expected error for missing device")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("Expected device path in error, got %q", err.Error())
	}
}

func TestOpen_SerialModeMissingDevice(t *testing.T) {
	cfg := config.Default().Serial
	cfg.Port = filepath.Join(t.TempDir(), "ttyNOPE")

	if _, err := Open(cfg); err == nil {
		t.Fatal("Expected error for missing device")
	}
}

func TestSerialPort_OverPTY(t *testing.T) {
	master, slave, err := pty.Open()
	if err != nil {
		if ptyUnavailable(err) {
			t.Skipf("PTY unavailable: %v", err)
		}
		t.Fatalf("pty.Open() failed: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	s, err := OpenSerial(slave.Name(), 9600, 50*time.Millisecond)
	if err != nil {
		t.Skipf("serial driver rejected %s: %v", slave.Name(), err)
	}
	defer s.Close()

	if s.Name() != slave.Name() {
		t.Errorf("Expected Name() %q, got %q", slave.Name(), s.Name())
	}

	n, err := s.Read(make([]byte, 8))
	if err != nil || n != 0 {
		t.Fatalf("Expected timeout read (0, nil), got (%d, %v)", n, err)
	}

	if _, err := master.Write([]byte("ping\r")); err != nil {
		t.Fatalf("master Write() failed: %v", err)
	}
	got := readUntil(t, s, 5, 2*time.Second)
	if string(got) != "ping\r" {
		t.Fatalf("Expected %q, got %q", "ping\r", got)
	}
}
