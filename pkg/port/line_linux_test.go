//go:build linux

package port

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestOpenPTY_SetsLineSpeed(t *testing.T) {
	p := requirePTY(t, "", 1200)

	speed, err := lineSpeed(p.slave)
	if err != nil {
		t.Fatalf("lineSpeed() failed: %v", err)
	}
	if speed != unix.B1200 {
		t.Errorf("Expected B1200 (0x%x), got 0x%x", unix.B1200, speed)
	}
}

func TestSetLineSpeed_Unsupported(t *testing.T) {
	p := requirePTY(t, "", 9600)

	if err := setLineSpeed(p.slave, 12345); err == nil {
		t.Error("Expected error for unsupported baud rate")
	}
}
